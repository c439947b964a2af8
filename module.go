package nasc

import (
	"fmt"
	"reflect"
)

// Module batches registrations. Apply issues its own Register calls; the
// container does not inspect what a module registers.
//
// Example:
//
//	type LoggingModule struct{}
//
//	func (LoggingModule) Apply(container *nasc.Nasc) error {
//	    return container.Singleton((*Logger)(nil), &ConsoleLogger{})
//	}
type Module interface {
	Apply(container *Nasc) error
}

// ModuleFunc adapts a function to the Module interface.
type ModuleFunc func(container *Nasc) error

// Apply implements Module.
func (f ModuleFunc) Apply(container *Nasc) error {
	return f(container)
}

// BootableModule is an optional interface for modules that need a boot phase.
// Boot is called by Nasc.Boot after all modules have been installed.
//
// Example:
//
//	type DatabaseModule struct{}
//
//	func (DatabaseModule) Apply(container *nasc.Nasc) error {
//	    return container.Singleton((*Database)(nil), &PostgresDB{})
//	}
//
//	func (DatabaseModule) Boot(container *nasc.Nasc) error {
//	    db := container.Make((*Database)(nil)).(Database)
//	    return db.Connect()
//	}
type BootableModule interface {
	Module
	Boot(container *Nasc) error
}

// ConditionalModule is an optional interface for modules that are installed
// only when ShouldApply returns true.
type ConditionalModule interface {
	Module
	ShouldApply(container *Nasc) bool
}

// moduleEntry tracks an installed module.
type moduleEntry struct {
	module Module
	booted bool
}

// Install applies modules in order. A comparable module already installed
// is skipped; ConditionalModules that decline are skipped.
//
// Example:
//
//	container.Install(LoggingModule{}, DatabaseModule{})
//	container.Boot()
func (n *Nasc) Install(modules ...Module) error {
	for _, m := range modules {
		if m == nil {
			return fmt.Errorf("module cannot be nil")
		}

		if conditional, ok := m.(ConditionalModule); ok && !conditional.ShouldApply(n) {
			continue
		}

		if n.installed(m) {
			continue
		}

		if err := m.Apply(n); err != nil {
			return fmt.Errorf("module %T: %w", m, err)
		}

		n.mu.Lock()
		n.modules = append(n.modules, &moduleEntry{module: m})
		n.mu.Unlock()
	}
	return nil
}

func (n *Nasc) installed(m Module) bool {
	if !reflect.TypeOf(m).Comparable() {
		return false
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	for _, entry := range n.modules {
		if entry.module == m {
			return true
		}
	}
	return false
}

// Boot calls Boot on every installed BootableModule that has not been
// booted yet, in installation order. With WithValidation, bindings are
// validated first.
func (n *Nasc) Boot() error {
	if n.validateOnBoot {
		if err := n.Validate(); err != nil {
			return err
		}
	}

	n.mu.Lock()
	entries := make([]*moduleEntry, len(n.modules))
	copy(entries, n.modules)
	n.mu.Unlock()

	for _, entry := range entries {
		if entry.booted {
			continue
		}
		if bootable, ok := entry.module.(BootableModule); ok {
			if err := bootable.Boot(n); err != nil {
				return fmt.Errorf("module %T boot failed: %w", entry.module, err)
			}
		}
		entry.booted = true
	}
	return nil
}

// Modules returns the installed modules in installation order.
func (n *Nasc) Modules() []Module {
	n.mu.Lock()
	defer n.mu.Unlock()

	modules := make([]Module, len(n.modules))
	for i, entry := range n.modules {
		modules[i] = entry.module
	}
	return modules
}
