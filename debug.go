package nasc

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/toutaio/toutago-nasc-resolver/intercept"
)

// BindingInfo describes one registered binding.
type BindingInfo struct {
	Identity     string
	Name         string
	Lifetime     Lifetime
	Producer     string
	OpenGeneric  bool
	Interceptors int
}

// Bindings returns every registered binding ordered by identity then name.
func (n *Nasc) Bindings() []BindingInfo {
	keys := n.registry.Keys()
	infos := make([]BindingInfo, 0, len(keys))

	for _, key := range keys {
		b, ok := n.registry.Get(key)
		if !ok {
			continue
		}
		info := BindingInfo{
			Identity:    key.Type,
			Name:        key.Name,
			Lifetime:    Lifetime(b.Lifetime),
			Producer:    b.Description,
			OpenGeneric: b.OpenGeneric,
		}
		if v, ok := n.interceptors.Load(key.Type); ok {
			info.Interceptors = v.(*intercept.Chain).Len()
		}
		infos = append(infos, info)
	}
	return infos
}

// PrintBindings writes the binding table to stdout.
func (n *Nasc) PrintBindings() {
	n.FprintBindings(os.Stdout)
}

// FprintBindings writes the binding table to w.
func (n *Nasc) FprintBindings(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Identity", "Name", "Lifetime", "Producer", "Interceptors"})

	for _, info := range n.Bindings() {
		name := info.Name
		if name == "" {
			name = "(default)"
		}
		lifetime := info.Lifetime.String()
		if info.OpenGeneric {
			lifetime = "open generic"
		}
		t.AppendRow(table.Row{info.Identity, name, lifetime, info.Producer, info.Interceptors})
	}

	t.Render()
}
