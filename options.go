package nasc

import (
	"go.uber.org/zap"

	"github.com/toutaio/toutago-nasc-resolver/config"
)

// Option is a function that configures a Nasc container.
type Option func(*Nasc) error

// WithLogger sets the logger used for container diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Nasc) error {
		if logger == nil {
			logger = zap.NewNop()
		}
		n.logger = logger
		return nil
	}
}

// WithDebug enables debug logging of registrations, scopes and resolution
// failures through a development logger.
func WithDebug() Option {
	return func(n *Nasc) error {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		n.logger = logger.Named("nasc")
		return nil
	}
}

// WithValidation makes Boot validate every binding before booting modules.
func WithValidation() Option {
	return func(n *Nasc) error {
		n.validateOnBoot = true
		return nil
	}
}

// WithConfig configures the container from loaded settings.
//
// Example:
//
//	container := nasc.New(nasc.WithConfig(config.Load()))
func WithConfig(cfg *config.Config) Option {
	return func(n *Nasc) error {
		if cfg == nil {
			return nil
		}
		logger, err := cfg.NewLogger()
		if err != nil {
			return err
		}
		n.logger = logger.Named("nasc")
		if !cfg.IsProduction() {
			n.validateOnBoot = true
		}
		return nil
	}
}
