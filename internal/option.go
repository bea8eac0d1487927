package internal

import "github.com/halvard/muninn/internal/clipboard"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	brainRoot string
	source    clipboard.Source
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithBrainRoot sets the brain directory the daemon operates on.
func WithBrainRoot(root string) Option {
	return func(a *application) {
		a.brainRoot = root
	}
}

// WithClipboardSource overrides the system clipboard, for tests.
func WithClipboardSource(src clipboard.Source) Option {
	return func(a *application) {
		a.source = src
	}
}
