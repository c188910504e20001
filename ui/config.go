package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Text placed in the editor at startup
	Text string

	// Where voice changes are saved; empty disables saving
	ConfigPath string

	EnableMouse bool

	ShowHelp    bool   `env:"CRACKER_SHOW_HELP"    envDefault:"false"`
	AccentColor string `env:"CRACKER_ACCENT_COLOR" envDefault:"#04B575"`
	CharLimit   int    `env:"CRACKER_CHAR_LIMIT"   envDefault:"0"`
}
