// Package main provides the entry point for the cracker CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/config"
	"github.com/dgnsrekt/cracker/internal/tts/engines"
	"github.com/dgnsrekt/cracker/internal/ttypes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	trace      bool
	noCache    bool

	// cfg is filled in by loadConfig before any command runs.
	cfg config.Config

	rootCmd = &cobra.Command{
		Use:   "cracker [FILE|-]",
		Short: "Read text aloud, one chunk at a time",
		Long: paragraph(
			fmt.Sprintf("\nRead text aloud %s. Long documents are split into chunks that are synthesized in parallel and played in order.", keyword("while it is still being synthesized")),
		),
		Example:          paragraph("cracker notes.md\ncat article.txt | cracker\ncracker --clipboard --rate 4\ncracker tui"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(cmd)
		},
		RunE: execute,
	}
)

// resolveConfigFile locates the config file and reads it into viper.
func resolveConfigFile() error {
	path, err := config.ReadInConfig(viper.GetViper(), configFile)
	if path != "" {
		configFile = path
	}
	return err //nolint:wrapcheck
}

func loadConfig(cmd *cobra.Command) error {
	if debug {
		enableDebugOutput()
	}

	if err := config.LoadEnvFile(".env"); err != nil {
		log.Warn("Could not load .env", "err", err)
	}
	if dirs, err := config.Dirs(); err == nil {
		if err := config.LoadEnvFile(filepath.Join(dirs[0], ".env")); err != nil {
			log.Warn("Could not load .env", "err", err)
		}
	}

	if err := resolveConfigFile(); err != nil {
		return err
	}
	if viper.ConfigFileUsed() == "" {
		if err := config.EnsureFile(configFile); err != nil {
			log.Error("Could not create default configuration", "error", err)
		}
	}

	var err error
	cfg, err = config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("invalid configuration in %s: %w", configFile, err)
	}
	if cmd.Flags().Changed("speaker") && !cmd.Flags().Changed("voice") && !cmd.Flags().Changed("language") {
		// The configured voice belongs to another engine.
		cfg.Voice.VoiceID = ""
		cfg.Voice.LanguageID = defaultLanguage(cfg.Engine(), cfg.Voice.LanguageID)
	}
	trace = trace || cfg.Telemetry.Trace
	log.Debug("Configuration loaded", "file", configFile, "voice", cfg.Voice.String())
	return nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !clipboardInput {
		// if stdin is a pipe then read it. note that you can also
		// explicitly use a - to read from stdin.
		yes, err := stdinIsPipe()
		if err != nil {
			return err
		}
		if !yes {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("nothing to read: pass a file, pipe text in, or use --clipboard")
			}
			return runTUI(cmd.Context())
		}
		args = []string{"-"}
	}
	return runSpeak(cmd, args)
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default is cracker.yml in the user config directory)")
	pf.BoolVar(&debug, "debug", false, "also write the log to stderr")
	pf.BoolVar(&trace, "trace", false, "print session and chunk spans to stderr")
	pf.BoolVar(&noCache, "no-cache", false, "synthesize again even if the text was read before")
	pf.String("speaker", "", fmt.Sprintf("speech backend (%s)", engineNames()))
	pf.String("language", "", "voice language")
	pf.String("voice", "", "voice name")
	pf.Int("rate", 0, "speaking rate from 1 to 5")
	pf.Int("volume", 0, "volume from 0 to 100")

	addSpeakFlags(rootCmd)

	// Config bindings
	for _, name := range []string{"speaker", "language", "voice", "rate", "volume"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}

	rootCmd.AddCommand(speakCmd, tuiCmd, voicesCmd, cacheCmd, configCmd, manCmd)
}

func engineNames() string {
	return strings.Join(engineNamesList(), ", ")
}

// defaultLanguage keeps language if engine offers it and falls back to the
// engine's first language otherwise.
func defaultLanguage(engine ttypes.EngineType, language string) string {
	langs := engines.Languages(engine)
	if len(langs) == 0 || slices.Contains(langs, language) {
		return language
	}
	return langs[0]
}
