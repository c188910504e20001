package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/cracker/internal/config"
	"github.com/dgnsrekt/cracker/internal/tts/engines"
	"github.com/dgnsrekt/cracker/internal/ttypes"
	"github.com/dgnsrekt/cracker/ui"
	"github.com/spf13/cobra"
)

var (
	mouse bool

	tuiCmd = &cobra.Command{
		Use:     "tui [FILE]",
		Short:   "Edit text and read it aloud in a terminal UI",
		Long:    paragraph(fmt.Sprintf("\nOpen an editor to %s. Text can be typed, pasted, taken from the clipboard or loaded from a file.", keyword("read text aloud interactively"))),
		Example: paragraph("cracker tui\ncracker tui notes.md\ncracker tui --clipboard"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) > 0 || clipboardInput {
				src, err := readSource(args, os.Stdin)
				if err != nil {
					return err
				}
				text = prepareText(src, nil)
			}
			return runTUIWithText(cmd.Context(), text)
		},
	}
)

func init() {
	tuiCmd.Flags().BoolVarP(&clipboardInput, "clipboard", "c", false, "start with the clipboard contents")
	tuiCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")
}

func runTUI(ctx context.Context) error {
	return runTUIWithText(ctx, "")
}

func runTUIWithText(ctx context.Context, text string) error {
	if err := engines.ValidateVoice(cfg.Engine(), cfg.Voice); err != nil {
		return err //nolint:wrapcheck
	}

	// Read environment to get debugging stuff
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	uiCfg.Text = text
	uiCfg.ConfigPath = configFile
	uiCfg.EnableMouse = mouse

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("Shutdown incomplete", "err", err)
		}
	}()

	p := ui.NewProgram(uiCfg, a.pipeline, cfg.Voice,
		ui.WithParser(a.parser),
		ui.WithVoiceSaver(saveVoice(configFile)),
		ui.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

// saveVoice returns a function that writes voice changes back to path.
func saveVoice(path string) func(ttypes.VoiceConfig) error {
	if path == "" {
		return nil
	}
	return func(v ttypes.VoiceConfig) error {
		c := cfg
		c.Voice = v
		return config.Save(path, c) //nolint:wrapcheck
	}
}
