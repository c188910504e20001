package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dgnsrekt/cracker/internal/tts/engines"
	"github.com/dgnsrekt/cracker/internal/ttypes"
	"github.com/spf13/cobra"
)

var (
	checkEngines bool

	voicesCmd = &cobra.Command{
		Use:       "voices [ENGINE]",
		Short:     "List the voices each speech backend offers",
		Long:      paragraph(fmt.Sprintf("\nList the languages and voices of every backend, or of %s. With --check, also report whether each backend is usable on this machine.", keyword("one backend"))),
		Example:   paragraph("cracker voices\ncracker voices polly\ncracker voices --check"),
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: engineNamesList(),
		RunE: func(cmd *cobra.Command, args []string) error {
			list := ttypes.Engines
			if len(args) == 1 {
				engine, err := ttypes.ParseEngineType(args[0])
				if err != nil {
					return err //nolint:wrapcheck
				}
				list = []ttypes.EngineType{engine}
			}

			w := cmd.OutOrStdout()
			for i, engine := range list {
				if i > 0 {
					fmt.Fprintln(w)
				}
				printVoices(w, engine, cfg.Engine() == engine, cfg.Voice)
				if checkEngines {
					printCheck(w, engines.Check(cmd.Context(), engine, cfg.Engines))
				}
			}
			return nil
		},
	}
)

func init() {
	voicesCmd.Flags().BoolVar(&checkEngines, "check", false, "check that each backend is installed and configured")
}

func engineNamesList() []string {
	names := make([]string, len(ttypes.Engines))
	for i, e := range ttypes.Engines {
		names[i] = string(e)
	}
	return names
}

// printVoices writes one line per language. The configured voice is marked
// when current is set.
func printVoices(w io.Writer, engine ttypes.EngineType, current bool, voice ttypes.VoiceConfig) {
	fmt.Fprintln(w, heading(string(engine)))

	langs := engines.Languages(engine)
	if len(langs) == 0 {
		fmt.Fprintln(w, faint("  any voice the server knows, set with --voice"))
		return
	}

	voices := engines.Voices(engine)
	for _, lang := range langs {
		names := voices[lang]
		sort.Strings(names)
		for i, name := range names {
			if current && lang == voice.LanguageID && name == voice.VoiceID {
				names[i] = keyword(name + "*")
			}
		}
		fmt.Fprintf(w, "  %-10s %s\n", lang, strings.Join(names, ", "))
	}
}

func printCheck(w io.Writer, result *engines.CheckResult) {
	if result.Available {
		details := make([]string, 0, len(result.Details))
		for k, v := range result.Details {
			details = append(details, k+"="+v)
		}
		sort.Strings(details)
		fmt.Fprintf(w, "  %s %s\n", keyword("available"), faint(strings.Join(details, " ")))
		return
	}
	fmt.Fprintf(w, "  %s %v\n", errorStyle("unavailable"), result.Err)
	if result.Guidance != "" {
		for _, line := range strings.Split(strings.TrimSpace(result.Guidance), "\n") {
			fmt.Fprintln(w, faint("    "+line))
		}
	}
}
