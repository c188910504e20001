package main

import (
	"fmt"

	"github.com/dgnsrekt/cracker/internal/cache"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the audio cache",
		Args:  cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show how much audio is cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("unable to read cache stats: %w", err)
			}
			printStats(cmd, cfg.Cache.Dir, stats)
			return nil
		},
	}

	cachePathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cfg.Cache.Dir)
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached artifact and index entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openCache(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := c.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("unable to clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cleared", cfg.Cache.Dir)
			return nil
		},
	}
)

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cachePathCmd, cacheClearCmd)
}

func printStats(cmd *cobra.Command, dir string, stats cache.Stats) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s\n", heading("Directory:"), dir)
	fmt.Fprintf(w, "%s %s\n", heading("Entries:  "), humanize.Comma(stats.Entries))
	fmt.Fprintf(w, "%s %s\n", heading("Artifacts:"), humanize.Comma(stats.Artifacts))
	fmt.Fprintf(w, "%s %s\n", heading("Size:     "), humanize.Bytes(uint64(stats.DiskBytes))) //nolint:gosec
}
