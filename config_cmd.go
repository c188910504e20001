package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/editor"
	"github.com/dgnsrekt/cracker/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the cracker config file",
	Long:    paragraph(fmt.Sprintf("\n%s the cracker config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("cracker config\ncracker config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	// A broken config file must still be editable.
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if debug {
			enableDebugOutput()
		}
		if err := resolveConfigFile(); err != nil {
			if configFile == "" {
				return err
			}
			log.Warn("Config file has errors", "path", configFile, "err", err)
		}
		return nil
	},
	RunE: func(*cobra.Command, []string) error {
		if err := config.EnsureFile(configFile); err != nil {
			return err //nolint:wrapcheck
		}

		c, err := editor.Cmd("Cracker", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}
