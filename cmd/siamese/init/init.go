// Package initcmder provides the init command for initializing a local
// .siamese directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/siamese/pkg/cliui"
	"github.com/papercomputeco/siamese/pkg/config"
)

const dirName = ".siamese"

const initLongDesc string = `Initialize a new .siamese/ directory in the current working directory.

Creates a local .siamese/ directory that takes precedence over ~/.siamese/
for configuration and run history. When --preset is given, a config.toml
pointing at that dataset replaces any existing config.toml; otherwise a
default config.toml is written if none exists.

Presets: sick, quora

Examples:
  siamese init
  siamese init --preset quora`

const initShortDesc string = "Initialize a local .siamese/ directory"

type initCommander struct {
	preset string
	out    io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			return cmder.run()
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "", "Write a config.toml for a dataset ("+strings.Join(config.ValidPresetNames(), ", ")+")")

	return cmd
}

func (c *initCommander) run() error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	switch {
	case err == nil && info.IsDir():
		fmt.Fprintf(c.out, "Already initialized: %s\n", dir)
	default:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .siamese directory: %w", err)
		}
		fmt.Fprintf(c.out, "Initialized .siamese directory: %s\n", dir)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg := config.NewDefaultConfig()
	if c.preset != "" {
		cfg, err = config.PresetConfig(c.preset)
		if err != nil {
			return err
		}
	} else if _, err := os.Stat(cfger.GetTarget()); err == nil {
		return nil
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s Wrote %s\n", cliui.SuccessMark, cfger.GetTarget())
	return nil
}
