// Package cli provides the command-line interface for pokepalette.
package cli

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/pokepalette/internal/config"
	"github.com/jmylchreest/pokepalette/internal/version"
)

// app carries state shared by the subcommands once flags are parsed.
type app struct {
	cfg    *config.Config
	logger hclog.Logger

	configPath string
	verbose    bool
	quiet      bool
}

// NewRootCmd builds the command tree. Each call returns an independent tree.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: config.New(), logger: hclog.NewNullLogger()}

	rootCmd := &cobra.Command{
		Use:   "pokepalette",
		Short: "Extract curated colour palettes from Pokémon sprites",
		Long: `pokepalette extracts small, visually diverse colour palettes from pixel-art
sprites. Transparent backgrounds and dark outlines are ignored, near-identical
shades are collapsed, and the most representative colours lead.

Per-sprite special cases are read from the special_cases table of the config
file (pokepalette.yaml in the user config directory or the working directory).`,
		Version:           version.Short(),
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: pokepalette.yaml)")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newExtractCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newRulesCmd(a))

	return rootCmd
}

// setup loads configuration and builds the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if a.verbose && a.quiet {
		return fmt.Errorf("--verbose and --quiet are mutually exclusive")
	}

	if err := a.cfg.Load(a.configPath); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	a.logger = newLogger(cmd.ErrOrStderr(), a.level())
	if file := a.cfg.File(); file != "" {
		a.logger.Debug("loaded config", "file", file)
	}
	return nil
}

func (a *app) level() hclog.Level {
	switch {
	case a.verbose:
		return hclog.Debug
	case a.quiet:
		return hclog.Error
	default:
		return a.cfg.LogLevel()
	}
}

func newLogger(w io.Writer, level hclog.Level) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "pokepalette",
		Output: w,
		Level:  level,
	})
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
