// Package cmd wires the admissiond command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aryangodara/client_rate_limiter/internal/config"
)

// options is shared by every subcommand. cfg is filled in before a subcommand runs.
type options struct {
	cfgFile string
	verbose bool

	v   *viper.Viper
	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{v: config.NewViper()}

	rootCmd := &cobra.Command{
		Use:   "admissiond",
		Short: "Per-client HTTP admission control",
		Long: `admissiond admits or rejects requests per client using one of four
rate limiting algorithms: fixed_window, sliding_window, token_bucket or leaky_bucket.`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return opts.loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newServeCmd(opts), newCheckCmd(opts))
	return rootCmd
}

func (o *options) loadConfig() error {
	if o.verbose {
		o.v.Set("logging.level", "debug")
	}

	cfg, err := config.Load(o.v, o.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	o.cfg = cfg
	return nil
}

// Execute runs the root command. It is called by main.main().
func Execute() error {
	return newRootCmd().Execute()
}
