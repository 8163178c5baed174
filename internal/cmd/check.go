package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aryangodara/client_rate_limiter"
	"github.com/aryangodara/client_rate_limiter/rate_limiting_strategies"
)

func newCheckCmd(opts *options) *cobra.Command {
	var (
		requests int
		client   string
	)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run a burst of checks against the configured limiter",
		Long: `Run a burst of admission checks for one client against the configured
algorithm and print how many were admitted.`,
		Example: `  admissiond check --config admission.yaml --requests 20`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if requests <= 0 {
				return errors.New("--requests must be positive")
			}

			admission := opts.cfg.Limiter.Admission()
			limiter, err := rate_limiting_strategies.New(admission, time.Now)
			if err != nil {
				return err
			}

			admitted := 0
			for i := 0; i < requests; i++ {
				if limiter.Check(client) == client_rate_limiter.Allow {
					admitted++
				}
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%v: admitted %d of %d requests (interval %v, limit %d)\n",
				admission.Algorithm, admitted, requests, admission.Interval, admission.Limit)
			return err
		},
	}

	checkCmd.Flags().IntVarP(&requests, "requests", "n", 10, "number of requests in the burst")
	checkCmd.Flags().StringVar(&client, "client", "127.0.0.1", "client key to check")
	return checkCmd
}
