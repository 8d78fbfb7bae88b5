package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFetchCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Run one price cycle and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd.Context(), *cfgPath)
			if err != nil {
				return err
			}
			defer a.close()

			sched, err := a.newScheduler(cmd.Context(), false)
			if err != nil {
				return err
			}
			res, err := sched.RunNow()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cycle %s: stored=%d missing=%d failed=%d in %s\n",
				res.ID, res.Stored, res.Skipped, res.Failed, res.Duration)
			if !res.OK {
				return fmt.Errorf("price cycle failed: %w", res.Err)
			}
			return nil
		},
	}
}
