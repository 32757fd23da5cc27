package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/plexdigest/internal/controllers"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var opts controllers.RunOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build and send the digest once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(!opts.DryRun)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			digest, err := a.digest.Run(ctx, opts)
			if err != nil {
				return err
			}

			a.logger.WithFields(logrus.Fields{
				"movies":           digest.MovieCount,
				"movies_not_found": digest.MoviesNotFound,
				"shows":            digest.ShowCount,
				"shows_not_found":  digest.ShowsNotFound,
			}).Info("Done")
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "render the digest without sending mail")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "write the rendered HTML to this file (dry run)")
	cmd.Flags().IntVar(&opts.Days, "days", 0, "override DIGEST_DAYS for this run")
	return cmd
}
