package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Togather-Foundation/mozdef-proxy/internal/loadtest"
)

func main() {
	var (
		baseURL      string
		profile      string
		rps          int
		duration     time.Duration
		workers      int
		invalidRatio float64
	)

	cmd := &cobra.Command{
		Use:   "loadtest",
		Short: "Send synthetic security events to a running mozdef-proxy",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, ok := loadtest.LoadProfiles[loadtest.LoadProfile(profile)]
			if !ok {
				return fmt.Errorf("unknown profile: %s", profile)
			}
			if rps > 0 {
				cfg.RequestsPerSecond = rps
			}
			if duration > 0 {
				cfg.Duration = duration
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("invalid-ratio") {
				cfg.InvalidRatio = invalidRatio
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Running %s: %d req/s for %s with %d workers\n\n",
				profile, cfg.RequestsPerSecond, cfg.Duration, cfg.Workers)

			stats, err := loadtest.NewLoadTester(baseURL).RunCustom(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), stats.Report())
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "base URL of the proxy")
	cmd.Flags().StringVar(&profile, "profile", "light", "load profile: light, medium, heavy, stress")
	cmd.Flags().IntVar(&rps, "rps", 0, "requests per second (overrides profile)")
	cmd.Flags().DurationVar(&duration, "duration", 0, "test duration (overrides profile)")
	cmd.Flags().IntVar(&workers, "workers", 0, "concurrent senders (overrides profile)")
	cmd.Flags().Float64Var(&invalidRatio, "invalid-ratio", 0, "share of deliberately invalid events, 0.0-1.0")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
