package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/dontforget/internal/health"
	"github.com/jeanpaul/dontforget/internal/store"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, store and model provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(out, "  ✗ config: %v\n", err)
			return err
		}
		fmt.Fprintln(out, "  ✓ config")

		failed := false
		st, err := store.Open(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(out, "  ✗ store %s: %v\n", cfg.DBPath, err)
			failed = true
		} else {
			n, err := st.Count(cmd.Context())
			st.Close()
			if err != nil {
				fmt.Fprintf(out, "  ✗ store %s: %v\n", cfg.DBPath, err)
				failed = true
			} else {
				fmt.Fprintf(out, "  ✓ store %s (%d notes)\n", cfg.DBPath, n)
			}
		}

		s := health.Check(cmd.Context(), cfg.Provider.Type, cfg.Provider.BaseURL, cfg.Provider.APIKey)
		if !s.Reachable {
			fmt.Fprintf(out, "  ✗ provider %s: %s\n", s.Provider, s.Error)
			failed = true
		} else if err := health.CheckModel(s, cfg.Provider.Model); err != nil {
			fmt.Fprintf(out, "  ✗ model: %v\n", err)
			failed = true
		} else {
			fmt.Fprintf(out, "  ✓ provider %s, model %s (%s)\n", s.Provider, cfg.Provider.Model, s.Latency.Round(time.Millisecond))
		}

		if cfg.Server.SecretKey == "" {
			fmt.Fprintln(out, "  ! no server secret set (DONTFORGET_SECRET_KEY), serve will refuse to start")
		}
		if failed {
			return fmt.Errorf("doctor found problems")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
