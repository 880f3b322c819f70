package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var rememberCmd = &cobra.Command{
	Use:   "remember <text...>",
	Short: "Store a note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		note, err := a.memory.Remember(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved #%d [%s] tags: %s\n", note.ID, note.Intent, note.Tags)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rememberCmd)
}
