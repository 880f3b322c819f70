package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeanpaul/dontforget/internal/headless"
)

var (
	remindQuiet  bool
	remindRender bool
)

var remindCmd = &cobra.Command{
	Use:   "remind <question...>",
	Short: "Ask about your notes",
	Long: `Remind asks the model a question. It may search your notes and, when
you ask it to, delete them. Tool activity is printed to stderr.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		return headless.Run(cmd.Context(), a.agent, strings.Join(args, " "), headless.Options{
			Out:    cmd.OutOrStdout(),
			Err:    cmd.ErrOrStderr(),
			Quiet:  remindQuiet,
			Render: remindRender,
		})
	},
}

func init() {
	remindCmd.Flags().BoolVarP(&remindQuiet, "quiet", "q", false, "hide tool activity")
	remindCmd.Flags().BoolVar(&remindRender, "render", false, "render the answer as markdown")
	rootCmd.AddCommand(remindCmd)
}
