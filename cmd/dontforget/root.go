package main

import (
	"github.com/spf13/cobra"
)

var (
	configFile string
	dotEnvFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "dontforget",
	Short: "A personal memory you can talk to",
	Long: `DontForget stores short notes and answers questions about them.
A language model searches your notes with read-only SQL and can forget
notes when you ask it to.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: search ./config.yaml, ~/.config/dontforget)")
	rootCmd.PersistentFlags().StringVar(&dotEnvFile, "env-file", "", `dotenv file to load, "-" to skip (default ".env")`)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}
