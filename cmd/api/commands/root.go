package commands

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "course-api",
	Short: "Gated course platform backend",
	Long: `course-api serves the course platform: passwordless OTP login for
allow-listed customers, chapter progress tracking with tag-based cache
invalidation, the public course catalog, and the newsletter lead magnet.

It also manages the purchase allow-list from the command line.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found, reading from environment")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Called once from main.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}
