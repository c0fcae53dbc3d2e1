package cmd

import (
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the scheduler and Telegram poller without the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(false)
	},
}
