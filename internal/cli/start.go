package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gazekit/gazekit/internal/config"
	"github.com/gazekit/gazekit/pkg/notify"
	"github.com/gazekit/gazekit/pkg/remote"
)

var startSessionName string

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a recording session on a running daemon",
	Long: `Start a recording session by sending a start request to the remote
notification bridge of a running gazekit record daemon.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)
	startCmd.Flags().StringVar(&startSessionName, "session-name", "", "session name for the new recording")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	n := notify.Notification{Subject: notify.SubjectShouldStart}
	if startSessionName != "" {
		n.Fields = map[string]any{"session_name": startSessionName}
	}

	if err := remote.Send(cfg.Remote.Addr, n); err != nil {
		return fmt.Errorf("is a daemon running with remote.enabled? %w", err)
	}

	fmt.Println("Start request sent")
	return nil
}
