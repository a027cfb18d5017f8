package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gazekit/gazekit/internal/config"
	"github.com/gazekit/gazekit/pkg/notify"
	"github.com/gazekit/gazekit/pkg/remote"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the active recording session on a running daemon",
	Long: `Stop the active recording session by sending a stop request to the
remote notification bridge of a running gazekit record daemon.`,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	n := notify.Notification{Subject: notify.SubjectShouldStop}
	if err := remote.Send(cfg.Remote.Addr, n); err != nil {
		return fmt.Errorf("is a daemon running with remote.enabled? %w", err)
	}

	fmt.Println("Stop request sent")
	return nil
}
