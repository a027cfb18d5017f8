package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gazekit/gazekit/internal/config"
	"github.com/gazekit/gazekit/pkg/recording"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded sessions",
	Long:  `List finished recording sessions from the catalog, most recent first.`,
	RunE:  runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	catalog, err := recording.OpenCatalog(cfg.Recorder.RootDir)
	if err != nil {
		return err
	}
	defer catalog.Close()

	entries, err := catalog.List()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No recorded sessions")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tNAME\tDURATION\tFRAMES\tPATH")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			entry.StartedAt.Format(time.DateTime),
			entry.Name,
			formatDuration(time.Duration(entry.DurationS*float64(time.Second))),
			entry.FrameCount,
			entry.Path,
		)
	}
	return w.Flush()
}
