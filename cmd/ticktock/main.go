// ticktock runs routines on delays, intervals, cron specs and deadlines from
// the command line. It is a small driver around internal/timers.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	logLevel string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ticktock",
		Short: "Run routines after a delay, on an interval, or under a deadline",
		Long: `ticktock exercises setTimeout/setInterval style timers and a timeout guard.

Examples:
  ticktock delay --after 500ms --cancel-at 200ms
  ticktock interval --every 50ms --for 220ms
  ticktock guard --timeout 100ms --work 500ms
  ticktock cron --spec "@every 1s" --for 3s
`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "Config file (JSON or YAML); watched for changes")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level (trace|debug|info|warn|error)")

	rootCmd.AddCommand(delayCmd())
	rootCmd.AddCommand(intervalCmd())
	rootCmd.AddCommand(guardCmd())
	rootCmd.AddCommand(cronCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
