/*
Copyright © 2026 The netpilot authors
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"netpilot/internal/logging"
	"netpilot/internal/runner"

	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [command ...]",
	Short: "Run commands on every configured device",
	Long: `Run the given commands on every device from the configuration file.
When no commands are passed on the command line, the commands list from the
configuration file is used instead.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		commands := args
		if len(commands) == 0 {
			commands = cfg.Commands
		}
		if len(commands) == 0 {
			logging.Logger().Fatal("No commands given (pass them as arguments or set commands in the config file)")
		}

		results := runner.Run(cfg, commands)

		failed := 0
		for _, dr := range results {
			fmt.Printf("=== %s (%s:%d)\n", dr.Device.Name, dr.Device.Host, dr.Device.Port)
			if dr.Err != nil {
				fmt.Printf("error: %v\n\n", dr.Err)
				failed++
				continue
			}
			for _, cr := range dr.Results {
				fmt.Printf("--- %s (%s)\n", cr.Command, cr.Duration.Round(time.Millisecond))
				if cr.Err != nil {
					fmt.Printf("error: %v\n", cr.Err)
					failed++
					continue
				}
				fmt.Println(cr.Output)
			}
			fmt.Println()
		}

		if failed > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
