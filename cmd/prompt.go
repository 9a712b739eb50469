/*
Copyright © 2026 The netpilot authors
*/
package cmd

import (
	"fmt"

	"netpilot/internal/logging"
	"netpilot/internal/runner"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var promptDevice string

// promptCmd represents the prompt command
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Connect to a device and print its prompt",
	Long: `Open a session to a single device, find the current prompt and print
it. Useful for checking credentials and prompt pattern tuning before running
commands.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		device := findDevice(cfg, promptDevice)

		ch, err := runner.Connect(cfg, device, uuid.NewString())
		if err != nil {
			logging.Logger().Fatal("Failed to connect", zap.Error(err))
		}
		defer ch.Close()

		prompt, err := ch.GetPrompt()
		if err != nil {
			logging.Logger().Fatal("Failed to find prompt", zap.Error(err))
		}

		fmt.Println(prompt)
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)

	promptCmd.Flags().StringVarP(&promptDevice, "device", "d", "", "Device name from the config file (default: first device)")
}
