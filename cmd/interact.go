/*
Copyright © 2026 The netpilot authors
*/
package cmd

import (
	"fmt"
	"os"

	"netpilot/internal/channel"
	"netpilot/internal/logging"
	"netpilot/internal/runner"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	interactDevice string
	interactFile   string
)

// interactScript is the YAML shape accepted by the interact command.
type interactScript struct {
	Stages []struct {
		Input          string `yaml:"input"`
		Expectation    string `yaml:"expectation"`
		Response       string `yaml:"response"`
		HiddenResponse bool   `yaml:"hidden_response"`
	} `yaml:"stages"`

	// Finale is the pattern that ends the exchange; empty means the
	// device prompt.
	Finale string `yaml:"finale"`
}

// interactCmd represents the interact command
var interactCmd = &cobra.Command{
	Use:   "interact",
	Short: "Drive a multi-stage exchange on a device",
	Long: `Run a scripted dialogue against a single device: each stage sends an
input, waits for an expected pattern and answers it. Covers flows that ask
follow-up questions, like "copy run start" confirmations or commands that
prompt for a password.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		device := findDevice(cfg, interactDevice)

		content, err := os.ReadFile(interactFile)
		if err != nil {
			logging.Logger().Fatal("Failed to read script file", zap.Error(err))
		}

		var script interactScript
		if err := yaml.Unmarshal(content, &script); err != nil {
			logging.Logger().Fatal("Failed to parse script file", zap.Error(err))
		}

		stages := make([]channel.Stage, len(script.Stages))
		for i, s := range script.Stages {
			stages[i] = channel.Stage{
				Input:          s.Input,
				Expectation:    s.Expectation,
				Response:       s.Response,
				HiddenResponse: s.HiddenResponse,
			}
		}

		finale := script.Finale
		if finale == "" {
			finale = cfg.Channel.PromptPattern
		}
		if finale == "" {
			finale = channel.DefaultPromptPattern
		}

		ch, err := runner.Connect(cfg, device, uuid.NewString())
		if err != nil {
			logging.Logger().Fatal("Failed to connect", zap.Error(err))
		}
		defer ch.Close()

		_, processed, err := ch.SendInputsInteract(stages, finale)
		if err != nil {
			logging.Logger().Fatal("Interaction failed", zap.Error(err))
		}

		fmt.Println(string(processed))
	},
}

func init() {
	rootCmd.AddCommand(interactCmd)

	interactCmd.Flags().StringVarP(&interactDevice, "device", "d", "", "Device name from the config file (default: first device)")
	interactCmd.Flags().StringVarP(&interactFile, "file", "f", "", "Path to the YAML script file")
	if err := interactCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark flag as required: %v", err))
	}
}
