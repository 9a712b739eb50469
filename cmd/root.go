/*
Copyright © 2026 The netpilot authors
*/
package cmd

import (
	"os"

	"netpilot/internal/config"
	"netpilot/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "netpilot",
	Short: "Drive interactive CLI sessions on network devices",
	Long: `Netpilot opens SSH or telnet sessions against the devices listed in
its configuration file, detects their prompts and runs commands the way an
operator would type them, collecting cleaned output per device.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the YAML configuration or exits.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger().Fatal("Failed to load configuration", zap.Error(err))
	}
	return cfg
}

// findDevice resolves a device by name; an empty name means the first one.
func findDevice(cfg *config.Config, name string) config.Device {
	if name == "" {
		return cfg.Devices[0]
	}
	for _, d := range cfg.Devices {
		if d.Name == name {
			return d
		}
	}
	logging.Logger().Fatal("Device not found in configuration", zap.String("device", name))
	return config.Device{}
}
