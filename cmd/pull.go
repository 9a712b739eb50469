/*
Copyright © 2026 The netpilot authors
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"netpilot/internal/logging"
	"netpilot/internal/transport"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	pullDevice string
	pullOut    string
)

// pullCmd represents the pull command
var pullCmd = &cobra.Command{
	Use:   "pull <remote path>",
	Short: "Fetch a file from a device over SFTP",
	Long: `Copy a file from a device to the local machine over SFTP. Only works
for devices using the ssh transport.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		device := findDevice(cfg, pullDevice)
		remotePath := args[0]

		if device.Transport != "ssh" {
			logging.Logger().Fatal("pull requires the ssh transport",
				zap.String("device", device.Name),
				zap.String("transport", device.Transport))
		}

		localPath := pullOut
		if localPath == "" {
			localPath = filepath.Base(remotePath)
		}

		tr := transport.NewSSH(transport.Args{
			Host:           device.Host,
			Port:           device.Port,
			Username:       device.Username,
			Password:       device.Password,
			PrivateKeyPath: device.PrivateKeyPath,
			LoggingID:      uuid.NewString(),
			Timeout:        cfg.DialTimeout(),
		})
		if err := tr.Open(); err != nil {
			logging.Logger().Fatal("Failed to connect", zap.Error(err))
		}
		defer tr.Close()

		if err := tr.Fetch(remotePath, localPath); err != nil {
			logging.Logger().Fatal("Failed to fetch file", zap.Error(err))
		}

		fmt.Printf("Fetched %s:%s to %s\n", device.Name, remotePath, localPath)
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)

	pullCmd.Flags().StringVarP(&pullDevice, "device", "d", "", "Device name from the config file (default: first device)")
	pullCmd.Flags().StringVarP(&pullOut, "out", "o", "", "Local destination path (default: remote file name)")
}
