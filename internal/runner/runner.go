// Package runner fans a batch of commands out across configured devices
// using a bounded worker pool.
package runner

import (
	"fmt"
	"path/filepath"
	"time"

	"netpilot/internal/channel"
	"netpilot/internal/config"
	"netpilot/internal/logging"
	"netpilot/internal/transport"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommandResult holds the outcome of a single command on a single device.
type CommandResult struct {
	Command  string
	Output   string
	Err      error
	Duration time.Duration
}

// DeviceResult collects the results for one device.
type DeviceResult struct {
	Device config.Device

	// Err reports a session-level failure (dial, authentication). When
	// set, Results holds whatever completed before the failure.
	Err     error
	Results []CommandResult
}

// Run executes commands on every configured device and returns per-device
// results in device order.
func Run(cfg *config.Config, commands []string) []DeviceResult {
	runID := uuid.NewString()
	logging.Logger().Info("starting run",
		zap.String("run_id", runID),
		zap.Int("devices", len(cfg.Devices)),
		zap.Strings("commands", logging.TruncateSlice(commands, 10)))

	workersCount := min(cfg.MaxWorkers, len(cfg.Devices))
	pool := pond.NewPool(workersCount)

	results := make([]DeviceResult, len(cfg.Devices))
	for i, device := range cfg.Devices {
		pool.Submit(func() {
			results[i] = runDevice(cfg, device, commands, runID)
		})
	}
	pool.StopAndWait()

	logging.Logger().Info("run finished", zap.String("run_id", runID))
	return results
}

// Connect opens and authenticates a session to a single device. The caller
// owns the returned channel and must close it.
func Connect(cfg *config.Config, device config.Device, runID string) (*channel.Channel, error) {
	tr, err := newTransport(cfg, device, runID)
	if err != nil {
		return nil, err
	}

	args := channelArgs(cfg, device)
	ch, err := channel.New(tr, &args)
	if err != nil {
		return nil, fmt.Errorf("failed to build channel for %s: %w", device.Name, err)
	}

	if err := ch.Open(); err != nil {
		return nil, fmt.Errorf("failed to open session to %s: %w", device.Name, err)
	}

	if err := authenticate(ch, device); err != nil {
		ch.Close()
		return nil, fmt.Errorf("authentication to %s failed: %w", device.Name, err)
	}

	return ch, nil
}

func runDevice(cfg *config.Config, device config.Device, commands []string, runID string) DeviceResult {
	result := DeviceResult{Device: device}
	log := logging.Session(device.Host, device.Port, runID)

	ch, err := Connect(cfg, device, runID)
	if err != nil {
		result.Err = err
		return result
	}
	defer ch.Close()

	for _, command := range commands {
		start := time.Now()
		_, processed, err := ch.SendInput(command, true)
		cr := CommandResult{
			Command:  command,
			Output:   string(processed),
			Err:      err,
			Duration: time.Since(start),
		}
		result.Results = append(result.Results, cr)
		if err != nil {
			log.Error("command failed",
				zap.String("command", logging.Truncate(command)),
				zap.Error(err))
			break
		}
		log.Info("command finished",
			zap.String("command", logging.Truncate(command)),
			zap.Duration("duration", cr.Duration))
	}

	return result
}

func newTransport(cfg *config.Config, device config.Device, runID string) (transport.Transport, error) {
	args := transport.Args{
		Host:           device.Host,
		Port:           device.Port,
		Username:       device.Username,
		Password:       device.Password,
		PrivateKeyPath: device.PrivateKeyPath,
		LoggingID:      runID,
		Timeout:        cfg.DialTimeout(),
	}

	switch device.Transport {
	case "telnet":
		return transport.NewTelnet(args), nil
	case "ssh", "":
		return transport.NewSSH(args), nil
	default:
		return nil, fmt.Errorf("device %q: unknown transport %q", device.Name, device.Transport)
	}
}

func channelArgs(cfg *config.Config, device config.Device) channel.Args {
	args := channel.Args{
		PromptPattern:     cfg.Channel.PromptPattern,
		ReturnChar:        cfg.Channel.ReturnChar,
		StripAnsi:         cfg.Channel.StripAnsi,
		PromptSearchDepth: cfg.Channel.PromptSearchDepth,
		TimeoutOps:        cfg.TimeoutOps(),
		ChannelLock:       cfg.Channel.Lock,
	}
	if device.PromptPattern != "" {
		args.PromptPattern = device.PromptPattern
	}
	if cfg.Channel.LogDir != "" {
		args.ChannelLogPath = filepath.Join(cfg.Channel.LogDir, device.Name+".log")
		args.ChannelLogMode = cfg.Channel.LogMode
	}
	return args
}

func authenticate(ch *channel.Channel, device config.Device) error {
	if device.Transport == "telnet" {
		return ch.AuthenticateTelnet(device.Username, device.Password)
	}
	// SSH authentication happens during the transport dial. Verify the
	// shell is usable by finding the prompt once.
	_, err := ch.GetPrompt()
	return err
}
