package runner

import (
	"path/filepath"
	"testing"
	"time"

	"netpilot/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		ConnectTimeout: 10,
		MaxWorkers:     5,
	}
	cfg.Channel.PromptPattern = `^router[#>]$`
	cfg.Channel.TimeoutOps = 15
	cfg.Channel.Lock = true
	return cfg
}

func TestChannelArgsDevicePromptOverride(t *testing.T) {
	cfg := testConfig()

	base := channelArgs(cfg, config.Device{Name: "sw1", Host: "sw1"})
	if base.PromptPattern != `^router[#>]$` {
		t.Errorf("expected channel-wide pattern, got %q", base.PromptPattern)
	}
	if base.TimeoutOps != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", base.TimeoutOps)
	}

	overridden := channelArgs(cfg, config.Device{
		Name:          "fw1",
		Host:          "fw1",
		PromptPattern: `^fw1[#>]$`,
	})
	if overridden.PromptPattern != `^fw1[#>]$` {
		t.Errorf("expected device pattern to win, got %q", overridden.PromptPattern)
	}
}

func TestChannelArgsLogPath(t *testing.T) {
	cfg := testConfig()

	args := channelArgs(cfg, config.Device{Name: "sw1", Host: "sw1"})
	if args.ChannelLogPath != "" {
		t.Errorf("expected no log path without log_dir, got %q", args.ChannelLogPath)
	}

	cfg.Channel.LogDir = "/var/log/netpilot"
	cfg.Channel.LogMode = "append"
	args = channelArgs(cfg, config.Device{Name: "sw1", Host: "sw1"})
	want := filepath.Join("/var/log/netpilot", "sw1.log")
	if args.ChannelLogPath != want {
		t.Errorf("expected log path %q, got %q", want, args.ChannelLogPath)
	}
	if args.ChannelLogMode != "append" {
		t.Errorf("expected append mode, got %q", args.ChannelLogMode)
	}
}

func TestNewTransportKind(t *testing.T) {
	cfg := testConfig()

	if _, err := newTransport(cfg, config.Device{Host: "h", Transport: "ssh"}, "run"); err != nil {
		t.Errorf("ssh transport: %v", err)
	}
	if _, err := newTransport(cfg, config.Device{Host: "h", Transport: "telnet"}, "run"); err != nil {
		t.Errorf("telnet transport: %v", err)
	}
	if _, err := newTransport(cfg, config.Device{Host: "h", Transport: "serial"}, "run"); err == nil {
		t.Error("expected error for unknown transport")
	}
}
