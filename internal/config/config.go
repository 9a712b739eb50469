package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Device describes a single target to open a session against.
type Device struct {
	Name string `yaml:"name"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Transport selects how the session is carried: "ssh" or "telnet".
	Transport string `yaml:"transport"`

	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	PrivateKeyPath string `yaml:"private_key_path"`

	// PromptPattern overrides the channel-wide prompt pattern for this
	// device only.
	PromptPattern string `yaml:"prompt_pattern"`
}

// Channel contains session tuning shared by every device.
type Channel struct {
	PromptPattern     string  `yaml:"prompt_pattern"`
	ReturnChar        string  `yaml:"return_char"`
	StripAnsi         bool    `yaml:"strip_ansi"`
	PromptSearchDepth int     `yaml:"prompt_search_depth"`
	TimeoutOps        float64 `yaml:"timeout_ops"` // seconds

	LogDir  string `yaml:"log_dir"`
	LogMode string `yaml:"log_mode"`
	Lock    bool   `yaml:"lock"`
}

// Config contains application configuration
type Config struct {
	Devices []Device `yaml:"devices"`

	// Commands to run on every device when none are given on the
	// command line.
	Commands []string `yaml:"commands"`

	Channel Channel `yaml:"channel"`

	// Connection timeout for the transport dial, in seconds.
	ConnectTimeout float64 `yaml:"connect_timeout"`

	// Max number of workers
	MaxWorkers int `yaml:"max_workers"`
}

// TimeoutOps returns the per-operation timeout as a duration.
func (c *Config) TimeoutOps() time.Duration {
	return time.Duration(c.Channel.TimeoutOps * float64(time.Second))
}

// DialTimeout returns the transport connect timeout as a duration.
func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.ConnectTimeout * float64(time.Second))
}

// Load loads configuration from YAML file
func Load() (*Config, error) {
	config := &Config{
		ConnectTimeout: 30,
		MaxWorkers:     5,
	}
	config.Channel.TimeoutOps = 30
	config.Channel.Lock = true

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "netpilot.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	// Expand environment variables so credentials can stay out of the
	// file itself.
	for i := range config.Devices {
		d := &config.Devices[i]
		d.Host = os.ExpandEnv(d.Host)
		d.Username = os.ExpandEnv(d.Username)
		d.Password = os.ExpandEnv(d.Password)
		d.PrivateKeyPath = os.ExpandEnv(d.PrivateKeyPath)
	}
	config.Channel.LogDir = os.ExpandEnv(config.Channel.LogDir)

	for i, cmd := range config.Commands {
		config.Commands[i] = os.ExpandEnv(cmd)
	}

	if len(config.Devices) == 0 {
		return nil, fmt.Errorf("at least one device is required (set devices in %s)", configPath)
	}

	for i := range config.Devices {
		d := &config.Devices[i]
		if d.Host == "" {
			return nil, fmt.Errorf("device %d: host is required", i)
		}
		if d.Transport == "" {
			d.Transport = "ssh"
		}
		if d.Transport != "ssh" && d.Transport != "telnet" {
			return nil, fmt.Errorf("device %q: unknown transport %q", d.Host, d.Transport)
		}
		if d.Port == 0 {
			if d.Transport == "telnet" {
				d.Port = 23
			} else {
				d.Port = 22
			}
		}
		if d.Name == "" {
			d.Name = d.Host
		}
	}

	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 5
	}

	return config, nil
}
