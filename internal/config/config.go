// Package config loads the monitor configuration from YAML.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tcnet-monitor/internal/tcnet"
)

// Config represents the complete monitor configuration
type Config struct {
	Node     NodeConfig     `yaml:"node"`
	Network  NetworkConfig  `yaml:"network"`
	Requests RequestsConfig `yaml:"requests"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// NodeConfig is the identity the monitor announces in its OptIn packets
type NodeConfig struct {
	Name         string `yaml:"name"`
	ID           uint16 `yaml:"id"` // 0 picks a random ID at startup
	Vendor       string `yaml:"vendor"`
	App          string `yaml:"app"`
	ListenerPort int    `yaml:"listener_port"`
}

// NetworkConfig contains the UDP ports and timing of the TCNet network
type NetworkConfig struct {
	BroadcastPort    int           `yaml:"broadcast_port"`
	TimePort         int           `yaml:"time_port"`
	BroadcastAddress string        `yaml:"broadcast_address"`
	Interface        string        `yaml:"interface"`
	OptInInterval    time.Duration `yaml:"opt_in_interval"`
	NodeTimeout      time.Duration `yaml:"node_timeout"`
	ReadBuffer       int           `yaml:"read_buffer"`
}

// RequestsConfig selects the data sent for after a layer change
type RequestsConfig struct {
	Enabled   bool     `yaml:"enabled"`
	DataTypes []string `yaml:"data_types"`
}

// MetricsConfig contains the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Defaults returns a complete, valid configuration
func Defaults() *Config {
	return &Config{
		Node: NodeConfig{
			Name:         "TCMON",
			Vendor:       "tcnet-monitor",
			App:          "monitor",
			ListenerPort: tcnet.DefaultListenerPort,
		},
		Network: NetworkConfig{
			BroadcastPort:    tcnet.BroadcastPort,
			TimePort:         tcnet.TimePort,
			BroadcastAddress: "255.255.255.255",
			OptInInterval:    time.Second,
			NodeTimeout:      5 * time.Second,
			ReadBuffer:       tcnet.MaxPacketSize,
		},
		Requests: RequestsConfig{
			Enabled:   true,
			DataTypes: []string{"metrics", "metadata"},
		},
		Metrics: MetricsConfig{
			Address: ":9110",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	config := Defaults()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Node.Validate(); err != nil {
		return fmt.Errorf("node config: %w", err)
	}

	if err := c.Network.Validate(); err != nil {
		return fmt.Errorf("network config: %w", err)
	}

	if err := c.Requests.Validate(); err != nil {
		return fmt.Errorf("requests config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

func validPort(name string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

func asciiWithin(name, value string, width int) error {
	if len(value) > width {
		return fmt.Errorf("%s must be at most %d bytes, got %d", name, width, len(value))
	}
	for _, r := range value {
		if r > 0x7f {
			return fmt.Errorf("%s must be ASCII, got %q", name, value)
		}
	}
	return nil
}

// Validate validates node configuration
func (n *NodeConfig) Validate() error {
	if n.Name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if err := asciiWithin("name", n.Name, tcnet.NodeNameSize); err != nil {
		return err
	}
	if err := asciiWithin("vendor", n.Vendor, 16); err != nil {
		return err
	}
	if err := asciiWithin("app", n.App, 16); err != nil {
		return err
	}
	return validPort("listener_port", n.ListenerPort)
}

// Validate validates network configuration
func (n *NetworkConfig) Validate() error {
	if err := validPort("broadcast_port", n.BroadcastPort); err != nil {
		return err
	}
	if err := validPort("time_port", n.TimePort); err != nil {
		return err
	}
	if n.Interface == "" && net.ParseIP(n.BroadcastAddress).To4() == nil {
		return fmt.Errorf("broadcast_address must be an IPv4 address, got %q", n.BroadcastAddress)
	}
	if n.OptInInterval <= 0 {
		return fmt.Errorf("opt_in_interval must be positive, got %s", n.OptInInterval)
	}
	if n.NodeTimeout < n.OptInInterval {
		return fmt.Errorf("node_timeout (%s) must not be shorter than opt_in_interval (%s)", n.NodeTimeout, n.OptInInterval)
	}
	if n.ReadBuffer < 1500 {
		return fmt.Errorf("read_buffer must be at least 1500 bytes, got %d", n.ReadBuffer)
	}
	return nil
}

// Validate validates request configuration
func (r *RequestsConfig) Validate() error {
	if !r.Enabled {
		return nil
	}
	if _, err := r.Types(); err != nil {
		return err
	}
	return nil
}

// Types resolves the configured data type names
func (r *RequestsConfig) Types() ([]tcnet.DataType, error) {
	types := make([]tcnet.DataType, 0, len(r.DataTypes))
	for _, name := range r.DataTypes {
		dt, err := tcnet.ParseDataType(name)
		if err != nil {
			return nil, fmt.Errorf("data_types: %w", err)
		}
		types = append(types, dt)
	}
	return types, nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if !m.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.Address); err != nil {
		return fmt.Errorf("address %q: %w", m.Address, err)
	}
	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	if l.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}

	return nil
}
