package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/assuan/internal/protocol/line"
)

// AgentConfig configures the daemon side: where it listens and how its
// sessions behave.
type AgentConfig struct {
	Name          string   `toml:"name"`
	SocketPath    string   `toml:"socket_path"`
	AdminAddr     string   `toml:"admin_addr"`
	Greeting      string   `toml:"greeting"`
	MaxLineLength int      `toml:"max_line_length"`
	MaxSessions   int      `toml:"max_sessions"`
	StrictOptions bool     `toml:"strict_options"`
	ValidOptions  []string `toml:"valid_options"`
	ListenToQuit  bool     `toml:"listen_to_quit"`
	Codes         Codes    `toml:"codes"`
}

// Codes overrides the reserved numeric error codes; zero means the
// gpg-error style default. The exact values are conventions of the agent
// being targeted.
type Codes struct {
	GeneralError   int `toml:"general_error"`
	UnknownCommand int `toml:"unknown_command"`
	InvalidRequest int `toml:"invalid_request"`
	Cancelled      int `toml:"cancelled"`
}

// ClientConfig configures a client tool connecting to an agent socket.
type ClientConfig struct {
	SocketPath     string `toml:"socket_path"`
	MaxLineLength  int    `toml:"max_line_length"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout is the dial plus exchange deadline.
func (cfg ClientConfig) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}

func LoadAgentConfig(path string) (AgentConfig, error) {
	var cfg AgentConfig
	if err := loadToml(path, &cfg); err != nil {
		return AgentConfig{}, err
	}
	applyAgentDefaults(&cfg)
	if err := ValidateAgentConfig(cfg); err != nil {
		return AgentConfig{}, err
	}
	return cfg, nil
}

func DefaultAgentConfig() AgentConfig {
	cfg := AgentConfig{}
	applyAgentDefaults(&cfg)
	return cfg
}

func applyAgentDefaults(cfg *AgentConfig) {
	if cfg.Name == "" {
		cfg.Name = "assuand"
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = "/tmp/assuand.sock"
	}
	if cfg.Greeting == "" {
		cfg.Greeting = "Your orders please"
	}
	if cfg.MaxLineLength == 0 {
		cfg.MaxLineLength = line.DefaultMaxLineLength
	}
	if cfg.MaxSessions == 0 {
		cfg.MaxSessions = 10
	}
}

func LoadClientConfig(path string) (ClientConfig, error) {
	var cfg ClientConfig
	if err := loadToml(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	if cfg.MaxLineLength == 0 {
		cfg.MaxLineLength = line.DefaultMaxLineLength
	}
	if cfg.TimeoutSeconds == 0 {
		cfg.TimeoutSeconds = 10
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateAgentConfig(cfg AgentConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("agent config missing name")
	}
	if strings.TrimSpace(cfg.SocketPath) == "" {
		return fmt.Errorf("agent config missing socket_path")
	}
	if cfg.MaxLineLength < 16 {
		return fmt.Errorf("agent config max_line_length too small: %d", cfg.MaxLineLength)
	}
	if cfg.MaxSessions < 1 {
		return fmt.Errorf("agent config max_sessions must be positive")
	}
	return nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.SocketPath) == "" {
		return fmt.Errorf("client config missing socket_path")
	}
	if cfg.MaxLineLength < 16 {
		return fmt.Errorf("client config max_line_length too small: %d", cfg.MaxLineLength)
	}
	return nil
}
