package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// PeerConfig identifies one other server in the cluster.
type PeerConfig struct {
	Address string `yaml:"address"`
	ID      uint32 `yaml:"id"`
}

// TimingConfig is the election and heartbeat timing set, with the
// defaults 1/2/3/1 baked in via Defaults().
type TimingConfig struct {
	HeartbeatIntervalSecs float64 `yaml:"heartbeat_interval_secs"`
	ElectionTimeoutSecs   float64 `yaml:"election_timeout_secs"`
	FailureTimeoutSecs    float64 `yaml:"failure_timeout_secs"`
	MonitorIntervalSecs   float64 `yaml:"monitor_interval_secs"`
}

// Defaults returns the suggested timing values.
func Defaults() TimingConfig {
	return TimingConfig{
		HeartbeatIntervalSecs: 1,
		ElectionTimeoutSecs:   2,
		FailureTimeoutSecs:    3,
		MonitorIntervalSecs:   1,
	}
}

func (t TimingConfig) HeartbeatInterval() time.Duration {
	return durationFromSecs(t.HeartbeatIntervalSecs)
}

func (t TimingConfig) ElectionTimeout() time.Duration {
	return durationFromSecs(t.ElectionTimeoutSecs)
}

func (t TimingConfig) FailureTimeout() time.Duration {
	return durationFromSecs(t.FailureTimeoutSecs)
}

func (t TimingConfig) MonitorInterval() time.Duration {
	return durationFromSecs(t.MonitorIntervalSecs)
}

func durationFromSecs(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second))
}

// ServerConfig is the per-server configuration surface.
type ServerConfig struct {
	Server struct {
		Address string `yaml:"address"`
		ID      uint32 `yaml:"id"`
	} `yaml:"server"`
	Peers  []PeerConfig `yaml:"peers"`
	Timing TimingConfig `yaml:"timing"`
}

// LoadServerConfig reads and validates a ServerConfig from path. A
// malformed or incomplete configuration file is a startup-time
// configuration error, fatal to the process.
func LoadServerConfig(path string) (*ServerConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &ServerConfig{Timing: Defaults()}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.Server.ID == 0 {
		return nil, fmt.Errorf("config: server.id must be a positive integer")
	}
	if cfg.Server.Address == "" {
		return nil, fmt.Errorf("config: server.address is required")
	}
	for _, p := range cfg.Peers {
		if p.ID == 0 || p.Address == "" {
			return nil, fmt.Errorf("config: each peer needs a non-zero id and an address")
		}
	}
	applyTimingDefaults(&cfg.Timing)

	return cfg, nil
}

// RequestProfile describes the client's synthetic workload generator.
type RequestProfile struct {
	ParameterText   string  `yaml:"parameter_text"`
	RatePerSecond   float64 `yaml:"rate_per_second"`
	DurationSeconds float64 `yaml:"duration_seconds"`
}

// ClientConfig is the per-client configuration surface, plus the
// configurable reassignment-hysteresis threshold.
type ClientConfig struct {
	Client struct {
		Name string `yaml:"name"`
	} `yaml:"client"`
	ServerAddresses              []string       `yaml:"server_addresses"`
	Profile                      RequestProfile `yaml:"profile"`
	ReassignmentHysteresisPolls  int            `yaml:"reassignment_hysteresis_polls"`
}

// LoadClientConfig reads and validates a ClientConfig from path.
func LoadClientConfig(path string) (*ClientConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &ClientConfig{ReassignmentHysteresisPolls: 10}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if cfg.Client.Name == "" {
		return nil, fmt.Errorf("config: client.name is required")
	}
	if len(cfg.ServerAddresses) == 0 {
		return nil, fmt.Errorf("config: server_addresses must list at least one server")
	}
	if cfg.ReassignmentHysteresisPolls <= 0 {
		cfg.ReassignmentHysteresisPolls = 10
	}

	return cfg, nil
}

func applyTimingDefaults(t *TimingConfig) {
	d := Defaults()
	if t.HeartbeatIntervalSecs == 0 {
		t.HeartbeatIntervalSecs = d.HeartbeatIntervalSecs
	}
	if t.ElectionTimeoutSecs == 0 {
		t.ElectionTimeoutSecs = d.ElectionTimeoutSecs
	}
	if t.FailureTimeoutSecs == 0 {
		t.FailureTimeoutSecs = d.FailureTimeoutSecs
	}
	if t.MonitorIntervalSecs == 0 {
		t.MonitorIntervalSecs = d.MonitorIntervalSecs
	}
}
