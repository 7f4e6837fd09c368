// Package config loads and defaults the fleet manager's configuration:
// where the navigation graph lives, which transport backend to speak, the
// coordinate transform between manager and robot frames, and the tracking
// thresholds. Mirrors the rest of the module's construction-time-validation
// discipline only where cheap; most fields here are operational tuning, not
// invariants, so Load silently falls back to Defaults when the file is
// absent.
package config

import (
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	NavGraph  NavGraphConfig  `yaml:"nav_graph"`
	Transform TransformConfig `yaml:"transform"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Messaging MessagingConfig `yaml:"messaging"`
	Diag      DiagConfig      `yaml:"diag"`
}

// NavGraphConfig points at the YAML file describing the static navigation
// graph consumed read-only by navgraph.LoadYAML.
type NavGraphConfig struct {
	Path string `yaml:"path"`
}

// TransformConfig parameterizes the affine coordinate transform between the
// manager frame and the shared robot frame.
type TransformConfig struct {
	Scale        float64 `yaml:"scale"`
	RotationRad  float64 `yaml:"rotation_rad"`
	TranslationX float64 `yaml:"translation_x"`
	TranslationY float64 `yaml:"translation_y"`
}

// TrackingConfig holds the nearness thresholds driving the tracking state
// machine and relocalization admission.
type TrackingConfig struct {
	// Threshold is D: the nearness threshold used both for waypoint
	// tracking and, by default, relocalization admission.
	Threshold float64 `yaml:"threshold"`
	// RelocalizationThreshold overrides D for relocalization admission.
	// Zero means "use Threshold", the reference default.
	RelocalizationThreshold float64 `yaml:"relocalization_threshold"`
}

// MessagingConfig selects and configures the transport backend.
type MessagingConfig struct {
	Backend string      `yaml:"backend"` // "mqtt" or "kafka"
	MQTT    MQTTConfig  `yaml:"mqtt"`
	Kafka   KafkaConfig `yaml:"kafka"`

	// StateTopic is where robots publish RobotState reports.
	StateTopic string `yaml:"state_topic"`
	// CommandTopicPrefix is prefixed to a robot's name to form the topic
	// its commands are published to.
	CommandTopicPrefix string `yaml:"command_topic_prefix"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// DiagConfig configures the read-only HTTP diagnostics surface.
type DiagConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

func Defaults() *Config {
	return &Config{
		NavGraph: NavGraphConfig{Path: "navgraph.yaml"},
		Transform: TransformConfig{
			Scale:        1.0,
			RotationRad:  0,
			TranslationX: 0,
			TranslationY: 0,
		},
		Tracking: TrackingConfig{
			Threshold:               0.5,
			RelocalizationThreshold: 0,
		},
		Messaging: MessagingConfig{
			Backend: "mqtt",
			MQTT: MQTTConfig{
				Broker:   "localhost",
				Port:     1883,
				ClientID: "fleetmanager",
			},
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "fleetmanager",
			},
			StateTopic:         "fleet/state",
			CommandTopicPrefix: "fleet/command/",
		},
		Diag: DiagConfig{
			Host: "0.0.0.0",
			Port: 8090,
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }

// EffectiveRelocalizationThreshold returns the relocalization admission
// radius, defaulting to Threshold per spec §9's "default to equal" rule.
func (t TrackingConfig) EffectiveRelocalizationThreshold() float64 {
	if t.RelocalizationThreshold > 0 {
		return t.RelocalizationThreshold
	}
	return t.Threshold
}
