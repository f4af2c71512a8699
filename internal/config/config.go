package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type APIKey struct {
	Name string `yaml:"name"`
	Key  string `yaml:"key"`
	Role string `yaml:"role"`
}

type StreamConfig struct {
	HeartbeatSeconds int      `yaml:"heartbeat_seconds"`
	BufferSize       int      `yaml:"buffer_size"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
	JWTSecret        string   `yaml:"jwt_secret"`
}

type Config struct {
	ListenAddr         string       `yaml:"listen_addr"`
	DBDSN              string       `yaml:"db_dsn"`
	PingbackAuthToken  string       `yaml:"pingback_auth_token"`
	WebhookVerifyToken string       `yaml:"webhook_verify_token"`
	APIKeys            []APIKey     `yaml:"api_keys"`
	Stream             StreamConfig `yaml:"stream"`
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.Stream.HeartbeatSeconds <= 0 {
		cfg.Stream.HeartbeatSeconds = 15
	}
	if cfg.Stream.BufferSize <= 0 {
		cfg.Stream.BufferSize = 32
	}

	return &cfg, nil
}
