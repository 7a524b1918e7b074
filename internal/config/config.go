package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"newsdesk/internal/policy"
)

// Config models newsdesk.yml.
type Config struct {
	Project struct {
		ID   string `yaml:"id"`
		Kind string `yaml:"kind"`
	} `yaml:"project"`
	Server struct {
		Listen   string `yaml:"listen"`
		BasePath string `yaml:"base_path"`
	} `yaml:"server"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		// LegacyActorHeader accepts X-Actor-Id in place of a bearer
		// token, for migrating installs that predate JWT auth.
		LegacyActorHeader bool `yaml:"legacy_actor_header"`
	} `yaml:"auth"`
	Roles    map[string]RoleBinding `yaml:"roles"`
	Webhooks []Webhook              `yaml:"webhooks"`
}

// RoleBinding maps a display name onto one of the built-in role types.
type RoleBinding struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
}

// Webhook is an outbound event subscription.
type Webhook struct {
	URL            string   `yaml:"url"`
	Events         []string `yaml:"events"`
	Secret         string   `yaml:"secret"`
	TimeoutSeconds int      `yaml:"timeout_seconds"`
}

// Load reads and validates config from workspace.
func Load(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config %s not found; create one with nd init", path)
		}
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns nil,nil if the config file does not exist.
func LoadOptional(workspace string) (*Config, error) {
	path := Path(workspace)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Project.ID == "" {
		return fmt.Errorf("config.project.id is required")
	}
	if c.Project.Kind != "newsroom" {
		return fmt.Errorf("config.project.kind must be 'newsroom'")
	}
	for name, binding := range c.Roles {
		if name == "" {
			return fmt.Errorf("config.roles contains empty role name")
		}
		if policy.ParseRole(binding.Type, name) == policy.RoleUnknown {
			return fmt.Errorf("role %s maps to unknown type %q", name, binding.Type)
		}
	}
	for i, hook := range c.Webhooks {
		if hook.URL == "" {
			return fmt.Errorf("webhook %d has empty url", i)
		}
		u, err := url.Parse(hook.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("webhook %d has invalid url %q", i, hook.URL)
		}
		for _, evt := range hook.Events {
			if evt == "" {
				return fmt.Errorf("webhook %d has empty event filter", i)
			}
		}
	}
	return nil
}

// ResolveRole reconciles a requested role assignment with the configured
// bindings. An empty typeTag is resolved from the binding for name, and a
// name bound to a different type is rejected. Without bindings (or config)
// the requested type passes through.
func (c *Config) ResolveRole(typeTag, name string) (string, error) {
	if c == nil || len(c.Roles) == 0 {
		return typeTag, nil
	}
	for bound, binding := range c.Roles {
		if !strings.EqualFold(bound, name) {
			continue
		}
		if typeTag != "" && !strings.EqualFold(typeTag, binding.Type) {
			return "", fmt.Errorf("role %s is bound to type %s, not %s", bound, binding.Type, typeTag)
		}
		return binding.Type, nil
	}
	if typeTag == "" {
		return "", fmt.Errorf("role name %q has no binding in config", name)
	}
	return typeTag, nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, "newsdesk.yml")
}

// GenerateDefault returns default config YAML.
func GenerateDefault(projectID string) string {
	return fmt.Sprintf(defaultTemplate, projectID)
}

// Default returns the default Config struct for a project.
func Default(projectID string) *Config {
	var cfg Config
	cfg.Project.ID = projectID
	cfg.Project.Kind = "newsroom"
	_ = yaml.NewDecoder(bytes.NewBufferString(fmt.Sprintf(defaultTemplate, projectID))).Decode(&cfg)
	return &cfg
}

// FromYAML parses and validates config from raw YAML bytes.
func FromYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

const defaultTemplate = `project:
  id: %s
  kind: newsroom

server:
  listen: :8484
  base_path: /api/v1

auth:
  jwt_secret: ""
  legacy_actor_header: false

roles:
  Reader:
    type: reader
    description: "Read-only access to the editorial queue"
  Reporter:
    type: reporter
    description: "Writes and submits their own articles"
  Reviewer:
    type: reviewer
    description: "Reviews submitted articles"
  Editor:
    type: editor
    description: "Full editorial control including publishing"
  Administrator:
    type: admin
    description: "Editor powers plus account administration"

webhooks: []
`
