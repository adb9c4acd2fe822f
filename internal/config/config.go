// Package config loads the mesh configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	opreg "github.com/saihaj/graphql-mesh/internal/opreg"
)

// ErrNoOperations is returned when a configuration binds no operations.
var ErrNoOperations = errors.New("config: no operations configured")

// EnvPrefix prefixes environment variables overriding server, transport,
// pubsub, otel and log settings, e.g. MESH_SERVER_ADDR.
const EnvPrefix = "MESH"

// Config is the whole configuration file.
type Config struct {
	// Schema is a path to an SDL file, relative to the configuration file.
	Schema string `yaml:"schema" validate:"required_without=TypeDefs"`
	// TypeDefs is inline SDL and wins over Schema.
	TypeDefs string `yaml:"typeDefs"`

	BaseURL          string             `yaml:"baseUrl"`
	OperationHeaders map[string]string  `yaml:"operationHeaders"`
	Operations       []opreg.Descriptor `yaml:"operations" validate:"dive"`
	// Debug is also switched on by the DEBUG or MESH_DEBUG environment
	// variables.
	Debug bool `yaml:"debug"`

	Server    ServerConfig    `yaml:"-"`
	Transport TransportConfig `yaml:"-"`
	PubSub    PubSubConfig    `yaml:"-"`
	Otel      OtelConfig      `yaml:"-"`
	Log       LogConfig       `yaml:"-"`

	// Dir is the directory of the loaded file.
	Dir string `yaml:"-"`
}

type ServerConfig struct {
	Addr           string        `mapstructure:"addr" validate:"required"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxBodyBytes   int64         `mapstructure:"maxBodyBytes" validate:"gte=0"`
	ForwardHeaders []string      `mapstructure:"forwardHeaders"`
	CORSOrigins    []string      `mapstructure:"corsOrigins"`
	Introspection  bool          `mapstructure:"introspection"`
	Pretty         bool          `mapstructure:"pretty"`
}

type TransportConfig struct {
	Timeout             time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxIdleConnsPerHost int           `mapstructure:"maxIdleConnsPerHost" validate:"gte=0"`
	MaxUploadBytes      int64         `mapstructure:"maxUploadBytes" validate:"gte=0"`
	MaxConcurrency      int           `mapstructure:"maxConcurrency" validate:"gte=0"`
	UserAgent           string        `mapstructure:"userAgent"`
	OAuth2              *OAuth2Config `mapstructure:"oauth2"`
}

// OAuth2Config enables the client credentials flow for upstream requests.
type OAuth2Config struct {
	TokenURL     string   `mapstructure:"tokenUrl" validate:"required,url"`
	ClientID     string   `mapstructure:"clientId" validate:"required"`
	ClientSecret string   `mapstructure:"clientSecret"`
	Scopes       []string `mapstructure:"scopes"`
}

// PubSubConfig selects the event bus. Without a NATS URL an in-memory bus
// is used.
type PubSubConfig struct {
	NATS struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"nats"`
}

type OtelConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Service  string `mapstructure:"service"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

var defaults = map[string]any{
	"server.addr":                   ":4000",
	"server.timeout":                "10s",
	"server.maxBodyBytes":           1 << 20,
	"server.forwardHeaders":         []string{},
	"server.corsOrigins":            []string{},
	"server.introspection":          true,
	"server.pretty":                 false,
	"transport.timeout":             "30s",
	"transport.maxIdleConnsPerHost": 64,
	"transport.maxUploadBytes":      0,
	"transport.maxConcurrency":      0,
	"transport.userAgent":           "graphql-mesh",
	"pubsub.nats.url":               "",
	"otel.endpoint":                 "",
	"otel.service":                  "mesh",
	"log.level":                     "info",
	"log.development":               false,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the configuration file at path (.yaml, .yml or .json).
//
// Operation descriptors are decoded as written so header names and body keys
// keep their case. Server, transport, pubsub, otel and log settings go
// through viper, which supplies defaults and MESH_* environment overrides.
func Load(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("config: unsupported file extension %q, expected .json, .yaml or .yml", filepath.Ext(path))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	root, err := readYAML(abs, 0)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Dir: filepath.Dir(abs)}
	if err := root.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}

	v, err := newViper(root)
	if err != nil {
		return nil, err
	}
	if s := v.GetString("baseUrl"); s != "" {
		cfg.BaseURL = s
	}
	cfg.Debug = cfg.Debug || enabled(v.GetString("debug"))
	var ambient struct {
		Server    ServerConfig    `mapstructure:"server"`
		Transport TransportConfig `mapstructure:"transport"`
		PubSub    PubSubConfig    `mapstructure:"pubsub"`
		Otel      OtelConfig      `mapstructure:"otel"`
		Log       LogConfig       `mapstructure:"log"`
	}
	if err := v.Unmarshal(&ambient); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.Server = ambient.Server
	cfg.Transport = ambient.Transport
	cfg.PubSub = ambient.PubSub
	cfg.Otel = ambient.Otel
	cfg.Log = ambient.Log

	if len(cfg.Operations) == 0 {
		return nil, ErrNoOperations
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, validationError(err)
	}
	return cfg, nil
}

func newViper(root *yaml.Node) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	// baseUrl has no default but may be overridden by MESH_BASEURL.
	if err := v.BindEnv("baseUrl"); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := v.BindEnv("debug", EnvPrefix+"_DEBUG", "DEBUG"); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return v, nil
}

// enabled reports whether a switch value turns a flag on. Any value other
// than "", "0" and "false" does.
func enabled(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false":
		return false
	}
	return true
}

// Registry returns the operation registry configuration.
func (c *Config) Registry() opreg.Config {
	return opreg.Config{
		BaseURL:          c.BaseURL,
		OperationHeaders: c.OperationHeaders,
		Operations:       c.Operations,
		Debug:            c.Debug,
	}
}

// SchemaSource returns the SDL and a name for error positions.
func (c *Config) SchemaSource() (name, sdl string, err error) {
	if c.TypeDefs != "" {
		return "typeDefs", c.TypeDefs, nil
	}
	p := resolvePath(c.Dir, c.Schema)
	data, err := os.ReadFile(p)
	if err != nil {
		return "", "", fmt.Errorf("config: schema: %w", err)
	}
	return p, string(data), nil
}

func validationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(ves))
	for _, ve := range ves {
		msgs = append(msgs, fmt.Sprintf("%s: %s", ve.Namespace(), formatFieldError(ve)))
	}
	return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
}

func formatFieldError(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required":
		return "required"
	case "required_without":
		return fmt.Sprintf("required when %s is not set", ve.Param())
	case "excluded_with":
		return fmt.Sprintf("must not be set together with %s", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	case "url":
		return "must be a valid URL"
	}
	if ve.Param() != "" {
		return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
	}
	return fmt.Sprintf("failed %s validation", ve.Tag())
}
