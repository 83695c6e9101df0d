package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Run modes.
const (
	ModeServe = "serve"
	ModeMCP   = "mcp"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Tables    TablesConfig      `yaml:"tables"`
	Geometry  GeometryConfig    `yaml:"geometry"`
	Signature SignatureConfig   `yaml:"signature"`
	Auth      AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Tables.Validate(); err != nil {
		return err
	}
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if err := c.Signature.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
//
// Mode selects the runtime surface:
//   - "serve" (default): HTTP API with the reference-table watcher.
//   - "mcp": MCP server on stdio for LLM integration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	Mode     string     `yaml:"mode"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	// Normalise empty mode to "serve" for backward compatibility.
	if c.Mode == "" {
		c.Mode = ModeServe
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(ModeServe, ModeMCP)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// TablesConfig holds the reference capacity table locations: the CSV
// directory that gets synced and the SQLite database they load into.
type TablesConfig struct {
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Validate validates the tables configuration.
func (c *TablesConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.SQLitePath, validation.Required),
	)
}

// GeometryConfig holds intersection-detection defaults.
type GeometryConfig struct {
	ToleranceMM float64 `yaml:"tolerance_mm"`
}

// Validate validates the geometry configuration.
func (c *GeometryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ToleranceMM, validation.Min(0.0)),
	)
}

// SignatureConfig holds the fabrication-signature quantization steps and
// the member roles whose end cuts are canonicalized as symmetric.
type SignatureConfig struct {
	LengthQuantumMM float64  `yaml:"length_quantum_mm"`
	AngleQuantumDeg float64  `yaml:"angle_quantum_deg"`
	SymmetricRoles  []string `yaml:"symmetric_roles"`
}

// Validate validates the signature configuration.
func (c *SignatureConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LengthQuantumMM, validation.Min(0.0)),
		validation.Field(&c.AngleQuantumDeg, validation.Min(0.0)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Mode:     ModeServe,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Tables: TablesConfig{
			Dir:        "./tables",
			SQLitePath: "./tenon.db",
		},
		Geometry: GeometryConfig{
			ToleranceMM: 12.7,
		},
		Signature: SignatureConfig{
			LengthQuantumMM: 1.5875,
			AngleQuantumDeg: 0.1,
			SymmetricRoles:  []string{"Brace"},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
