// Package config loads the configuration of an arbiter-backed application:
// the emulated platform's security policy, grant store location, rationale
// texts, and capability catalog.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/capability-arbiter/capability"
)

// Config is the root configuration document.
type Config struct {
	// AppID identifies the application, e.g. in the settings deep link.
	AppID string `yaml:"app_id" json:"app_id" validate:"required" jsonschema:"minLength=1,description=Application identifier used for the settings deep link"`
	// PlatformVersion is the emulated platform version; empty means current.
	PlatformVersion string `yaml:"platform_version" json:"platform_version,omitempty" jsonschema:"description=Emulated platform version"`
	// RuntimeModelConstraint matches versions that grant capabilities at runtime.
	RuntimeModelConstraint string `yaml:"runtime_model_constraint" json:"runtime_model_constraint,omitempty" jsonschema:"description=Semver constraint for runtime capability versions"`
	SecurityLevel          string `yaml:"security_level" json:"security_level,omitempty" validate:"omitempty,oneof=strict standard permissive" jsonschema:"enum=strict,enum=standard,enum=permissive"`
	GrantsPath             string `yaml:"grants_path" json:"grants_path,omitempty" jsonschema:"description=Path of the platform grant database"`
	// AutoGrant and Deny hold doublestar patterns matched against capability names.
	AutoGrant []string          `yaml:"auto_grant" json:"auto_grant,omitempty" validate:"dive,required"`
	Deny      []string          `yaml:"deny" json:"deny,omitempty" validate:"dive,required"`
	Rationale map[string]string `yaml:"rationale" json:"rationale,omitempty" validate:"dive,keys,required,endkeys,required"`
	Catalog   []CatalogEntry    `yaml:"catalog" json:"catalog,omitempty" validate:"dive"`
	// FirstToken is the first correlation token the arbiter hands out.
	// Omitted means DefaultFirstToken; zero and negative values are rejected.
	FirstToken int `yaml:"first_token" json:"first_token,omitempty" validate:"gte=1" jsonschema:"minimum=1"`
}

// CatalogEntry describes one capability.
type CatalogEntry struct {
	Name        string `yaml:"name" json:"name" validate:"required" jsonschema:"minLength=1"`
	Description string `yaml:"description" json:"description" validate:"required"`
	Risk        string `yaml:"risk" json:"risk,omitempty" validate:"omitempty,oneof=none low medium high critical" jsonschema:"enum=none,enum=low,enum=medium,enum=high,enum=critical"`
}

// Defaults used for omitted fields.
const (
	DefaultSecurityLevel = "standard"
	DefaultFirstToken    = 1
)

// ApplyDefaults fills omitted fields.
func (c *Config) ApplyDefaults() {
	if c.SecurityLevel == "" {
		c.SecurityLevel = DefaultSecurityLevel
	}
	if c.FirstToken == 0 {
		c.FirstToken = DefaultFirstToken
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RationaleMessages returns the rationale texts keyed by capability.
func (c *Config) RationaleMessages() map[capability.Capability]string {
	out := make(map[capability.Capability]string, len(c.Rationale))
	for k, v := range c.Rationale {
		out[capability.Capability(k)] = v
	}
	return out
}

// BuildCatalog returns the default catalog extended with the configured entries.
func (c *Config) BuildCatalog() *capability.Catalog {
	catalog := capability.DefaultCatalog()
	for _, e := range c.Catalog {
		catalog.Register(capability.Capability(e.Name), capability.Info{
			Description: e.Description,
			Risk:        ParseRisk(e.Risk),
		})
	}
	return catalog
}

// ParseRisk converts a risk name to a level. Unknown names are medium.
func ParseRisk(s string) capability.RiskLevel {
	switch s {
	case "none":
		return capability.RiskNone
	case "low":
		return capability.RiskLow
	case "high":
		return capability.RiskHigh
	case "critical":
		return capability.RiskCritical
	default:
		return capability.RiskMedium
	}
}
