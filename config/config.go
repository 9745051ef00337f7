package config

import (
	"bytes"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	KeyAADAppID = "aadAppId"
	KeyTenant   = "tenant"

	// Azure AD application registered for the CLI, consentable by any tenant.
	defaultAADAppID = "31359c7f-bd7e-475c-86db-fdb8c937548e"
	defaultTenant   = "common"

	// Version is the CLI release advertised to SharePoint in client-query payloads.
	Version = "1.23.0"

	// Delimiter is the prompt shown in the interactive shell.
	Delimiter = "m365$"

	EnvAADAppID = "OFFICE365CLI_AADAPPID"
	EnvTenant   = "OFFICE365CLI_TENANT"
)

type Config struct {
	AADAppID string `mapstructure:"aadAppId" validate:"required"`
	Tenant   string `mapstructure:"tenant" validate:"required"`
}

// ApplicationName identifies the CLI in client-query requests.
func (c Config) ApplicationName() string {
	return "CLI for Microsoft 365 v" + Version
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# o365 configuration
# aadAppId: Azure AD application the CLI authenticates as.
# tenant: tenant id (GUID) or "common" for the multi-tenant audience.
aadAppId: "31359c7f-bd7e-475c-86db-fdb8c937548e"
tenant: "common"
`
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAADAppID, defaultAADAppID)
	v.SetDefault(KeyTenant, defaultTenant)

	// Environment overrides predate the config file and keep working.
	_ = v.BindEnv(KeyAADAppID, EnvAADAppID)
	_ = v.BindEnv(KeyTenant, EnvTenant)
}
