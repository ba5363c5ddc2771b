// Package config provides configuration loading for the registration
// extension and its export command.
//
// Settings are loaded once at startup from an optional YAML file plus
// environment overrides and passed in explicitly; there is no global
// settings object.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openlearn/regexport/internal/schema"
)

// Default table layouts, matching the platform's account schema.
var (
	defaultUserColumns = []string{
		"id", "username", "first_name", "last_name", "email",
		"is_active", "date_joined", "last_login",
	}
	defaultProfileColumns = []string{
		"user_id", "name", "year_of_birth", "gender", "level_of_education",
		"country", "city", "goals", "mailing_address",
	}
)

// TableSettings declares one record source.
type TableSettings struct {
	Table      string   `yaml:"table"`
	JoinColumn string   `yaml:"join_column"`
	Columns    []string `yaml:"columns"`
}

// ExtensionSettings declares the registration-extension source. Either the
// table is declared directly, or a registered form name is given and the
// table is taken from the form's binding.
type ExtensionSettings struct {
	Table      string   `yaml:"table"`
	JoinColumn string   `yaml:"join_column"`
	Columns    []string `yaml:"columns"`
	Form       string   `yaml:"form"`
}

// DatabaseSettings holds connection strings. The export command reads from
// the replica when one is configured.
type DatabaseSettings struct {
	DefaultDSN string `yaml:"default_dsn"`
	ReplicaDSN string `yaml:"replica_dsn"`
}

// ObjectStoreSettings holds the upload target connection parameters.
type ObjectStoreSettings struct {
	EndpointURL string `yaml:"endpoint_url"`
	Region      string `yaml:"region"`
	UseSSL      bool   `yaml:"use_ssl"`
}

// Settings is the root configuration struct.
type Settings struct {
	PlatformName string              `yaml:"platform_name"`
	Database     DatabaseSettings    `yaml:"database"`
	ObjectStore  ObjectStoreSettings `yaml:"object_store"`
	Users        TableSettings       `yaml:"users"`
	Profiles     TableSettings       `yaml:"profiles"`
	Extension    ExtensionSettings   `yaml:"registration_extension"`

	// Values holds free-form named settings, used for credential
	// indirection by the export command.
	Values map[string]string `yaml:"values"`
}

// Load reads settings from path (optional) and applies environment
// overrides and defaults.
func Load(path string) (*Settings, error) {
	s := &Settings{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read settings file: %w", err)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("parse settings file: %w", err)
		}
	}
	s.applyEnv()
	s.applyDefaults()
	return s, nil
}

func (s *Settings) applyEnv() {
	s.PlatformName = getEnv("REGEXPORT_PLATFORM_NAME", s.PlatformName)
	s.Database.DefaultDSN = getEnv("REGEXPORT_DEFAULT_DSN", s.Database.DefaultDSN)
	s.Database.ReplicaDSN = getEnv("REGEXPORT_REPLICA_DSN", s.Database.ReplicaDSN)
	s.ObjectStore.EndpointURL = getEnv("REGEXPORT_S3_ENDPOINT", s.ObjectStore.EndpointURL)
	s.ObjectStore.Region = getEnv("REGEXPORT_S3_REGION", s.ObjectStore.Region)
}

func (s *Settings) applyDefaults() {
	if s.PlatformName == "" {
		s.PlatformName = "Open Learn"
	}
	if s.Users.Table == "" {
		s.Users.Table = "auth_user"
	}
	if s.Users.JoinColumn == "" {
		s.Users.JoinColumn = "id"
	}
	if len(s.Users.Columns) == 0 {
		s.Users.Columns = defaultUserColumns
	}
	if s.Profiles.Table == "" {
		s.Profiles.Table = "auth_userprofile"
	}
	if s.Profiles.JoinColumn == "" {
		s.Profiles.JoinColumn = "user_id"
	}
	if len(s.Profiles.Columns) == 0 {
		s.Profiles.Columns = defaultProfileColumns
	}
	if s.Extension.JoinColumn == "" {
		s.Extension.JoinColumn = "user_id"
	}
}

// ReplicaOrDefaultDSN returns the replica connection string when configured,
// otherwise the default one.
func (s *Settings) ReplicaOrDefaultDSN() string {
	if s.Database.ReplicaDSN != "" {
		return s.Database.ReplicaDSN
	}
	return s.Database.DefaultDSN
}

// Lookup resolves a named setting, checking the values map first and the
// environment second. Naming a setting that does not exist is an error, not
// an empty value.
func (s *Settings) Lookup(name string) (string, error) {
	if v, ok := s.Values[name]; ok {
		return v, nil
	}
	if v := os.Getenv(name); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("setting %q is not defined", name)
}

// FormCatalog resolves a registered registration-form name to the table the
// form is bound to.
type FormCatalog interface {
	BoundTable(name string) (schema.Table, bool)
}

// ExtensionTable resolves the registration-extension table descriptor.
// An explicitly declared table wins; otherwise the configured form's bound
// table is used. With neither, the export feature cannot run.
func (s *Settings) ExtensionTable(forms FormCatalog) (schema.Table, error) {
	if s.Extension.Table != "" {
		return schema.NewTable(s.Extension.Table, s.Extension.JoinColumn, s.Extension.Columns), nil
	}
	if s.Extension.Form != "" && forms != nil {
		if table, ok := forms.BoundTable(s.Extension.Form); ok {
			return table, nil
		}
		return schema.Table{}, fmt.Errorf("registration extension form %q is not registered", s.Extension.Form)
	}
	return schema.Table{}, fmt.Errorf("no registration extension table or form configured")
}

// SchemaRegistry builds the three-table resolver registry from settings.
func (s *Settings) SchemaRegistry(forms FormCatalog) (*schema.Registry, error) {
	extension, err := s.ExtensionTable(forms)
	if err != nil {
		return nil, err
	}
	users := schema.NewTable(s.Users.Table, s.Users.JoinColumn, s.Users.Columns)
	profiles := schema.NewTable(s.Profiles.Table, s.Profiles.JoinColumn, s.Profiles.Columns)
	return schema.NewRegistry(users, profiles, extension)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
