package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openlearn/regexport/internal/schema"
)

func writeSettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings file: %v", err)
	}
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Users.Table != "auth_user" || s.Users.JoinColumn != "id" {
		t.Fatalf("unexpected user table defaults: %+v", s.Users)
	}
	if s.Profiles.Table != "auth_userprofile" || s.Profiles.JoinColumn != "user_id" {
		t.Fatalf("unexpected profile table defaults: %+v", s.Profiles)
	}
	if len(s.Users.Columns) == 0 || len(s.Profiles.Columns) == 0 {
		t.Fatal("expected default column sets to be populated")
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := writeSettingsFile(t, `
platform_name: Example U
database:
  default_dsn: postgres://app@primary/app
  replica_dsn: postgres://app@replica/app
registration_extension:
  table: custom_reg_extrainfo
  columns: [user_id, allow_marketing_emails]
values:
  CSV_EXPORTER_S3_KEY: AKIAEXAMPLE
`)
	t.Setenv("REGEXPORT_REPLICA_DSN", "postgres://app@replica2/app")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.PlatformName != "Example U" {
		t.Fatalf("platform name %q", s.PlatformName)
	}
	if got := s.ReplicaOrDefaultDSN(); got != "postgres://app@replica2/app" {
		t.Fatalf("env override not applied, got %q", got)
	}
}

func TestReplicaOrDefaultDSN_FallsBackToDefault(t *testing.T) {
	s := &Settings{}
	s.Database.DefaultDSN = "postgres://app@primary/app"
	if got := s.ReplicaOrDefaultDSN(); got != "postgres://app@primary/app" {
		t.Fatalf("got %q", got)
	}
}

func TestLookup(t *testing.T) {
	s := &Settings{Values: map[string]string{"CSV_EXPORTER_S3_KEY": "AKIAEXAMPLE"}}

	v, err := s.Lookup("CSV_EXPORTER_S3_KEY")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if v != "AKIAEXAMPLE" {
		t.Fatalf("got %q", v)
	}

	t.Setenv("CSV_EXPORTER_S3_SECRET", "shhh")
	if v, err := s.Lookup("CSV_EXPORTER_S3_SECRET"); err != nil || v != "shhh" {
		t.Fatalf("env lookup: %q, %v", v, err)
	}

	if _, err := s.Lookup("NO_SUCH_SETTING"); err == nil {
		t.Fatal("expected error for undefined setting")
	}
}

type fakeCatalog struct {
	table schema.Table
}

func (c fakeCatalog) BoundTable(name string) (schema.Table, bool) {
	if name == "optin" {
		return c.table, true
	}
	return schema.Table{}, false
}

func TestExtensionTable_ExplicitTableWins(t *testing.T) {
	s := &Settings{}
	s.Extension = ExtensionSettings{
		Table:      "custom_reg_extrainfo",
		JoinColumn: "user_id",
		Columns:    []string{"user_id", "allow_marketing_emails"},
		Form:       "optin",
	}

	table, err := s.ExtensionTable(fakeCatalog{})
	if err != nil {
		t.Fatalf("resolve extension table: %v", err)
	}
	if table.Name != "custom_reg_extrainfo" {
		t.Fatalf("got table %q", table.Name)
	}
	if !table.Has("allow_marketing_emails") {
		t.Fatal("expected declared column on extension table")
	}
}

func TestExtensionTable_FormFallback(t *testing.T) {
	bound := schema.NewTable("form_bound_table", "user_id", []string{"user_id", "allow_marketing_emails"})
	s := &Settings{}
	s.Extension.Form = "optin"

	table, err := s.ExtensionTable(fakeCatalog{table: bound})
	if err != nil {
		t.Fatalf("resolve via form: %v", err)
	}
	if table.Name != "form_bound_table" {
		t.Fatalf("got table %q", table.Name)
	}
}

func TestExtensionTable_UnregisteredFormFails(t *testing.T) {
	s := &Settings{}
	s.Extension.Form = "missing"

	if _, err := s.ExtensionTable(fakeCatalog{}); err == nil {
		t.Fatal("expected error for unregistered form")
	}
}

func TestExtensionTable_NothingConfiguredFails(t *testing.T) {
	s := &Settings{}

	if _, err := s.ExtensionTable(fakeCatalog{}); err == nil {
		t.Fatal("expected fatal error when neither table nor form is configured")
	}
	if _, err := s.SchemaRegistry(fakeCatalog{}); err == nil {
		t.Fatal("expected registry construction to fail before touching the database")
	}
}

func TestSchemaRegistry_ResolvesAcrossAllThreeTables(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s.Extension = ExtensionSettings{
		Table:      "custom_reg_extrainfo",
		JoinColumn: "user_id",
		Columns:    []string{"user_id", "allow_marketing_emails"},
	}

	registry, err := s.SchemaRegistry(nil)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	if _, err := registry.BuildQuery([]string{"username", "name", "allow_marketing_emails"}); err != nil {
		t.Fatalf("expected defaults to resolve: %v", err)
	}
}
