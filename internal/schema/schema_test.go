package schema

import (
	"strings"
	"testing"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	users := NewTable("auth_user", "id", []string{"id", "username", "email"})
	profiles := NewTable("auth_userprofile", "user_id", []string{"user_id", "name", "country"})
	extension := NewTable("custom_reg_extrainfo", "user_id", []string{"user_id", "allow_marketing_emails"})
	r, err := NewRegistry(users, profiles, extension)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return r
}

func TestResolve_PriorityOrder(t *testing.T) {
	r := testRegistry(t)

	cases := []struct {
		field string
		table string
	}{
		{"username", "auth_user"},
		{"name", "auth_userprofile"},
		{"allow_marketing_emails", "custom_reg_extrainfo"},
		// user_id exists on both profiles and extension; profiles wins.
		{"user_id", "auth_userprofile"},
	}
	for _, tc := range cases {
		table, err := r.Resolve(tc.field)
		if err != nil {
			t.Fatalf("resolve %q: %v", tc.field, err)
		}
		if table.Name != tc.table {
			t.Fatalf("field %q resolved to %q, want %q", tc.field, table.Name, tc.table)
		}
	}
}

func TestResolve_UnknownFieldFails(t *testing.T) {
	r := testRegistry(t)

	if _, err := r.Resolve("no_such_field"); err == nil {
		t.Fatal("expected resolution error for unknown field")
	}
	if _, err := r.ResolveAll([]string{"username", "no_such_field"}); err == nil {
		t.Fatal("expected ResolveAll to fail before any query is built")
	}
}

func TestResolveAll_PreservesRequestOrder(t *testing.T) {
	r := testRegistry(t)

	fields := []string{"allow_marketing_emails", "username", "country"}
	resolved, err := r.ResolveAll(fields)
	if err != nil {
		t.Fatalf("resolve all: %v", err)
	}
	if len(resolved) != len(fields) {
		t.Fatalf("expected %d resolved fields, got %d", len(fields), len(resolved))
	}
	for i, f := range resolved {
		if f.Name != fields[i] {
			t.Fatalf("position %d: got %q, want %q", i, f.Name, fields[i])
		}
	}
}

func TestBuildQuery_Shape(t *testing.T) {
	r := testRegistry(t)

	query, err := r.BuildQuery([]string{"username", "allow_marketing_emails"})
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	want := "SELECT auth_user.username, custom_reg_extrainfo.allow_marketing_emails " +
		"FROM auth_user " +
		"LEFT JOIN custom_reg_extrainfo ON custom_reg_extrainfo.user_id = auth_user.id " +
		"JOIN auth_userprofile ON auth_userprofile.user_id = auth_user.id"
	if query != want {
		t.Fatalf("query mismatch:\n got: %s\nwant: %s", query, want)
	}
}

func TestBuildQuery_SelectListMatchesInputOrder(t *testing.T) {
	r := testRegistry(t)

	query, err := r.BuildQuery([]string{"country", "email", "allow_marketing_emails"})
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	selectList := query[len("SELECT "):strings.Index(query, " FROM ")]
	want := "auth_userprofile.country, auth_user.email, custom_reg_extrainfo.allow_marketing_emails"
	if selectList != want {
		t.Fatalf("select list %q, want %q", selectList, want)
	}
}

func TestBuildQuery_DuplicatesPassThrough(t *testing.T) {
	r := testRegistry(t)

	query, err := r.BuildQuery([]string{"username", "username"})
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if got := strings.Count(query, "auth_user.username"); got != 2 {
		t.Fatalf("expected duplicate field to appear twice, appeared %d times", got)
	}
}

func TestBuildQuery_EmptyFieldsFails(t *testing.T) {
	r := testRegistry(t)

	if _, err := r.BuildQuery(nil); err == nil {
		t.Fatal("expected error for empty field list")
	}
}

func TestNewRegistry_RequiresAllTables(t *testing.T) {
	users := NewTable("auth_user", "id", []string{"id"})
	profiles := NewTable("auth_userprofile", "user_id", []string{"user_id"})

	if _, err := NewRegistry(users, profiles, Table{}); err == nil {
		t.Fatal("expected error when extension table is missing")
	}
}
