// Package schema resolves exported field names against the three record
// sources that can own them: the primary user table, the profile table,
// and the registration-extension table.
//
// The registry is built once at startup from declared column sets. Field
// resolution walks the sources in a fixed priority order (users, profiles,
// extension) and the first source declaring the column wins. A name that
// collides across sources silently resolves to the higher-priority one.
package schema

import (
	"fmt"
	"strings"
)

// Table describes one record source: its SQL name, the column that joins it
// to the user identity, and the columns it declares.
type Table struct {
	Name       string
	JoinColumn string
	Columns    []string

	columnSet map[string]struct{}
}

// NewTable builds a table descriptor with a precomputed column set.
func NewTable(name, joinColumn string, columns []string) Table {
	set := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		set[strings.TrimSpace(col)] = struct{}{}
	}
	return Table{
		Name:       name,
		JoinColumn: joinColumn,
		Columns:    columns,
		columnSet:  set,
	}
}

// Has reports whether the table declares the given column.
func (t Table) Has(column string) bool {
	_, ok := t.columnSet[column]
	return ok
}

// IsZero reports whether the descriptor was never populated.
func (t Table) IsZero() bool { return t.Name == "" }

// Registry holds the three candidate tables in resolution priority order.
type Registry struct {
	Users     Table
	Profiles  Table
	Extension Table
}

// NewRegistry creates a registry. All three tables must be populated;
// extension-table resolution happens in the config layer before this point.
func NewRegistry(users, profiles, extension Table) (*Registry, error) {
	if users.IsZero() {
		return nil, fmt.Errorf("user table descriptor is required")
	}
	if profiles.IsZero() {
		return nil, fmt.Errorf("profile table descriptor is required")
	}
	if extension.IsZero() {
		return nil, fmt.Errorf("registration extension table descriptor is required")
	}
	return &Registry{Users: users, Profiles: profiles, Extension: extension}, nil
}

// Resolve returns the table owning the given field, checking users, then
// profiles, then the extension table.
func (r *Registry) Resolve(field string) (Table, error) {
	for _, t := range []Table{r.Users, r.Profiles, r.Extension} {
		if t.Has(field) {
			return t, nil
		}
	}
	return Table{}, fmt.Errorf("field %q not found in %s, %s, or %s",
		field, r.Users.Name, r.Profiles.Name, r.Extension.Name)
}

// ResolveAll resolves every field, preserving request order. Duplicates are
// not rejected; they resolve (and later export) twice.
func (r *Registry) ResolveAll(fields []string) ([]ResolvedField, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("at least one field is required")
	}
	resolved := make([]ResolvedField, 0, len(fields))
	for _, field := range fields {
		table, err := r.Resolve(field)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, ResolvedField{Name: field, Table: table})
	}
	return resolved, nil
}

// ResolvedField pairs a requested field with its owning table.
type ResolvedField struct {
	Name  string
	Table Table
}

// Qualified returns the table-qualified column reference.
func (f ResolvedField) Qualified() string {
	return f.Table.Name + "." + f.Name
}
