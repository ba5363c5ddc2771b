package schema

import (
	"fmt"
	"strings"
)

// BuildQuery produces the single export query: the qualified select list in
// request order, the user table as the driving table, a LEFT JOIN to the
// extension table (extension rows are optional per user) and an inner JOIN
// to the profile table, both on the user identity key.
//
// Table and column names are trusted configuration, not user input; they are
// interpolated directly and never parameterized.
func (r *Registry) BuildQuery(fields []string) (string, error) {
	resolved, err := r.ResolveAll(fields)
	if err != nil {
		return "", err
	}

	selects := make([]string, 0, len(resolved))
	for _, f := range resolved {
		selects = append(selects, f.Qualified())
	}

	userKey := r.Users.JoinColumn
	if userKey == "" {
		userKey = "id"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s LEFT JOIN %s ON %s.%s = %s.%s JOIN %s ON %s.%s = %s.%s",
		strings.Join(selects, ", "),
		r.Users.Name,
		r.Extension.Name, r.Extension.Name, r.Extension.JoinColumn, r.Users.Name, userKey,
		r.Profiles.Name, r.Profiles.Name, r.Profiles.JoinColumn, r.Users.Name, userKey,
	)
	return query, nil
}
