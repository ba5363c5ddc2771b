// Package extension holds the registration-extension record saved alongside
// a user registration: a single marketing-email opt-in flag.
package extension

import (
	"fmt"
	"time"

	"github.com/openlearn/regexport/internal/schema"
)

// TableName is the SQL table backing the opt-in record.
const TableName = "custom_reg_extrainfo"

// FieldAllowMarketingEmails is the single extra field collected at
// registration time.
const FieldAllowMarketingEmails = "allow_marketing_emails"

// OptIn is the registration-extension record: one-to-one with a user,
// created when a user registers. The flag defaults to false.
type OptIn struct {
	UserID               int64
	AllowMarketingEmails bool
	UpdatedAt            time.Time
}

func (o OptIn) String() string {
	return fmt.Sprintf("OptIn for user %d", o.UserID)
}

// Table returns the descriptor used by the field resolver when the extension
// table is inferred from the form rather than declared in settings.
func Table() schema.Table {
	return schema.NewTable(TableName, "user_id", []string{"user_id", FieldAllowMarketingEmails})
}

// Form describes the registration form extension: its single field and the
// label presented to the user, rendered with the configured platform name.
type Form struct {
	platformName string
}

// NewForm creates the opt-in form descriptor.
func NewForm(platformName string) *Form {
	return &Form{platformName: platformName}
}

// Fields returns the form's field names in presentation order.
func (f *Form) Fields() []string {
	return []string{FieldAllowMarketingEmails}
}

// Label returns the display label for a field.
func (f *Form) Label(field string) string {
	if field == FieldAllowMarketingEmails {
		return fmt.Sprintf("I agree to get marketing emails from %s", f.platformName)
	}
	return field
}

// BoundTable returns the table the form writes to.
func (f *Form) BoundTable() schema.Table {
	return Table()
}
