package extension

import (
	"fmt"
	"sync"

	"github.com/openlearn/regexport/internal/schema"
)

// FormName is the registry key of the opt-in form.
const FormName = "optin"

// Registry holds registration forms indexed by name. The export command's
// extension-table fallback resolves through it when no table is declared in
// settings.
type Registry struct {
	forms map[string]*Form
	mu    sync.RWMutex
}

// NewRegistry creates an empty form registry.
func NewRegistry() *Registry {
	return &Registry{forms: make(map[string]*Form)}
}

// Register adds a form under the given name.
// Panics if the name is already registered.
func (r *Registry) Register(name string, form *Form) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.forms[name]; exists {
		panic(fmt.Sprintf("registration form already registered: %s", name))
	}
	r.forms[name] = form
}

// Get returns the form registered under name.
func (r *Registry) Get(name string) (*Form, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	form, ok := r.forms[name]
	return form, ok
}

// BoundTable returns the table bound to the named form. Implements the
// config package's FormCatalog.
func (r *Registry) BoundTable(name string) (schema.Table, bool) {
	form, ok := r.Get(name)
	if !ok {
		return schema.Table{}, false
	}
	return form.BoundTable(), true
}

// DefaultRegistry returns a registry with the opt-in form registered, the
// way the surrounding registration flow wires it.
func DefaultRegistry(platformName string) *Registry {
	r := NewRegistry()
	r.Register(FormName, NewForm(platformName))
	return r
}
