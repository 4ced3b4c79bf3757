// Package restype is the catalog of resource types the frontend can
// instantiate.
//
// Each Type names the attributes its instances expose. The frontend builds
// its expression scope from this catalog, so a property expression can only
// reach attributes the type actually declares, and the synthesized GetAtt
// expressions are known to be addressable.
package restype

import (
	"fmt"
	"log/slog"
	"sort"
)

// Type describes one resource type.
type Type struct {
	// Name is the type label used in source blocks and emitted as the
	// entity type in documents.
	Name string
	// Description is optional helper text.
	Description string
	// Attributes are the names addressable through attribute references,
	// e.g. Arn in resource.Bucket.Arn.
	Attributes []string
}

// HasAttribute reports whether the type declares the named attribute.
func (t *Type) HasAttribute(name string) bool {
	for _, a := range t.Attributes {
		if a == name {
			return true
		}
	}
	return false
}

// Catalog registers a set of types on a registry.
type Catalog func(r *Registry)

// Registry holds the resource types known to a single app instance.
type Registry struct {
	types map[string]*Type
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Register adds a type to the registry. Registering the same name twice is
// a wiring mistake and panics.
func (r *Registry) Register(t *Type) {
	if _, exists := r.types[t.Name]; exists {
		panic(fmt.Sprintf("resource type '%s' already registered", t.Name))
	}
	slog.Debug("Registering resource type.", "name", t.Name, "attributes", len(t.Attributes))
	r.types[t.Name] = t
}

// Lookup returns the named type.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Names returns every registered type name, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Default returns a registry populated with the builtin catalog.
func Default() *Registry {
	r := New()
	Builtin(r)
	return r
}

// Builtin registers the stock types.
var Builtin Catalog = func(r *Registry) {
	for _, t := range builtinTypes {
		r.Register(t)
	}
}

var builtinTypes = []*Type{
	{Name: "Bucket", Description: "Object storage bucket.", Attributes: []string{"Arn", "Name", "DomainName"}},
	{Name: "Policy", Description: "Access policy document attachment.", Attributes: []string{"Id"}},
	{Name: "Queue", Description: "Message queue.", Attributes: []string{"Arn", "Name", "Url"}},
	{Name: "Topic", Description: "Pub/sub topic.", Attributes: []string{"Arn", "Name"}},
	{Name: "Function", Description: "Deployed function.", Attributes: []string{"Arn", "Name", "Version"}},
	{Name: "Table", Description: "Key/value table.", Attributes: []string{"Arn", "Name", "StreamArn"}},
	{Name: "Database", Description: "Relational database instance.", Attributes: []string{"Arn", "Endpoint", "Port"}},
	{Name: "Service", Description: "Long-running service.", Attributes: []string{"Arn", "Name", "Endpoint"}},
	{Name: "Role", Description: "Execution role.", Attributes: []string{"Arn", "Id", "Name"}},
	{Name: "Key", Description: "Encryption key.", Attributes: []string{"Arn", "Id"}},
	{Name: "LogGroup", Description: "Log stream group.", Attributes: []string{"Arn", "Name"}},
	{Name: "Distribution", Description: "Content distribution.", Attributes: []string{"Id", "DomainName"}},
}
