package ir

// AttributeKind is the structural kind of an entity attribute.
type AttributeKind string

const (
	// KindScalar is a single column on the owning table.
	KindScalar AttributeKind = "scalar"

	// KindToOne references one row of another entity through a foreign key
	// column on the owning table.
	KindToOne AttributeKind = "to_one"

	// KindToMany is the inverse side of a to-one: rows of the target entity
	// carry a foreign key back to the owner.
	KindToMany AttributeKind = "to_many"

	// KindElementCollection is a collection of simple values stored in a
	// dedicated table keyed by the owner.
	KindElementCollection AttributeKind = "element_collection"
)

// ValidAttributeKinds defines allowed attribute kinds.
var ValidAttributeKinds = map[AttributeKind]bool{
	KindScalar:            true,
	KindToOne:             true,
	KindToMany:            true,
	KindElementCollection: true,
}

// IsCollection reports whether the kind maps to zero or more related rows.
// Collection-valued attributes are never represented as nullable columns.
func (k AttributeKind) IsCollection() bool {
	return k == KindToMany || k == KindElementCollection
}

// IsAssociation reports whether the kind points at another entity.
func (k AttributeKind) IsAssociation() bool {
	return k == KindToOne || k == KindToMany
}

// Value type names used by scalar attributes and element collections.
const (
	TypeString = "string"
	TypeInt    = "int"
	TypeBool   = "bool"
)

// ValidValueTypes defines allowed scalar value type names.
var ValidValueTypes = map[string]bool{
	TypeString: true,
	TypeInt:    true,
	TypeBool:   true,
}

// EntitySchema describes one mapped entity: its table and its attributes.
type EntitySchema struct {
	Name       string            `json:"name"`
	Table      string            `json:"table,omitempty"` // defaults to snake_case plural of Name
	Key        string            `json:"key,omitempty"`   // primary key column, defaults to "id"
	Attributes []AttributeSchema `json:"attributes"`
}

// AttributeSchema describes one attribute of an entity.
//
// Which mapping fields apply depends on Kind:
//
//	scalar              Type, Column
//	to_one              Target, Column (foreign key on the owner table)
//	to_many             Target, MappedBy (foreign key on the target table)
//	element_collection  Type, Table, JoinColumn, ValueColumn
type AttributeSchema struct {
	Name        string        `json:"name"`
	Kind        AttributeKind `json:"kind"`
	Type        string        `json:"type,omitempty"`
	Target      string        `json:"target,omitempty"`
	Column      string        `json:"column,omitempty"`
	MappedBy    string        `json:"mapped_by,omitempty"`
	Table       string        `json:"table,omitempty"`
	JoinColumn  string        `json:"join_column,omitempty"`
	ValueColumn string        `json:"value_column,omitempty"`
}

// EndpointSpec declares the filters an endpoint applies to its root entity.
type EndpointSpec struct {
	Name    string       `json:"name"`
	Root    string       `json:"root"`
	Filters []FilterSpec `json:"filters"`
}

// FilterSpec is the declared form of one filter descriptor.
// Const, when set, overrides parameter lookup entirely.
type FilterSpec struct {
	Path     string   `json:"path"`
	Operator string   `json:"op"`
	Params   []string `json:"params,omitempty"`
	Const    *string  `json:"const,omitempty"`
}

// SpecSet is everything compiled from one declarations directory.
type SpecSet struct {
	Entities  []EntitySchema `json:"entities"`
	Endpoints []EndpointSpec `json:"endpoints"`
}

// Endpoint returns the endpoint with the given name.
func (s *SpecSet) Endpoint(name string) (*EndpointSpec, bool) {
	for i := range s.Endpoints {
		if s.Endpoints[i].Name == name {
			return &s.Endpoints[i], true
		}
	}
	return nil, false
}
