package graph

import (
	"fmt"
	"strings"

	"github.com/roach88/sieve/internal/ir"
)

// RootAlias is the alias of the outer (root entity) row in generated queries.
// Correlated sub-queries reference the outer row through it.
const RootAlias = "root"

// PathSeparator separates segments of an attribute path.
const PathSeparator = "."

// DefaultKey is the primary key column used when an entity declares none.
const DefaultKey = "id"

// Graph is the immutable entity relationship graph.
type Graph struct {
	entities    map[string]*Entity
	order       []*Entity
	fingerprint string
}

// Entity is one mapped entity with mapping defaults applied.
type Entity struct {
	Name  string
	Table string
	Key   string

	attrs   map[string]*Attribute
	order   []*Attribute
	inbound []*Attribute // to_many attributes of other entities targeting this one
}

// Attribute is one resolved entity attribute. Target is set for to_one and
// to_many attributes and nil otherwise.
type Attribute struct {
	Name   string
	Kind   ir.AttributeKind
	Type   string
	Owner  *Entity
	Target *Entity

	Column      string // scalar column or to_one foreign key on the owner table
	MappedBy    string // to_many foreign key on the target table
	Table       string // element collection table
	JoinColumn  string // element collection foreign key to the owner
	ValueColumn string // element collection value column

	targetName string
}

// Column describes one physical column of an entity table.
type Column struct {
	Name       string
	Type       string
	References *Entity // non-nil for foreign keys
}

// New builds a graph from entity declarations.
// All declarations are validated before any is linked; the returned graph
// is never modified afterwards.
func New(schemas []ir.EntitySchema) (*Graph, error) {
	g := &Graph{entities: make(map[string]*Entity, len(schemas))}
	tables := make(map[string]string)

	for _, s := range schemas {
		if strings.TrimSpace(s.Name) == "" {
			return nil, &SchemaError{Entity: "<unnamed>", Message: "entity name is required"}
		}
		if _, dup := g.entities[s.Name]; dup {
			return nil, &SchemaError{Entity: s.Name, Message: "duplicate entity"}
		}

		e := &Entity{
			Name:  s.Name,
			Table: s.Table,
			Key:   s.Key,
			attrs: make(map[string]*Attribute, len(s.Attributes)),
		}
		if e.Table == "" {
			e.Table = tableName(s.Name)
		}
		if e.Key == "" {
			e.Key = DefaultKey
		}
		if other, dup := tables[e.Table]; dup {
			return nil, &SchemaError{Entity: s.Name, Message: fmt.Sprintf("table %q already used by %s", e.Table, other)}
		}
		tables[e.Table] = s.Name

		for _, as := range s.Attributes {
			attr, err := newAttribute(e, as)
			if err != nil {
				return nil, err
			}
			if _, dup := e.attrs[attr.Name]; dup {
				return nil, &SchemaError{Entity: e.Name, Attribute: attr.Name, Message: "duplicate attribute"}
			}
			e.attrs[attr.Name] = attr
			e.order = append(e.order, attr)
		}

		g.entities[e.Name] = e
		g.order = append(g.order, e)
	}

	if err := g.link(tables); err != nil {
		return nil, err
	}

	fp, err := ir.GraphFingerprint(g.Schemas())
	if err != nil {
		return nil, err
	}
	g.fingerprint = fp

	return g, nil
}

// newAttribute validates one declaration and applies the owner-relative
// mapping defaults. Target-relative defaults are applied by link.
func newAttribute(owner *Entity, as ir.AttributeSchema) (*Attribute, error) {
	fail := func(msg string, args ...any) error {
		return &SchemaError{Entity: owner.Name, Attribute: as.Name, Message: fmt.Sprintf(msg, args...)}
	}

	if strings.TrimSpace(as.Name) == "" {
		return nil, fail("attribute name is required")
	}
	if strings.Contains(as.Name, PathSeparator) {
		return nil, fail("attribute name must not contain %q", PathSeparator)
	}
	if !ir.ValidAttributeKinds[as.Kind] {
		return nil, fail("unknown attribute kind %q", as.Kind)
	}

	a := &Attribute{
		Name:        as.Name,
		Kind:        as.Kind,
		Type:        as.Type,
		Owner:       owner,
		Column:      as.Column,
		MappedBy:    as.MappedBy,
		Table:       as.Table,
		JoinColumn:  as.JoinColumn,
		ValueColumn: as.ValueColumn,
		targetName:  as.Target,
	}

	switch as.Kind {
	case ir.KindScalar, ir.KindElementCollection:
		if a.Type == "" {
			a.Type = ir.TypeString
		}
		if !ir.ValidValueTypes[a.Type] {
			return nil, fail("unsupported value type %q", a.Type)
		}
		if as.Target != "" {
			return nil, fail("%s attribute cannot declare a target", as.Kind)
		}
	case ir.KindToOne, ir.KindToMany:
		if as.Target == "" {
			return nil, fail("%s attribute requires a target entity", as.Kind)
		}
		a.Type = ir.TypeInt
	}

	switch as.Kind {
	case ir.KindScalar:
		if a.Column == "" {
			a.Column = snakeCase(a.Name)
		}
	case ir.KindToOne:
		if a.Column == "" {
			a.Column = snakeCase(a.Name) + "_id"
		}
	case ir.KindToMany:
		if a.MappedBy == "" {
			a.MappedBy = snakeCase(owner.Name) + "_id"
		}
	case ir.KindElementCollection:
		if a.Table == "" {
			a.Table = owner.Table + "_" + snakeCase(a.Name)
		}
		if a.JoinColumn == "" {
			a.JoinColumn = snakeCase(owner.Name) + "_id"
		}
		if a.ValueColumn == "" {
			a.ValueColumn = "value"
		}
	}

	return a, nil
}

// link resolves association targets once every entity is known.
func (g *Graph) link(tables map[string]string) error {
	for _, e := range g.order {
		for _, a := range e.order {
			switch a.Kind {
			case ir.KindToOne, ir.KindToMany:
				t, ok := g.entities[a.targetName]
				if !ok {
					return &SchemaError{Entity: e.Name, Attribute: a.Name, Message: fmt.Sprintf("unknown target entity %q", a.targetName)}
				}
				a.Target = t
				if a.Kind == ir.KindToMany {
					t.inbound = append(t.inbound, a)
				}
			case ir.KindElementCollection:
				if other, dup := tables[a.Table]; dup {
					return &SchemaError{Entity: e.Name, Attribute: a.Name, Message: fmt.Sprintf("table %q already used by %s", a.Table, other)}
				}
				tables[a.Table] = e.Name + "." + a.Name
			}
		}
	}
	return nil
}

// Entity returns the entity with the given name.
func (g *Graph) Entity(name string) (*Entity, bool) {
	e, ok := g.entities[name]
	return e, ok
}

// Entities returns all entities in declaration order.
func (g *Graph) Entities() []*Entity {
	out := make([]*Entity, len(g.order))
	copy(out, g.order)
	return out
}

// Fingerprint identifies the normalized graph. Two graphs with the same
// fingerprint map to identical tables and columns.
func (g *Graph) Fingerprint() string {
	return g.fingerprint
}

// Schemas returns the declarations with every mapping default filled in.
func (g *Graph) Schemas() []ir.EntitySchema {
	out := make([]ir.EntitySchema, 0, len(g.order))
	for _, e := range g.order {
		out = append(out, e.Schema())
	}
	return out
}

// Schema returns the normalized declaration of the entity.
func (e *Entity) Schema() ir.EntitySchema {
	s := ir.EntitySchema{Name: e.Name, Table: e.Table, Key: e.Key}
	for _, a := range e.order {
		as := ir.AttributeSchema{
			Name:        a.Name,
			Kind:        a.Kind,
			Column:      a.Column,
			MappedBy:    a.MappedBy,
			Table:       a.Table,
			JoinColumn:  a.JoinColumn,
			ValueColumn: a.ValueColumn,
		}
		if a.Target != nil {
			as.Target = a.Target.Name
		} else {
			as.Type = a.Type
		}
		s.Attributes = append(s.Attributes, as)
	}
	return s
}

// Attribute returns the named attribute.
func (e *Entity) Attribute(name string) (*Attribute, bool) {
	a, ok := e.attrs[name]
	return a, ok
}

// Attributes returns the entity's attributes in declaration order.
func (e *Entity) Attributes() []*Attribute {
	out := make([]*Attribute, len(e.order))
	copy(out, e.order)
	return out
}

// Columns returns the physical columns of the entity table, key first.
// Foreign keys required by to_many attributes of other entities are
// included unless a to_one attribute already maps the same column.
func (e *Entity) Columns() []Column {
	cols := []Column{{Name: e.Key, Type: ir.TypeInt}}
	seen := map[string]bool{e.Key: true}

	for _, a := range e.order {
		switch a.Kind {
		case ir.KindScalar:
			if !seen[a.Column] {
				cols = append(cols, Column{Name: a.Column, Type: a.Type})
				seen[a.Column] = true
			}
		case ir.KindToOne:
			if !seen[a.Column] {
				cols = append(cols, Column{Name: a.Column, Type: ir.TypeInt, References: a.Target})
				seen[a.Column] = true
			}
		}
	}
	for _, in := range e.inbound {
		if !seen[in.MappedBy] {
			cols = append(cols, Column{Name: in.MappedBy, Type: ir.TypeInt, References: in.Owner})
			seen[in.MappedBy] = true
		}
	}
	return cols
}

// ElementCollections returns the entity's element collection attributes.
func (e *Entity) ElementCollections() []*Attribute {
	var out []*Attribute
	for _, a := range e.order {
		if a.Kind == ir.KindElementCollection {
			out = append(out, a)
		}
	}
	return out
}
