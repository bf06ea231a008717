package graph

import (
	"fmt"
	"strings"

	"github.com/roach88/sieve/internal/ir"
)

// BoundPath is an attribute path resolved against a concrete root entity.
// Steps holds one attribute per path segment; Steps[i].Owner is the entity
// reached after the first i segments.
type BoundPath struct {
	Root  *Entity
	Path  string
	Steps []*Attribute
}

// Resolve walks path from the root entity.
//
// Fails with *InvalidPathError when the root is unknown, the path or one of
// its segments is empty, a segment names no attribute of the current entity,
// or a non-terminal segment is a scalar or an element collection.
func (g *Graph) Resolve(root, path string) (*BoundPath, error) {
	ent, ok := g.entities[root]
	if !ok {
		return nil, &InvalidPathError{Root: root, Path: path, Reason: "unknown root entity"}
	}
	if strings.TrimSpace(path) == "" {
		return nil, &InvalidPathError{Root: root, Path: path, Reason: "path is empty"}
	}

	segments := strings.Split(path, PathSeparator)
	steps := make([]*Attribute, 0, len(segments))
	current := ent

	for i, seg := range segments {
		if seg == "" {
			return nil, &InvalidPathError{Root: root, Path: path, Reason: fmt.Sprintf("segment %d is empty", i+1)}
		}

		attr, ok := current.attrs[seg]
		if !ok {
			return nil, &InvalidPathError{
				Root:    root,
				Path:    path,
				Segment: seg,
				Reason:  fmt.Sprintf("%s has no attribute %q", current.Name, seg),
			}
		}
		steps = append(steps, attr)

		if i == len(segments)-1 {
			break
		}
		if !attr.Kind.IsAssociation() {
			return nil, &InvalidPathError{
				Root:    root,
				Path:    path,
				Segment: seg,
				Reason:  fmt.Sprintf("%s attribute cannot be traversed", attr.Kind),
			}
		}
		current = attr.Target
	}

	return &BoundPath{Root: ent, Path: path, Steps: steps}, nil
}

// Terminal returns the attribute named by the last path segment.
func (p *BoundPath) Terminal() *Attribute {
	return p.Steps[len(p.Steps)-1]
}

// Kind returns the structural kind of the terminal attribute.
func (p *BoundPath) Kind() ir.AttributeKind {
	return p.Terminal().Kind
}

// Owner returns the entity that owns step i.
func (p *BoundPath) Owner(i int) *Entity {
	return p.Steps[i].Owner
}

// Segments returns the attribute names along the path.
func (p *BoundPath) Segments() []string {
	out := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		out[i] = s.Name
	}
	return out
}

func (p *BoundPath) String() string {
	return p.Root.Name + PathSeparator + strings.Join(p.Segments(), PathSeparator)
}
