// Package scene describes a set of named solids placed in space and turns
// them into tessellated parts.
//
// A scene is read from TOML:
//
//	[[shape]]
//	name = "plate"
//	kind = "box"
//	size = [100, 50, 10]
//
//	[[shape.holes]]
//	kind = "cylinder"
//	height = 12
//	radius = 4
//	at = [20, 25, 5]
//
//	[[group]]
//	name = "frame"
//	at = [0, 0, 10]
//
//	[[group.shapes]]
//	kind = "box"
//	size = [10, 10, 40]
//
// Boxes have their minimum corner at the origin; cylinders run along Z and
// are centred on the origin. Each shape is rotated (degrees, about X then Y
// then Z) and then moved to At. Holes and clips live in the frame of the
// shape they cut.
package scene

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Kind names a primitive.
type Kind string

const (
	KindBox      Kind = "box"
	KindCylinder Kind = "cylinder"
)

var (
	ErrUnknownShape  = errors.New("scene: unknown shape kind")
	ErrBadVector     = errors.New("scene: vectors need 3 components")
	ErrMissingName   = errors.New("scene: part needs a name")
	ErrDuplicateName = errors.New("scene: duplicate part name")
)

// Shape is a primitive with optional cuts. A top-level shape is one part.
type Shape struct {
	Name   string    `toml:"name"`
	Kind   Kind      `toml:"kind"`
	Size   []float64 `toml:"size"`
	Radius float64   `toml:"radius"`
	Height float64   `toml:"height"`
	At     []float64 `toml:"at"`
	Rotate []float64 `toml:"rotate"`
	Holes  []Shape   `toml:"holes"`
	Clip   *Shape    `toml:"clip"`
}

// Group is the union of its shapes, placed as one part.
type Group struct {
	Name   string    `toml:"name"`
	At     []float64 `toml:"at"`
	Rotate []float64 `toml:"rotate"`
	Shapes []Shape   `toml:"shapes"`
}

// Scene is everything to be checked for clashes.
type Scene struct {
	Shapes []Shape `toml:"shape"`
	Groups []Group `toml:"group"`
}

// Len returns the number of parts.
func (s *Scene) Len() int {
	return len(s.Shapes) + len(s.Groups)
}

// Names returns the part names, shapes first, in declaration order.
func (s *Scene) Names() []string {
	names := make([]string, 0, s.Len())
	for _, sh := range s.Shapes {
		names = append(names, sh.Name)
	}
	for _, g := range s.Groups {
		names = append(names, g.Name)
	}
	return names
}

// Load reads a TOML scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "scene: read %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scene: %s", path)
	}
	return s, nil
}

// Parse decodes and validates a TOML scene.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if _, err := toml.Decode(string(data), &s); err != nil {
		return nil, fmt.Errorf("scene: decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks names, kinds and vector lengths. Dimensions are checked by
// the kernel when the scene is built.
func (s *Scene) Validate() error {
	seen := make(map[string]bool, s.Len())
	name := func(n string) error {
		if n == "" {
			return ErrMissingName
		}
		if seen[n] {
			return errors.Wrapf(ErrDuplicateName, "%q", n)
		}
		seen[n] = true
		return nil
	}

	for i := range s.Shapes {
		sh := &s.Shapes[i]
		if err := name(sh.Name); err != nil {
			return errors.Wrapf(err, "shape %d", i)
		}
		if err := sh.validate(); err != nil {
			return errors.Wrapf(err, "shape %q", sh.Name)
		}
	}
	for i := range s.Groups {
		g := &s.Groups[i]
		if err := name(g.Name); err != nil {
			return errors.Wrapf(err, "group %d", i)
		}
		if err := checkVec(g.At, "at"); err != nil {
			return errors.Wrapf(err, "group %q", g.Name)
		}
		if err := checkVec(g.Rotate, "rotate"); err != nil {
			return errors.Wrapf(err, "group %q", g.Name)
		}
		for j := range g.Shapes {
			if err := g.Shapes[j].validate(); err != nil {
				return errors.Wrapf(err, "group %q shape %d", g.Name, j)
			}
		}
	}
	return nil
}

func (sh *Shape) validate() error {
	switch sh.Kind {
	case KindBox:
		if len(sh.Size) != 3 {
			return errors.Wrap(ErrBadVector, "size")
		}
	case KindCylinder:
	default:
		return errors.Wrapf(ErrUnknownShape, "%q", sh.Kind)
	}
	if err := checkVec(sh.At, "at"); err != nil {
		return err
	}
	if err := checkVec(sh.Rotate, "rotate"); err != nil {
		return err
	}
	for i := range sh.Holes {
		if err := sh.Holes[i].validate(); err != nil {
			return errors.Wrapf(err, "hole %d", i)
		}
	}
	if sh.Clip != nil {
		if err := sh.Clip.validate(); err != nil {
			return errors.Wrap(err, "clip")
		}
	}
	return nil
}

// checkVec accepts an omitted vector or one with 3 components.
func checkVec(v []float64, field string) error {
	if len(v) != 0 && len(v) != 3 {
		return errors.Wrapf(ErrBadVector, "%s has %d", field, len(v))
	}
	return nil
}

// vec returns the components of an optional vector.
func vec(v []float64) (x, y, z float64) {
	if len(v) != 3 {
		return 0, 0, 0
	}
	return v[0], v[1], v[2]
}
