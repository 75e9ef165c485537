package scene

import (
	"fmt"

	"github.com/chazu/rangeheap/pkg/kernel"
)

// Build tessellates every part of the scene with k. Parts come out in the
// order of Names.
func (s *Scene) Build(k kernel.Kernel) ([]kernel.Part, error) {
	parts := make([]kernel.Part, 0, s.Len())

	for i := range s.Shapes {
		sh := &s.Shapes[i]
		solid, err := sh.solid(k)
		if err != nil {
			return nil, fmt.Errorf("scene: shape %q: %w", sh.Name, err)
		}
		part, err := tessellate(k, sh.Name, solid)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	for i := range s.Groups {
		g := &s.Groups[i]
		if len(g.Shapes) == 0 {
			return nil, fmt.Errorf("scene: group %q has no shapes", g.Name)
		}
		var solid kernel.Solid
		for j := range g.Shapes {
			member, err := g.Shapes[j].solid(k)
			if err != nil {
				return nil, fmt.Errorf("scene: group %q shape %d: %w", g.Name, j, err)
			}
			if solid == nil {
				solid = member
			} else {
				solid = k.Union(solid, member)
			}
		}
		solid = place(k, solid, g.At, g.Rotate)
		part, err := tessellate(k, g.Name, solid)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	return parts, nil
}

func tessellate(k kernel.Kernel, name string, s kernel.Solid) (kernel.Part, error) {
	mesh, err := k.ToMesh(s)
	if err != nil {
		return kernel.Part{}, fmt.Errorf("scene: ToMesh failed for %q: %w", name, err)
	}
	mesh.PartName = name
	return kernel.Part{Name: name, Mesh: mesh}, nil
}

// solid builds the shape in its parent's frame.
func (sh *Shape) solid(k kernel.Kernel) (kernel.Solid, error) {
	var s kernel.Solid
	var err error
	switch sh.Kind {
	case KindBox:
		x, y, z := vec(sh.Size)
		s, err = k.Box(x, y, z)
	case KindCylinder:
		s, err = k.Cylinder(sh.Height, sh.Radius)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownShape, sh.Kind)
	}
	if err != nil {
		return nil, err
	}

	for i := range sh.Holes {
		hole, err := sh.Holes[i].solid(k)
		if err != nil {
			return nil, fmt.Errorf("hole %d: %w", i, err)
		}
		s = k.Difference(s, hole)
	}
	if sh.Clip != nil {
		clip, err := sh.Clip.solid(k)
		if err != nil {
			return nil, fmt.Errorf("clip: %w", err)
		}
		s = k.Intersection(s, clip)
	}

	return place(k, s, sh.At, sh.Rotate), nil
}

// place applies rotation first, then translation.
func place(k kernel.Kernel, s kernel.Solid, at, rotate []float64) kernel.Solid {
	if rx, ry, rz := vec(rotate); rx != 0 || ry != 0 || rz != 0 {
		s = k.Rotate(s, rx, ry, rz)
	}
	if x, y, z := vec(at); x != 0 || y != 0 || z != 0 {
		s = k.Translate(s, x, y, z)
	}
	return s
}
