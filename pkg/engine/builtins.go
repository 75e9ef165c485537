package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/rangeheap/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// preprocessSource rewrites scene source for zygomys:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols.
//  2. kebab-case identifiers become snake_case, since zygomys reads the
//     hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)

	b := []byte(source)
	for i := 0; i < len(b); {
		switch c := b[i]; {
		case c == '"':
			i = copyQuoted(&out, b, i, '"', true)

		case c == '`':
			i = copyQuoted(&out, b, i, '`', false)

		case c == ';':
			out.WriteString("//")
			for i < len(b) && b[i] == ';' {
				i++
			}
			for ; i < len(b) && b[i] != '\n'; i++ {
				out.WriteByte(b[i])
			}

		case c == ':' && i+1 < len(b) && b[i+1] == '=':
			out.WriteString(":=")
			i += 2

		case c == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			out.WriteByte('"')
			out.WriteString(kwPrefix)
			out.Write(b[i+1 : j])
			out.WriteByte('"')
			i = j

		case c == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			out.WriteByte('_')
			i++

		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// copyQuoted copies the literal opening at b[i] and returns the index past
// its closing quote.
func copyQuoted(out *strings.Builder, b []byte, i int, quote byte, escapes bool) int {
	out.WriteByte(b[i])
	i++
	for i < len(b) && b[i] != quote {
		if escapes && b[i] == '\\' && i+1 < len(b) {
			out.Write(b[i : i+2])
			i += 2
			continue
		}
		out.WriteByte(b[i])
		i++
	}
	if i < len(b) {
		out.WriteByte(b[i])
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Values passed between builtins
// ---------------------------------------------------------------------------

// sexpVec3 is a 3-component vector.
type sexpVec3 struct {
	vec [3]float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpShape is an unnamed shape returned by box, cylinder, subtract and clip.
type sexpShape struct {
	shape scene.Shape
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	switch s.shape.Kind {
	case scene.KindBox:
		x, y, z := s.shape.Size[0], s.shape.Size[1], s.shape.Size[2]
		return fmt.Sprintf("(box %gx%gx%g)", x, y, z)
	case scene.KindCylinder:
		return fmt.Sprintf("(cylinder h%g r%g)", s.shape.Height, s.shape.Radius)
	}
	return fmt.Sprintf("(%s)", s.shape.Kind)
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates keyword arguments from positional ones. A trailing
// keyword with no value maps to SexpNull.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// unknownKW returns an error naming the first keyword not in allowed.
func (a kwArgs) unknownKW(fn string, allowed ...string) error {
	for name := range a.kw {
		known := false
		for _, k := range allowed {
			if name == k {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%s: unknown keyword :%s", fn, name)
		}
	}
	return nil
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toVec3(s zygo.Sexp) ([]float64, error) {
	if v, ok := s.(*sexpVec3); ok {
		return []float64{v.vec[0], v.vec[1], v.vec[2]}, nil
	}
	return nil, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

func toShape(s zygo.Sexp) (scene.Shape, error) {
	if sh, ok := s.(*sexpShape); ok {
		return sh.shape, nil
	}
	return scene.Shape{}, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// placement reads the optional :at and :rotate keywords.
func placement(fn string, pa kwArgs) (at, rotate []float64, err error) {
	if v, ok := pa.kw["at"]; ok {
		if at, err = toVec3(v); err != nil {
			return nil, nil, fmt.Errorf("%s: at: %w", fn, err)
		}
	}
	if v, ok := pa.kw["rotate"]; ok {
		if rotate, err = toVec3(v); err != nil {
			return nil, nil, fmt.Errorf("%s: rotate: %w", fn, err)
		}
	}
	return at, rotate, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene builtins. defpart and group add parts
// to s as they run.
//
// Source must go through preprocessSource first so that :keyword tokens
// reach the builtins as recognizable strings.
func registerBuiltins(env *zygo.Zlisp, s *scene.Scene) {
	names := make(map[string]bool)
	claim := func(fn, name string) error {
		if name == "" {
			return fmt.Errorf("%s: name must not be empty", fn)
		}
		if names[name] {
			return fmt.Errorf("%s: part %q already defined", fn, name)
		}
		names[name] = true
		return nil
	}

	// (vec3 1 2 3)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v sexpVec3
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			v.vec[i] = f
		}
		return &v, nil
	})

	// (box :size (vec3 100 50 10) :at (vec3 0 0 0) :rotate (vec3 0 0 90))
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknownKW("box", "size", "at", "rotate"); err != nil {
			return zygo.SexpNull, err
		}
		v, ok := pa.kw["size"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("box requires :size")
		}
		size, err := toVec3(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
		}
		at, rotate, err := placement("box", pa)
		if err != nil {
			return zygo.SexpNull, err
		}
		return &sexpShape{shape: scene.Shape{Kind: scene.KindBox, Size: size, At: at, Rotate: rotate}}, nil
	})

	// (cylinder :height 30 :radius 4 :at (vec3 0 0 0) :rotate (vec3 90 0 0))
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknownKW("cylinder", "height", "radius", "at", "rotate"); err != nil {
			return zygo.SexpNull, err
		}
		sh := scene.Shape{Kind: scene.KindCylinder}
		for _, field := range []struct {
			kw  string
			dst *float64
		}{{"height", &sh.Height}, {"radius", &sh.Radius}} {
			v, ok := pa.kw[field.kw]
			if !ok {
				return zygo.SexpNull, fmt.Errorf("cylinder requires :%s", field.kw)
			}
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: %s: %w", field.kw, err)
			}
			*field.dst = f
		}
		var err error
		if sh.At, sh.Rotate, err = placement("cylinder", pa); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpShape{shape: sh}, nil
	})

	// (subtract shape hole...)
	env.AddFunction("subtract", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("subtract requires a shape and at least one hole")
		}
		sh, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("subtract: %w", err)
		}
		holes := append([]scene.Shape(nil), sh.Holes...)
		for i, a := range args[1:] {
			hole, err := toShape(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("subtract: hole %d: %w", i, err)
			}
			holes = append(holes, hole)
		}
		sh.Holes = holes
		return &sexpShape{shape: sh}, nil
	})

	// (clip shape other)
	env.AddFunction("clip", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("clip requires exactly 2 shapes, got %d", len(args))
		}
		sh, err := toShape(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("clip: %w", err)
		}
		other, err := toShape(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("clip: %w", err)
		}
		sh.Clip = &other
		return &sexpShape{shape: sh}, nil
	})

	// (defpart "name" shape)
	env.AddFunction("defpart", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("defpart requires a name and a shape")
		}
		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: name: %w", err)
		}
		sh, err := toShape(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("defpart: %w", err)
		}
		if err := claim("defpart", partName); err != nil {
			return zygo.SexpNull, err
		}
		sh.Name = partName
		s.Shapes = append(s.Shapes, sh)
		return &sexpShape{shape: sh}, nil
	})

	// (group "name" :at (vec3 0 0 10) :rotate (vec3 0 0 0) shape...)
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.unknownKW("group", "at", "rotate"); err != nil {
			return zygo.SexpNull, err
		}
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("group requires a name and at least one shape")
		}
		groupName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: name: %w", err)
		}
		g := scene.Group{Name: groupName}
		for i, a := range pa.positional[1:] {
			sh, err := toShape(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("group: shape %d: %w", i, err)
			}
			sh.Name = ""
			g.Shapes = append(g.Shapes, sh)
		}
		if g.At, g.Rotate, err = placement("group", pa); err != nil {
			return zygo.SexpNull, err
		}
		if err := claim("group", groupName); err != nil {
			return zygo.SexpNull, err
		}
		s.Groups = append(s.Groups, g)
		return zygo.SexpNull, nil
	})
}
