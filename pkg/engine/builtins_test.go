package engine

import (
	"strings"
	"testing"

	"github.com/chazu/rangeheap/pkg/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(box :size v)`,
			expect: `(box "__kw_size" v)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :height 30 :radius 4)`,
			expect: `(cylinder "__kw_height" 30 "__kw_radius" 4)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "escaped quote in string",
			input:  `"a \" :b" :c`,
			expect: `"a \" :b" "__kw_c"`,
		},
		{
			name:   "backtick string preserved",
			input:  "`raw :kw ;x`",
			expect: "`raw :kw ;x`",
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(side-panel :part-a ref)`,
			expect: `(side_panel "__kw_part-a" ref)`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  "; simple comment\n(+ 1 2)",
			expect: "// simple comment\n(+ 1 2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func evaluate(t *testing.T, src string) *scene.Scene {
	t.Helper()
	s, evalErrs, err := NewEngine().Evaluate(src)
	require.NoError(t, err)
	require.Empty(t, evalErrs)
	require.NotNil(t, s)
	return s
}

func evalFails(t *testing.T, src, want string) {
	t.Helper()
	s, evalErrs, err := NewEngine().Evaluate(src)
	require.NoError(t, err)
	assert.Nil(t, s)
	require.NotEmpty(t, evalErrs)
	var msgs []string
	for _, e := range evalErrs {
		msgs = append(msgs, e.Error())
	}
	assert.Contains(t, strings.Join(msgs, "\n"), want)
}

func TestBoxPart(t *testing.T) {
	s := evaluate(t, `
; a plate
(defpart "plate"
  (box :size (vec3 100 50 10) :at (vec3 5 0 2.5) :rotate (vec3 0 0 90)))
`)
	require.Len(t, s.Shapes, 1)
	sh := s.Shapes[0]
	assert.Equal(t, "plate", sh.Name)
	assert.Equal(t, scene.KindBox, sh.Kind)
	assert.Equal(t, []float64{100, 50, 10}, sh.Size)
	assert.Equal(t, []float64{5, 0, 2.5}, sh.At)
	assert.Equal(t, []float64{0, 0, 90}, sh.Rotate)
}

func TestVariableReference(t *testing.T) {
	s := evaluate(t, `
(def thickness 19)
(def post (cylinder :height (* 2 thickness) :radius 3.5))
(defpart "left-post" post)
(defpart "right-post" post)
`)
	assert.Equal(t, []string{"left-post", "right-post"}, s.Names())
	for _, sh := range s.Shapes {
		assert.Equal(t, scene.KindCylinder, sh.Kind)
		assert.Equal(t, 38.0, sh.Height)
		assert.Equal(t, 3.5, sh.Radius)
		assert.Nil(t, sh.At)
	}
}

func TestSubtractAndClip(t *testing.T) {
	s := evaluate(t, `
(defpart "plate"
  (subtract (box :size (vec3 100 50 10))
            (cylinder :height 12 :radius 4 :at (vec3 20 25 5))
            (cylinder :height 12 :radius 4 :at (vec3 80 25 5))))
(defpart "peg"
  (clip (cylinder :height 30 :radius 4)
        (box :size (vec3 10 10 10))))
`)
	require.Len(t, s.Shapes, 2)
	plate, peg := s.Shapes[0], s.Shapes[1]

	require.Len(t, plate.Holes, 2)
	assert.Equal(t, []float64{80, 25, 5}, plate.Holes[1].At)
	assert.Nil(t, plate.Clip)

	require.NotNil(t, peg.Clip)
	assert.Equal(t, scene.KindBox, peg.Clip.Kind)
	assert.Empty(t, peg.Holes)
}

func TestGroup(t *testing.T) {
	s := evaluate(t, `
(def leg (box :size (vec3 10 10 40)))
(group "frame" :at (vec3 0 0 10)
  leg
  (box :size (vec3 10 10 40) :at (vec3 90 0 0)))
`)
	assert.Empty(t, s.Shapes)
	require.Len(t, s.Groups, 1)
	g := s.Groups[0]
	assert.Equal(t, "frame", g.Name)
	assert.Equal(t, []float64{0, 0, 10}, g.At)
	require.Len(t, g.Shapes, 2)
	assert.Equal(t, []float64{90, 0, 0}, g.Shapes[1].At)
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"duplicate part", `(defpart "a" (box :size (vec3 1 1 1))) (defpart "a" (box :size (vec3 1 1 1)))`, "already defined"},
		{"duplicate group", `(defpart "a" (box :size (vec3 1 1 1))) (group "a" (box :size (vec3 1 1 1)))`, "already defined"},
		{"missing size", `(box :at (vec3 1 1 1))`, "requires :size"},
		{"missing radius", `(cylinder :height 4)`, "requires :radius"},
		{"unknown keyword", `(box :size (vec3 1 1 1) :colour 3)`, "unknown keyword :colour"},
		{"bad vector", `(box :size 3)`, "expected vec3"},
		{"short vec3", `(vec3 1 2)`, "exactly 3 arguments"},
		{"not a shape", `(defpart "a" (vec3 1 2 3))`, "expected shape"},
		{"empty group", `(group "g")`, "at least one shape"},
		{"empty name", `(defpart "" (box :size (vec3 1 1 1)))`, "must not be empty"},
		{"subtract needs holes", `(subtract (box :size (vec3 1 1 1)))`, "at least one hole"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalFails(t, tt.src, tt.want)
		})
	}
}

func TestShapeValuesAreIndependent(t *testing.T) {
	s := evaluate(t, `
(def base (box :size (vec3 10 10 10)))
(defpart "cut" (subtract base (cylinder :height 12 :radius 2)))
(defpart "plain" base)
`)
	require.Len(t, s.Shapes, 2)
	assert.Len(t, s.Shapes[0].Holes, 1)
	assert.Empty(t, s.Shapes[1].Holes)
}
