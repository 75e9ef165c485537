// Package engine evaluates scene scripts. It wraps zygomys in a sandboxed
// environment with builtins that declare parts, and produces a scene.Scene.
//
//	(def post (box :size (vec3 10 10 40)))
//	(defpart "left" post)
//	(defpart "plate"
//	  (subtract (box :size (vec3 100 50 10))
//	            (cylinder :height 12 :radius 4 :at (vec3 20 25 5))))
//	(group "frame" :at (vec3 0 0 10)
//	  post
//	  (box :size (vec3 10 10 40) :at (vec3 90 0 0)))
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/rangeheap/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/toolkits/pkg/logger"
)

// EvalError is a non-fatal error in user code, such as a parse error, a
// runtime error or an invalid scene.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandbox, and only the result of the most
// recent call is returned.
type Engine struct {
	// Timeout bounds a single evaluation. Zero means EvalTimeout.
	Timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine with the default timeout.
func NewEngine() *Engine {
	return &Engine{Timeout: EvalTimeout}
}

// Evaluate runs a scene script.
//
// Return semantics:
//   - On success: returns scene + nil errors + nil error
//   - On parse/eval failure: returns nil scene + eval errors + nil error
//   - On fatal failure (timeout, panic, superseded): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*scene.Scene, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = EvalTimeout
	}

	ch := make(chan evalResult, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		s, evalErrs, err := e.evaluate(source)
		ch <- evalResult{scene: s, errors: evalErrs, err: err}
	}()

	s, evalErrs, err := waitWithTimeout(ch, gen, timeout, &e.mu, &e.generation)
	if s != nil {
		logger.Debugf("engine: %d parts in %s", s.Len(), time.Since(start))
	}
	return s, evalErrs, err
}

func (e *Engine) evaluate(source string) (*scene.Scene, []EvalError, error) {
	s := &scene.Scene{}
	if strings.TrimSpace(source) == "" {
		return s, nil, nil
	}

	// Sandbox mode keeps user code away from the filesystem and syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, s)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}

	if err := s.Validate(); err != nil {
		return nil, []EvalError{{Message: err.Error()}}, nil
	}
	return s, nil, nil
}

// linePattern matches zygomys messages of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, keeping the
// line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			// Text around the location marker is kept.
			detail := strings.Replace(msg, m[0], m[2], 1)
			return []EvalError{{Line: line, Message: strings.TrimSpace(detail)}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
