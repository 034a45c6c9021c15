package timeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
)

// ErrInvalidFilter is returned by Scan when the filter does not compile.
var ErrInvalidFilter = errors.New("timeline: invalid filter")

// entryFilter wraps a compiled CEL program. When disabled, Match always
// returns true.
type entryFilter struct {
	prog    cel.Program
	enabled bool
}

func compileFilter(expr string) (entryFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return entryFilter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("sequence", cel.IntType),
		cel.Variable("message_id", cel.StringType),
		cel.Variable("size", cel.IntType),
		cel.Variable("text", cel.StringType),
		cel.Variable("attributes", cel.MapType(cel.StringType, cel.StringType)),
		// Current time in ms for windowed filters
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return entryFilter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return entryFilter{}, fmt.Errorf("%w: %w", ErrInvalidFilter, iss.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return entryFilter{}, fmt.Errorf("%w: expression yields %s, not bool", ErrInvalidFilter, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return entryFilter{}, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
	}
	return entryFilter{prog: prog, enabled: true}, nil
}

// Match evaluates the expression against e. Evaluation errors count as a
// mismatch.
func (f entryFilter) Match(e Entry) bool {
	if !f.enabled {
		return true
	}
	attrs := e.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	out, _, err := f.prog.Eval(map[string]any{
		"sequence":   e.SequenceID,
		"message_id": e.ID,
		"size":       int64(len(e.Content)),
		"text":       string(e.Content),
		"attributes": attrs,
		"now_ms":     time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
