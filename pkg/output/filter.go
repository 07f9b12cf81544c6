package output

import (
	"fmt"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	programMu    sync.Mutex
	programCache = make(map[string]*vm.Program)
)

// Filter selects list items with a boolean expr expression such as
// `name startsWith "web" && labels.env == "prod"`. Metadata fields are
// visible at the top level of each item.
type Filter struct {
	expression string
	program    *vm.Program
}

// CompileFilter compiles expression. Compiled programs are cached per
// expression.
func CompileFilter(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("filter expression is empty")
	}

	programMu.Lock()
	defer programMu.Unlock()
	program, ok := programCache[expression]
	if !ok {
		var err error
		program, err = expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("invalid filter '%s': %w", expression, err)
		}
		programCache[expression] = program
	}
	return &Filter{expression: expression, program: program}, nil
}

// String returns the expression.
func (f *Filter) String() string {
	return f.expression
}

// Match evaluates the filter against one item.
func (f *Filter) Match(item map[string]any) (bool, error) {
	out, err := expr.Run(f.program, filterEnv(item))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate filter '%s': %w", f.expression, err)
	}
	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter '%s' returned %T, expected bool", f.expression, out)
	}
	return matched, nil
}

// Apply filters the items of a list response. The response keeps its other
// keys. Data that is not a list is returned unchanged.
func (f *Filter) Apply(data any) (any, error) {
	generic, err := Generic(data)
	if err != nil {
		return nil, err
	}
	items, ok := Items(generic)
	if !ok {
		return data, nil
	}

	kept := make([]any, 0, len(items))
	for _, item := range items {
		matched, err := f.Match(item)
		if err != nil {
			return nil, err
		}
		if matched {
			kept = append(kept, item)
		}
	}

	if m, isMap := generic.(map[string]any); isMap {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		out["items"] = kept
		return out, nil
	}
	return kept, nil
}

func filterEnv(item map[string]any) map[string]any {
	env := make(map[string]any, len(item)+4)
	if md, ok := item["metadata"].(map[string]any); ok {
		for k, v := range md {
			env[k] = v
		}
	}
	for k, v := range item {
		if v != nil || env[k] == nil {
			env[k] = v
		}
	}
	if _, ok := env["labels"].(map[string]any); !ok {
		env["labels"] = map[string]any{}
	}
	return env
}
