package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/cel-go/cel"
)

// Regular expression to match {{expression}} patterns.
var celExprReg = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Template is a label text whose {{CEL expression}} placeholders are compiled once.
type Template struct {
	text string
	// Compiled programs keyed by the placeholder as written, e.g. "{{ wday }}"
	progs map[string]cel.Program
}

// Parse compiles every {{CEL expression}} in text.
// store only declares the variables; its values are not evaluated.
func Parse(text string, store map[string]any) (*Template, error) {
	// Create CEL environment with store variables
	env, err := createCELEnv(store)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	t := &Template{text: text, progs: map[string]cel.Program{}}
	for _, match := range celExprReg.FindAllString(text, -1) {
		if _, ok := t.progs[match]; ok {
			continue
		}
		// Extract CEL expression without {{ }}
		expr := strings.TrimSpace(match[2 : len(match)-2])

		ast, issues := env.Compile(expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("template compilation error for '{{%s}}': %w", expr, issues.Err())
		}

		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("template program creation error for '{{%s}}': %w", expr, err)
		}
		t.progs[match] = prg
	}
	return t, nil
}

// Execute evaluates the placeholders against store, which must declare the variables given to Parse.
func (t *Template) Execute(store map[string]any) (string, error) {
	var evalErr error
	result := celExprReg.ReplaceAllStringFunc(t.text, func(match string) string {
		if evalErr != nil {
			return match
		}
		out, _, err := t.progs[match].Eval(store)
		if err != nil {
			evalErr = fmt.Errorf("template evaluation error for '%s': %w", match, err)
			return match // Return original match on error
		}

		// Convert result to string
		return fmt.Sprintf("%v", out.Value())
	})

	if evalErr != nil {
		return "", evalErr
	}

	return result, nil
}

// Expand compiles text and evaluates it against store in one go.
func Expand(text string, store map[string]any) (string, error) {
	t, err := Parse(text, store)
	if err != nil {
		return "", err
	}
	return t.Execute(store)
}

// createCELEnv creates a CEL environment with all variables from the store.
func createCELEnv(store map[string]any) (*cel.Env, error) {
	var options []cel.EnvOption

	// Add each top-level store key as a CEL variable
	for key, value := range store {
		options = append(options, cel.Variable(key, inferCELType(value)))
	}

	return cel.NewEnv(options...)
}

// inferCELType infers the CEL type from a Go value.
func inferCELType(value any) *cel.Type {
	switch value.(type) {
	case string:
		return cel.StringType
	case int, int32, int64:
		return cel.IntType
	case float32, float64:
		return cel.DoubleType
	case bool:
		return cel.BoolType
	case map[string]any:
		return cel.MapType(cel.StringType, cel.AnyType)
	case map[string]string:
		return cel.MapType(cel.StringType, cel.StringType)
	default:
		return cel.AnyType
	}
}
