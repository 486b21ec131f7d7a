package relift

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
)

// SourceTransformer rewrites module source text under a configuration. It is
// the expensive step of a load; everything the cache store does exists to
// avoid invoking it redundantly. Implementations must be deterministic for a
// given (source, config) pair — the cache relies on it, and so does the
// no-lock answer to concurrent processes racing on the same entry.
type SourceTransformer interface {
	Transform(src []byte, cfg Config) ([]byte, error)
}

// TransformFunc adapts a plain function to the SourceTransformer interface.
type TransformFunc func(src []byte, cfg Config) ([]byte, error)

// Transform implements SourceTransformer.
func (f TransformFunc) Transform(src []byte, cfg Config) ([]byte, error) {
	return f(src, cfg)
}

// Rule is one named unit of rewriting. Rules mutate the parsed file in
// place; the transformer prints the result once after all rules ran.
type Rule struct {
	Name  string
	Doc   string
	Apply func(fset *token.FileSet, file *ast.File) error
}

// RuleTransformer applies an ordered set of named AST rewrite rules. Rule
// selection comes from the Config: Fix picks rules (empty means all), NoFix
// disables. Selection order follows registration order, never Config order,
// so equivalent configs transform identically.
type RuleTransformer struct {
	rules  []Rule
	byName map[string]int
}

// NewRuleTransformer builds a transformer over the given rules. With no
// arguments it carries the built-in rule set.
func NewRuleTransformer(rules ...Rule) *RuleTransformer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	t := &RuleTransformer{
		rules:  rules,
		byName: make(map[string]int, len(rules)),
	}
	for i, r := range rules {
		t.byName[r.Name] = i
	}
	return t
}

// RuleNames returns the names of all registered rules in application order.
func (t *RuleTransformer) RuleNames() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.Name
	}
	return names
}

// Select resolves a configuration against the registered rules. Unknown
// names in Fix or NoFix are configuration errors, reported eagerly so a bad
// install fails before any import is affected.
func (t *RuleTransformer) Select(cfg Config) ([]Rule, error) {
	enabled := make([]bool, len(t.rules))
	if len(cfg.Fix) == 0 {
		for i := range enabled {
			enabled[i] = true
		}
	} else {
		for _, name := range cfg.Fix {
			i, ok := t.byName[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrUnknownRule, name)
			}
			enabled[i] = true
		}
	}
	for _, name := range cfg.NoFix {
		i, ok := t.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRule, name)
		}
		enabled[i] = false
	}

	var selected []Rule
	for i, r := range t.rules {
		if enabled[i] {
			selected = append(selected, r)
		}
	}
	return selected, nil
}

// Transform implements SourceTransformer. Parse failures and rule failures
// surface as *TransformError carrying the underlying diagnostic; the caller
// fills in the source path.
func (t *RuleTransformer) Transform(src []byte, cfg Config) ([]byte, error) {
	selected, err := t.Select(cfg)
	if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "module.go", src, parser.ParseComments)
	if err != nil {
		return nil, &TransformError{Err: err}
	}

	for _, r := range selected {
		if err := r.Apply(fset, file); err != nil {
			return nil, &TransformError{Rule: r.Name, Err: err}
		}
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, &TransformError{Err: err}
	}
	return buf.Bytes(), nil
}
