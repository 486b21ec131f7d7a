package relift

import (
	"context"
	"fmt"
	"io"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// Executor is the compile-and-run primitive. It receives the text to
// execute together with the path it should attribute errors to — for a
// transformed module that is the cache entry path, so failures point at the
// text that actually ran (original line numbers may not correspond, since
// rewriting can restructure lines).
type Executor interface {
	Execute(ctx context.Context, path string, src []byte) error
}

// ExecutorFunc adapts a plain function to the Executor interface.
type ExecutorFunc func(ctx context.Context, path string, src []byte) error

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, path string, src []byte) error {
	return f(ctx, path, src)
}

// YaegiExecutor evaluates Go source in a yaegi interpreter. Each Execute
// call gets a fresh interpreter, so modules never leak state into each
// other. Standard library symbols are loaded; OS access follows yaegi's
// default restrictions unless WithUnrestricted is set.
type YaegiExecutor struct {
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
	args         []string
	unrestricted bool
}

// YaegiOption defines a function that configures a YaegiExecutor.
type YaegiOption func(*YaegiExecutor)

// WithStdio sets the interpreter's standard streams.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) YaegiOption {
	return func(e *YaegiExecutor) {
		e.stdin = stdin
		e.stdout = stdout
		e.stderr = stderr
	}
}

// WithArgs sets the os.Args seen by executed modules.
func WithArgs(args ...string) YaegiOption {
	return func(e *YaegiExecutor) {
		e.args = args
	}
}

// WithUnrestricted lifts yaegi's restrictions on os/exec and friends.
func WithUnrestricted() YaegiOption {
	return func(e *YaegiExecutor) {
		e.unrestricted = true
	}
}

// NewYaegiExecutor creates the default executor.
func NewYaegiExecutor(options ...YaegiOption) *YaegiExecutor {
	e := &YaegiExecutor{}
	for _, option := range options {
		option(e)
	}
	return e
}

// Execute implements Executor. The source is evaluated as a file; if it
// declares main.main, that function is invoked, so both programs and
// declaration-only modules work.
func (e *YaegiExecutor) Execute(ctx context.Context, path string, src []byte) error {
	i := interp.New(interp.Options{
		Stdin:        e.stdin,
		Stdout:       e.stdout,
		Stderr:       e.stderr,
		Args:         e.args,
		Unrestricted: e.unrestricted,
	})
	if err := i.Use(stdlib.Symbols); err != nil {
		return fmt.Errorf("failed to load stdlib symbols: %w", err)
	}

	if _, err := i.EvalWithContext(ctx, string(src)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	// Programs declare a main; declaration-only modules do not.
	v, err := i.Eval("main.main")
	if err != nil {
		return nil
	}
	fn, ok := v.Interface().(func())
	if !ok {
		return nil
	}
	fn()
	return nil
}
