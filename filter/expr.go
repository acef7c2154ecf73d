package filter

import (
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/dhparkeren/parkeren"
	"github.com/s0up4200/dhparkeren/validate"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	compiler   *exprCompiler
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.customFuncs, funcs)
	}
}

// WithClock sets the time source behind now() and the relative helpers
func WithClock(now func() time.Time) ExprCompilerOption {
	return func(c *exprCompiler) {
		if now != nil {
			c.now = now
		}
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		customFuncs: make(map[string]any),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type exprCompiler struct {
	customFuncs map[string]any
	cache       *lruCache
	now         func() time.Time
}

// Compile compiles an expression into an executable filter. Unknown
// identifiers are rejected at compile time.
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.environment(parkeren.Reservation{}, c.now())),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		compiler:   c,
	}
	if c.cache != nil {
		c.cache.Put(expression, filter)
	}
	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// Evaluate evaluates the filter against a reservation. Runtime errors count
// as no match.
func (f *exprFilter) Evaluate(reservation parkeren.Reservation) bool {
	env := f.compiler.environment(reservation, f.compiler.now())

	result, err := expr.Run(f.program, env)
	if err != nil {
		return false
	}
	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// environment builds the variables and helpers visible to an expression
func (c *exprCompiler) environment(r parkeren.Reservation, now time.Time) map[string]any {
	env := make(map[string]any, 32)
	addHelperFunctions(env, now)
	maps.Copy(env, c.customFuncs)

	plate := validate.NormalizePlate(r.LicensePlate)

	env["Reservation"] = r
	env["ID"] = int64(r.ID)
	env["Name"] = r.Name
	env["Plate"] = plate
	env["Start"] = r.StartTime
	env["End"] = r.EndTime
	env["DurationMinutes"] = int(r.Duration().Minutes())
	env["Active"] = r.IsActive(now)
	env["Upcoming"] = now.Before(r.StartTime)
	env["Ended"] = !r.EndTime.IsZero() && !now.Before(r.EndTime)
	env["plateIs"] = func(other string) bool {
		return plate == validate.NormalizePlate(other)
	}

	return env
}

// addHelperFunctions adds the time and string helpers to env
func addHelperFunctions(env map[string]any, now time.Time) {
	// Time helpers
	env["now"] = func() time.Time { return now }
	env["today"] = func() time.Time {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	}
	env["minutesUntil"] = func(t time.Time) int {
		return int(t.Sub(now).Minutes())
	}
	env["hoursUntil"] = func(t time.Time) float64 {
		return t.Sub(now).Hours()
	}
	env["daysUntil"] = func(t time.Time) int {
		return int(t.Sub(now).Hours() / 24)
	}
	env["parseTime"] = func(s string) time.Time {
		t, _ := validate.ParseTimestamp("time", s, now.Location())
		return t
	}
	// String helpers, case-insensitive. contains, startsWith and endsWith
	// are expr operators and cannot be registered as functions.
	env["hasSubstr"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["hasPrefix"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["hasSuffix"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
}
