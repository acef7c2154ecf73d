package filter

import (
	"strings"

	"github.com/s0up4200/dhparkeren/parkeren"
)

var defaultCompiler = NewExprCompiler(WithCache(100))

// CompileFilter compiles expression with the shared caching compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	return defaultCompiler.Compile(expression)
}

// matchAll is used for empty expressions
type matchAll struct{}

func (matchAll) Evaluate(parkeren.Reservation) bool { return true }
func (matchAll) Expression() string                 { return "" }

// ParseAndCreateFilter compiles expression. An empty expression matches every reservation.
func ParseAndCreateFilter(expression string) (CompiledFilter, error) {
	if strings.TrimSpace(expression) == "" {
		return matchAll{}, nil
	}
	return CompileFilter(expression)
}

// Apply returns the reservations matching f, preserving order
func Apply(f Filter, reservations []parkeren.Reservation) []parkeren.Reservation {
	matches := make([]parkeren.Reservation, 0, len(reservations))
	for _, r := range reservations {
		if f.Evaluate(r) {
			matches = append(matches, r)
		}
	}
	return matches
}
