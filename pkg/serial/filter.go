package serial

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// Property describes one property value about to be written.
type Property struct {
	Type  string
	Name  string
	Path  string
	Value any
}

// PropertyFilter decides whether a property is written and may replace
// its value. Returning false skips the property.
type PropertyFilter func(p Property) (any, bool, error)

// ExprFilter compiles a boolean expression into a [PropertyFilter]. The
// expression sees the fields of [Property]:
//
//	Type != "Login" || Name != "Password"
func ExprFilter(src string) (PropertyFilter, error) {
	program, err := exprlang.Compile(src, exprlang.Env(Property{}), exprlang.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	return func(p Property) (any, bool, error) {
		keep, err := run(program, p)
		if err != nil {
			return nil, false, err
		}
		return p.Value, keep, nil
	}, nil
}

func run(program *exprvm.Program, p Property) (bool, error) {
	out, err := exprlang.Run(program, p)
	if err != nil {
		return false, fmt.Errorf("filter %s.%s: %w", p.Type, p.Name, err)
	}
	keep, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter %s.%s: result is %T, not bool", p.Type, p.Name, out)
	}
	return keep, nil
}
