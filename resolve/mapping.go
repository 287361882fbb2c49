package resolve

import (
	"fmt"

	"kresolve/depm"
)

// mapArguments maps the arguments of a call onto the value parameters of a
// function.  Positional arguments are mapped in order with a vararg parameter
// absorbing all the positional arguments that reach it.  Named arguments are
// mapped by name and must follow all positional arguments.  It returns the
// index of the parameter each argument is passed to and whether any parameter
// takes its default value.  If the arguments do not fit the parameters, it
// instead returns a description of the problem.
func mapArguments(fd *depm.FunctionDescriptor, args []*Argument) ([]int, bool, string) {
	params := fd.ValueParams
	mapping := make([]int, len(args))
	bound := make([]bool, len(params))

	next := 0
	seenNamed := false
	for i, arg := range args {
		if arg.Name == "" {
			if seenNamed {
				return nil, false, "positional arguments cannot follow named arguments"
			}

			if next >= len(params) {
				return nil, false, fmt.Sprintf("too many arguments: expected at most %d but got %d", len(params), len(args))
			}

			mapping[i] = next
			bound[next] = true

			if !params[next].IsVararg {
				next++
			}

			continue
		}

		seenNamed = true

		index := -1
		for j, param := range params {
			if param.Name() == arg.Name {
				index = j
				break
			}
		}

		if index == -1 {
			return nil, false, fmt.Sprintf("no parameter named %s", arg.Name)
		} else if bound[index] {
			return nil, false, fmt.Sprintf("parameter %s is passed more than once", arg.Name)
		}

		mapping[i] = index
		bound[index] = true
	}

	usesDefaults := false
	for j, param := range params {
		if bound[j] || param.IsVararg {
			continue
		}

		if !param.HasDefault {
			return nil, false, fmt.Sprintf("no value passed for parameter %s", param.Name())
		}

		usesDefaults = true
	}

	return mapping, usesDefaults, ""
}
