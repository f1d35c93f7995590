package constraint

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"wisfind/internal/wnm"
	perrors "wisfind/pkg/errors"
)

// compileCEL builds the `cel EXPR` leaf: a CEL expression over the message's
// generic document, bound to the variable `msg`. The expression is compiled
// here, before any message is consumed; evaluation failures (e.g. a missing
// key) are non-matches.
func compileCEL(args []string) (Predicate, error) {
	env, err := cel.NewEnv(
		cel.Variable("msg", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, perrors.Compile("failed to create CEL environment").WithCause(err)
	}

	ast, issues := env.Compile(args[0])
	if issues != nil && issues.Err() != nil {
		return nil, perrors.Compile(fmt.Sprintf("invalid CEL expression %q", args[0])).WithCause(issues.Err())
	}

	if ast.OutputType() != cel.BoolType {
		return nil, perrors.Compile(fmt.Sprintf("CEL expression must return bool, got %v", ast.OutputType()))
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, perrors.Compile("failed to build CEL program").WithCause(err)
	}

	return func(msg *wnm.Decoded) bool {
		out, _, err := prg.Eval(map[string]interface{}{"msg": msg.Raw})
		if err != nil {
			return false
		}
		result, ok := out.Value().(bool)
		return ok && result
	}, nil
}
