package main

import (
	"fmt"

	"wisfind/internal/action"
	"wisfind/internal/constraint"
	perrors "wisfind/pkg/errors"
)

// parseExpression splits the leftover command tokens into the constraint
// sequence and at most one action, consulting both registries the way the
// grammar reads: left to right, each leaf swallowing its own arguments. An
// empty expression matches everything and uses the default action.
func parseExpression(tokens []string) (constraint.Predicate, action.Factory, error) {
	var constraintTokens []string
	var act action.Factory

	for i := 0; i < len(tokens); {
		tok := tokens[i]
		i++

		if arity, ok := constraint.Arity(tok); ok {
			if i+arity > len(tokens) {
				return nil, nil, perrors.Compile(fmt.Sprintf("constraint %q requires %d argument(s)", tok, arity))
			}
			constraintTokens = append(constraintTokens, tok)
			constraintTokens = append(constraintTokens, tokens[i:i+arity]...)
			i += arity
			continue
		}

		if factory, ok := action.Lookup(tok); ok {
			if act != nil {
				return nil, nil, perrors.Compile("cannot specify multiple actions")
			}
			act = factory
			continue
		}

		return nil, nil, perrors.Compile(fmt.Sprintf("unknown argument %q", tok))
	}

	predicate, err := constraint.Compile(constraintTokens)
	if err != nil {
		return nil, nil, err
	}

	if act == nil {
		act = action.Default()
	}

	return predicate, act, nil
}
