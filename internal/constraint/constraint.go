// Package constraint compiles a flat sequence of command tokens into a single
// predicate over a message. The grammar is a left-to-right linear fold: a leaf
// token consumes its declared arguments, `not` negates the leaf that follows
// it, and `or`/`and` combine the accumulated predicate with the next leaf
// using short-circuit semantics. Adjacent leaves without an operator combine
// with `and`.
package constraint

import (
	"fmt"

	"wisfind/internal/wnm"
	perrors "wisfind/pkg/errors"
)

// Predicate decides whether an action runs for a message. Evaluation never
// errors; an unknown field or a failed lookup is simply a non-match.
type Predicate func(msg *wnm.Decoded) bool

type leafSpec struct {
	arity   int
	compile func(args []string) (Predicate, error)
}

// Leaf constraints by token. Compilation rejects anything not in this table
// before a single message is consumed.
var leaves = map[string]leafSpec{
	"match": {arity: 1, compile: compileMatch},
	"cel":   {arity: 1, compile: compileCEL},
}

// Arity reports how many argument tokens a leaf token consumes, and whether
// tok names a leaf or operator at all.
func Arity(tok string) (int, bool) {
	switch tok {
	case "not", "or", "and":
		return 0, true
	}
	spec, ok := leaves[tok]
	if !ok {
		return 0, false
	}
	return spec.arity, true
}

// True matches every message; it is the compilation of an empty token list.
func True(*wnm.Decoded) bool { return true }

// Compile turns tokens into a single predicate. Unknown tokens, missing leaf
// arguments, and dangling operators are compile errors.
func Compile(tokens []string) (Predicate, error) {
	if len(tokens) == 0 {
		return True, nil
	}

	type pendingOp int
	const (
		opNone pendingOp = iota
		opOr
		opAnd
	)

	var acc Predicate
	pending := opNone
	negate := false

	for i := 0; i < len(tokens); {
		tok := tokens[i]
		i++

		switch tok {
		case "not":
			if negate {
				return nil, perrors.Compile("'not' cannot follow 'not'")
			}
			negate = true
			continue
		case "or", "and":
			if acc == nil || pending != opNone || negate {
				return nil, perrors.Compile(fmt.Sprintf("operator %q must appear between two constraints", tok))
			}
			if tok == "or" {
				pending = opOr
			} else {
				pending = opAnd
			}
			continue
		}

		spec, ok := leaves[tok]
		if !ok {
			return nil, perrors.Compile(fmt.Sprintf("unknown constraint %q", tok))
		}
		if i+spec.arity > len(tokens) {
			return nil, perrors.Compile(fmt.Sprintf("constraint %q requires %d argument(s)", tok, spec.arity))
		}
		args := tokens[i : i+spec.arity]
		i += spec.arity

		p, err := spec.compile(args)
		if err != nil {
			return nil, err
		}
		if negate {
			p = negated(p)
			negate = false
		}

		switch {
		case acc == nil:
			acc = p
		case pending == opOr:
			acc = anyOf(acc, p)
		default:
			acc = allOf(acc, p)
		}
		pending = opNone
	}

	if pending != opNone {
		return nil, perrors.Compile("expression cannot end with an operator")
	}
	if negate {
		return nil, perrors.Compile("'not' must be followed by a constraint")
	}

	return acc, nil
}

func negated(p Predicate) Predicate {
	return func(msg *wnm.Decoded) bool { return !p(msg) }
}

func allOf(a, b Predicate) Predicate {
	return func(msg *wnm.Decoded) bool { return a(msg) && b(msg) }
}

func anyOf(a, b Predicate) Predicate {
	return func(msg *wnm.Decoded) bool { return a(msg) || b(msg) }
}
