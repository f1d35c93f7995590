package constraint

import (
	"fmt"
	"strconv"
	"strings"

	"wisfind/internal/wnm"
	perrors "wisfind/pkg/errors"
)

// compileMatch builds the `match key=value` leaf: exact string equality
// against the field's string form. A missing key is a non-match, never an
// error.
func compileMatch(args []string) (Predicate, error) {
	key, value, found := strings.Cut(args[0], "=")
	if !found || key == "" {
		return nil, perrors.Compile(fmt.Sprintf("match expression %q must be in format key=value", args[0]))
	}

	return func(msg *wnm.Decoded) bool {
		v, ok := msg.Lookup(key)
		if !ok {
			return false
		}
		return stringForm(v) == value
	}, nil
}

func stringForm(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		// JSON numbers decode as float64; render integers without a point.
		return strconv.FormatFloat(x, 'f', -1, 64)
	case nil:
		return "null"
	default:
		return fmt.Sprint(x)
	}
}
