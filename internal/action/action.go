// Package action holds the side-effecting consumers invoked once per message
// that passes the filter. Actions are resolved by name at compile time; the
// variants fix their own configuration (terminator, indentation) so nothing
// is decided per message.
package action

import (
	"encoding/json"
	"io"

	"wisfind/internal/wnm"
	perrors "wisfind/pkg/errors"
)

// Action consumes one message. An error terminates the pipeline: actions may
// not be idempotent, so nothing is retried.
type Action func(msg *wnm.Decoded) error

// Factory binds an action variant to its output writer.
type Factory func(w io.Writer) Action

// registry maps command tokens to action variants. The default is the
// pretty-printing variant.
var registry = map[string]Factory{
	"print":  emitJSON("\n", 0),
	"pprint": emitJSON("\n", 2),
	"print0": emitJSON("\x00", 0),
}

const DefaultName = "pprint"

// Lookup resolves a named action variant. Unknown names are rejected by the
// caller as compile errors, the same way unknown constraint tokens are.
func Lookup(name string) (Factory, bool) {
	f, ok := registry[name]
	return f, ok
}

func Default() Factory {
	return registry[DefaultName]
}

// emitJSON writes one JSON document per message, terminated by end and
// optionally indented. Typed messages serialize with their field-presence
// semantics intact; raw documents serialize as-is.
func emitJSON(end string, indent int) Factory {
	return func(w io.Writer) Action {
		return func(msg *wnm.Decoded) error {
			var (
				data []byte
				err  error
			)
			if indent > 0 {
				data, err = json.MarshalIndent(msg, "", spaces(indent))
			} else {
				data, err = json.Marshal(msg)
			}
			if err != nil {
				return perrors.Action("emit", err)
			}
			if _, err := w.Write(append(data, end...)); err != nil {
				return perrors.Action("emit", err)
			}
			return nil
		}
	}
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
