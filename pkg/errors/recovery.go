package errors

import "fmt"

// RecoverPanic converts a recovered panic value into an error so an action
// panic becomes an ordinary fatal error instead of crashing the process.
func RecoverPanic(r interface{}) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
