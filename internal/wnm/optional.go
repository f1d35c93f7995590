package wnm

import (
	"bytes"
	"encoding/json"
)

// Optional carries the three-way presence state the notification-message
// standard needs for its temporal and conformance fields: a field that was
// never sent (unset), a field explicitly sent as null, and a field with a
// value are three different things.
type Optional[T any] struct {
	present bool
	null    bool
	value   T
}

func Value[T any](v T) Optional[T] {
	return Optional[T]{present: true, value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{present: true, null: true}
}

func Unset[T any]() Optional[T] {
	return Optional[T]{}
}

// IsSet reports whether the field was present in the document at all,
// whether as null or with a value.
func (o Optional[T]) IsSet() bool {
	return o.present
}

func (o Optional[T]) IsNull() bool {
	return o.present && o.null
}

// Get returns the value and whether one is held; null and unset both report
// false.
func (o Optional[T]) Get() (T, bool) {
	if !o.present || o.null {
		var zero T
		return zero, false
	}
	return o.value, true
}

// IsZero makes unset fields disappear under the json omitzero option, so a
// round trip preserves the unset/null distinction.
func (o Optional[T]) IsZero() bool {
	return !o.present
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.present || o.null {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*o = Null[T]()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Value(v)
	return nil
}
