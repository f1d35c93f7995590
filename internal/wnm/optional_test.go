package wnm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type optionalHolder struct {
	A Optional[int]    `json:"a,omitzero"`
	B Optional[string] `json:"b,omitzero"`
}

func TestOptionalThreeWayState(t *testing.T) {
	var h optionalHolder
	require.NoError(t, json.Unmarshal([]byte(`{"a":null,"b":"x"}`), &h))

	assert.True(t, h.A.IsSet())
	assert.True(t, h.A.IsNull())
	_, ok := h.A.Get()
	assert.False(t, ok)

	assert.True(t, h.B.IsSet())
	assert.False(t, h.B.IsNull())
	v, ok := h.B.Get()
	require.True(t, ok)
	assert.Equal(t, "x", v)

	var empty optionalHolder
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.False(t, empty.A.IsSet())
	assert.False(t, empty.B.IsSet())
}

func TestOptionalMarshalRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"both unset", `{}`},
		{"null and value", `{"a":null,"b":"x"}`},
		{"value and null", `{"a":7,"b":null}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var h optionalHolder
			require.NoError(t, json.Unmarshal([]byte(tc.in), &h))
			out, err := json.Marshal(h)
			require.NoError(t, err)
			assert.JSONEq(t, tc.in, string(out))
		})
	}
}

func TestOptionalUnmarshalTypeMismatch(t *testing.T) {
	var h optionalHolder
	err := json.Unmarshal([]byte(`{"a":"not a number"}`), &h)
	require.Error(t, err)
}

func TestParseTime(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"2024-05-06T07:08:09Z", false},
		{"2024-05-06T07:08:09.123Z", false},
		{"2024-05-06T07:08:09+00:00", false},
		{"2024-05-06T07:08:09", false},
		{"2024-05-06T07:08:09+02:00", true},
		{"2024-05-06T07:08:09-05:00", true},
		{"not a timestamp", true},
		{"2024-05-06", true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			parsed, err := ParseTime(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, offset := parsed.Zone()
			assert.Zero(t, offset)
		})
	}
}
