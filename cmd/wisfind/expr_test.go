package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wisfind/internal/wnm"
	perrors "wisfind/pkg/errors"
)

func decodedFixture(t *testing.T, raw string) *wnm.Decoded {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return &wnm.Decoded{Raw: m}
}

func TestParseExpressionEmpty(t *testing.T) {
	predicate, factory, err := parseExpression(nil)
	require.NoError(t, err)

	// Everything matches, output goes through the default pretty printer.
	assert.True(t, predicate(decodedFixture(t, `{"id":"m-1"}`)))

	var buf bytes.Buffer
	require.NoError(t, factory(&buf)(decodedFixture(t, `{"id":"m-1"}`)))
	assert.Equal(t, "{\n  \"id\": \"m-1\"\n}\n", buf.String())
}

func TestParseExpressionConstraintAndAction(t *testing.T) {
	predicate, factory, err := parseExpression([]string{"match", "type=Feature", "print"})
	require.NoError(t, err)

	assert.True(t, predicate(decodedFixture(t, `{"type":"Feature"}`)))
	assert.False(t, predicate(decodedFixture(t, `{"type":"Collection"}`)))

	var buf bytes.Buffer
	require.NoError(t, factory(&buf)(decodedFixture(t, `{"id":"m-1"}`)))
	assert.Equal(t, "{\"id\":\"m-1\"}\n", buf.String())
}

func TestParseExpressionActionPosition(t *testing.T) {
	// The action token may appear anywhere in the expression.
	predicate, factory, err := parseExpression([]string{"print0", "match", "type=Feature"})
	require.NoError(t, err)
	require.NotNil(t, factory)
	assert.True(t, predicate(decodedFixture(t, `{"type":"Feature"}`)))
}

func TestParseExpressionOperators(t *testing.T) {
	predicate, _, err := parseExpression([]string{
		"not", "match", "type=Feature", "or", "match", "cache=true",
	})
	require.NoError(t, err)

	assert.False(t, predicate(decodedFixture(t, `{"type":"Feature","properties":{"cache":false}}`)))
	assert.True(t, predicate(decodedFixture(t, `{"type":"Feature","properties":{"cache":true}}`)))
	assert.True(t, predicate(decodedFixture(t, `{"type":"Collection"}`)))
}

func TestParseExpressionMultipleActions(t *testing.T) {
	_, _, err := parseExpression([]string{"print", "pprint"})
	require.Error(t, err)
	assert.Equal(t, perrors.CodeCompile, perrors.CodeOf(err))
	assert.Contains(t, err.Error(), "multiple actions")
}

func TestParseExpressionUnknownToken(t *testing.T) {
	_, _, err := parseExpression([]string{"download"})
	require.Error(t, err)
	assert.Equal(t, perrors.CodeCompile, perrors.CodeOf(err))
	assert.Contains(t, err.Error(), "download")
}

func TestParseExpressionMissingArgument(t *testing.T) {
	_, _, err := parseExpression([]string{"match"})
	require.Error(t, err)
	assert.Equal(t, perrors.CodeCompile, perrors.CodeOf(err))
}

func TestParseExpressionDanglingOperator(t *testing.T) {
	_, _, err := parseExpression([]string{"match", "type=Feature", "or"})
	require.Error(t, err)
	assert.Equal(t, perrors.CodeCompile, perrors.CodeOf(err))
}
