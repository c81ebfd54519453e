package adapter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONUnmarshal_KeepsLargeIntegersExact(t *testing.T) {
	var got map[string]any
	err := NewJSON().Unmarshal([]byte(`{"amount": 1500000000000000001}`), &got)
	require.NoError(t, err)

	n, ok := got["amount"].(json.Number)
	require.True(t, ok, "expected json.Number, got %T", got["amount"])
	assert.Equal(t, "1500000000000000001", n.String())
}

func TestJSONUnmarshal_RejectsTrailingData(t *testing.T) {
	var got map[string]any
	assert.Error(t, NewJSON().Unmarshal([]byte(`{"a":1} {"b":2}`), &got))
	assert.NoError(t, NewJSON().Unmarshal([]byte("{\"a\":1}\n"), &got))
}

func TestJSONMarshalIndent(t *testing.T) {
	out, err := NewJSON().MarshalIndent(map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1\n}", string(out))
}
