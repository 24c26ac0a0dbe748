package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		text string
		kind ValueKind
	}{
		{"true", KindBool},
		{"false", KindBool},
		{"64", KindInteger},
		{"-3", KindInteger},
		{"0", KindInteger},
		{"generic", KindString},
		{"True", KindString},
		{"1.5", KindString},
		{"", KindString},
		{"99999999999999999999", KindString},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			v := ParseValue(tt.text)
			assert.Equal(t, tt.kind, v.Kind)
			assert.Equal(t, tt.text, v.Text, "text must be kept verbatim")
		})
	}
}

func TestValueAccessors(t *testing.T) {
	n, err := IntValue(64).Int()
	require.NoError(t, err)
	assert.Equal(t, int64(64), n)

	b, err := BoolValue(true).Bool()
	require.NoError(t, err)
	assert.True(t, b)

	_, err = StringValue("x").Int()
	assert.Error(t, err)
	_, err = StringValue("x").Bool()
	assert.Error(t, err)

	assert.True(t, Value{}.IsZero())
	assert.False(t, StringValue("").IsZero())
}

func TestValueJSON(t *testing.T) {
	data, err := json.Marshal([]Value{BoolValue(false), IntValue(7), StringValue("generic")})
	require.NoError(t, err)
	assert.Equal(t, `[false,7,"generic"]`, string(data))

	var got []Value
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, []Value{BoolValue(false), IntValue(7), StringValue("generic")}, got)

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`1.5`), &v))
	assert.Error(t, json.Unmarshal([]byte(`null`), &v))
}
