package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no lang", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"prose around", `Aquí está el resultado: {"a": 1} espero que sirva`, `{"a": 1}`},
		{"no object", "lo siento, no puedo ayudar", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func TestParseResponse(t *testing.T) {
	outcome := parseResponse("triaje", `{"puntuacion": 0.8}`)
	require.True(t, outcome.ok())
	assert.InDelta(t, 0.8, asFloat(outcome.data, "puntuacion"), 0.001)

	outcome = parseResponse("triaje", `{"rota": `)
	assert.False(t, outcome.ok())
	assert.Contains(t, outcome.warning, "triaje")
}

func TestLooseCoercion(t *testing.T) {
	obj := map[string]any{
		"texto":    "hola",
		"numero":   "0.75", // quoted number
		"entero":   float64(3),
		"nada":     nil,
		"lista":    []any{"a", "b"},
		"opcional": "x",
	}

	assert.Equal(t, "hola", asString(obj, "texto"))
	assert.InDelta(t, 0.75, asFloat(obj, "numero"), 0.001)
	assert.Equal(t, 3, asInt(obj, "entero"))
	assert.Equal(t, []string{"a", "b"}, asStringSlice(obj, "lista"))
	assert.Nil(t, asStringSlice(obj, "nada"))
	assert.Nil(t, optInt(obj, "nada"))
	assert.Nil(t, optInt(obj, "ausente"))
	assert.Nil(t, optInt(obj, "opcional"))

	n := optInt(obj, "entero")
	require.NotNil(t, n)
	assert.Equal(t, 3, *n)
}
