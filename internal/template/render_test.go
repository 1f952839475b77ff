package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	got := Render("Hola {{name}}, tu cita es {{date}}", map[string]interface{}{
		"name": "Ana",
		"date": "2025-01-01",
	})
	assert.Equal(t, "Hola Ana, tu cita es 2025-01-01", got)
}

func TestRenderMissingVariableLeavesToken(t *testing.T) {
	assert.Equal(t, "Hi {{x}}", Render("Hi {{x}}", map[string]interface{}{}))
	assert.Equal(t, "Hi {{x}}", Render("Hi {{x}}", nil))
}

func TestRenderNilValueRendersEmpty(t *testing.T) {
	assert.Equal(t, "Hi ", Render("Hi {{x}}", map[string]interface{}{"x": nil}))
}

func TestRenderRepeatedToken(t *testing.T) {
	got := Render("{{n}} y {{n}}", map[string]interface{}{"n": 2})
	assert.Equal(t, "2 y 2", got)
}

func TestRenderNonStringValues(t *testing.T) {
	got := Render("Total: {{amount}}", map[string]interface{}{"amount": 1500.5})
	assert.Equal(t, "Total: 1500.5", got)
}
