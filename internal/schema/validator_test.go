package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"count": {"type": "integer", "minimum": 0}
	}
}`

func TestValidator_Validate(t *testing.T) {
	v, err := NewValidator([]byte(testSchema))
	require.NoError(t, err)

	assert.NoError(t, v.Validate(map[string]interface{}{
		"name":  "widget",
		"count": float64(3),
	}))

	err = v.Validate(map[string]interface{}{"count": float64(3)})
	assert.Error(t, err, "missing required property must fail")

	err = v.Validate(map[string]interface{}{
		"name":  "widget",
		"count": float64(-1),
	})
	assert.Error(t, err)
}

func TestValidator_Nil(t *testing.T) {
	var v *Validator
	assert.NoError(t, v.Validate(map[string]interface{}{"anything": true}))
}

func TestNewValidator_InvalidDefinition(t *testing.T) {
	_, err := NewValidator([]byte(`{"type": 42}`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.json")
	require.NoError(t, os.WriteFile(path, []byte(testSchema), 0o644))

	v, err := LoadFile(path)
	require.NoError(t, err)
	assert.NoError(t, v.Validate(map[string]interface{}{"name": "x"}))

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
