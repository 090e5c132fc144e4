package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Default(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestValidate_Connected(t *testing.T) {
	cfg := Default()
	cfg.DB.URI = "mongodb+srv://cluster0.example.net/formsg"
	cfg.DB.Options.ReadPreference = "secondaryPreferred"
	cfg.DB.Options.MaxPoolSize = 10
	cfg.Models = []ModelConfig{{Name: "Submission", Collection: "submissions", ReadPreference: "secondary"}}

	require.NoError(t, Validate(cfg))
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Fallback.Port = 70000 },
			path:   "fallback.port",
		},
		{
			name:   "uri scheme",
			mutate: func(c *Config) { c.DB.URI = "postgres://localhost/formsg" },
			path:   "db.uri",
		},
		{
			name:   "read preference",
			mutate: func(c *Config) { c.DB.Options.ReadPreference = "secondaryOnly" },
			path:   "db.options.readPreference",
		},
		{
			name: "model without collection",
			mutate: func(c *Config) {
				c.Models = []ModelConfig{{Name: "Form"}}
			},
			path: "models",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)

			var schemaErr *SchemaError
			require.True(t, errors.As(err, &schemaErr), "expected a SchemaError, got %T", err)
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestValidate_PathsRelativeToConfig(t *testing.T) {
	cfg := Default()
	cfg.Fallback.Port = 70000

	err := Validate(cfg)
	require.Error(t, err)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok, "expected joined errors, got %T", err)

	var paths []string
	for _, e := range joined.Unwrap() {
		var schemaErr *SchemaError
		require.True(t, errors.As(e, &schemaErr))
		paths = append(paths, schemaErr.Path)
		assert.NotContains(t, schemaErr.Path, schemaRoot)
	}
	assert.Contains(t, paths, "fallback.port")
}

func TestSchemaPath(t *testing.T) {
	assert.Equal(t, "fallback.port", schemaPath([]string{"#Config", "fallback", "port"}))
	assert.Equal(t, "db.uri", schemaPath([]string{"db", "uri"}))
	assert.Equal(t, "", schemaPath(nil))
}

func TestSchemaError_Error(t *testing.T) {
	e := &SchemaError{Path: "fallback.port", Message: "invalid value 0"}
	assert.Equal(t, "fallback.port: invalid value 0", e.Error())

	e = &SchemaError{Path: "fallback.port", Message: "fallback.port: invalid value 0"}
	assert.Equal(t, "fallback.port: invalid value 0", e.Error())
}
