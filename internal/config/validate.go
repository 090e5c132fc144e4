package config

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// SchemaError is a single schema violation.
type SchemaError struct {
	Path    string `json:"path"` // dotted CUE path, e.g. "fallback.port"
	Message string `json:"message"`
}

func (e *SchemaError) Error() string {
	if e.Path == "" || strings.HasPrefix(e.Message, e.Path) {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Validate checks cfg against the embedded #Config schema.
// All violations are returned, joined.
func Validate(cfg *Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath(schemaRoot))

	v := ctx.Encode(cfg)
	if err := v.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return formatCUEErrors(err)
	}
	return nil
}

// formatCUEErrors flattens a CUE error list into SchemaErrors.
func formatCUEErrors(err error) error {
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return err
	}

	errs := make([]error, 0, len(list))
	for _, e := range list {
		errs = append(errs, &SchemaError{
			Path:    schemaPath(e.Path()),
			Message: strings.TrimPrefix(e.Error(), schemaRoot+"."),
		})
	}
	return errors.Join(errs...)
}

// schemaRoot is the definition every config is unified with. CUE reports it
// as the first path element.
const schemaRoot = "#Config"

// schemaPath joins a CUE error path relative to schemaRoot.
func schemaPath(elems []string) string {
	if len(elems) > 0 && elems[0] == schemaRoot {
		elems = elems[1:]
	}
	return strings.Join(elems, ".")
}
