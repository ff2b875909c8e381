package template

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE string

// Validator checks raw template JSON against the embedded CUE schema.
// Compile the schema once and reuse the Validator across templates.
type Validator struct {
	ctx    *cue.Context
	schema cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile template schema: %w", err)
	}
	schema := root.LookupPath(cue.ParsePath("#Template"))
	if !schema.Exists() {
		return nil, fmt.Errorf("compile template schema: #Template not found")
	}
	return &Validator{ctx: ctx, schema: schema}, nil
}

// Validate unifies one raw template object with the schema. The name is
// used in error positions (typically "templates.json[i]" or the template
// id when known).
func (v *Validator) Validate(raw json.RawMessage, name string) error {
	expr, err := cuejson.Extract(name, raw)
	if err != nil {
		return &LoadError{Code: ErrCodeParse, Path: name, Message: err.Error()}
	}

	val := v.ctx.BuildExpr(expr)
	if err := val.Err(); err != nil {
		return &LoadError{Code: ErrCodeParse, Path: name, Message: err.Error()}
	}

	unified := v.schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &LoadError{Code: ErrCodeSchema, Path: name, Message: err.Error()}
	}
	return nil
}
