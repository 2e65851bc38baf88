package schema

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileEntity parses a CUE value into a TypeSpec. The value should be the
// entity struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`entity: Project: { ... }`)
//	spec, err := CompileEntity(v.LookupPath(cue.ParsePath("entity.Project")))
func CompileEntity(v cue.Value) (*TypeSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &TypeSpec{Pos: v.Pos()}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	var err error
	if spec.Parent, err = optionalString(v, "parent"); err != nil {
		return nil, err
	}
	if spec.Historizable, err = optionalBool(v, "historizable"); err != nil {
		return nil, err
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return spec, nil
	}
	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		prop, err := compileProperty(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Properties = append(spec.Properties, prop)
	}
	return spec, nil
}

func compileProperty(name string, v cue.Value) (PropertySpec, error) {
	prop := PropertySpec{Name: name, Pos: v.Pos()}

	kindVal := v.LookupPath(cue.ParsePath("kind"))
	if !kindVal.Exists() {
		return prop, &CompileError{
			Field:   "properties." + name + ".kind",
			Message: "kind is required",
			Pos:     v.Pos(),
		}
	}
	kind, err := kindVal.String()
	if err != nil {
		return prop, formatCUEError(err)
	}
	prop.Kind = kind

	if prop.Target, err = optionalString(v, "target"); err != nil {
		return prop, err
	}
	if prop.MappedBy, err = optionalString(v, "mappedBy"); err != nil {
		return prop, err
	}
	if prop.JoinColumn, err = optionalString(v, "joinColumn"); err != nil {
		return prop, err
	}
	if prop.Transient, err = optionalBool(v, "transient"); err != nil {
		return prop, err
	}
	if prop.HistoryExempt, err = optionalBool(v, "historyExempt"); err != nil {
		return prop, err
	}
	if prop.SoftDelete, err = optionalBool(v, "softDelete"); err != nil {
		return prop, err
	}
	if prop.Cascade, err = optionalBool(v, "cascade"); err != nil {
		return prop, err
	}
	return prop, nil
}

func optionalString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", nil
	}
	s, err := fv.String()
	if err != nil {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must be a string: %v", err),
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

func optionalBool(v cue.Value, field string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must be a bool: %v", err),
			Pos:     fv.Pos(),
		}
	}
	return b, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
