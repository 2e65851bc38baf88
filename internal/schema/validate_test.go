package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpecs() []TypeSpec {
	return []TypeSpec{
		{
			Name:         "Project",
			Historizable: true,
			Properties: []PropertySpec{
				{Name: "title", Kind: "text"},
				{Name: "manager", Kind: "reference", Target: "Employee"},
				{Name: "positions", Kind: "collection", Target: "Position", MappedBy: "project", SoftDelete: true, Cascade: true},
			},
		},
		{Name: "SubProject", Parent: "Project", Properties: []PropertySpec{{Name: "code", Kind: "text"}}},
		{Name: "Employee", Properties: []PropertySpec{{Name: "name", Kind: "text"}}},
		{
			Name:         "Position",
			Historizable: true,
			Properties: []PropertySpec{
				{Name: "number", Kind: "int"},
				{Name: "deleted", Kind: "bool"},
			},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateAcceptsValidSchema(t *testing.T) {
	assert.Empty(t, Validate(validSpecs()))
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func([]TypeSpec) []TypeSpec
		code   string
	}{
		{"invalid kind", func(s []TypeSpec) []TypeSpec {
			s[0].Properties[0].Kind = "money"
			return s
		}, ErrInvalidKind},
		{"duplicate type", func(s []TypeSpec) []TypeSpec {
			return append(s, TypeSpec{Name: "Employee"})
		}, ErrDuplicateType},
		{"unknown parent", func(s []TypeSpec) []TypeSpec {
			s[1].Parent = "Portfolio"
			return s
		}, ErrUnknownParent},
		{"parent cycle", func(s []TypeSpec) []TypeSpec {
			s[0].Parent = "SubProject"
			return s
		}, ErrParentCycle},
		{"reserved id", func(s []TypeSpec) []TypeSpec {
			s[2].Properties = append(s[2].Properties, PropertySpec{Name: "id", Kind: "int"})
			return s
		}, ErrReservedProperty},
		{"shadowed property", func(s []TypeSpec) []TypeSpec {
			s[1].Properties = append(s[1].Properties, PropertySpec{Name: "title", Kind: "text"})
			return s
		}, ErrReservedProperty},
		{"missing target", func(s []TypeSpec) []TypeSpec {
			s[0].Properties[1].Target = ""
			return s
		}, ErrMissingTarget},
		{"unknown target", func(s []TypeSpec) []TypeSpec {
			s[0].Properties[1].Target = "Customer"
			return s
		}, ErrUnknownTarget},
		{"collection only", func(s []TypeSpec) []TypeSpec {
			s[0].Properties[0].Cascade = true
			return s
		}, ErrCollectionOnly},
		{"soft delete without flag", func(s []TypeSpec) []TypeSpec {
			s[3].Properties = s[3].Properties[:1]
			return s
		}, ErrSoftDeleteNoFlag},
		{"mapped by and join column", func(s []TypeSpec) []TypeSpec {
			s[0].Properties[2].JoinColumn = "project_fk"
			return s
		}, ErrMappedByJoinColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.mutate(validSpecs()))
			require.NotEmpty(t, errs)
			assert.Contains(t, codes(errs), tt.code)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	specs := validSpecs()
	specs[0].Properties[0].Kind = "money"
	specs[2].Properties[0].Kind = "blob"

	errs := Validate(specs)
	require.Len(t, errs, 2)
	assert.Equal(t, "entity.Employee.properties.name", errs[0].Field)
	assert.Equal(t, "entity.Project.properties.title", errs[1].Field)
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "entity.A.parent", Message: "unknown parent type \"B\"", Code: ErrUnknownParent}
	assert.Equal(t, `[E203] entity.A.parent: unknown parent type "B"`, e.Error())

	e.Line = 4
	assert.Equal(t, `[E203] line 4: entity.A.parent: unknown parent type "B"`, e.Error())
}
