package schema

import (
	"fmt"
	"sort"

	"github.com/micromata/projectforge-sub013/internal/model"
)

// Validation error codes (E200-E299)
const (
	ErrInvalidKind        = "E201" // kind is not a known value kind
	ErrDuplicateType      = "E202" // type declared twice
	ErrUnknownParent      = "E203" // parent is not declared
	ErrParentCycle        = "E204" // parent chain loops back
	ErrReservedProperty   = "E205" // "id" or a name already declared by an ancestor
	ErrMissingTarget      = "E206" // reference or collection without target
	ErrUnknownTarget      = "E207" // target is not declared
	ErrCollectionOnly     = "E208" // mappedBy/joinColumn/softDelete/cascade on a non-collection
	ErrSoftDeleteNoFlag   = "E209" // softDelete target lacks a bool "deleted" property
	ErrMappedByJoinColumn = "E210" // both mappedBy and joinColumn given
)

// DeletedProperty is the property a soft-deletable type must declare.
const DeletedProperty = "deleted"

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks compiled types against each other.
// Returns all errors found (does not fail-fast), ordered by type name.
func Validate(specs []TypeSpec) []ValidationError {
	var errs []ValidationError
	byName := make(map[string]*TypeSpec, len(specs))

	for i := range specs {
		t := &specs[i]
		if _, dup := byName[t.Name]; dup {
			errs = append(errs, ValidationError{
				Field:   "entity." + t.Name,
				Message: fmt.Sprintf("duplicate type %q", t.Name),
				Code:    ErrDuplicateType,
				Line:    t.Pos.Line(),
			})
			continue
		}
		byName[t.Name] = t
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errs = append(errs, validateType(byName[name], byName)...)
	}
	return errs
}

func validateType(t *TypeSpec, byName map[string]*TypeSpec) []ValidationError {
	var errs []ValidationError
	field := "entity." + t.Name

	if t.Parent != "" {
		if _, ok := byName[t.Parent]; !ok {
			errs = append(errs, ValidationError{
				Field:   field + ".parent",
				Message: fmt.Sprintf("unknown parent type %q", t.Parent),
				Code:    ErrUnknownParent,
				Line:    t.Pos.Line(),
			})
		} else if cyclic(t, byName) {
			errs = append(errs, ValidationError{
				Field:   field + ".parent",
				Message: "parent chain forms a cycle",
				Code:    ErrParentCycle,
				Line:    t.Pos.Line(),
			})
		}
	}

	for _, p := range t.Properties {
		errs = append(errs, validateProperty(t, p, byName)...)
	}
	return errs
}

func validateProperty(t *TypeSpec, p PropertySpec, byName map[string]*TypeSpec) []ValidationError {
	var errs []ValidationError
	field := fmt.Sprintf("entity.%s.properties.%s", t.Name, p.Name)
	fail := func(code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
			Line:    p.Pos.Line(),
		})
	}

	if p.Name == model.IDProperty {
		fail(ErrReservedProperty, "%q is reserved for identity", p.Name)
	}
	if owner := declaredByAncestor(t, p.Name, byName); owner != "" {
		fail(ErrReservedProperty, "already declared by ancestor %s", owner)
	}

	kind, err := model.ParseKind(p.Kind)
	if err != nil {
		fail(ErrInvalidKind, "%v", err)
		return errs
	}

	if kind == model.KindReference || kind == model.KindCollection {
		switch target, ok := byName[p.Target]; {
		case p.Target == "":
			fail(ErrMissingTarget, "%s property requires a target", kind)
		case !ok:
			fail(ErrUnknownTarget, "unknown target type %q", p.Target)
		case p.SoftDelete && !hasDeletedFlag(target, byName):
			fail(ErrSoftDeleteNoFlag, "softDelete requires %s to declare a bool %q property", p.Target, DeletedProperty)
		}
	}

	if kind != model.KindCollection {
		if p.MappedBy != "" || p.JoinColumn != "" || p.SoftDelete || p.Cascade {
			fail(ErrCollectionOnly, "mappedBy, joinColumn, softDelete and cascade apply to collections only")
		}
	} else if p.MappedBy != "" && p.JoinColumn != "" {
		fail(ErrMappedByJoinColumn, "mappedBy and joinColumn are mutually exclusive")
	}
	return errs
}

func cyclic(t *TypeSpec, byName map[string]*TypeSpec) bool {
	seen := map[string]bool{t.Name: true}
	for cur := byName[t.Parent]; cur != nil; cur = byName[cur.Parent] {
		if seen[cur.Name] {
			return true
		}
		seen[cur.Name] = true
	}
	return false
}

// declaredByAncestor returns the nearest ancestor declaring name.
func declaredByAncestor(t *TypeSpec, name string, byName map[string]*TypeSpec) string {
	seen := map[string]bool{t.Name: true}
	for cur := byName[t.Parent]; cur != nil && !seen[cur.Name]; cur = byName[cur.Parent] {
		seen[cur.Name] = true
		if _, ok := cur.Property(name); ok {
			return cur.Name
		}
	}
	return ""
}

func hasDeletedFlag(t *TypeSpec, byName map[string]*TypeSpec) bool {
	seen := make(map[string]bool)
	for cur := t; cur != nil && !seen[cur.Name]; cur = byName[cur.Parent] {
		seen[cur.Name] = true
		if p, ok := cur.Property(DeletedProperty); ok {
			return p.Kind == model.KindBool.String()
		}
	}
	return false
}
