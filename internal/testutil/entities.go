package testutil

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/micromata/projectforge-sub013/internal/model"
)

// Project is a historizable test entity exercising every property kind.
type Project struct {
	model.Base
	Title      string
	Note       *string
	Budget     *apd.Decimal
	StartDate  *time.Time
	LastReview *time.Time
	Manager    *Employee
	Priority   int64
	Rating     float64
	Active     bool
	LastUpdate *time.Time
	SearchHint string

	Positions   []*Position
	Attachments []*Attachment
	Members     []*Employee

	// NoPositions makes the positions collection absent, as for an
	// uninitialized destination.
	NoPositions bool
}

func (*Project) TypeName() string { return "Project" }

// SubProject derives from Project.
type SubProject struct {
	Project
	Code string
}

func (*SubProject) TypeName() string { return "SubProject" }

// Employee is a non-historizable reference target.
type Employee struct {
	model.Base
	Name string
}

func (*Employee) TypeName() string { return "Employee" }

// Position is a historizable, soft-deletable collection member.
type Position struct {
	model.Base
	Number  int64
	Text    string
	Amount  *apd.Decimal
	Deleted bool
}

func (*Position) TypeName() string { return "Position" }

func (p *Position) IsDeleted() bool { return p.Deleted }

func (p *Position) SetDeleted(deleted bool) { p.Deleted = deleted }

// Attachment is a non-historizable collection member matched by name when
// it has no identity.
type Attachment struct {
	model.Base
	Name string
}

func (*Attachment) TypeName() string { return "Attachment" }

func (a *Attachment) NaturalKey() string { return a.Name }

func prop[E model.Entity](name string, kind model.Kind, get func(E) model.Value, set func(E, model.Value) error) model.Property {
	return model.Property{
		Name: name,
		Kind: kind,
		Get:  func(e model.Entity) model.Value { return get(e.(E)) },
		Set:  func(e model.Entity, v model.Value) error { return set(e.(E), v) },
	}
}

func project(e model.Entity) *Project {
	if sp, ok := e.(*SubProject); ok {
		return &sp.Project
	}
	return e.(*Project)
}

func projectProp(name string, kind model.Kind, get func(*Project) model.Value, set func(*Project, model.Value) error) model.Property {
	return model.Property{
		Name: name,
		Kind: kind,
		Get:  func(e model.Entity) model.Value { return get(project(e)) },
		Set:  func(e model.Entity, v model.Value) error { return set(project(e), v) },
	}
}

func refProp(p model.Property, target string) model.Property {
	p.Target = target
	return p
}

func projectTypes() []model.Type {
	props := []model.Property{
		projectProp("title", model.KindText,
			func(p *Project) model.Value { return model.Text(p.Title) },
			func(p *Project, v model.Value) (err error) { p.Title, err = model.AsString(v); return err }),
		projectProp("note", model.KindText,
			func(p *Project) model.Value { return model.TextOf(p.Note) },
			func(p *Project, v model.Value) (err error) { p.Note, err = model.AsText(v); return err }),
		projectProp("budget", model.KindDecimal,
			func(p *Project) model.Value { return model.DecimalOf(p.Budget) },
			func(p *Project, v model.Value) (err error) { p.Budget, err = model.AsDecimal(v); return err }),
		projectProp("startDate", model.KindDate,
			func(p *Project) model.Value { return model.TimeOf(p.StartDate) },
			func(p *Project, v model.Value) (err error) { p.StartDate, err = model.AsTime(v); return err }),
		projectProp("lastReview", model.KindDateTime,
			func(p *Project) model.Value { return model.TimeOf(p.LastReview) },
			func(p *Project, v model.Value) (err error) { p.LastReview, err = model.AsTime(v); return err }),
		refProp(projectProp("manager", model.KindReference,
			func(p *Project) model.Value { return model.RefOf(p.Manager) },
			func(p *Project, v model.Value) (err error) { p.Manager, err = model.AsRef[*Employee](v); return err }),
			"Employee"),
		projectProp("priority", model.KindInt,
			func(p *Project) model.Value { return model.Int(p.Priority) },
			func(p *Project, v model.Value) (err error) { p.Priority, err = model.AsInt(v); return err }),
		projectProp("rating", model.KindFloat,
			func(p *Project) model.Value { return model.Float(p.Rating) },
			func(p *Project, v model.Value) error {
				f, ok := v.(model.Float)
				if !ok && !model.IsNull(v) {
					return fmt.Errorf("rating: unexpected %T", v)
				}
				p.Rating = float64(f)
				return nil
			}),
		projectProp("active", model.KindBool,
			func(p *Project) model.Value { return model.Bool(p.Active) },
			func(p *Project, v model.Value) (err error) { p.Active, err = model.AsBool(v); return err }),
	}

	lastUpdate := projectProp("lastUpdate", model.KindDateTime,
		func(p *Project) model.Value { return model.TimeOf(p.LastUpdate) },
		func(p *Project, v model.Value) (err error) { p.LastUpdate, err = model.AsTime(v); return err })
	lastUpdate.HistoryExempt = true

	searchHint := projectProp("searchHint", model.KindText,
		func(p *Project) model.Value { return model.Text(p.SearchHint) },
		func(p *Project, v model.Value) (err error) { p.SearchHint, err = model.AsString(v); return err })
	searchHint.Transient = true
	searchHint.HistoryExempt = true

	positions := model.Property{
		Name:       "positions",
		Kind:       model.KindCollection,
		Target:     "Position",
		Owned:      true,
		SoftDelete: true,
		Cascade:    true,
		Collection: func(e model.Entity) model.Collection {
			p := project(e)
			if p.NoPositions {
				return nil
			}
			return model.SliceOf(&p.Positions)
		},
		NewCollection: func(e model.Entity) (model.Collection, error) {
			p := project(e)
			p.NoPositions = false
			p.Positions = []*Position{}
			return model.SliceOf(&p.Positions), nil
		},
	}

	attachments := model.Property{
		Name:   "attachments",
		Kind:   model.KindCollection,
		Target: "Attachment",
		Owned:  true,
		Collection: func(e model.Entity) model.Collection {
			return model.SliceOf(&project(e).Attachments)
		},
	}

	members := model.Property{
		Name:   "members",
		Kind:   model.KindCollection,
		Target: "Employee",
		Collection: func(e model.Entity) model.Collection {
			return model.SliceOf(&project(e).Members)
		},
	}

	props = append(props, lastUpdate, searchHint, positions, attachments, members)

	return []model.Type{
		{Name: "Project", Historizable: true, Properties: props},
		{
			Name:         "SubProject",
			Parent:       "Project",
			Historizable: true,
			Properties: []model.Property{
				prop("code", model.KindText,
					func(p *SubProject) model.Value { return model.Text(p.Code) },
					func(p *SubProject, v model.Value) (err error) { p.Code, err = model.AsString(v); return err }),
			},
		},
	}
}

func memberTypes() []model.Type {
	return []model.Type{
		{
			Name: "Employee",
			Properties: []model.Property{
				prop("name", model.KindText,
					func(e *Employee) model.Value { return model.Text(e.Name) },
					func(e *Employee, v model.Value) (err error) { e.Name, err = model.AsString(v); return err }),
			},
		},
		{
			Name:         "Position",
			Historizable: true,
			Properties: []model.Property{
				prop("number", model.KindInt,
					func(p *Position) model.Value { return model.Int(p.Number) },
					func(p *Position, v model.Value) (err error) { p.Number, err = model.AsInt(v); return err }),
				prop("text", model.KindText,
					func(p *Position) model.Value { return model.Text(p.Text) },
					func(p *Position, v model.Value) (err error) { p.Text, err = model.AsString(v); return err }),
				prop("amount", model.KindDecimal,
					func(p *Position) model.Value { return model.DecimalOf(p.Amount) },
					func(p *Position, v model.Value) (err error) { p.Amount, err = model.AsDecimal(v); return err }),
				prop("deleted", model.KindBool,
					func(p *Position) model.Value { return model.Bool(p.Deleted) },
					func(p *Position, v model.Value) (err error) { p.Deleted, err = model.AsBool(v); return err }),
			},
		},
		{
			Name: "Attachment",
			Properties: []model.Property{
				prop("name", model.KindText,
					func(a *Attachment) model.Value { return model.Text(a.Name) },
					func(a *Attachment, v model.Value) (err error) { a.Name, err = model.AsString(v); return err }),
			},
		},
	}
}

// Registry returns the registry of the test entity types. It panics if the
// descriptors are invalid.
func Registry() *model.Registry {
	r, err := model.NewRegistry(append(projectTypes(), memberTypes()...)...)
	if err != nil {
		panic(err)
	}
	return r
}

// Dec parses a decimal literal for fixtures.
func Dec(s string) *apd.Decimal {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Str returns a pointer to s.
func Str(s string) *string {
	return &s
}

// At returns a pointer to the UTC time built from the arguments.
func At(year int, month time.Month, day, hour, minute int) *time.Time {
	t := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	return &t
}

// NewPosition builds a position with the given identity; id 0 means none.
func NewPosition(id, number int64, text string) *Position {
	p := &Position{Number: number, Text: text}
	if id != 0 {
		p.SetEntityID(model.ID(id), true)
	}
	return p
}
