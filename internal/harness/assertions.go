package harness

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/model"
	"github.com/micromata/projectforge-sub013/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the relevant stored history to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Entries  []history.Entry
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Entries) > 0 {
		fmt.Fprintf(&buf, "\nStored history:\n")
		_ = history.Render(&buf, e.Entries)
	}
	return buf.String()
}

// parseEntity splits "Type#id".
func parseEntity(s string) (string, model.ID, error) {
	typ, raw, ok := strings.Cut(s, "#")
	if !ok || typ == "" {
		return "", 0, fmt.Errorf("entity %q: want Type#id", s)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("entity %q: invalid id: %w", s, err)
	}
	return typ, model.ID(id), nil
}

// assertHistoryContains checks that the entity has a stored entry matching
// the operation and, when a property is named, an attribute matching the
// expected values.
func assertHistoryContains(ctx context.Context, st *store.Store, a Assertion) error {
	typ, id, err := parseEntity(a.Entity)
	if err != nil {
		return err
	}
	entries, err := st.ReadEntityHistory(ctx, typ, id)
	if err != nil {
		return fmt.Errorf("read history of %s: %w", a.Entity, err)
	}
	op, _ := history.ParseOp(a.Operation)

	for _, e := range entries {
		if op != history.OpUndefined && e.Operation != op {
			continue
		}
		if a.Property == "" {
			return nil
		}
		for _, attr := range e.Attributes {
			if attr.Property == a.Property && valueMatches(attr.OldValue, a.Old, a.OldNull) && valueMatches(attr.NewValue, a.New, a.NewNull) {
				return nil
			}
		}
	}

	return &AssertionError{
		Type:     AssertHistoryContains,
		Expected: describeContains(a),
		Actual:   "not found in stored history",
		Entries:  entries,
	}
}

func valueMatches(actual, want *string, wantNull bool) bool {
	switch {
	case wantNull:
		return actual == nil
	case want == nil:
		return true
	default:
		return actual != nil && *actual == *want
	}
}

func describeContains(a Assertion) string {
	desc := a.Entity
	if a.Operation != "" {
		desc = a.Operation + " " + desc
	}
	if a.Property == "" {
		return desc
	}
	desc += " with " + a.Property
	if a.Old != nil || a.OldNull {
		desc += " from " + describeValue(a.Old, a.OldNull)
	}
	if a.New != nil || a.NewNull {
		desc += " to " + describeValue(a.New, a.NewNull)
	}
	return desc
}

func describeValue(v *string, null bool) string {
	if null || v == nil {
		return "null"
	}
	return strconv.Quote(*v)
}

// assertHistoryCount checks the number of stored entries, for one entity
// when Entity is set.
func assertHistoryCount(ctx context.Context, st *store.Store, a Assertion) error {
	var (
		count   int
		entries []history.Entry
		subject = "all entities"
	)
	if a.Entity != "" {
		typ, id, err := parseEntity(a.Entity)
		if err != nil {
			return err
		}
		entries, err = st.ReadEntityHistory(ctx, typ, id)
		if err != nil {
			return fmt.Errorf("read history of %s: %w", a.Entity, err)
		}
		count = len(entries)
		subject = a.Entity
	} else {
		var err error
		count, err = st.CountEntries(ctx)
		if err != nil {
			return err
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertHistoryCount,
			Expected: fmt.Sprintf("%d entries for %s", a.Count, subject),
			Actual:   fmt.Sprintf("%d entries", count),
			Entries:  entries,
		}
	}
	return nil
}

// assertFinalState replays the entity's stored history and checks the
// expected values and lifecycle flags (subset semantics).
func assertFinalState(ctx context.Context, st *store.Store, a Assertion) error {
	typ, id, err := parseEntity(a.Entity)
	if err != nil {
		return err
	}
	state, err := st.ReplayEntity(ctx, typ, id)
	if err != nil {
		return err
	}
	fail := func(expected, actual string) error {
		return &AssertionError{Type: AssertFinalState, Expected: expected, Actual: actual}
	}

	if state.Entries == 0 {
		return fail("history for "+a.Entity, "no entries")
	}

	keys := make([]string, 0, len(a.Values))
	for k := range a.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		actual, recorded := state.Values[k]
		if !recorded {
			return fail(fmt.Sprintf("%s.%s = %q", a.Entity, k, a.Values[k]), "never recorded")
		}
		if actual == nil || *actual != a.Values[k] {
			return fail(fmt.Sprintf("%s.%s = %q", a.Entity, k, a.Values[k]), describeValue(actual, actual == nil))
		}
	}

	if a.Created != nil && state.Created != *a.Created {
		return fail(fmt.Sprintf("%s created = %t", a.Entity, *a.Created), strconv.FormatBool(state.Created))
	}
	if a.Deleted != nil && state.Deleted != *a.Deleted {
		return fail(fmt.Sprintf("%s deleted = %t", a.Entity, *a.Deleted), strconv.FormatBool(state.Deleted))
	}
	return nil
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store *store.Store
	Ctx   context.Context
}

// EvaluateAssertions evaluates all assertions against the stored history.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error
		if actx == nil || actx.Store == nil {
			err = fmt.Errorf("assertion[%d]: %s requires a history store", i, assertion.Type)
		} else {
			switch assertion.Type {
			case AssertHistoryContains:
				err = assertHistoryContains(actx.Ctx, actx.Store, assertion)
			case AssertHistoryCount:
				err = assertHistoryCount(actx.Ctx, actx.Store, assertion)
			case AssertFinalState:
				err = assertFinalState(actx.Ctx, actx.Store, assertion)
			default:
				err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
			}
		}
		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
