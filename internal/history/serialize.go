package history

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/micromata/projectforge-sub013/internal/model"
)

// DateLayout is the serialized form of date-only values.
const DateLayout = "2006-01-02"

// ErrNoIdentity is returned when a value refers to an entity that still has
// no identity at serialization time.
var ErrNoIdentity = errors.New("entity has no identity")

// SerializeValue renders v as stored in history rows. Null yields nil.
//
// kind selects the rendering of time values; loc is the location in which
// date-only values are rendered.
func SerializeValue(kind model.Kind, v model.Value, loc *time.Location) (*string, error) {
	if model.IsNull(v) {
		return nil, nil
	}
	s, err := serialize(kind, v, loc)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func serialize(kind model.Kind, v model.Value, loc *time.Location) (string, error) {
	switch val := v.(type) {
	case model.Text:
		return norm.NFC.String(string(val)), nil
	case model.Int:
		return strconv.FormatInt(int64(val), 10), nil
	case model.Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64), nil
	case model.Bool:
		return strconv.FormatBool(bool(val)), nil
	case model.Decimal:
		return val.Apd().Text('f'), nil
	case model.Time:
		t := val.Std()
		if kind == model.KindDate {
			if loc != nil {
				t = t.In(loc)
			}
			return t.Format(DateLayout), nil
		}
		return t.UTC().Format(time.RFC3339), nil
	case model.Ref:
		id, ok := val.Entity.EntityID()
		if !ok {
			return "", fmt.Errorf("reference to %s: %w", val.Entity.TypeName(), ErrNoIdentity)
		}
		return id.String(), nil
	case model.Members:
		return serializeMembers(val)
	default:
		return "", fmt.Errorf("unsupported value %T", v)
	}
}

func serializeMembers(members model.Members) (string, error) {
	ids := make([]model.ID, 0, len(members))
	for _, m := range members {
		id, ok := m.EntityID()
		if !ok {
			return "", fmt.Errorf("member of type %s: %w", m.TypeName(), ErrNoIdentity)
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ","), nil
}
