package record

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"gopkg.in/yaml.v3"

	"github.com/micromata/projectforge-sub013/internal/history"
	"github.com/micromata/projectforge-sub013/internal/model"
)

// DecodeError reports a malformed record document.
type DecodeError struct {
	Path    string
	Line    int
	Message string
}

func (e *DecodeError) Error() string {
	path := e.Path
	if path == "" {
		path = "<root>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, path, e.Message)
	}
	return fmt.Sprintf("%s: %s", path, e.Message)
}

// Codec converts record graphs to and from YAML.
type Codec struct {
	reg *model.Registry
	loc *time.Location
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithLocation sets the location date-only values are read and written in.
// Defaults to UTC.
func WithLocation(loc *time.Location) CodecOption {
	return func(c *Codec) {
		c.loc = loc
	}
}

// NewCodec creates a Codec for the types in reg.
func NewCodec(reg *model.Registry, opts ...CodecOption) *Codec {
	c := &Codec{reg: reg, loc: time.UTC}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DecodeFile reads and decodes the record document at path.
func (c *Codec) DecodeFile(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}
	r, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Decode parses a single record document. The root must name its type.
func (c *Codec) Decode(data []byte) (*Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, &DecodeError{Message: "empty document"}
	}
	return c.decodeRecord(doc.Content[0], "", "")
}

func (c *Codec) decodeRecord(n *yaml.Node, declared, path string) (*Record, error) {
	n = resolveAlias(n)
	if n.Kind != yaml.MappingNode {
		return nil, &DecodeError{Path: path, Line: n.Line, Message: "expected a mapping"}
	}

	typeName := declared
	if tn := mappingValue(n, "type"); tn != nil {
		typeName = tn.Value
	}
	if typeName == "" {
		return nil, &DecodeError{Path: path, Line: n.Line, Message: "type is required"}
	}
	t, ok := c.reg.Lookup(typeName)
	if !ok {
		return nil, &DecodeError{Path: path, Line: n.Line, Message: fmt.Sprintf("unknown type %q", typeName)}
	}
	if declared != "" {
		if dt, ok := c.reg.Lookup(declared); ok && !dt.AssignableFrom(t) {
			return nil, &DecodeError{Path: path, Line: n.Line, Message: fmt.Sprintf("%s is not a %s", typeName, declared)}
		}
	}

	r := New(typeName)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], resolveAlias(n.Content[i+1])
		field := joinPath(path, key.Value)

		switch key.Value {
		case "type":
			continue
		case model.IDProperty:
			if isNull(val) {
				continue
			}
			id, err := strconv.ParseInt(val.Value, 10, 64)
			if err != nil {
				return nil, &DecodeError{Path: field, Line: val.Line, Message: fmt.Sprintf("invalid identity %q", val.Value)}
			}
			r.SetEntityID(model.ID(id), true)
			continue
		}

		p, ok := t.Property(key.Value)
		if !ok {
			return nil, &DecodeError{Path: field, Line: key.Line, Message: fmt.Sprintf("%s has no property %q", typeName, key.Value)}
		}
		if p.IsCollection() {
			if isNull(val) {
				continue
			}
			members, err := c.decodeMembers(val, p.Target, field)
			if err != nil {
				return nil, err
			}
			r.Append(p.Name, members...)
			continue
		}
		v, err := c.decodeValue(val, p, field)
		if err != nil {
			return nil, err
		}
		if err := p.Set(r, v); err != nil {
			return nil, &DecodeError{Path: field, Line: val.Line, Message: err.Error()}
		}
	}
	return r, nil
}

func (c *Codec) decodeMembers(n *yaml.Node, target, path string) ([]*Record, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, &DecodeError{Path: path, Line: n.Line, Message: "expected a sequence"}
	}
	members := make([]*Record, 0, len(n.Content))
	for i, item := range n.Content {
		m, err := c.decodeRecord(item, target, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, nil
}

func (c *Codec) decodeValue(n *yaml.Node, p *model.Property, path string) (model.Value, error) {
	if isNull(n) {
		return model.Null{}, nil
	}
	if p.Kind == model.KindReference {
		return c.decodeRef(n, p.Target, path)
	}
	if n.Kind != yaml.ScalarNode {
		return nil, &DecodeError{Path: path, Line: n.Line, Message: fmt.Sprintf("expected a %s scalar", p.Kind)}
	}

	invalid := func(err error) error {
		return &DecodeError{Path: path, Line: n.Line, Message: fmt.Sprintf("invalid %s %q: %v", p.Kind, n.Value, err)}
	}
	switch p.Kind {
	case model.KindText:
		return model.Text(n.Value), nil
	case model.KindInt:
		v, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return nil, invalid(err)
		}
		return model.Int(v), nil
	case model.KindFloat:
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, invalid(err)
		}
		return model.Float(v), nil
	case model.KindBool:
		v, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, invalid(err)
		}
		return model.Bool(v), nil
	case model.KindDecimal:
		d, _, err := apd.NewFromString(n.Value)
		if err != nil {
			return nil, invalid(err)
		}
		return model.DecimalOf(d), nil
	case model.KindDate:
		t, err := time.ParseInLocation(history.DateLayout, n.Value, c.loc)
		if err != nil {
			return nil, invalid(err)
		}
		return model.Time(t), nil
	case model.KindDateTime:
		t, err := time.Parse(time.RFC3339, n.Value)
		if err != nil {
			return nil, invalid(err)
		}
		return model.Time(t), nil
	default:
		return nil, &DecodeError{Path: path, Line: n.Line, Message: fmt.Sprintf("unsupported kind %s", p.Kind)}
	}
}

// decodeRef accepts a bare identity or a record mapping.
func (c *Codec) decodeRef(n *yaml.Node, target, path string) (model.Value, error) {
	if n.Kind == yaml.ScalarNode {
		id, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return nil, &DecodeError{Path: path, Line: n.Line, Message: fmt.Sprintf("invalid reference identity %q", n.Value)}
		}
		return model.Ref{Entity: New(target).WithID(id)}, nil
	}
	r, err := c.decodeRecord(n, target, path)
	if err != nil {
		return nil, err
	}
	return model.Ref{Entity: r}, nil
}

// Encode renders r as a YAML document. Properties appear in declaration
// order, ancestors first; null values and absent collections are omitted.
func (c *Codec) Encode(r *Record) ([]byte, error) {
	node, err := c.encodeRecord(r, "")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) encodeRecord(r *Record, declared string) (*yaml.Node, error) {
	t, err := c.reg.TypeOf(r)
	if err != nil {
		return nil, err
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	if r.typ != declared {
		appendField(node, "type", scalar("!!str", r.typ))
	}
	if id, ok := r.EntityID(); ok {
		appendField(node, model.IDProperty, scalar("!!int", id.String()))
	}

	lineage := t.Lineage()
	for i := len(lineage) - 1; i >= 0; i-- {
		for j := range lineage[i].Properties {
			p := &lineage[i].Properties[j]
			if p.IsCollection() {
				if !r.HasCollection(p.Name) {
					continue
				}
				seq := &yaml.Node{Kind: yaml.SequenceNode}
				for _, m := range r.Members(p.Name) {
					mn, err := c.encodeRecord(m, p.Target)
					if err != nil {
						return nil, err
					}
					seq.Content = append(seq.Content, mn)
				}
				appendField(node, p.Name, seq)
				continue
			}
			v := p.Get(r)
			if model.IsNull(v) || (p.Synthetic && v == model.Bool(false)) {
				continue
			}
			vn, err := c.encodeValue(p, v)
			if err != nil {
				return nil, fmt.Errorf("encode %s.%s: %w", r, p.Name, err)
			}
			appendField(node, p.Name, vn)
		}
	}
	return node, nil
}

func (c *Codec) encodeValue(p *model.Property, v model.Value) (*yaml.Node, error) {
	switch val := v.(type) {
	case model.Text:
		return scalar("!!str", string(val)), nil
	case model.Int:
		return scalar("!!int", strconv.FormatInt(int64(val), 10)), nil
	case model.Float:
		return scalar("!!float", strconv.FormatFloat(float64(val), 'g', -1, 64)), nil
	case model.Bool:
		return scalar("!!bool", strconv.FormatBool(bool(val))), nil
	case model.Decimal:
		return scalar("!!str", val.Apd().Text('f')), nil
	case model.Time:
		if p.Kind == model.KindDate {
			return scalar("!!timestamp", val.Std().In(c.loc).Format(history.DateLayout)), nil
		}
		return scalar("!!timestamp", val.Std().UTC().Format(time.RFC3339)), nil
	case model.Ref:
		ref, err := asRecord(val.Entity)
		if err != nil {
			return nil, err
		}
		if id, ok := ref.EntityID(); ok && ref.typ == p.Target {
			return scalar("!!int", id.String()), nil
		}
		node := &yaml.Node{Kind: yaml.MappingNode}
		if ref.typ != p.Target {
			appendField(node, "type", scalar("!!str", ref.typ))
		}
		if id, ok := ref.EntityID(); ok {
			appendField(node, model.IDProperty, scalar("!!int", id.String()))
		}
		return node, nil
	default:
		return nil, fmt.Errorf("cannot encode %T", v)
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func appendField(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar("!!str", key), value)
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return resolveAlias(m.Content[i+1])
		}
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
