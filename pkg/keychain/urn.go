package keychain

import (
	"strings"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
)

// Attr is one identity field of a URN segment.
type Attr struct {
	Name  string
	Value string
}

// Segment is one level of a parsed URN: Type[@Name='a' and @Schema='b'].
type Segment struct {
	Type  string
	Attrs []Attr
}

// Attr returns the value of the named field.
func (s Segment) Attr(name string) (string, bool) {
	for _, a := range s.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// KeyFunc resolves the key for one URN segment. Domains supply their own
// to reject unknown types; [DefaultKey] covers the built-in key shapes.
type KeyFunc func(Segment) (Key, error)

// DefaultKey maps a segment with no fields to a [SingletonKey], a segment
// with only Name to a [NamedKey] and a segment with Name and Schema to a
// [SchemaNamedKey].
func DefaultKey(seg Segment) (Key, error) {
	name, hasName := seg.Attr("Name")
	schema, hasSchema := seg.Attr("Schema")
	switch {
	case len(seg.Attrs) == 0:
		return SingletonKey{Type: seg.Type}, nil
	case hasName && len(seg.Attrs) == 1:
		return NamedKey{Type: seg.Type, Name: name}, nil
	case hasName && hasSchema && len(seg.Attrs) == 2:
		return SchemaNamedKey{Type: seg.Type, Name: name, Schema: schema}, nil
	}
	return nil, kerrors.New(kerrors.ErrCodeInvalidIdentity, "unsupported key fields for %s", seg.Type)
}

// FromURN builds the chain named by urn inside root's tree. The first
// segment must resolve to a key equal to root's own key.
func FromURN(root KeyChain, urn string, keyOf KeyFunc) (KeyChain, error) {
	if root.IsZero() {
		return KeyChain{}, ErrZeroChain
	}
	if keyOf == nil {
		keyOf = DefaultKey
	}
	segs, err := ParseURN(urn)
	if err != nil {
		return KeyChain{}, err
	}

	first, err := keyOf(segs[0])
	if err != nil {
		return KeyChain{}, kerrors.Wrap(kerrors.ErrCodeInvalidIdentity, err, "resolve %s", segs[0].Type)
	}
	root = root.Root()
	if !first.Equal(root.Key()) {
		return KeyChain{}, kerrors.New(kerrors.ErrCodeInvalidIdentity,
			"%s does not match domain root %s", first.Fragment(), root.Key().Fragment())
	}

	chain := root
	for _, seg := range segs[1:] {
		k, err := keyOf(seg)
		if err != nil {
			return KeyChain{}, kerrors.Wrap(kerrors.ErrCodeInvalidIdentity, err, "resolve %s", seg.Type)
		}
		chain = chain.Child(k)
	}
	return chain, nil
}

// ParseURN splits a URN such as Server[@Name='a']/Login[@Name='b'] into
// segments. Values are single-quoted with embedded quotes doubled.
func ParseURN(urn string) ([]Segment, error) {
	p := urnParser{s: urn}
	var segs []Segment
	for {
		seg, err := p.segment()
		if err != nil {
			return nil, kerrors.Wrap(kerrors.ErrCodeInvalidIdentity, err, "parse urn %q", urn)
		}
		segs = append(segs, seg)
		if p.eof() {
			return segs, nil
		}
		if !p.consume('/') {
			return nil, kerrors.New(kerrors.ErrCodeInvalidIdentity, "parse urn %q: expected / at offset %d", urn, p.pos)
		}
	}
}

type urnParser struct {
	s   string
	pos int
}

func (p *urnParser) eof() bool { return p.pos >= len(p.s) }

func (p *urnParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *urnParser) consume(b byte) bool {
	if p.peek() == b && !p.eof() {
		p.pos++
		return true
	}
	return false
}

func (p *urnParser) skipSpace() {
	for !p.eof() && p.s[p.pos] == ' ' {
		p.pos++
	}
}

func (p *urnParser) ident() string {
	start := p.pos
	for !p.eof() {
		c := p.s[p.pos]
		if c == '/' || c == '[' || c == ']' || c == '=' || c == ' ' || c == '\'' || c == '@' {
			break
		}
		p.pos++
	}
	return p.s[start:p.pos]
}

func (p *urnParser) segment() (Segment, error) {
	seg := Segment{Type: p.ident()}
	if seg.Type == "" {
		return seg, errorf("expected type name at offset %d", p.pos)
	}
	if !p.consume('[') {
		return seg, nil
	}
	for {
		p.skipSpace()
		if !p.consume('@') {
			return seg, errorf("expected @ at offset %d", p.pos)
		}
		name := p.ident()
		if name == "" {
			return seg, errorf("expected field name at offset %d", p.pos)
		}
		p.skipSpace()
		if !p.consume('=') {
			return seg, errorf("expected = at offset %d", p.pos)
		}
		p.skipSpace()
		value, err := p.quoted()
		if err != nil {
			return seg, err
		}
		seg.Attrs = append(seg.Attrs, Attr{Name: name, Value: value})
		p.skipSpace()
		if p.consume(']') {
			return seg, nil
		}
		if !strings.HasPrefix(p.s[p.pos:], "and ") {
			return seg, errorf("expected ] or and at offset %d", p.pos)
		}
		p.pos += len("and ")
	}
}

func (p *urnParser) quoted() (string, error) {
	if !p.consume('\'') {
		return "", errorf("expected ' at offset %d", p.pos)
	}
	var b strings.Builder
	for !p.eof() {
		c := p.s[p.pos]
		p.pos++
		if c != '\'' {
			b.WriteByte(c)
			continue
		}
		if p.consume('\'') {
			b.WriteByte('\'')
			continue
		}
		return b.String(), nil
	}
	return "", errorf("unterminated value")
}

func errorf(format string, args ...any) error {
	return kerrors.New(kerrors.ErrCodeInvalidIdentity, format, args...)
}
