package keychain

import (
	"regexp"
	"strconv"
	"strings"

	kerrors "github.com/matzehuels/keygraph/pkg/errors"
)

// Escaper is the escape marker used inside path fragments.
const Escaper = '_'

// Path renders c as a document path: "/" + type, then "/" + the escaped key
// values joined with "." for every keyed level. Singleton levels contribute
// only their type fragment.
func Path(c KeyChain) string {
	var b strings.Builder
	for _, k := range c.Keys() {
		b.WriteByte('/')
		b.WriteString(EscapeRestricted(k.TypeName()))
		vals := k.Values()
		if len(vals) == 0 {
			continue
		}
		escaped := make([]string, len(vals))
		for i, v := range vals {
			escaped[i] = EscapePathValue(v)
		}
		b.WriteByte('/')
		b.WriteString(EscapeRestricted(strings.Join(escaped, ".")))
	}
	return b.String()
}

// EscapePathValue escapes one key value for use in a path fragment.
// The escape marker, "." and "/" are prefixed with the marker; "#", ":",
// "?" and "@" become _a, _b, _c and _d; XML special characters become
// entities.
func EscapePathValue(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case Escaper, '.', '/':
			b.WriteRune(Escaper)
			b.WriteRune(r)
		case '#':
			b.WriteString("_a")
		case ':':
			b.WriteString("_b")
		case '?':
			b.WriteString("_c")
		case '@':
			b.WriteString("_d")
		case '&':
			b.WriteString("&amp;")
		case '>':
			b.WriteString("&gt;")
		case '<':
			b.WriteString("&lt;")
		case '\'':
			b.WriteString("&apos;")
		case '"':
			b.WriteString("&quot;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var entities = []struct {
	name string
	r    byte
}{
	{"&amp;", '&'},
	{"&gt;", '>'},
	{"&lt;", '<'},
	{"&apos;", '\''},
	{"&quot;", '"'},
}

// UnescapePathValue reverses [EscapePathValue].
func UnescapePathValue(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == Escaper && i+1 < len(s) {
			i++
			switch s[i] {
			case 'a':
				b.WriteByte('#')
			case 'b':
				b.WriteByte(':')
			case 'c':
				b.WriteByte('?')
			case 'd':
				b.WriteByte('@')
			default:
				b.WriteByte(s[i])
			}
			continue
		}
		if c == '&' {
			matched := false
			for _, e := range entities {
				if strings.HasPrefix(s[i:], e.name) {
					b.WriteByte(e.r)
					i += len(e.name) - 1
					matched = true
					break
				}
			}
			if matched {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// SplitPath splits a path on separators that are not escaped. A leading
// "/" yields an empty first fragment. With unescape set, each fragment is
// passed through [UnescapePathValue].
func SplitPath(path string, unescape bool) ([]string, error) {
	var frags []string
	start := 0
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '/':
			frags = append(frags, fragment(path[start:i], unescape))
			start = i + 1
		case Escaper:
			i++
			if i >= len(path) {
				return nil, kerrors.New(kerrors.ErrCodeInvalidIdentity, "path %q ends with an escape marker", path)
			}
		}
	}
	frags = append(frags, fragment(path[start:], unescape))
	return frags, nil
}

func fragment(s string, unescape bool) string {
	if unescape {
		return UnescapePathValue(s)
	}
	return s
}

// SplitValues splits an escaped key fragment on unescaped "." into the
// unescaped key values.
func SplitValues(frag string) []string {
	var vals []string
	start := 0
	for i := 0; i < len(frag); i++ {
		switch frag[i] {
		case '.':
			vals = append(vals, UnescapePathValue(frag[start:i]))
			start = i + 1
		case Escaper:
			i++
		}
	}
	return append(vals, UnescapePathValue(frag[start:]))
}

// EscapeRestricted replaces characters that XML 1.1 marks as restricted
// with the literal text <?char N?>.
func EscapeRestricted(s string) string {
	var b strings.Builder
	for _, r := range s {
		if isRestricted(r) {
			b.WriteString("<?char ")
			b.WriteString(strconv.Itoa(int(r)))
			b.WriteString("?>")
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var restrictedRe = regexp.MustCompile(`<\?char (\d+)\?>`)

// UnescapeRestricted reverses [EscapeRestricted]. The mapping is not a
// bijection: text that already reads <?char N?> for a restricted N comes
// back as that character.
func UnescapeRestricted(s string) string {
	if !strings.Contains(s, "<?char ") {
		return s
	}
	return restrictedRe.ReplaceAllStringFunc(s, func(m string) string {
		n, err := strconv.Atoi(restrictedRe.FindStringSubmatch(m)[1])
		if err != nil || !isRestricted(rune(n)) {
			return m
		}
		return string(rune(n))
	})
}

func isRestricted(r rune) bool {
	return (r >= 1 && r <= 8) ||
		(r >= 11 && r <= 31) ||
		(r >= 127 && r <= 132) ||
		(r >= 134 && r <= 159)
}
