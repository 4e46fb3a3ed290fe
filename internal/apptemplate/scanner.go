package apptemplate

import (
	"crypto/rand"
	"regexp"
	"strings"
)

// UIDLength is the length of generated field identifiers.
const UIDLength = 32

const uidHead = "abcdefghijklmnopqrstuvwxyz"

// placeholderPattern matches `$$`, `$NAME$` and `$NAME|default:DEFAULT|LABEL$`.
// DEFAULT and LABEL may contain backslash-escaped characters and may be empty.
var placeholderPattern = regexp.MustCompile(
	`\$(?:([\w\-]+)(?:\|default:((?:[^\\|$]|\\[\s\S])+|)\|((?:[^\\|$]|\\[\s\S])+|))?)?\$`,
)

const (
	groupName    = 2
	groupDefault = 4
	groupLabel   = 6
)

// Scanner rewrites placeholders in raw template text into field identifiers.
// A Scanner holds no per-template state and may be shared.
type Scanner struct {
	newUID func() string
}

// NewScanner returns a scanner generating random identifiers.
func NewScanner() *Scanner {
	return &Scanner{newUID: randomUID}
}

// Scan replaces every placeholder in raw with its field identifier and returns the rewritten
// text together with the registry of declared fields.
// `$$` becomes a literal `$`; a `$` that does not start a placeholder is kept as is.
func (s *Scanner) Scan(raw string) (string, *Registry, error) {
	newUID := randomUID
	if s != nil && s.newUID != nil {
		newUID = s.newUID
	}
	reg := newRegistry()
	matches := placeholderPattern.FindAllStringSubmatchIndex(raw, -1)

	var out strings.Builder
	out.Grow(len(raw))
	last := 0
	for _, m := range matches {
		out.WriteString(raw[last:m[0]])
		last = m[1]

		if m[groupName] < 0 {
			out.WriteByte('$')
			continue
		}
		name := raw[m[groupName]:m[groupName+1]]
		field, _ := reg.insertIfAbsent(name, func() *Field {
			line, col := position(raw, m[0])
			return &Field{
				Name: name,
				UID:  uniqueUID(raw, reg, newUID),
				Line: line,
				Col:  col,
			}
		})
		if m[groupDefault] >= 0 && !field.defined {
			field.define(
				unescape(raw[m[groupDefault]:m[groupDefault+1]]),
				unescape(raw[m[groupLabel]:m[groupLabel+1]]),
			)
		}
		out.WriteString(field.UID)
	}
	out.WriteString(raw[last:])

	for _, f := range reg.order {
		if !f.defined {
			return "", nil, &InvalidTemplateError{
				Reason: "variable " + f.Name + " not defined, at least one occurrence of full form like $" +
					f.Name + "|default:...|label$ is expected",
				Line: f.Line,
				Col:  f.Col,
			}
		}
	}
	return out.String(), reg, nil
}

func uniqueUID(raw string, reg *Registry, newUID func() string) string {
	for {
		uid := newUID()
		if !reg.hasUID(uid) && !strings.Contains(raw, uid) {
			return uid
		}
	}
}

// randomUID returns an identifier starting with a letter so it never parses as a number.
func randomUID() string {
	var b [1]byte
	const limit = 256 - 256%len(uidHead)
	for {
		_, _ = rand.Read(b[:])
		if int(b[0]) < limit {
			return string(uidHead[int(b[0])%len(uidHead)]) + randomToken(UIDLength-1)
		}
	}
}

// position converts a byte offset to a 1-based line and 0-based column.
func position(raw string, offset int) (int, int) {
	before := raw[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - (strings.LastIndexByte(before, '\n') + 1)
	return line, col
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if !escaped && r == '\\' {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}
