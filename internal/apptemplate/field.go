package apptemplate

import (
	"crypto/rand"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind is the scalar type a field value is coerced to.
type Kind int

const (
	// KindString keeps values as strings.
	KindString Kind = iota
	// KindInt coerces values to integers.
	KindInt
	// KindFloat coerces values to floating point numbers.
	KindFloat
	// KindBool coerces values to booleans.
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "string"
	}
}

const (
	// autogenDefault asks for a random hidden default, typically a password.
	autogenDefault = "autogen"
	autogenLength  = 8
	tokenAlphabet  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var (
	floatPattern = regexp.MustCompile(`^\d*\.\d+$`)
	boolPattern  = regexp.MustCompile(`^(?:[Tt]rue|[Ff]alse)$`)
	falsePattern = regexp.MustCompile(`^[Ff]alse`)
)

// Field is one declared template variable.
// Fields are owned by a Registry; the document tree refers to them by UID only.
type Field struct {
	// Name is the variable name as written in the template.
	Name string
	// UID is the opaque token substituted for every occurrence of the variable.
	UID string
	// Default is the raw default text from the first full declaration.
	Default string
	// Label is the human-readable description from the first full declaration.
	Label string
	// Hidden marks autogenerated fields that should not be shown to users.
	Hidden bool
	// Kind is the type resolved from the default text.
	Kind Kind
	// Line and Col locate the first occurrence of the variable.
	Line int
	Col  int

	value   any
	defined bool
}

// DefaultValue returns the typed default value.
func (f *Field) DefaultValue() any {
	return f.value
}

// Defined reports whether a full declaration was seen for the field.
func (f *Field) Defined() bool {
	return f.defined
}

func (f *Field) define(rawDefault, label string) {
	f.Label = label
	f.Default = rawDefault
	f.defined = true
	if rawDefault == autogenDefault {
		f.Hidden = true
		f.Kind = KindString
		f.value = randomToken(autogenLength)
		return
	}
	f.Kind = resolveKind(rawDefault)
	f.value = typedDefault(rawDefault, f.Kind)
}

// Coerce converts a user-supplied value to the field kind.
// It reports false when the value cannot be represented in that kind.
func (f *Field) Coerce(value any) (any, bool) {
	switch f.Kind {
	case KindInt:
		return coerceInt(value)
	case KindFloat:
		return coerceFloat(value)
	case KindBool:
		return coerceBool(value)
	default:
		return coerceString(value)
	}
}

func resolveKind(raw string) Kind {
	switch {
	case raw != "" && strings.Trim(raw, "0123456789") == "":
		return KindInt
	case floatPattern.MatchString(raw):
		return KindFloat
	case boolPattern.MatchString(raw):
		return KindBool
	default:
		return KindString
	}
}

func typedDefault(raw string, kind Kind) any {
	if raw == "" {
		return ""
	}
	switch kind {
	case KindInt:
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	case KindFloat:
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	case KindBool:
		return !falsePattern.MatchString(raw)
	}
	var decoded any
	if err := yaml.Unmarshal([]byte(raw), &decoded); err != nil {
		return raw
	}
	switch decoded.(type) {
	case map[string]any, []any:
		return raw
	}
	return decoded
}

func coerceInt(value any) (any, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		if v <= math.MaxInt64 {
			return int(v), true
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt64 && v < math.MaxInt64 {
			return int(v), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n, true
		}
	}
	return value, false
}

func coerceFloat(value any) (any, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return n, true
		}
	}
	return value, false
}

func coerceBool(value any) (any, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		return !falsePattern.MatchString(v), true
	case int:
		return v != 0, true
	}
	return value, false
}

func coerceString(value any) (any, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case nil:
		return value, false
	default:
		return fmt.Sprint(v), true
	}
}

// randomToken returns n characters drawn uniformly from tokenAlphabet.
func randomToken(n int) string {
	const limit = 256 - 256%len(tokenAlphabet)
	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		_, _ = rand.Read(buf)
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			out = append(out, tokenAlphabet[int(b)%len(tokenAlphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out)
}
