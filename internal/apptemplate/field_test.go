package apptemplate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveKind(t *testing.T) {
	cases := map[string]Kind{
		"0":       KindInt,
		"200":     KindInt,
		"1.5":     KindFloat,
		".5":      KindFloat,
		"true":    KindBool,
		"False":   KindBool,
		"":        KindString,
		"1.":      KindString,
		"-1":      KindString,
		"wp":      KindString,
		"TRUE":    KindString,
		"autogen": KindString,
	}
	for raw, want := range cases {
		assert.Equal(t, want, resolveKind(raw), raw)
	}
}

func TestFieldDefaults(t *testing.T) {
	cases := []struct {
		raw  string
		want any
	}{
		{raw: "42", want: 42},
		{raw: "0.25", want: 0.25},
		{raw: "True", want: true},
		{raw: "false", want: false},
		{raw: "WordPress", want: "WordPress"},
		{raw: "", want: ""},
		{raw: "a: b", want: "a: b"},
		{raw: "[1, 2]", want: "[1, 2]"},
	}
	for _, tc := range cases {
		f := &Field{Name: "F"}
		f.define(tc.raw, "label")
		assert.Equal(t, tc.want, f.DefaultValue(), tc.raw)
		assert.True(t, f.Defined())
		assert.False(t, f.Hidden)
	}
}

func TestFieldCoerce(t *testing.T) {
	intField := &Field{Kind: KindInt}
	v, ok := intField.Coerce("200")
	assert.True(t, ok)
	assert.Equal(t, 200, v)
	v, ok = intField.Coerce(float64(3))
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	v, ok = intField.Coerce("big")
	assert.False(t, ok)
	assert.Equal(t, "big", v)
	v, ok = intField.Coerce(uint64(math.MaxUint64))
	assert.False(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), v)
	_, ok = intField.Coerce(1e300)
	assert.False(t, ok)
	_, ok = intField.Coerce(2.5)
	assert.False(t, ok)

	floatField := &Field{Kind: KindFloat}
	v, ok = floatField.Coerce("1.5")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)
	v, ok = floatField.Coerce(2)
	assert.True(t, ok)
	assert.Equal(t, 2.0, v)

	boolField := &Field{Kind: KindBool}
	v, _ = boolField.Coerce("False")
	assert.Equal(t, false, v)
	v, _ = boolField.Coerce("falsey")
	assert.Equal(t, false, v)
	v, _ = boolField.Coerce("yes")
	assert.Equal(t, true, v)

	stringField := &Field{Kind: KindString}
	v, ok = stringField.Coerce(12)
	assert.True(t, ok)
	assert.Equal(t, "12", v)
	v, ok = stringField.Coerce(true)
	assert.True(t, ok)
	assert.Equal(t, "true", v)
}

func TestRandomToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok := randomToken(autogenLength)
		assert.Regexp(t, `^[a-z0-9]{8}$`, tok)
		seen[tok] = true
	}
	assert.Greater(t, len(seen), 1)
}
