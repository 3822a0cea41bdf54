package object

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorValue keeps the spelling it was parsed from so that reading an
// attribute returns exactly what was written.
type ColorValue struct {
	RGB colorful.Color
	Raw string
}

func (ColorValue) Kind() Kind       { return KindColor }
func (v ColorValue) String() string { return v.Raw }

// Equal compares spellings. Use SameColor to compare the rendered color.
func (v ColorValue) Equal(o Value) bool {
	w, ok := o.(ColorValue)
	return ok && v.Raw == w.Raw
}

func (ColorValue) isValue() {}

// Hex is the canonical #rrggbb form.
func (v ColorValue) Hex() string { return v.RGB.Hex() }

// SameColor reports whether both values render to the same RGB triple.
func (v ColorValue) SameColor(o ColorValue) bool {
	return v.RGB.Hex() == o.RGB.Hex()
}

var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#00ff00",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"cyan":    "#00ffff",
	"magenta": "#ff00ff",
	"orange":  "#ffa500",
	"purple":  "#a020f0",
	"gray":    "#bebebe",
	"grey":    "#bebebe",
	"navy":    "#000080",
	"maroon":  "#b03060",
	"pink":    "#ffc0cb",
	"brown":   "#a52a2a",
}

// ParseColor accepts #rgb, #rrggbb and a handful of X11 color names.
func ParseColor(s string) (ColorValue, error) {
	hex := s
	if named, ok := namedColors[strings.ToLower(s)]; ok {
		hex = named
	}
	if !strings.HasPrefix(hex, "#") || (len(hex) != 4 && len(hex) != 7) {
		return ColorValue{}, fmt.Errorf("%q is not a valid color", s)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return ColorValue{}, fmt.Errorf("%q is not a valid color", s)
	}
	return ColorValue{RGB: c, Raw: s}, nil
}

// MustColor is ParseColor for literals known to be valid.
func MustColor(s string) ColorValue {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
