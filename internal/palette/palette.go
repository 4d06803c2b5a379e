// Package palette provides the terminal color codes used to label output lines.
package palette

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
)

// Color is a raw SGR escape sequence, e.g. "\x1b[31m".
type Color string

func sgr(attr color.Attribute) Color {
	return Color(fmt.Sprintf("\x1b[%dm", attr))
}

// Control sequences.
var (
	Reset   = sgr(color.Reset)
	Inverse = sgr(color.ReverseVideo)
)

// Foreground colors.
var (
	Black   = sgr(color.FgBlack)
	Red     = sgr(color.FgRed)
	Green   = sgr(color.FgGreen)
	Brown   = sgr(color.FgYellow)
	Blue    = sgr(color.FgBlue)
	Magenta = sgr(color.FgMagenta)
	Cyan    = sgr(color.FgCyan)
	Gray    = sgr(color.FgWhite)
	White   = sgr(color.FgHiWhite)
)

// Rotation is the subset picked from when a color is derived from a label.
// Black and white are never picked.
var Rotation = []Color{Red, Green, Brown, Blue, Magenta, Cyan, Gray}

var byName = map[string]Color{
	"black":   Black,
	"red":     Red,
	"green":   Green,
	"brown":   Brown,
	"yellow":  Brown,
	"blue":    Blue,
	"magenta": Magenta,
	"cyan":    Cyan,
	"gray":    Gray,
	"white":   White,
}

// Lookup returns the color registered under name, ignoring case.
func Lookup(name string) (Color, bool) {
	c, ok := byName[cases.Fold().String(name)]
	return c, ok
}

// FromLabel picks a color from Rotation by the byte sum of label.
// The same label always yields the same color; distinct labels may collide.
func FromLabel(label string) Color {
	sum := 0
	for i := 0; i < len(label); i++ {
		sum = (sum + int(label[i])) % len(Rotation)
	}
	return Rotation[sum]
}

// Names returns all color names accepted by Lookup in sorted order.
func Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
