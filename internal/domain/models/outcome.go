package models

import (
	"strings"
	"time"
)

// Color is the resolved color of a round.
type Color string

const (
	ColorNone  Color = "none"
	ColorRed   Color = "red"
	ColorBlack Color = "black"
	ColorWhite Color = "white"
)

// Feed color codes.
const (
	colorCodeWhite = 0
	colorCodeRed   = 1
	colorCodeBlack = 2
)

// Color letters used by pattern tables.
const (
	LetterRed   = "V"
	LetterBlack = "P"
	LetterWhite = "B"
)

// ColorFromCode maps the feed's numeric color to a Color.
// Unknown codes map to ColorNone.
func ColorFromCode(code int) Color {
	switch code {
	case colorCodeWhite:
		return ColorWhite
	case colorCodeRed:
		return ColorRed
	case colorCodeBlack:
		return ColorBlack
	default:
		return ColorNone
	}
}

// ColorFromLetter maps a pattern letter (V, P, B) or a color name to a Color.
func ColorFromLetter(s string) Color {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case LetterRed, "RED":
		return ColorRed
	case LetterBlack, "BLACK":
		return ColorBlack
	case LetterWhite, "WHITE":
		return ColorWhite
	default:
		return ColorNone
	}
}

// Letter returns the pattern letter for the color, "?" when unmapped.
func (c Color) Letter() string {
	switch c {
	case ColorRed:
		return LetterRed
	case ColorBlack:
		return LetterBlack
	case ColorWhite:
		return LetterWhite
	default:
		return "?"
	}
}

// Valid reports whether c is one of the three game colors.
func (c Color) Valid() bool {
	return c == ColorRed || c == ColorBlack || c == ColorWhite
}

// Outcome is one resolved round. Never mutated once created.
type Outcome struct {
	ID        string    `json:"id"`
	Color     Color     `json:"color"`
	Number    int       `json:"number"`
	Timestamp time.Time `json:"timestamp"`
}

// NormalizeHistory drops entries repeating the previous id and bounds the
// result to limit entries (limit <= 0 keeps everything). Input order is kept
// (most recent first). A new slice is always returned.
func NormalizeHistory(in []Outcome, limit int) []Outcome {
	out := make([]Outcome, 0, len(in))
	for i, o := range in {
		if i > 0 && o.ID == in[i-1].ID {
			continue
		}
		out = append(out, o)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
