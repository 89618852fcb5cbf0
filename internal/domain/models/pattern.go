package models

import (
	"strconv"
	"strings"
)

// TokenKind classifies a pattern token.
type TokenKind int

const (
	TokenInvalid TokenKind = iota
	TokenColor
	TokenNumber
	TokenWildcard
	TokenNonWhite
)

// Token letters with special meaning.
const (
	LetterWildcard = "X"
	LetterNonWhite = "N"
)

// Token is one position of a pattern.
type Token struct {
	Kind   TokenKind
	Letter string // TokenColor
	Number int    // TokenNumber
	Raw    string
}

// ParseToken parses a raw token. Unknown input yields a TokenInvalid token
// that never matches.
func ParseToken(raw string) Token {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if n, err := strconv.Atoi(s); err == nil {
		return Token{Kind: TokenNumber, Number: n, Raw: raw}
	}
	switch s {
	case LetterWildcard:
		return Token{Kind: TokenWildcard, Raw: raw}
	case LetterNonWhite:
		return Token{Kind: TokenNonWhite, Raw: raw}
	case LetterRed, LetterBlack, LetterWhite:
		return Token{Kind: TokenColor, Letter: s, Raw: raw}
	default:
		return Token{Kind: TokenInvalid, Raw: raw}
	}
}

// String returns the canonical token text.
func (t Token) String() string {
	switch t.Kind {
	case TokenNumber:
		return strconv.Itoa(t.Number)
	case TokenWildcard:
		return LetterWildcard
	case TokenNonWhite:
		return LetterNonWhite
	case TokenColor:
		return t.Letter
	default:
		return t.Raw
	}
}

// Pattern is an ordered token sequence (oldest to newest) predicting Target.
type Pattern struct {
	ID     string
	Tokens []Token
	Target Color
}

// Len returns the number of tokens.
func (p Pattern) Len() int { return len(p.Tokens) }

// Valid reports whether the pattern can ever match.
func (p Pattern) Valid() bool {
	if len(p.Tokens) == 0 || !p.Target.Valid() {
		return false
	}
	for _, t := range p.Tokens {
		if t.Kind == TokenInvalid {
			return false
		}
	}
	return true
}

// Sequence returns the canonical token texts.
func (p Pattern) Sequence() []string {
	out := make([]string, len(p.Tokens))
	for i, t := range p.Tokens {
		out[i] = t.String()
	}
	return out
}

// NewPattern builds a pattern from raw tokens and a target letter or color
// name. When id is empty the joined sequence is used.
func NewPattern(id string, seq []string, target string) Pattern {
	toks := make([]Token, len(seq))
	for i, s := range seq {
		toks[i] = ParseToken(s)
	}
	p := Pattern{ID: id, Tokens: toks, Target: ColorFromLetter(target)}
	if p.ID == "" {
		p.ID = strings.Join(p.Sequence(), "-")
	}
	return p
}
