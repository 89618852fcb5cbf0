package strategy

import "SpinSignal/internal/domain/models"

// Match scans table in order and returns the first pattern whose tokens all
// match the tail of history. history is most-recent-first; a pattern's last
// token is compared to history[0]. Patterns longer than history are skipped.
// Invalid patterns never match.
func Match(history []models.Outcome, table []models.Pattern) models.MatchResult {
	if len(history) == 0 {
		return models.MatchResult{}
	}
	for _, p := range table {
		if !p.Valid() || p.Len() > len(history) {
			continue
		}
		if matches(history, p) {
			return models.MatchResult{Matched: true, Target: p.Target, PatternID: p.ID}
		}
	}
	return models.MatchResult{}
}

func matches(history []models.Outcome, p models.Pattern) bool {
	n := p.Len()
	for i, tok := range p.Tokens {
		if !tokenMatches(tok, history[n-1-i]) {
			return false
		}
	}
	return true
}

func tokenMatches(tok models.Token, o models.Outcome) bool {
	switch tok.Kind {
	case models.TokenNumber:
		return o.Number == tok.Number
	case models.TokenWildcard:
		return true
	case models.TokenNonWhite:
		return o.Color == models.ColorRed || o.Color == models.ColorBlack
	case models.TokenColor:
		return o.Color.Letter() == tok.Letter
	default:
		return false
	}
}

// CurrentStreak counts consecutive outcomes sharing the most recent color.
func CurrentStreak(history []models.Outcome) models.Streak {
	if len(history) == 0 {
		return models.Streak{Color: models.ColorNone}
	}
	head := history[0].Color
	n := 0
	for _, o := range history {
		if o.Color != head {
			break
		}
		n++
	}
	return models.Streak{Color: head, Count: n}
}
