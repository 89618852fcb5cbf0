package telegram

import (
	"fmt"

	"SpinSignal/internal/domain/models"
)

func colorEmoji(c models.Color) string {
	switch c {
	case models.ColorRed:
		return "🔴"
	case models.ColorBlack:
		return "⚫"
	case models.ColorWhite:
		return "⚪"
	default:
		return "❔"
	}
}

func colorName(c models.Color) string {
	switch c {
	case models.ColorRed:
		return "RED"
	case models.ColorBlack:
		return "BLACK"
	case models.ColorWhite:
		return "WHITE"
	default:
		return "UNKNOWN"
	}
}

// SignalMessage announces a new entry.
func SignalMessage(target models.Color, ceiling int) string {
	return fmt.Sprintf("🚧 <b>SIGNAL FOUND</b> 🚧\n\n<b>ENTER ON</b> %s %s\n♻️ <b>Up to Gale %d</b>",
		colorEmoji(target), colorName(target), ceiling)
}

// GaleMessage reports the losing roll and the next escalation step.
func GaleMessage(o models.Outcome, level int) string {
	return fmt.Sprintf("🎲 <b>Wheel spun...</b>\n\n⏱️ Result >> <b>| %d | : %s |</b>\n\n➡️ <b>Going to Gale %d</b>",
		o.Number, colorEmoji(o.Color), level)
}

// WinMessage reports a win and the gale level it was reached at.
func WinMessage(level int) string {
	if level > 0 {
		return fmt.Sprintf("✅ <b>GREEN / WIN</b> (Gale %d) 🤑", level)
	}
	return "✅ <b>GREEN / WIN</b> (First entry) 🤑"
}

// LossMessage reports a final loss.
func LossMessage() string {
	return "❌ <b>LOSS / RED</b>\nStick to your bankroll management."
}

// StatsMessage renders the scoreboard.
func StatsMessage(s models.Stats) string {
	return fmt.Sprintf("<b>Score: ✅ %d X %d ❌\n\n- 🥇 No gale: %d\n- 🐔 With gale: %d\n\n✅ Wins in a row: %d\n🎯 Accuracy: %.2f%%</b>",
		s.Wins, s.Losses, s.WinsWithoutGale, s.WinsWithGale, s.CurrentWinStreak, s.WinRate()*100)
}
