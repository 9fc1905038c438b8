package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Comma formats n with thousands separators.
func Comma(n int64) string {
	return humanize.Comma(n)
}

// FormatBytes renders a byte count with a decimal-SI unit.
func FormatBytes(b int64) string {
	if b < 0 {
		return "-" + humanize.Bytes(uint64(-b))
	}
	return humanize.Bytes(uint64(b))
}

// FormatHeight groups a block height with apostrophes (870'123).
func FormatHeight(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('\'')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// FormatDifficulty renders a difficulty with an E/P/T/G suffix.
func FormatDifficulty(d float64) string {
	switch {
	case d >= 1e18:
		return fmt.Sprintf("%.2f E", d/1e18)
	case d >= 1e15:
		return fmt.Sprintf("%.2f P", d/1e15)
	case d >= 1e12:
		return fmt.Sprintf("%.2f T", d/1e12)
	case d >= 1e9:
		return fmt.Sprintf("%.2f G", d/1e9)
	}
	return fmt.Sprintf("%.2f", d)
}

// FormatHashrate renders hashes per second with a binary-free SI suffix.
func FormatHashrate(h float64) string {
	switch {
	case h >= 1e21:
		return fmt.Sprintf("%.2f ZH/s", h/1e21)
	case h >= 1e18:
		return fmt.Sprintf("%.2f EH/s", h/1e18)
	case h >= 1e15:
		return fmt.Sprintf("%.2f PH/s", h/1e15)
	case h >= 1e12:
		return fmt.Sprintf("%.2f TH/s", h/1e12)
	case h >= 1e9:
		return fmt.Sprintf("%.2f GH/s", h/1e9)
	case h >= 1e6:
		return fmt.Sprintf("%.2f MH/s", h/1e6)
	case h >= 1e3:
		return fmt.Sprintf("%.2f kH/s", h/1e3)
	}
	return fmt.Sprintf("%.2f H/s", h)
}

// FormatBTC renders a BTC amount with the given precision.
func FormatBTC(btc float64, precision int) string {
	return fmt.Sprintf("%.*f BTC", precision, btc)
}

// FormatSatsPerVB converts a BTC/kvB fee rate to sat/vB.
func FormatSatsPerVB(btcPerKvB float64) string {
	return fmt.Sprintf("%.1f sat/vB", btcPerKvB*1e5)
}

// TimeAgo renders how long ago the unix timestamp was, coarsely.
func TimeAgo(ts int64, now time.Time) string {
	diff := now.Unix() - ts
	switch {
	case diff < 0:
		return "just now"
	case diff < 60:
		return fmt.Sprintf("%ds ago", diff)
	case diff < 3600:
		return fmt.Sprintf("%dm ago", diff/60)
	case diff < 86400:
		return fmt.Sprintf("%dh ago", diff/3600)
	}
	return fmt.Sprintf("%dd ago", diff/86400)
}

// FormatAge renders a duration in seconds as a compact age.
func FormatAge(secs int64) string {
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm %ds", secs/60, secs%60)
	}
	return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
}

// TruncateMiddle abbreviates s to head…tail when longer than head+tail+1.
func TruncateMiddle(s string, head, tail int) string {
	if len(s) <= head+tail+1 {
		return s
	}
	return s[:head] + "…" + s[len(s)-tail:]
}
