package messaging

import (
	"regexp"
	"strings"
)

var (
	nonDigits      = regexp.MustCompile(`\D`)
	nanpWithPrefix = regexp.MustCompile(`^1?(\d{10})$`)
)

// NormalizePhone reduces a channel sender id ("whatsapp:+1 809-555-1234",
// "18095551234@c.us") to the bare 10 digit national number used as the
// session key. Numbers that are not 10 or 11 digits keep all their digits.
func NormalizePhone(value string) string {
	value = strings.TrimSpace(value)
	if at := strings.IndexByte(value, '@'); at >= 0 {
		value = value[:at]
	}
	digits := nonDigits.ReplaceAllString(value, "")
	if m := nanpWithPrefix.FindStringSubmatch(digits); m != nil {
		return m[1]
	}
	return digits
}

// SessionKey is the per-customer key for senderID: the normalized phone, or
// the trimmed id itself for channels whose ids carry no digits
// ("web-session-abc").
func SessionKey(senderID string) string {
	if key := NormalizePhone(senderID); key != "" {
		return key
	}
	return strings.TrimSpace(senderID)
}

// NormalizeE164 ensures the value begins with + and only contains digits afterward.
func NormalizeE164(value string) string {
	digits := nonDigits.ReplaceAllString(strings.TrimSpace(value), "")
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// CountDigits reports how many digits value contains.
func CountDigits(value string) int {
	return len(nonDigits.ReplaceAllString(value, ""))
}
