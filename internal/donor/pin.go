package donor

import "strings"

var pinReplacer = strings.NewReplacer(
	"\u200c", "", "\u200b", "", "\u200d", "", "\ufeff", "",
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// NormalizePIN trims whitespace, drops zero-width characters and maps Persian and
// Arabic-Indic digits to ASCII.
func NormalizePIN(raw string) string {
	return strings.TrimSpace(pinReplacer.Replace(strings.TrimSpace(raw)))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// PINFallback returns the leading-zero-insensitive form of a numeric PIN, so
// "021" and "21" find the same donor.
func PINFallback(pin string) (string, bool) {
	if !isDigits(pin) {
		return "", false
	}
	return strings.TrimLeft(pin, "0"), true
}
