package validation

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// MaxGroupNameLength bounds group names created over the socket.
const MaxGroupNameLength = 100

var usernameRe = regexp.MustCompile(`^[^\x00-\x1f]{1,32}$`)

func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// ValidateUsername accepts any non-empty display name up to 32 characters
// without control characters. Names are free-form, not account slugs.
func ValidateUsername(username string) bool {
	username = NormalizeUsername(username)
	return usernameRe.MatchString(username)
}

func MaxMessageLength() int {
	maxStr := os.Getenv("MAX_MESSAGE_LENGTH")
	if maxStr == "" {
		return 4000
	}
	max, err := strconv.Atoi(maxStr)
	if err != nil || max < 1 {
		return 4000
	}
	return max
}

// TrimAndLimit trims surrounding whitespace and caps the string at max
// bytes, backing off to a rune boundary so a cut never produces invalid
// UTF-8.
func TrimAndLimit(s string, max int) string {
	s = strings.TrimSpace(s)
	if max > 0 && len(s) > max {
		cut := max
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		return s[:cut]
	}
	return s
}
