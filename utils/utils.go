package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunAsync runs fire-and-forget work such as mail and events. Tests swap
// it for an inline runner.
var RunAsync = func(fn func()) { go fn() }

// Go hands fn to RunAsync.
func Go(fn func()) {
	RunAsync(fn)
}

// GenerateSecureToken returns nBytes of crypto/rand output, base64url encoded.
func GenerateSecureToken(nBytes int) (string, error) {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken is the lookup hash stored in place of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// shortID is 8 upper-case hex characters taken from a random uuid.
func shortID() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// NewCertificateNumber returns CERT-<year>-<8 hex>.
func NewCertificateNumber(t time.Time) string {
	return fmt.Sprintf("CERT-%d-%s", t.Year(), shortID())
}

// NewOrderNumber returns ORD-<yyyymmdd>-<8 hex>.
func NewOrderNumber(t time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", t.Format("20060102"), shortID())
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "course"
	}
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	return slug
}

// FormatCents renders an amount in minor units, e.g. 1999 USD -> "19.99 USD".
func FormatCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, currency)
}
