package core

import (
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

var NowFunc = time.Now // mockable

func init() {
	// money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// TruncateDay returns midnight of t's calendar day in loc.
func TruncateDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDay parses a YYYY-MM-DD date in loc. An empty value means today.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if s = CleanString(s); s == "" {
		return TruncateDay(NowFunc(), loc), nil
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

// WhatsAppLink builds a wa.me click-to-chat link carrying text.
// 10 digit numbers are prefixed with countryCode.
func WhatsAppLink(countryCode, number, text string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, number)
	if digits == "" {
		return ""
	}
	if len(digits) == 10 {
		digits = countryCode + digits
	}
	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(text)
}
