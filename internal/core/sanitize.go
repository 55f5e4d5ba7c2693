package core

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// SanitizeText returns s as plain text: markup is removed (the content of
// script and style elements is dropped entirely), control characters are
// replaced by spaces or removed, and the result is trimmed.
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<>&") {
		s = stripMarkup(s)
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			b.WriteByte(' ')
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// stripMarkup keeps only the text tokens of an HTML fragment.
func stripMarkup(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF or a tokenizer error; either way the text so far is all we keep
			return b.String()
		case html.StartTagToken:
			if isRawTextElement(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextElement(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextElement(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// SanitizeURL returns s when it is a well-formed absolute http(s) URL and ""
// otherwise. Malformed input never causes a rejection of the surrounding record.
func SanitizeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\r\n<>\"'`") {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ""
	}
	if u.Host == "" || u.Hostname() == "" {
		return ""
	}
	return u.String()
}

// TelHref keeps only digits and '+' of a phone number for use in a tel: link.
func TelHref(phone string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '+' {
			return r
		}
		return -1
	}, phone)
}
