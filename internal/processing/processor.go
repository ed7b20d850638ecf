package processing

import (
	"net/url"
	"strings"
)

// Ellipsis is appended to text cut by Ellipsize.
const Ellipsis = "..."

// Truncate keeps at most limit runes of input. A non-positive limit yields "".
func Truncate(input string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(input) <= limit {
		return input
	}
	runes := []rune(input)
	if len(runes) <= limit {
		return input
	}
	return string(runes[:limit])
}

// Ellipsize truncates input to limit runes and appends Ellipsis when anything was cut.
func Ellipsize(input string, limit int) string {
	cut := Truncate(input, limit)
	if cut == input {
		return input
	}
	return cut + Ellipsis
}

// JoinParagraphs concatenates paragraph texts in order, each followed by a newline.
func JoinParagraphs(paragraphs []string) string {
	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return b.String()
}

// ResolveAgainstHost turns href into an absolute URL using the scheme and host of pageURL.
// Values already starting with http:// or https:// are returned untouched.
// An empty href or an unparsable pageURL returns "".
func ResolveAgainstHost(pageURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return href
	}

	base, err := url.Parse(pageURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return ""
	}

	if strings.HasPrefix(href, "//") {
		return base.Scheme + ":" + href
	}
	if !strings.HasPrefix(href, "/") {
		ref, err := url.Parse(href)
		if err != nil {
			return ""
		}
		return base.ResolveReference(ref).String()
	}
	return base.Scheme + "://" + base.Host + href
}
