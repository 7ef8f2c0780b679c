package clipboard

import (
	"encoding/base64"
	"errors"
	"strings"
)

// Clean strips rich-text wrappers and control characters and normalizes
// line endings.
func Clean(text string) string {
	switch {
	case isRTF(text):
		text = stripRTF(text)
	case isHTML(text):
		text = stripHTML(text)
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 32 {
			b.WriteRune(r)
		}
	}
	out := strings.ReplaceAll(b.String(), "\r\n", "\n")
	return strings.ReplaceAll(out, "\r", "\n")
}

func isRTF(text string) bool {
	return strings.HasPrefix(text, "{\\rtf")
}

func isHTML(text string) bool {
	t := strings.TrimSpace(text)
	return strings.HasPrefix(t, "<") &&
		(strings.Contains(t, "<html") || strings.Contains(t, "<body") || strings.Contains(t, "<div") || strings.Contains(t, "<p"))
}

// stripRTF keeps plain text and turns \par and \line into newlines.
func stripRTF(rtf string) string {
	var b strings.Builder
	rs := []rune(rtf)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch r {
		case '{', '}':
			continue
		case '\\':
			if i+1 >= len(rs) {
				continue
			}
			next := rs[i+1]
			if next == '\\' || next == '{' || next == '}' {
				b.WriteRune(next)
				i++
				continue
			}
			j := i + 1
			for j < len(rs) && (rs[j] >= 'a' && rs[j] <= 'z' || rs[j] >= 'A' && rs[j] <= 'Z') {
				j++
			}
			word := string(rs[i+1 : j])
			for j < len(rs) && (rs[j] == '-' || rs[j] >= '0' && rs[j] <= '9') {
				j++
			}
			if j < len(rs) && rs[j] == ' ' {
				j++
			}
			switch word {
			case "par", "line":
				b.WriteRune('\n')
			case "tab":
				b.WriteRune('\t')
			}
			i = j - 1
		case '\n', '\r':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

var htmlEntities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

func stripHTML(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return htmlEntities.Replace(b.String())
}

func decodeDataURL(s string) ([]byte, error) {
	meta, payload, ok := strings.Cut(s, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil, errors.New("unsupported data url")
	}
	return base64.StdEncoding.DecodeString(payload)
}
