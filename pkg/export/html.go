package export

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags start a new line in the plain-text rendering.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true,
	"tr": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "blockquote": true,
}

// HTMLToText converts a message body to plain text: tags are stripped,
// block-level elements become line breaks, script and style content is
// dropped. Input that fails to tokenize is returned as-is.
func HTMLToText(content string) string {
	if content == "" {
		return ""
	}
	if !strings.Contains(content, "<") {
		return strings.TrimSpace(content)
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(content))
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF ends the document; any other error means
			// malformed input, which the tokenizer tolerates up to
			// this point, so keep what was extracted.
			return collapseBlankLines(b.String())

		case html.TextToken:
			if skipDepth == 0 {
				b.WriteString(string(tokenizer.Text()))
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if tt == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if blockTags[tag] {
				b.WriteString("\n")
			}

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skipDepth > 0 {
				skipDepth--
			} else if blockTags[tag] {
				b.WriteString("\n")
			}
		}
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

// TruncateRunes bounds a string to n runes.
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
