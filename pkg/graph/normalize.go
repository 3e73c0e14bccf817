package graph

import (
	"net/url"
	"strings"
)

// NormalizeChatID prepares an externally supplied chat id for use as a
// path segment. Teams chat ids contain characters like ':' and '@' that
// must be percent-encoded, and callers sometimes paste ids that are
// already encoded. If the id contains percent-encoding it is decoded
// once first, so the function is idempotent:
//
//	NormalizeChatID(NormalizeChatID(x)) == NormalizeChatID(x)
func NormalizeChatID(chatID string) string {
	if strings.Contains(chatID, "%") {
		if decoded, err := url.PathUnescape(chatID); err == nil {
			chatID = decoded
		}
	}
	// Encode every reserved character, including ':' and '@'.
	// QueryEscape uses '+' for spaces; a path segment needs %20.
	return strings.ReplaceAll(url.QueryEscape(chatID), "+", "%20")
}
