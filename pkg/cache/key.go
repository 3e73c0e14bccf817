package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached lookup result.
type Key struct {
	// Endpoint is the Graph endpoint path (e.g. "/users").
	Endpoint string

	// Query are the query parameters of the lookup.
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: graph:endpoint:param1=val1:param2=val2
//
// Example:
//
//	graph:users:$filter=startswith(displayName, 'Alice')
func (k Key) String() string {
	parts := []string{"graph"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism.
	if len(k.Query) > 0 {
		queryKeys := make([]string, 0, len(k.Query))
		for key := range k.Query {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.Query.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
