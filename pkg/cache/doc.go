// Package cache provides a Redis-backed lookup cache for Graph
// responses that change rarely relative to how often pipelines request
// them, such as directory user searches.
//
// Entries carry their own expiry and are stored with a matching Redis
// TTL, so Redis evicts them on its own; Get additionally rejects
// entries whose embedded expiry has passed.
//
// Example usage:
//
//	manager := cache.NewManager(redisClient)
//	key := cache.Key{Endpoint: "/users", Query: query}
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch and store
//		manager.Set(ctx, key, cache.NewEntry(data, 10*time.Minute))
//	}
//
// The cache is strictly an optimization: every caller must treat
// ErrCacheMiss and Redis errors as "fetch from the API instead".
package cache
