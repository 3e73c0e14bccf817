package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/xprtyg33k/teams-chat-extract/pkg/cache"
)

// MyProfile retrieves the authenticated user's profile.
func (c *Client) MyProfile(ctx context.Context) (*User, error) {
	var user User
	if err := c.GetObject(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers looks up directory users by display name or email.
// Identifiers containing '@' match userPrincipalName exactly; anything
// else matches displayName by prefix. Results are cached when a lookup
// cache is configured, since directory entries change rarely compared
// to how often pipelines resolve the same people.
func (c *Client) SearchUsers(ctx context.Context, identifier string) ([]User, error) {
	var filter string
	if strings.Contains(identifier, "@") {
		filter = fmt.Sprintf("userPrincipalName eq '%s'", escapeODataLiteral(identifier))
	} else {
		filter = fmt.Sprintf("startswith(displayName, '%s')", escapeODataLiteral(identifier))
	}

	query := url.Values{}
	query.Set("$filter", filter)
	query.Set("$select", "id,displayName,userPrincipalName")

	key := cache.Key{Endpoint: "/users", Query: query}
	if c.cache != nil {
		if entry, err := c.cache.Get(ctx, key); err == nil {
			var users []User
			if err := json.Unmarshal(entry.Data, &users); err == nil {
				c.logger.Debug().Str("identifier", identifier).Msg("User lookup served from cache")
				return users, nil
			}
		} else if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Msg("User lookup cache get failed")
		}
	}

	users, err := collectTyped[User](c.Paginate(ctx, "/users", query, nil))
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := json.Marshal(users); err == nil {
			if err := c.cache.Set(ctx, key, cache.NewEntry(data, c.config.LookupCacheTTL)); err != nil {
				c.logger.Warn().Err(err).Msg("User lookup cache set failed")
			}
		}
	}

	return users, nil
}

// ResolveUser resolves a display name or email to exactly one user.
// Ambiguous prefixes fall back to exact display-name and then exact UPN
// matching; when that still leaves several candidates the error lists
// up to five of them.
func (c *Client) ResolveUser(ctx context.Context, identifier string) (*User, error) {
	users, err := c.SearchUsers(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("user %q: %w", identifier, ErrNotFound)
	}
	if len(users) == 1 {
		return &users[0], nil
	}

	lower := strings.ToLower(identifier)
	if u := exactMatch(users, lower, func(u User) string { return u.DisplayName }); u != nil {
		return u, nil
	}
	if u := exactMatch(users, lower, func(u User) string { return u.UserPrincipalName }); u != nil {
		return u, nil
	}

	suggestions := make([]string, 0, 5)
	for _, u := range users {
		if len(suggestions) == 5 {
			break
		}
		suggestions = append(suggestions, fmt.Sprintf("%s (%s)", u.DisplayName, u.UserPrincipalName))
	}
	return nil, fmt.Errorf("%w: %q matches %d users: %s",
		ErrAmbiguousUser, identifier, len(users), strings.Join(suggestions, ", "))
}

func exactMatch(users []User, lower string, field func(User) string) *User {
	var match *User
	for i := range users {
		if strings.ToLower(field(users[i])) == lower {
			if match != nil {
				return nil // more than one exact match stays ambiguous
			}
			match = &users[i]
		}
	}
	return match
}

// escapeODataLiteral doubles single quotes inside an OData string
// literal.
func escapeODataLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
