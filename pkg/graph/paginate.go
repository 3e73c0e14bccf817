package graph

import (
	"context"
	"encoding/json"
	"net/url"
)

// PageFunc is invoked once per fetched page with the number of items in
// that page. It is strictly best-effort: a panicking callback is
// recovered and logged, and pagination continues.
type PageFunc func(itemCount int)

// Seq is a lazy, finite, non-restartable sequence of collection items
// produced by following continuation links. Usage follows the
// bufio.Scanner pattern:
//
//	seq := client.Paginate(ctx, "/me/chats", params, nil)
//	for seq.Next() {
//		item := seq.Item()
//		...
//	}
//	if err := seq.Err(); err != nil {
//		...
//	}
type Seq struct {
	client   *Client
	ctx      context.Context
	endpoint string
	query    url.Values
	onPage   PageFunc

	buf     []json.RawMessage
	item    json.RawMessage
	next    string
	started bool
	done    bool
	err     error
}

// Paginate starts a paginated fetch. The first request uses the given
// query parameters; every subsequent request follows only the
// continuation link, which already encodes the full query state.
func (c *Client) Paginate(ctx context.Context, endpoint string, query url.Values, onPage PageFunc) *Seq {
	return &Seq{
		client:   c,
		ctx:      ctx,
		endpoint: endpoint,
		query:    query,
		onPage:   onPage,
	}
}

// Next advances to the next item, fetching further pages as needed.
// It returns false at end of sequence or on error; check Err after.
func (s *Seq) Next() bool {
	if s.err != nil {
		return false
	}

	for len(s.buf) == 0 {
		if s.done {
			return false
		}

		var page *Page
		var err error
		if !s.started {
			s.started = true
			page, err = s.client.FetchPage(s.ctx, s.endpoint, s.query)
		} else {
			page, err = s.client.FetchPage(s.ctx, s.next, nil)
		}
		if err != nil {
			s.err = err
			s.done = true
			return false
		}

		s.notifyPage(len(page.Items))

		s.buf = page.Items
		s.next = page.NextLink
		if s.next == "" {
			s.done = true
		}
	}

	s.item = s.buf[0]
	s.buf = s.buf[1:]
	return true
}

// Item returns the current item. Valid only after Next returned true.
func (s *Seq) Item() json.RawMessage {
	return s.item
}

// Err returns the first error encountered, or nil on clean completion.
func (s *Seq) Err() error {
	return s.err
}

// Collect drains the remaining sequence into a slice.
func (s *Seq) Collect() ([]json.RawMessage, error) {
	var items []json.RawMessage
	for s.Next() {
		items = append(items, s.Item())
	}
	return items, s.Err()
}

// notifyPage fires the page callback. Progress reporting must never
// abort data retrieval, so panics are swallowed here.
func (s *Seq) notifyPage(count int) {
	if s.onPage == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.client.logger.Warn().
				Str("endpoint", metricEndpoint(s.endpoint)).
				Interface("panic", r).
				Msg("Page callback failed; continuing pagination")
		}
	}()
	s.onPage(count)
}

// collectTyped drains a sequence, unmarshalling every item into T.
func collectTyped[T any](s *Seq) ([]T, error) {
	var out []T
	for s.Next() {
		var v T
		if err := json.Unmarshal(s.Item(), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, s.Err()
}
