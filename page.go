package ledgerline

import (
	"context"
	"errors"
)

// Pagination defaults. The service enforces a per_page maximum of 50.
const (
	defaultPerPage = 25
	// MaxPerPage is the service-enforced upper bound on page size.
	MaxPerPage = 50
)

// ErrDone terminates a cross-page Iterator when every page has been drained.
var ErrDone = errors.New("ledgerline: no more items in iterator")

// pageEnvelope is the wire shape of a paginated list response.
type pageEnvelope[T any] struct {
	Results    []T `json:"results"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// pageRequest snapshots everything needed to re-issue the request for an
// adjacent page: the original caller params, scope, path, and overrides.
type pageRequest struct {
	scope   Scope
	method  string
	path    string
	params  map[string]any
	opts    *Options
	perPage int
}

// Page is an immutable handle over exactly one page of a paginated result
// set. Navigation methods issue a fresh request and return a new Page; no
// Page ever represents more than one page at a time.
type Page[T any] struct {
	client     *Client
	req        pageRequest
	number     int
	results    []T
	totalCount int
	totalPages int
}

// requestPage fetches one page. The page and per_page parameters are
// injected ahead of the caller's params, so a caller-supplied value for
// either wins.
func requestPage[T any](ctx context.Context, c *Client, req pageRequest, number int) (*Page[T], error) {
	if number < 1 {
		number = 1
	}
	if req.perPage < 1 {
		req.perPage = defaultPerPage
	}

	params := map[string]any{
		"page":     number,
		"per_page": req.perPage,
	}
	for k, v := range req.params {
		params[k] = v
	}

	var envelope pageEnvelope[T]
	if err := c.call(ctx, req.scope, req.method, req.path, params, req.opts, &envelope); err != nil {
		return nil, err
	}
	if envelope.TotalCount < 0 || envelope.TotalPages < 1 {
		return nil, internalErrorf("malformed page metadata: total_count=%d total_pages=%d",
			envelope.TotalCount, envelope.TotalPages)
	}

	return &Page[T]{
		client:     c,
		req:        req,
		number:     number,
		results:    envelope.Results,
		totalCount: envelope.TotalCount,
		totalPages: envelope.TotalPages,
	}, nil
}

// Results returns this page's items in server-returned order.
func (p *Page[T]) Results() []T { return p.results }

// Number returns the 1-based index of this page.
func (p *Page[T]) Number() int { return p.number }

// TotalCount returns the total number of items across all pages, as
// reported by the server with this page.
func (p *Page[T]) TotalCount() int { return p.totalCount }

// PageCount returns the total number of pages, as reported by the server
// with this page.
func (p *Page[T]) PageCount() int { return p.totalPages }

// NextPage fetches the page after this one, or returns (nil, nil) when this
// is the last page. Exhaustion is not an error.
func (p *Page[T]) NextPage(ctx context.Context) (*Page[T], error) {
	if p.number >= p.totalPages {
		return nil, nil
	}
	return requestPage[T](ctx, p.client, p.req, p.number+1)
}

// PreviousPage fetches the page before this one, or returns (nil, nil) when
// this is the first page.
func (p *Page[T]) PreviousPage(ctx context.Context) (*Page[T], error) {
	if p.number <= 1 {
		return nil, nil
	}
	return requestPage[T](ctx, p.client, p.req, p.number-1)
}

// FirstPage fetches page 1 of the same result set.
func (p *Page[T]) FirstPage(ctx context.Context) (*Page[T], error) {
	return requestPage[T](ctx, p.client, p.req, 1)
}

// LastPage fetches the last page, using the page count observed with this
// response. If the result set changed server-side in the meantime, the page
// the server returns is authoritative, not the stale count.
func (p *Page[T]) LastPage(ctx context.Context) (*Page[T], error) {
	return requestPage[T](ctx, p.client, p.req, p.totalPages)
}

// Iter returns a lazy, forward-only iterator over this page's items and the
// items of every following page. Page N+1 is fetched only once page N's
// items have been consumed, so abandoning the iterator bounds request
// volume. The iterator is not restartable; iterating twice issues the
// underlying requests twice.
func (p *Page[T]) Iter(ctx context.Context) *Iterator[T] {
	return &Iterator[T]{ctx: ctx, page: p}
}

// Iterator walks a paginated result set one item at a time. Next returns
// ErrDone after the final item of the final page.
type Iterator[T any] struct {
	ctx  context.Context
	page *Page[T]
	idx  int
	err  error
}

// Next returns the next item. After the last item of the last page it
// returns ErrDone; any fetch error is returned once and then sticks.
func (it *Iterator[T]) Next() (T, error) {
	var zero T
	if it.err != nil {
		return zero, it.err
	}
	for it.page != nil && it.idx >= len(it.page.results) {
		next, err := it.page.NextPage(it.ctx)
		if err != nil {
			it.err = err
			return zero, err
		}
		it.page = next
		it.idx = 0
	}
	if it.page == nil {
		it.err = ErrDone
		return zero, ErrDone
	}
	item := it.page.results[it.idx]
	it.idx++
	return item, nil
}
