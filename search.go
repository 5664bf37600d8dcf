package ledgerline

import (
	"context"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// SearchQuery selects and paginates audit events.
type SearchQuery struct {
	// Phrase is the search phrase, e.g. "action:user.login".
	Phrase string
	// Page is the 1-based page to fetch (default 1).
	Page int
	// PerPage is the page size (default 25, service maximum 50).
	PerPage int
}

// Validate checks the query's pagination bounds.
func (q SearchQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.PerPage, validation.Min(0), validation.Max(MaxPerPage)),
	)
}

// SearchEvents fetches one page of events matching the query. The returned
// Page navigates to adjacent pages and iterates lazily across all of them.
// Searching requires the policy scope.
func (c *Client) SearchEvents(ctx context.Context, q *SearchQuery, opts *Options) (*Page[AuditEvent], error) {
	if q == nil {
		q = &SearchQuery{}
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	params := map[string]any{}
	if q.Phrase != "" {
		params["phrase"] = q.Phrase
	}
	req := pageRequest{
		scope:   ScopePolicy,
		method:  http.MethodGet,
		path:    "/events",
		params:  params,
		opts:    opts,
		perPage: q.PerPage,
	}
	return requestPage[AuditEvent](ctx, c, req, q.Page)
}

// Event fetches a single audit event by ID. A 404 passes through as an
// empty event; callers inspect the payload shape.
func (c *Client) Event(ctx context.Context, id string, opts *Options) (AuditEvent, error) {
	var event AuditEvent
	err := c.call(ctx, ScopePolicy, http.MethodGet, "/events/"+id, nil, opts, &event)
	return event, err
}
