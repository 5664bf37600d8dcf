package ledgerline

import (
	"context"
	"net/http"
)

// Policy is a named view over the audit trail with its own API key.
type Policy struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	APIKey      string `json:"api_key"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Policies fetches one page of the policies list.
func (c *Client) Policies(ctx context.Context, page, perPage int, opts *Options) (*Page[Policy], error) {
	req := pageRequest{
		scope:   ScopePolicy,
		method:  http.MethodGet,
		path:    "/policies",
		opts:    opts,
		perPage: perPage,
	}
	return requestPage[Policy](ctx, c, req, page)
}

// GetPolicy fetches a policy by name.
func (c *Client) GetPolicy(ctx context.Context, name string, opts *Options) (*Policy, error) {
	var p Policy
	if err := c.call(ctx, ScopePolicy, http.MethodGet, "/policies/"+name, nil, opts, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePolicy creates a named policy.
func (c *Client) CreatePolicy(ctx context.Context, name, description string, opts *Options) (*Policy, error) {
	params := map[string]any{
		"name":        name,
		"description": description,
	}
	var p Policy
	if err := c.call(ctx, ScopePolicy, http.MethodPost, "/policies", params, opts, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePolicy deletes a policy by name.
func (c *Client) DeletePolicy(ctx context.Context, name string, opts *Options) error {
	return c.call(ctx, ScopePolicy, http.MethodDelete, "/policies/"+name, nil, opts, nil)
}
