package ledgerline

import (
	"context"
	"net/http"
)

// Publish records one audit event. The client's processor chain runs first,
// in registration order, on a copy of the event. Publishing requires the
// publish scope.
func (c *Client) Publish(ctx context.Context, event AuditEvent, opts *Options) error {
	processed := c.applyProcessors(event)
	return c.call(ctx, ScopePublish, http.MethodPost, "/", map[string]any(processed), opts, nil)
}
