package ledgerline

import (
	"context"
	"net/http"
	"time"
)

// Guard session states. requested is transient; the rest are terminal, and
// only approved is a success.
const (
	SessionStateRequested = "requested"
	SessionStateApproved  = "approved"
	SessionStateDenied    = "denied"
	SessionStateTimedOut  = "timed_out"
	SessionStateCanceled  = "canceled"
)

// DefaultSessionInterval is the poll interval for guard sessions. Sessions
// wait on a human approver, so the interval is short.
const DefaultSessionInterval = time.Second

// Session is a guard approval session: a request for a human to approve a
// sensitive operation.
type Session struct {
	ID        string         `json:"id"`
	State     string         `json:"state"`
	Reason    string         `json:"reason"`
	WebURL    string         `json:"url"`
	Requester string         `json:"requester"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

// SessionParams configure a new guard session.
type SessionParams struct {
	// Reason is shown to the approver.
	Reason string
	// Metadata is attached to the session and shown alongside the reason.
	Metadata map[string]any
	// UserToken identifies the requesting user, overriding the configured
	// guard user token for this call.
	UserToken string
}

// CreateSession opens a guard session in the requested state. WaitForSession
// polls it until the approver acts.
func (c *Client) CreateSession(ctx context.Context, params *SessionParams, opts *Options) (*Session, error) {
	body := map[string]any{}
	if params != nil {
		if params.Reason != "" {
			body["reason"] = params.Reason
		}
		if len(params.Metadata) > 0 {
			body["metadata"] = params.Metadata
		}
		if params.UserToken != "" {
			body["user_token"] = params.UserToken
		}
	}
	var session Session
	if err := c.call(ctx, ScopeGuard, http.MethodPost, "/sessions", body, opts, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSession fetches a guard session by ID.
func (c *Client) GetSession(ctx context.Context, id string, opts *Options) (*Session, error) {
	var session Session
	if err := c.call(ctx, ScopeGuard, http.MethodGet, "/sessions/"+id, nil, opts, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CancelSession cancels a still-requested guard session.
func (c *Client) CancelSession(ctx context.Context, id string, opts *Options) (*Session, error) {
	var session Session
	if err := c.call(ctx, ScopeGuard, http.MethodPost, "/sessions/"+id+"/cancel", nil, opts, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func classifySessionState(state string) PollState {
	switch state {
	case SessionStateRequested:
		return PollPending
	case SessionStateApproved:
		return PollSuccess
	default:
		return PollFailure
	}
}

// WaitForSession polls a guard session until the approver acts, fetching it
// every interval (default 1s when interval <= 0). It returns the approved
// session, a *SessionError when the session is denied, times out, or is
// canceled, or the context's error when the caller gives up.
func (c *Client) WaitForSession(ctx context.Context, id string, interval time.Duration, opts *Options) (*Session, error) {
	if interval <= 0 {
		interval = DefaultSessionInterval
	}
	c.log.Debug("waiting for session", "id", id, "interval", interval.String())
	return settle(ctx, interval,
		func(ctx context.Context) (*Session, error) { return c.GetSession(ctx, id, opts) },
		func(s *Session) PollState { return classifySessionState(s.State) },
		func(s *Session) error { return &SessionError{Session: s} },
	)
}
