package ledgerline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
)

// outcomeKind is the closed set of response classifications. Every response
// is classified exactly once, at the dispatch boundary; nothing downstream
// inspects raw status codes.
type outcomeKind int

const (
	outcomeSuccess outcomeKind = iota
	outcomeRedirect
	outcomeAPIError
	outcomeFatal
)

type outcome struct {
	kind     outcomeKind
	payload  json.RawMessage // outcomeSuccess only; nil for non-JSON or empty bodies
	location string          // outcomeRedirect only
	err      error           // outcomeAPIError / outcomeFatal
}

// classify maps an HTTP response onto the closed outcome variant.
//
// 200/201/202/204/400/404 are successes: the body is parsed only when the
// server declares a JSON content type, and 400/404 deliberately pass
// through as payloads for the caller to inspect. 302 carries its Location
// header. 401/417 are API errors built from the body. Any other status is a
// contract violation.
func classify(resp *http.Response, body []byte) outcome {
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusNoContent,
		http.StatusBadRequest, http.StatusNotFound:
		if !jsonContentType(resp.Header.Get("Content-Type")) || len(body) == 0 {
			return outcome{kind: outcomeSuccess}
		}
		return outcome{kind: outcomeSuccess, payload: json.RawMessage(body)}
	case http.StatusFound:
		return outcome{kind: outcomeRedirect, location: resp.Header.Get("Location")}
	case http.StatusUnauthorized, http.StatusExpectationFailed:
		return outcome{kind: outcomeAPIError, err: apiErrorFromBody(resp.StatusCode, body)}
	default:
		return outcome{kind: outcomeFatal, err: internalErrorf("unexpected HTTP status %d", resp.StatusCode)}
	}
}

func jsonContentType(ct string) bool {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || mediaType == "application/problem+json"
}

// dispatch performs one authenticated request and returns the classified
// payload. It merges per-call overrides into the config, resolves the
// scope's credential, serializes params (query string for GET, JSON body
// otherwise), and issues a single call with no retries.
func (c *Client) dispatch(ctx context.Context, scope Scope, method, path string, params map[string]any, opts *Options) (json.RawMessage, error) {
	cfg := c.cfg.merge(opts)
	if params == nil {
		params = map[string]any{}
	}

	key, err := resolveKey(scope, cfg)
	if err != nil {
		return nil, err
	}

	// Guard calls identify the acting user. When the caller did not set
	// user_token explicitly, it is filled from the merged config, which an
	// Options override already won over.
	if scope == ScopeGuard {
		params = cloneParams(params)
		if _, ok := params["user_token"]; !ok && cfg.GuardUserToken != "" {
			params["user_token"] = cfg.GuardUserToken
		}
	}

	target := cfg.baseURL(scope) + path

	var req *http.Request
	if method == http.MethodGet {
		if qs := encodeQuery(params); qs != "" {
			target += "?" + qs
		}
		req, err = http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return nil, fmt.Errorf("ledgerline: create request: %w", err)
		}
	} else {
		data, merr := json.Marshal(params)
		if merr != nil {
			return nil, fmt.Errorf("ledgerline: marshal request body: %w", merr)
		}
		req, err = http.NewRequestWithContext(ctx, method, target, bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("ledgerline: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		req.ContentLength = int64(len(data))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("User-Agent", userAgent)

	c.log.Debug("dispatching request", "scope", scope.String(), "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledgerline: %s %s: %w", method, path, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("ledgerline: read response: %w", err)
	}

	c.log.Debug("response received", "status", resp.StatusCode, "path", path)

	switch out := classify(resp, body); out.kind {
	case outcomeSuccess:
		return out.payload, nil
	case outcomeRedirect:
		// Download-URL flows consume the redirect target as an ordinary
		// payload field.
		synthesized, _ := json.Marshal(map[string]string{"location": out.location})
		return json.RawMessage(synthesized), nil
	default:
		return nil, out.err
	}
}

// call dispatches and unmarshals the payload into out when both are
// non-nil.
func (c *Client) call(ctx context.Context, scope Scope, method, path string, params map[string]any, opts *Options, out any) error {
	payload, err := c.dispatch(ctx, scope, method, path, params, opts)
	if err != nil {
		return err
	}
	if out == nil || payload == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("ledgerline: unmarshal response: %w", err)
	}
	return nil
}

func cloneParams(p map[string]any) map[string]any {
	clone := make(map[string]any, len(p)+1)
	for k, v := range p {
		clone[k] = v
	}
	return clone
}

// encodeQuery serializes params into a query string. Servers treat query
// parameters as a set, so the sorted ordering url.Values produces is fine.
func encodeQuery(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(k, fmt.Sprint(v))
	}
	return values.Encode()
}
