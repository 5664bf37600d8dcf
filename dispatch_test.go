package ledgerline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient points every scope's base URL at the given test server.
func testClient(srvURL string, opts ...Option) *Client {
	return New(Config{
		PublishKey:          "pk",
		PolicyKey:           "polk",
		GuardApplicationKey: "gak",
		PublishURL:          srvURL,
		APIURL:              srvURL,
		GuardURL:            srvURL,
	}, opts...)
}

func jsonResponse(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestDispatchHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer polk", r.Header.Get("Authorization"))
		assert.Equal(t, "ledgerline-go/"+Version, r.Header.Get("User-Agent"))
		jsonResponse(w, 200, `{}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).dispatch(context.Background(), ScopePolicy, http.MethodGet, "/events/e1", nil, nil)
	require.NoError(t, err)
}

func TestDispatchGetQueryString(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "action:login", r.URL.Query().Get("phrase"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		jsonResponse(w, 200, `{}`)
	}))
	defer srv.Close()

	params := map[string]any{"phrase": "action:login", "page": 2}
	_, err := testClient(srv.URL).dispatch(context.Background(), ScopePolicy, http.MethodGet, "/events", params, nil)
	require.NoError(t, err)
}

func TestDispatchPostJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))
		assert.Greater(t, r.ContentLength, int64(0))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user.login", body["action"])
		jsonResponse(w, 201, `{"id":"ev1"}`)
	}))
	defer srv.Close()

	payload, err := testClient(srv.URL).dispatch(context.Background(), ScopePublish, http.MethodPost, "/", map[string]any{"action": "user.login"}, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"ev1"}`, string(payload))
}

func TestDispatchBadRequestPassesThrough(t *testing.T) {
	// 400 and 404 are payloads, not errors: the caller inspects the shape.
	for _, status := range []int{400, 404} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			jsonResponse(w, status, `{"error":"no such thing"}`)
		}))
		payload, err := testClient(srv.URL).dispatch(context.Background(), ScopePolicy, http.MethodGet, "/events/nope", nil, nil)
		srv.Close()
		require.NoError(t, err, "status %d must not be an error", status)
		assert.JSONEq(t, `{"error":"no such thing"}`, string(payload))
	}
}

func TestDispatchNonJSONBodyIgnored(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(200)
		w.Write([]byte("<html>hi</html>"))
	}))
	defer srv.Close()

	payload, err := testClient(srv.URL).dispatch(context.Background(), ScopePolicy, http.MethodGet, "/events", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, payload)
}

func TestDispatchRedirectLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://downloads.example.com/x.json")
		w.WriteHeader(302)
	}))
	defer srv.Close()

	payload, err := testClient(srv.URL).dispatch(context.Background(), ScopePolicy, http.MethodGet, "/exports/x/download", nil, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"location":"https://downloads.example.com/x.json"}`, string(payload))
}

func TestDispatchAPIErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 401, `{"message":"key revoked"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).dispatch(context.Background(), ScopePolicy, http.MethodGet, "/events", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "key revoked", apiErr.Message)
}

func TestDispatchAPIErrorMessagesFlattened(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 401, `{"messages":{"field":["bad"]}}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).dispatch(context.Background(), ScopePolicy, http.MethodGet, "/events", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "field bad", apiErr.Message)
}

func TestDispatchAPIErrorUnknownShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 417, `{"weird":true}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).dispatch(context.Background(), ScopePolicy, http.MethodGet, "/events", nil, nil)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 417, apiErr.Status)
	assert.Equal(t, "unknown API error", apiErr.Message)
}

func TestDispatchUnexpectedStatusIsInternal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, 500, `{"message":"boom"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).dispatch(context.Background(), ScopePolicy, http.MethodGet, "/events", nil, nil)
	var internal *InternalError
	require.ErrorAs(t, err, &internal)
}

func TestDispatchAuthFailureSendsNothing(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := New(Config{APIURL: srv.URL})
	_, err := c.dispatch(context.Background(), ScopePolicy, http.MethodGet, "/events", nil, nil)
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, calls.Load(), "no request may be issued without a credential")
}

func TestDispatchGuardUserTokenBackfill(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		gotToken, _ = body["user_token"].(string)
		jsonResponse(w, 201, `{}`)
	}))
	defer srv.Close()

	c := New(Config{GuardApplicationKey: "gak", GuardUserToken: "cfg-token", GuardURL: srv.URL, APIURL: srv.URL})

	// Backfilled from config.
	_, err := c.dispatch(context.Background(), ScopeGuard, http.MethodPost, "/sessions", map[string]any{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "cfg-token", gotToken)

	// Per-call override wins over config.
	_, err = c.dispatch(context.Background(), ScopeGuard, http.MethodPost, "/sessions", map[string]any{}, &Options{GuardUserToken: "override-token"})
	require.NoError(t, err)
	assert.Equal(t, "override-token", gotToken)

	// An explicit param wins over both.
	_, err = c.dispatch(context.Background(), ScopeGuard, http.MethodPost, "/sessions", map[string]any{"user_token": "explicit"}, &Options{GuardUserToken: "override-token"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", gotToken)
}

func TestDispatchGuardNoTokenLeavesFieldUnset(t *testing.T) {
	var hasToken bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		_, hasToken = body["user_token"]
		jsonResponse(w, 201, `{}`)
	}))
	defer srv.Close()

	c := New(Config{GuardApplicationKey: "gak", GuardURL: srv.URL, APIURL: srv.URL})
	_, err := c.dispatch(context.Background(), ScopeGuard, http.MethodPost, "/sessions", map[string]any{}, nil)
	require.NoError(t, err)
	assert.False(t, hasToken)
}

func TestClassifyIsClosed(t *testing.T) {
	cases := map[int]outcomeKind{
		200: outcomeSuccess,
		201: outcomeSuccess,
		202: outcomeSuccess,
		204: outcomeSuccess,
		400: outcomeSuccess,
		404: outcomeSuccess,
		302: outcomeRedirect,
		401: outcomeAPIError,
		417: outcomeAPIError,
		403: outcomeFatal,
		500: outcomeFatal,
		503: outcomeFatal,
	}
	for status, want := range cases {
		resp := &http.Response{StatusCode: status, Header: http.Header{}}
		assert.Equal(t, want, classify(resp, nil).kind, "status %d", status)
	}
}
