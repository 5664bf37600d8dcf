package ledgerline

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Export states. pending and processing are transient; successful and
// errored are terminal.
const (
	ExportStatePending    = "pending"
	ExportStateProcessing = "processing"
	ExportStateSuccessful = "successful"
	ExportStateErrored    = "errored"
)

// DefaultExportInterval is the poll interval for export jobs. Exports are
// batch-paced, so the interval is long.
const DefaultExportInterval = 30 * time.Second

// Export is a server-side export job over the audit trail.
type Export struct {
	ID          string `json:"id"`
	State       string `json:"state"`
	Format      string `json:"format"`
	Phrase      string `json:"phrase"`
	DownloadURL string `json:"download_url"`
	Token       string `json:"token"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ExportParams configure a new export job.
type ExportParams struct {
	// Format is the output format, e.g. "json" or "csv".
	Format string
	// Phrase limits the export to matching events; empty exports everything.
	Phrase string
	// Fields limits the exported columns; empty exports all fields.
	Fields []string
}

// CreateExport starts an export job. The returned job is usually still
// pending; WaitForExport polls it to a terminal state.
func (c *Client) CreateExport(ctx context.Context, params *ExportParams, opts *Options) (*Export, error) {
	body := map[string]any{}
	if params != nil {
		if params.Format != "" {
			body["format"] = params.Format
		}
		if params.Phrase != "" {
			body["phrase"] = params.Phrase
		}
		if len(params.Fields) > 0 {
			body["fields"] = params.Fields
		}
	}
	var export Export
	if err := c.call(ctx, ScopePolicy, http.MethodPost, "/exports", body, opts, &export); err != nil {
		return nil, err
	}
	return &export, nil
}

// GetExport fetches an export job by ID.
func (c *Client) GetExport(ctx context.Context, id string, opts *Options) (*Export, error) {
	var export Export
	if err := c.call(ctx, ScopePolicy, http.MethodGet, "/exports/"+id, nil, opts, &export); err != nil {
		return nil, err
	}
	return &export, nil
}

func classifyExportState(state string) PollState {
	switch state {
	case ExportStatePending, ExportStateProcessing:
		return PollPending
	case ExportStateSuccessful:
		return PollSuccess
	default:
		return PollFailure
	}
}

// WaitForExport polls an export job until it settles, fetching it every
// interval (default 30s when interval <= 0). It returns the successful
// export, an *ExportError when the job errors, or the context's error when
// the caller gives up.
func (c *Client) WaitForExport(ctx context.Context, id string, interval time.Duration, opts *Options) (*Export, error) {
	if interval <= 0 {
		interval = DefaultExportInterval
	}
	c.log.Debug("waiting for export", "id", id, "interval", interval.String())
	return settle(ctx, interval,
		func(ctx context.Context) (*Export, error) { return c.GetExport(ctx, id, opts) },
		func(e *Export) PollState { return classifyExportState(e.State) },
		func(e *Export) error { return &ExportError{Export: e} },
	)
}

// ExportDownloadURL resolves the short-lived download location of a
// finished export. The server answers with a 302 whose Location header is
// returned here.
func (c *Client) ExportDownloadURL(ctx context.Context, id string, opts *Options) (string, error) {
	var redirect struct {
		Location string `json:"location"`
	}
	if err := c.call(ctx, ScopePolicy, http.MethodGet, "/exports/"+id+"/download", nil, opts, &redirect); err != nil {
		return "", err
	}
	return redirect.Location, nil
}

// DownloadHandler returns an http.HandlerFunc that proxies export
// downloads: it reads the export ID from the "id" path value or query
// parameter, reports transient states with 202, failed exports with 502,
// and redirects to the resolved download location once the export
// succeeds.
func (c *Client) DownloadHandler(opts *Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if id == "" {
			id = r.URL.Query().Get("id")
		}
		if id == "" {
			http.Error(w, "missing export id", http.StatusBadRequest)
			return
		}

		export, err := c.GetExport(r.Context(), id, opts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		switch export.State {
		case ExportStatePending, ExportStateProcessing:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusAccepted)
			json.NewEncoder(w).Encode(map[string]string{"state": export.State})
		case ExportStateSuccessful:
			location, err := c.ExportDownloadURL(r.Context(), id, opts)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			http.Redirect(w, r, location, http.StatusFound)
		case ExportStateErrored:
			http.Error(w, "export failed", http.StatusBadGateway)
		default:
			http.Error(w, "unknown export state "+export.State, http.StatusInternalServerError)
		}
	}
}
