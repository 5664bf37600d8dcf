// Package ledgerline provides a Go client for the Ledgerline audit-trail API.
//
// Ledgerline records, searches, and exports audit events. This SDK covers
// event publishing, paginated search, export jobs, and guard approval
// sessions.
//
// # Quick Start
//
//	client := ledgerline.FromEnv()
//
//	// Or configure explicitly
//	client := ledgerline.New(ledgerline.Config{
//	    PublishKey: "publish_live_...",
//	    PolicyKey:  "policy_live_...",
//	})
//
//	// Publish an audit event
//	err := client.Publish(ctx, ledgerline.AuditEvent{
//	    "action":   "user.login",
//	    "actor":    "millie@example.com",
//	    "location": "10.1.2.3",
//	}, nil)
//
//	// Search events and walk every page lazily
//	page, err := client.SearchEvents(ctx, &ledgerline.SearchQuery{Phrase: "action:user.login"}, nil)
//	it := page.Iter(ctx)
//	for {
//	    event, err := it.Next()
//	    if err == ledgerline.ErrDone {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(event["action"])
//	}
//
// # Credentials
//
// Every call is authorized by one of three credential scopes: publish keys
// for writing events, policy keys for reading them, and guard application
// keys for approval sessions. Keys come from Config fields, LEDGERLINE_*
// environment variables, or per-call Options overrides. A call whose scope
// cannot be resolved fails with *AuthenticationError before any request is
// made.
//
// # Error Handling
//
// API methods return typed errors inspectable with errors.As:
//
//	var apiErr *ledgerline.APIError
//	if errors.As(err, &apiErr) {
//	    // server rejected the call (401/417)
//	}
//
// Note that 400 and 404 responses are not errors at this layer: their bodies
// are returned as ordinary payloads and callers inspect the payload shape.
//
// # Long-Running Jobs
//
// Export jobs and guard sessions settle server-side. WaitForExport and
// WaitForSession poll at a constant interval until the resource leaves its
// transient state:
//
//	export, err := client.CreateExport(ctx, &ledgerline.ExportParams{Format: "json"}, nil)
//	export, err = client.WaitForExport(ctx, export.ID, 0, nil) // 0 = default 30s interval
package ledgerline
