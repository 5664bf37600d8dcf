package ledgerline

import (
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Default API locations. Publishing and reading go through separate hosts;
// guard sessions share the API host unless overridden.
const (
	DefaultPublishURL = "https://publish.ledgerline.io"
	DefaultAPIURL     = "https://api.ledgerline.io"
)

// Config is the process-wide configuration snapshot. It is treated as an
// immutable value: per-call Options are merged into a copy for each call,
// and nothing in the SDK mutates a Config after construction.
type Config struct {
	// PublishKey authorizes event publishing.
	PublishKey string

	// PolicyKey is the default key for read/search/export calls, used when
	// no named policy key applies.
	PolicyKey string

	// PolicyKeys maps policy names to their keys.
	PolicyKeys map[string]string

	// Policy is the named policy to resolve keys for, if any.
	Policy string

	// GuardApplicationKey authorizes guard session calls.
	GuardApplicationKey string

	// GuardUserToken identifies the requesting user on guard calls. It is
	// backfilled into guard request parameters when they carry no
	// user_token of their own.
	GuardUserToken string

	// PublishURL, APIURL, and GuardURL are the base locations for each
	// credential scope. Empty fields fall back to the package defaults;
	// GuardURL additionally falls back to APIURL.
	PublishURL string
	APIURL     string
	GuardURL   string
}

// ConfigFromEnv builds a Config from LEDGERLINE_* environment variables:
// LEDGERLINE_PUBLISH_KEY, LEDGERLINE_POLICY_KEY, LEDGERLINE_POLICY,
// LEDGERLINE_GUARD_APPLICATION_KEY, LEDGERLINE_GUARD_USER_TOKEN,
// LEDGERLINE_PUBLISH_URL, LEDGERLINE_API_URL, and LEDGERLINE_GUARD_URL.
// Named policy keys are not enumerated here; they are looked up lazily as
// LEDGERLINE_<NAME>_KEY during credential resolution.
func ConfigFromEnv() Config {
	return Config{
		PublishKey:          os.Getenv("LEDGERLINE_PUBLISH_KEY"),
		PolicyKey:           os.Getenv("LEDGERLINE_POLICY_KEY"),
		Policy:              os.Getenv("LEDGERLINE_POLICY"),
		GuardApplicationKey: os.Getenv("LEDGERLINE_GUARD_APPLICATION_KEY"),
		GuardUserToken:      os.Getenv("LEDGERLINE_GUARD_USER_TOKEN"),
		PublishURL:          os.Getenv("LEDGERLINE_PUBLISH_URL"),
		APIURL:              os.Getenv("LEDGERLINE_API_URL"),
		GuardURL:            os.Getenv("LEDGERLINE_GUARD_URL"),
	}
}

// Validate checks the structural fields of the configuration. Keys are not
// validated here; a missing key only matters for the scope that needs it,
// and surfaces as *AuthenticationError at call time.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.PublishURL, is.URL),
		validation.Field(&c.APIURL, is.URL),
		validation.Field(&c.GuardURL, is.URL),
	)
}

// withDefaults fills empty base URLs.
func (c Config) withDefaults() Config {
	if c.PublishURL == "" {
		c.PublishURL = DefaultPublishURL
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.GuardURL == "" {
		c.GuardURL = c.APIURL
	}
	return c
}

// baseURL returns the configured base location for a scope.
func (c Config) baseURL(scope Scope) string {
	switch scope {
	case ScopePublish:
		return strings.TrimRight(c.PublishURL, "/")
	case ScopeGuard:
		return strings.TrimRight(c.GuardURL, "/")
	default:
		return strings.TrimRight(c.APIURL, "/")
	}
}

// Options are per-call overrides. A non-zero field wins over the
// corresponding Config field for the duration of one call; the merge is
// recomputed for every call and never cached.
type Options struct {
	PublishKey          string
	PolicyKey           string
	PolicyKeys          map[string]string
	Policy              string
	GuardApplicationKey string
	GuardUserToken      string
	PublishURL          string
	APIURL              string
	GuardURL            string
}

// merge folds per-call overrides into a copy of the process-wide config,
// override fields winning field by field. A non-nil PolicyKeys override
// replaces the whole map.
func (c Config) merge(o *Options) Config {
	if o == nil {
		return c.withDefaults()
	}
	if o.PublishKey != "" {
		c.PublishKey = o.PublishKey
	}
	if o.PolicyKey != "" {
		c.PolicyKey = o.PolicyKey
	}
	if o.PolicyKeys != nil {
		c.PolicyKeys = o.PolicyKeys
	}
	if o.Policy != "" {
		c.Policy = o.Policy
	}
	if o.GuardApplicationKey != "" {
		c.GuardApplicationKey = o.GuardApplicationKey
	}
	if o.GuardUserToken != "" {
		c.GuardUserToken = o.GuardUserToken
	}
	if o.PublishURL != "" {
		c.PublishURL = o.PublishURL
	}
	if o.APIURL != "" {
		c.APIURL = o.APIURL
	}
	if o.GuardURL != "" {
		c.GuardURL = o.GuardURL
	}
	return c.withDefaults()
}
