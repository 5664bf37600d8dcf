package ledgerline

import (
	"os"
	"strings"
)

// Scope is the credential family that authorizes a call.
type Scope int

const (
	// ScopePublish authorizes event publishing.
	ScopePublish Scope = iota
	// ScopeGuard authorizes guard session calls.
	ScopeGuard
	// ScopePolicy authorizes read, search, export, and policy calls.
	ScopePolicy
)

func (s Scope) String() string {
	switch s {
	case ScopePublish:
		return "publish"
	case ScopeGuard:
		return "guard"
	case ScopePolicy:
		return "policy"
	}
	return "unknown"
}

// policyKeyEnv is the environment variable consulted for a named policy's
// key when the PolicyKeys map has no entry for it.
func policyKeyEnv(policy string) string {
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(policy))
	return "LEDGERLINE_" + name + "_KEY"
}

// resolveKey picks the credential for a scope from an already-merged config.
// Resolution is pure: it reads the config (and, for named policies, the
// process environment) and returns either a key or an *AuthenticationError
// naming what to set.
func resolveKey(scope Scope, cfg Config) (string, error) {
	switch scope {
	case ScopePublish:
		if cfg.PublishKey != "" {
			return cfg.PublishKey, nil
		}
		return "", &AuthenticationError{
			Scope: scope,
			Hint:  "set Config.PublishKey or LEDGERLINE_PUBLISH_KEY",
		}

	case ScopeGuard:
		if cfg.GuardApplicationKey != "" {
			return cfg.GuardApplicationKey, nil
		}
		return "", &AuthenticationError{
			Scope: scope,
			Hint:  "set Config.GuardApplicationKey or LEDGERLINE_GUARD_APPLICATION_KEY",
		}

	case ScopePolicy:
		if cfg.Policy != "" {
			if key, ok := cfg.PolicyKeys[cfg.Policy]; ok && key != "" {
				return key, nil
			}
			if key := os.Getenv(policyKeyEnv(cfg.Policy)); key != "" {
				return key, nil
			}
		}
		if cfg.PolicyKey != "" {
			return cfg.PolicyKey, nil
		}
		return "", &AuthenticationError{
			Scope: scope,
			Hint:  "set Config.PolicyKey or LEDGERLINE_POLICY_KEY, or provide a key for the named policy",
		}
	}
	return "", &AuthenticationError{Scope: scope, Hint: "unknown credential scope"}
}
