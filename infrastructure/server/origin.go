package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// OriginPolicy is the allow-list shared by the websocket upgrader and CORS.
type OriginPolicy struct {
	log      *slog.Logger
	allowAll bool
	allowed  map[string]struct{}
	origins  []string
}

// NewOriginPolicy normalizes origins to scheme://host; "*" allows every origin.
func NewOriginPolicy(log *slog.Logger, origins []string) *OriginPolicy {
	policy := &OriginPolicy{log: log, allowed: make(map[string]struct{})}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		if trimmed == "*" {
			policy.allowAll = true
			continue
		}
		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warn("Ignoring invalid origin in configuration", "origin", origin)
			continue
		}
		if _, seen := policy.allowed[normalized]; !seen {
			policy.allowed[normalized] = struct{}{}
			policy.origins = append(policy.origins, normalized)
		}
	}
	return policy
}

// CORSOrigins is the list handed to the CORS middleware.
func (p *OriginPolicy) CORSOrigins() []string {
	if p.allowAll {
		return []string{"*"}
	}
	return p.origins
}

// CheckOrigin accepts requests without an Origin header (non-browser clients)
// and browser requests coming from an allowed origin.
func (p *OriginPolicy) CheckOrigin(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" || p.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(header)
	if ok {
		if _, allowed := p.allowed[normalized]; allowed {
			return true
		}
	}
	p.log.Warn("Blocked websocket connection from disallowed origin", "origin", header)
	return false
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
