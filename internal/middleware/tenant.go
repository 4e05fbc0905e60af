package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/Strob0t/TenantForge/internal/logger"
)

type tenantCtxKey struct{}

// TenantFromHost derives the tenant name from a Host header value.
//
// The port is dropped and the hostname lowercased. When the hostname contains
// one of localSuffixes (e.g. ".localhost") its first label is the tenant;
// otherwise a hostname with more than two labels yields its first label.
// Anything else, such as a bare root domain or "localhost", yields "".
// The result is not validated; the resolver rejects malformed names.
func TenantFromHost(host string, localSuffixes []string) string {
	hostname, _, _ := strings.Cut(host, ":")
	hostname = strings.ToLower(strings.TrimSuffix(hostname, "."))
	if hostname == "" {
		return ""
	}

	labels := strings.Split(hostname, ".")
	for _, suffix := range localSuffixes {
		if suffix != "" && strings.Contains(hostname, suffix) {
			return labels[0]
		}
	}
	if len(labels) > 2 {
		return labels[0]
	}
	return ""
}

// Tenant is middleware that stores the host-derived tenant name in the request
// context. Requests without a tenant pass through with an empty name; handlers
// decide whether a tenant is required.
func Tenant(localSuffixes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := TenantFromHost(r.Host, localSuffixes)
			ctx := context.WithValue(r.Context(), tenantCtxKey{}, name)
			if name != "" {
				ctx = logger.WithTenant(ctx, name)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFromContext returns the tenant name stored by Tenant, or "".
func TenantFromContext(ctx context.Context) string {
	name, _ := ctx.Value(tenantCtxKey{}).(string)
	return name
}
