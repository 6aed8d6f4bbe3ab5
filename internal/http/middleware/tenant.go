package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/ItIsRain/OneToOne-sub009/internal/domain"
	"github.com/ItIsRain/OneToOne-sub009/internal/http/response"
	"github.com/ItIsRain/OneToOne-sub009/pkg/logger"
)

type ctxKey string

const CtxTenantID ctxKey = "tenant_id"

type TenantResolver interface {
	GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error)
}

// ResolveTenant scopes public requests to a tenant when one is identifiable:
// either an X-Tenant-ID header set by the upstream routing layer, or a tenant
// subdomain of baseDomain. Requests without either proceed unscoped and rely
// on platform-wide slug uniqueness.
func ResolveTenant(tenants TenantResolver, baseDomain string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if raw := r.Header.Get("X-Tenant-ID"); raw != "" {
				id, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					response.BadRequest(w, "invalid X-Tenant-ID")
					return
				}
				next.ServeHTTP(w, r.WithContext(withTenant(r.Context(), id)))
				return
			}

			sub := subdomain(r.Host, baseDomain)
			if sub == "" {
				next.ServeHTTP(w, r)
				return
			}

			tenant, err := tenants.GetBySubdomain(r.Context(), sub)
			if err != nil {
				logger.ErrorContext(r.Context(), "tenant lookup failed", "error", err, "subdomain", sub)
				response.InternalError(w, "internal error")
				return
			}
			if tenant == nil {
				response.NotFound(w, "unknown tenant")
				return
			}

			next.ServeHTTP(w, r.WithContext(withTenant(r.Context(), tenant.ID)))
		})
	}
}

func withTenant(ctx context.Context, id int64) context.Context {
	ctx = context.WithValue(ctx, CtxTenantID, id)
	return context.WithValue(ctx, logger.TenantIDKey, id)
}

// TenantID returns the resolved tenant, or nil when the request arrived
// without tenant scoping.
func TenantID(r *http.Request) *int64 {
	if v := r.Context().Value(CtxTenantID); v != nil {
		if id, ok := v.(int64); ok {
			return &id
		}
	}
	return nil
}

func subdomain(host, baseDomain string) string {
	if baseDomain == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.ToLower(host)
	if host == baseDomain || !strings.HasSuffix(host, "."+baseDomain) {
		return ""
	}
	sub := strings.TrimSuffix(host, "."+baseDomain)
	if sub == "www" || strings.Contains(sub, ".") {
		return ""
	}
	return sub
}
