package authz

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// resourceIDParams are the path parameters that may carry the target id,
// in lookup order.
var resourceIDParams = []string{"id", "resourceId", "userId"}

// ExtractResourceID returns the first non-empty resource id path parameter.
func ExtractResourceID(r *http.Request) string {
	for _, name := range resourceIDParams {
		if v := r.PathValue(name); v != "" {
			return v
		}
	}
	return ""
}

// AuthzMiddleware enforces ownership checks on HTTP routes.
// It sits between the identity layer and handlers in the middleware stack.
type AuthzMiddleware struct {
	authorizer *Authorizer
	logger     *slog.Logger
}

// MiddlewareOption configures the AuthzMiddleware.
type MiddlewareOption func(*AuthzMiddleware)

// WithLogger sets a custom logger for the middleware.
func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(m *AuthzMiddleware) {
		m.logger = l
	}
}

// NewAuthzMiddleware creates authorization middleware around the authorizer.
func NewAuthzMiddleware(authorizer *Authorizer, opts ...MiddlewareOption) *AuthzMiddleware {
	m := &AuthzMiddleware{
		authorizer: authorizer,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Guard wraps next with an ownership check for the given resource type.
// The type is declared once at route registration; an empty type denies
// every request with authz.missing_resource_type.
func (m *AuthzMiddleware) Guard(resourceType ResourceType, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := r.Header.Get("X-Request-ID")
		if ValidRequestID(requestID) {
			ctx = ContextWithRequestID(ctx, requestID)
		} else {
			ctx, requestID = EnsureRequestID(ctx)
		}
		w.Header().Set("X-Request-ID", requestID)

		req := Request{
			Caller:       CallerFromContext(ctx),
			ResourceType: resourceType,
			ResourceID:   ExtractResourceID(r),
			Endpoint:     r.URL.Path,
			RequestID:    requestID,
		}

		decision, err := m.authorizer.Authorize(ctx, req)
		if err != nil {
			m.logger.Error("authorization failed with internal error",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestID,
				"error", err,
			)
			WriteError(w, ErrInternal())
			return
		}

		if decision.Allowed {
			ctx = ContextWithDecision(ctx, &decision)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		authzErr, _ := decision.Err().(*AuthzError)
		if decision.Reason.MissingContext() {
			m.logger.Debug("request rejected before policy evaluation",
				"method", r.Method,
				"path", r.URL.Path,
				"reason", decision.Reason,
				"code", ErrorCode(decision.Err()),
			)
		}
		WriteError(w, authzErr)
	})
}

// GuardFunc is Guard for plain handler functions.
func (m *AuthzMiddleware) GuardFunc(resourceType ResourceType, next http.HandlerFunc) http.Handler {
	return m.Guard(resourceType, next)
}

// WriteError writes an AuthzError as a JSON response.
func WriteError(w http.ResponseWriter, e *AuthzError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPStatus())
	json.NewEncoder(w).Encode(map[string]string{
		"error":   e.Code,
		"message": e.Message,
	})
}

// IdentityMiddleware attaches a Caller taken from a header set by the
// authenticating proxy in front of this service. It performs no verification;
// deployments must strip the header from untrusted traffic.
func IdentityMiddleware(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = "X-User-ID"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(header))
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := ContextWithCaller(r.Context(), &Caller{ID: id})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
