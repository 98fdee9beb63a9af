package router

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-identity-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/group"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/permission"
	"github.com/ovaphlow/pitchfork/service-identity-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-identity-go/pkg/utilities"
)

// Permission codes required by the routes below.
const (
	ListUsers        = "LIST_USERS"
	ViewUser         = "VIEW_USER"
	AddUser          = "ADD_USER"
	UpdateUser       = "UPDATE_USER"
	ListGroups       = "LIST_GROUPS"
	AddGroup         = "ADD_GROUP"
	UpdateGroup      = "UPDATE_GROUP"
	DeleteGroup      = "DELETE_GROUP"
	ListPermissions  = "LIST_PERMISSIONS"
	AddPermission    = "ADD_PERMISSION"
	DeletePermission = "DELETE_PERMISSION"
)

const requestIDHeader = "X-Request-ID"

type ctxKey struct{}

// RequestID returns the id assigned to the request by RequestIDMiddleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// loggingResponseWriter wraps http.ResponseWriter to capture status and size.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}
	n, err := lrw.ResponseWriter.Write(b)
	lrw.size += n
	return n, err
}

// RequestIDMiddleware keeps an inbound X-Request-ID or assigns a new KSUID,
// echoes it on the response and stores it in the request context.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = utilities.NewKSUID()
			}
			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
		})
	}
}

// LoggingMiddleware logs requests at debug level.
func LoggingMiddleware(logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lrw := &loggingResponseWriter{ResponseWriter: w}
			next.ServeHTTP(lrw, r)
			dur := time.Since(start)
			status := lrw.status
			if status == 0 {
				status = http.StatusOK
			}
			logger.Debugw("http request",
				"request_id", RequestID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"duration_ms", float64(dur.Microseconds())/1000.0,
				"size", lrw.size,
			)
		})
	}
}

// SecurityHeadersMiddleware sets common HTTP security headers. The API only
// serves JSON so the CSP is locked down completely.
func SecurityHeadersMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			w.Header().Set("Cache-Control", "no-store")
			if w.Header().Get("Content-Security-Policy") == "" {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
			}
			if r.TLS != nil {
				w.Header().Set("Strict-Transport-Security", "max-age=2592000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string
}

// CORSConfigFromEnv reads CORS_ALLOWED_ORIGINS, a comma separated list.
// Unset means any origin.
func CORSConfigFromEnv() CORSConfig {
	raw := os.Getenv("CORS_ALLOWED_ORIGINS")
	if strings.TrimSpace(raw) == "" {
		return CORSConfig{AllowedOrigins: []string{"*"}}
	}
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return CORSConfig{AllowedOrigins: origins}
}

func corsMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
		MaxAge:         300,
	})
}

// Deps are the handlers and gate the routes are mounted on.
type Deps struct {
	Logger      *zap.SugaredLogger
	Gate        *auth.Gate
	Auth        *auth.Handler
	Users       *user.Handler
	Groups      *group.Handler
	Permissions *permission.Handler
	CORS        CORSConfig
}

// RegisterRoutes mounts every endpoint on a stdlib http.ServeMux and wraps it
// with request id, access log, CORS and security headers.
func RegisterRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()
	g := d.Gate
	need := func(codes ...string) []string { return codes }

	mux.HandleFunc("GET /users-service/health", auth.Health)

	// auth
	mux.HandleFunc("POST /auth/login", d.Auth.Login)
	mux.Handle("GET /auth/logout", g.Authenticate(d.Auth.Logout))
	mux.Handle("GET /auth/status", g.Authenticate(d.Auth.Status))
	mux.HandleFunc("POST /auth/recover-password", d.Auth.RecoverPassword)
	mux.HandleFunc("POST /auth/change-password", d.Auth.ChangePassword)

	// users
	mux.Handle("GET /users", g.Authorize(need(ListUsers), d.Users.List))
	mux.Handle("GET /users/admins", g.Authorize(need(ListUsers), d.Users.ListAdmins))
	mux.Handle("GET /users/byIds/{ids}", g.Authenticate(d.Users.ByIDs))
	mux.Handle("GET /users/{id}", g.Authorize(need(ViewUser), d.Users.Get))
	mux.Handle("POST /users", g.Authorize(need(AddUser), d.Users.Create))
	mux.Handle("PUT /users/{id}", g.Authorize(need(UpdateUser), d.Users.Update))
	mux.Handle("PUT /users/{id}/activate", g.Authorize(need(UpdateUser), d.Users.Activate))
	mux.Handle("PUT /users/{id}/deactivate", g.Authorize(need(UpdateUser), d.Users.Deactivate))

	// groups
	mux.Handle("GET /auth/groups", g.Authorize(need(ListGroups), d.Groups.List))
	mux.Handle("POST /auth/groups", g.Authorize(need(AddGroup), d.Groups.Create))
	mux.Handle("PUT /auth/groups/{id}", g.Authorize(need(UpdateGroup), d.Groups.Update))
	mux.Handle("DELETE /auth/groups/{id}", g.Authorize(need(DeleteGroup), d.Groups.Delete))
	mux.Handle("GET /auth/groups/{id}/users", g.Authorize(need(ListGroups), d.Groups.Users))
	mux.Handle("POST /auth/groups/{id}/users", g.Authorize(need(UpdateGroup), d.Groups.AddUser))
	mux.Handle("DELETE /auth/groups/{id}/users/{user_id}", g.Authorize(need(UpdateGroup), d.Groups.RemoveUser))
	mux.Handle("GET /auth/groups/{id}/permissions", g.Authorize(need(ListGroups), d.Groups.Permissions))
	mux.Handle("POST /auth/groups/{id}/permissions", g.Authorize(need(UpdateGroup), d.Groups.AddPermission))
	mux.Handle("DELETE /auth/groups/{id}/permissions/{code}", g.Authorize(need(UpdateGroup), d.Groups.RemovePermission))

	// permissions
	mux.Handle("GET /auth/permissions", g.Authorize(need(ListPermissions), d.Permissions.List))
	mux.Handle("POST /auth/permissions", g.Authorize(need(AddPermission), d.Permissions.Create))
	mux.Handle("DELETE /auth/permissions/{id}", g.Authorize(need(DeletePermission), d.Permissions.Delete))

	var h http.Handler = mux
	h = SecurityHeadersMiddleware()(h)
	h = corsMiddleware(d.CORS)(h)
	h = LoggingMiddleware(d.Logger)(h)
	h = RequestIDMiddleware()(h)
	return h
}
