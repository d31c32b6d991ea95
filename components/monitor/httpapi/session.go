package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/plantwatch/go-plantwatch/components/monitor"
	"github.com/plantwatch/go-plantwatch/pkg/log"
)

const (
	SessionHeader = "X-Plantwatch-Session"
	SessionCookie = "plantwatch_session"
	SessionQuery  = "session"
)

type viewerKey struct{}

// ResolveSession reads the session id from the header, the cookie, then the
// query string. It reports false when none carried an id.
func ResolveSession(r *http.Request) (string, bool) {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id, true
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, true
	}
	if id := strings.TrimSpace(r.URL.Query().Get(SessionQuery)); id != "" {
		return id, true
	}
	return "", false
}

// InferLocale picks the locale from the query string or Accept-Language.
func InferLocale(r *http.Request) string {
	if locale := strings.TrimSpace(r.URL.Query().Get("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	return ParseAcceptLanguage(r.Header.Get("Accept-Language"))
}

// ParseAcceptLanguage returns the first language tag of an Accept-Language header.
func ParseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" && token != "*" {
			return strings.ToLower(token)
		}
	}
	return ""
}

// WithSession resolves the viewer for every request, minting a session
// cookie when the client has none, and attaches a session-scoped logger.
func WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := ResolveSession(r)
		if !ok {
			id = monitor.NewSessionID()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(SessionHeader, id)
		viewer := monitor.ViewerContext{SessionID: id, Locale: InferLocale(r)}
		ctx := context.WithValue(r.Context(), viewerKey{}, viewer)
		ctx = log.With(ctx, log.Ctx(ctx).With("session_id", id))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ViewerFrom returns the viewer resolved by WithSession.
func ViewerFrom(ctx context.Context) monitor.ViewerContext {
	viewer, _ := ctx.Value(viewerKey{}).(monitor.ViewerContext)
	return viewer
}
