package middleware

import (
	"context"
	"net/http"

	"github.com/markdave123-py/csrdesk/internal/core/language"
)

// Language resolves the request language from the authenticated user and
// the Accept-Language header. It must run after JWT.
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := language.ResolveRequest(UserFromContext(r.Context()), r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), lang)))
	})
}

func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey, lang)
}

// RequestLanguage returns the resolved request language, en when unset.
func RequestLanguage(ctx context.Context) string {
	if lang, ok := ctx.Value(languageKey).(string); ok && lang != "" {
		return lang
	}
	return language.Default
}
