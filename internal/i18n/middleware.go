package i18n

import (
	"net/http"
	"time"
)

// CookieName holds the language chosen with the switcher.
const CookieName = "lang"

// Resolve picks the language for a request: the lang query parameter, then
// the lang cookie, then Accept-Language, then defaultLang. fromQuery reports
// whether the query parameter decided it.
func Resolve(r *http.Request, defaultLang string) (lang string, fromQuery bool) {
	if q := r.URL.Query().Get("lang"); IsSupported(q) {
		return q, true
	}
	if c, err := r.Cookie(CookieName); err == nil && IsSupported(c.Value) {
		return c.Value, false
	}
	if m, ok := Match(r.Header.Get("Accept-Language")); ok {
		return m, false
	}
	return defaultLang, false
}

// Middleware resolves the request language and injects it with a matching
// localizer into the request context. An explicit ?lang= is remembered in a
// cookie scoped to cookiePath.
func Middleware(defaultLang, cookiePath string) func(http.Handler) http.Handler {
	if cookiePath == "" {
		cookiePath = "/"
	}
	localizers := make(map[string]*Localizer)
	for _, t := range Supported {
		localizers[t.String()] = NewLocalizer(t.String())
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang, fromQuery := Resolve(r, defaultLang)
			if fromQuery {
				http.SetCookie(w, &http.Cookie{
					Name:     CookieName,
					Value:    lang,
					Path:     cookiePath,
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					SameSite: http.SameSiteLaxMode,
				})
			}
			loc, ok := localizers[lang]
			if !ok {
				loc = NewLocalizer(lang)
			}
			ctx := WithLang(WithLocalizer(r.Context(), loc), lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
