// Package views renders the HTML pages as templ components.
package views

import (
	"context"
	"embed"
	"fmt"
	"net/url"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/profquiz/internal/i18n"
	"github.com/pavelanni/profquiz/internal/model"
)

// Static holds the stylesheet and the runner script, served under /static/.
//
//go:embed static
var Static embed.FS

type requestURLCtxKey struct{}

// ContextWithRequestURL stores the current request URL for the language switcher.
func ContextWithRequestURL(ctx context.Context, u *url.URL) context.Context {
	return context.WithValue(ctx, requestURLCtxKey{}, u)
}

// link prefixes path with the deployment base path.
func link(ctx context.Context, path string) templ.SafeURL {
	return templ.URL(model.BasePathFromContext(ctx) + path)
}

func asset(ctx context.Context, name string) string {
	return model.BasePathFromContext(ctx) + "/static/" + name
}

// langURL returns the current URL with the lang query parameter set.
func langURL(ctx context.Context, lang string) templ.SafeURL {
	u, ok := ctx.Value(requestURLCtxKey{}).(*url.URL)
	if !ok || u == nil {
		return templ.URL("?lang=" + lang)
	}
	q := u.Query()
	q.Set("lang", lang)
	return templ.URL(u.Path + "?" + q.Encode())
}

func pageTitle(ctx context.Context, title string) string {
	appTitle := appI18n.T(ctx, "AppTitle")
	if title == "" {
		return appTitle
	}
	return title + " · " + appTitle
}

func difficultyLabel(ctx context.Context, d model.Difficulty) string {
	switch d {
	case model.DifficultyEasy:
		return appI18n.T(ctx, "DifficultyEasy")
	case model.DifficultyHard:
		return appI18n.T(ctx, "DifficultyHard")
	default:
		return appI18n.T(ctx, "DifficultyMedium")
	}
}

func timePerQuestion(ctx context.Context, seconds int) string {
	return appI18n.Td(ctx, "TimePerQuestion", map[string]any{"Seconds": seconds})
}

func startURL(ctx context.Context, slug string, count int) templ.SafeURL {
	return link(ctx, fmt.Sprintf("/test/%s/start?count=%d", slug, count))
}
