package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pavelanni/profquiz/internal/handler/views"
	appI18n "github.com/pavelanni/profquiz/internal/i18n"
	"github.com/pavelanni/profquiz/internal/model"
	"github.com/pavelanni/profquiz/internal/quiz"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	quiz   *quiz.Service
	config model.QuizConfig
}

// New creates a new Handler.
func New(q *quiz.Service, cfg model.QuizConfig) *Handler {
	if cfg.DefaultLang == "" {
		cfg.DefaultLang = "en"
	}
	if cfg.TimePerQuestion <= 0 {
		cfg.TimePerQuestion = 60
	}
	if len(cfg.CountOptions) == 0 {
		cfg.CountOptions = []int{10, 20, 30}
	}
	return &Handler{quiz: q, config: cfg}
}

// Router builds the full HTTP handler: request logging, panic recovery,
// language resolution and every route, mounted under the base path.
func (h *Handler) Router() http.Handler {
	basePath := h.config.BasePath

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(h.config.DefaultLang, basePath+"/"))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}
	return r
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleHome)
	r.Get("/test/{slug}", h.handleSetup)
	r.Get("/test/{slug}/start", h.handleRunner)
	r.Get("/results/{sessionID}", h.handleResultsPage)
	r.Handle("/static/*", http.StripPrefix(h.config.BasePath, http.FileServer(http.FS(views.Static))))

	r.Route("/api", func(r chi.Router) {
		r.Get("/professions", h.handleListProfessions)
		r.Post("/test/start", h.handleStartTest)
		r.Post("/test/answer", h.handleAnswer)
		r.Get("/test/results/{sessionID}", h.handleResults)
	})

	r.NotFound(h.handleNotFound)
}

// BasePathMiddleware stores the base path and the request URL in the
// request context for link generation.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		ctx = views.ContextWithRequestURL(ctx, r.URL)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func renderPage(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// pageError renders the not-found page for missing entities and a plain 500
// for everything else.
func (h *Handler) pageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, quiz.ErrNotFound) || errors.Is(err, quiz.ErrBadRequest) {
		h.handleNotFound(w, r)
		return
	}
	slog.Error("request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func (h *Handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	renderPage(w, r, http.StatusNotFound, views.NotFoundPage())
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	professions, err := h.quiz.ListProfessions(r.Context())
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	stats, err := h.quiz.Stats(r.Context())
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	renderPage(w, r, http.StatusOK, views.HomePage(professions, stats.Questions))
}

func (h *Handler) handleSetup(w http.ResponseWriter, r *http.Request) {
	prof, err := h.quiz.GetProfession(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	counts := countChoices(h.config.CountOptions, prof.QuestionsCount)
	renderPage(w, r, http.StatusOK, views.SetupPage(prof, counts, h.config.TimePerQuestion))
}

func (h *Handler) handleRunner(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	prof, err := h.quiz.GetProfession(r.Context(), slug)
	if err != nil {
		h.pageError(w, r, err)
		return
	}

	count, err := strconv.Atoi(r.URL.Query().Get("count"))
	if err != nil || count <= 0 {
		http.Redirect(w, r, h.config.BasePath+"/test/"+slug, http.StatusSeeOther)
		return
	}
	renderPage(w, r, http.StatusOK, views.RunnerPage(prof, count, h.config.TimePerQuestion))
}

func (h *Handler) handleResultsPage(w http.ResponseWriter, r *http.Request) {
	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		h.handleNotFound(w, r)
		return
	}
	res, err := h.quiz.GetResults(r.Context(), sessionID)
	if err != nil {
		h.pageError(w, r, err)
		return
	}
	renderPage(w, r, http.StatusOK, views.ResultsPage(res))
}

// countChoices returns the configured question counts that fit in the pool,
// ascending. When the pool is smaller than every option, the whole pool is
// offered instead.
func countChoices(options []int, available int) []int {
	var counts []int
	for _, n := range options {
		if n > 0 && n <= available {
			counts = append(counts, n)
		}
	}
	if len(counts) == 0 && available > 0 {
		counts = append(counts, available)
	}
	sort.Ints(counts)
	return counts
}
