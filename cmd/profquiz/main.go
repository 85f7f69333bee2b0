package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/profquiz/internal/handler"
	appI18n "github.com/pavelanni/profquiz/internal/i18n"
	"github.com/pavelanni/profquiz/internal/llm"
	"github.com/pavelanni/profquiz/internal/llm/prompts"
	"github.com/pavelanni/profquiz/internal/model"
	"github.com/pavelanni/profquiz/internal/quiz"
	"github.com/pavelanni/profquiz/internal/store"
)

//go:generate templ generate -path ../../internal/handler/views

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "profquiz",
		Short: "Bilingual professional skills quiz",
	}

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), seedCmd(), generateCmd(),
		cleanCmd(), rebuildCmd(), dedupCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `profquiz --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

// addCommonFlags registers the flags every command shares.
func addCommonFlags(f *pflag.FlagSet) {
	f.String("db", "profquiz.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP quiz server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	addCommonFlags(f)
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.StringSliceP("seed", "s", []string{"data/professions.json"}, "Seed JSON files imported at startup (repeatable)")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /quiz)")
	f.Int("time-per-question", 60, "Seconds allowed per question in the browser")
	f.IntSlice("count-options", []int{10, 20, 30}, "Question counts offered on the setup page")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd)
			db, err := openStore(viperForCmd(cmd))
			if err != nil {
				return err
			}
			defer db.Close()
			slog.Info("database is up to date")
			return nil
		},
	}
	addCommonFlags(cmd.Flags())
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import professions and questions from JSON files",
		RunE:  runSeed,
	}
	f := cmd.Flags()
	addCommonFlags(f)
	f.StringSliceP("file", "f", nil, "Seed JSON file (repeatable)")
	f.Bool("force", false, "Import files that changed since their last import")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Author new questions for a profession with an LLM",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	addCommonFlags(f)
	f.StringP("profession", "p", "", "Profession slug (required)")
	f.IntP("count", "n", 10, "Number of questions to generate")
	f.String("provider", "openai", "LLM provider (openai, gemini)")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for the OpenAI-compatible endpoint")
	f.String("llm-model", "llama3.2", "OpenAI-compatible model name")
	f.String("gemini-key", "", "Gemini API key (or set PROFQUIZ_GEMINI_KEY)")
	f.String("gemini-model", "gemini-1.5-flash", "Gemini model name")
	f.String("prompt-variant", string(prompts.PromptMixed), "Difficulty to ask for (mixed, easy, medium, hard)")
	f.Duration("delay", time.Second, "Pause between LLM calls")
	_ = cmd.MarkFlagRequired("profession")
	return cmd
}

func cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Delete all answers, sessions and questions",
		RunE: maintenanceRunner("clean", func(ctx context.Context, db *store.Store) (store.MaintenanceReport, error) {
			return db.WipeQuestions(ctx)
		}),
	}
	addCommonFlags(cmd.Flags())
	return cmd
}

func rebuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild-questions",
		Short: "Recreate the questions table with its constraints, keeping every row",
		RunE: maintenanceRunner("rebuild-questions", func(ctx context.Context, db *store.Store) (store.MaintenanceReport, error) {
			return db.RebuildQuestions(ctx)
		}),
	}
	addCommonFlags(cmd.Flags())
	return cmd
}

func dedupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Collapse duplicate questions into the oldest copy",
		RunE: maintenanceRunner("dedup", func(ctx context.Context, db *store.Store) (store.MaintenanceReport, error) {
			return db.DeduplicateQuestions(ctx)
		}),
	}
	addCommonFlags(cmd.Flags())
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PROFQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("profquiz")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/profquiz")
	v.AddConfigPath("/etc/profquiz")
	v.AddConfigPath("/data")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// openStore opens the database and brings its schema up to date.
func openStore(v *viper.Viper) (*store.Store, error) {
	db, err := store.New(v.GetString("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// normalizeBasePath returns p with a leading slash and no trailing one.
func normalizeBasePath(p string) string {
	p = strings.TrimRight(strings.TrimSpace(p), "/")
	if p != "" && !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func importSeeds(ctx context.Context, svc *quiz.Service, paths []string, force bool) error {
	for _, path := range paths {
		if _, err := svc.ImportFile(ctx, path, force); err != nil {
			return err
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := quiz.NewService(db)
	if err := importSeeds(cmd.Context(), svc, v.GetStringSlice("seed"), false); err != nil {
		return fmt.Errorf("load seed data: %w", err)
	}

	lang := v.GetString("lang")
	if !appI18n.IsSupported(lang) {
		slog.Warn("unsupported lang, using en", "lang", lang)
		lang = "en"
	}
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	cfg := model.QuizConfig{
		BasePath:        normalizeBasePath(v.GetString("base-path")),
		DefaultLang:     lang,
		TimePerQuestion: v.GetInt("time-per-question"),
		CountOptions:    v.GetIntSlice("count-options"),
	}
	h := handler.New(svc, cfg)

	stats, err := svc.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"base_path", cfg.BasePath,
		"time_per_question", cfg.TimePerQuestion,
		"count_options", cfg.CountOptions,
		"professions", stats.Professions,
		"questions", stats.Questions,
	)
	return http.ListenAndServe(addr, h.Router())
}

func runSeed(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	return importSeeds(cmd.Context(), quiz.NewService(db), v.GetStringSlice("file"), v.GetBool("force"))
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	variant := strings.ToLower(strings.TrimSpace(v.GetString("prompt-variant")))
	if !prompts.IsValidVariant(variant) {
		slog.Warn("invalid prompt-variant, using mixed", "variant", variant)
		variant = string(prompts.PromptMixed)
	}
	if err := prompts.Load(prompts.Templates); err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}

	var completer llm.Completer
	switch provider := strings.ToLower(v.GetString("provider")); provider {
	case "openai":
		completer = llm.New(v.GetString("llm-url"), v.GetString("llm-key"), v.GetString("llm-model"))
		slog.Info("using OpenAI-compatible endpoint", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))
	case "gemini":
		g, err := llm.NewGemini(ctx, v.GetString("gemini-key"), v.GetString("gemini-model"))
		if err != nil {
			return err
		}
		defer g.Close()
		completer = g
		slog.Info("using Gemini", "model", v.GetString("gemini-model"))
	default:
		return fmt.Errorf("unknown provider %q (want openai or gemini)", provider)
	}

	db, err := openStore(v)
	if err != nil {
		return err
	}
	defer db.Close()

	rep, err := quiz.NewService(db).GenerateQuestions(ctx,
		llm.NewAuthor(completer, prompts.PromptVariant(variant)),
		v.GetString("profession"), v.GetInt("count"), v.GetDuration("delay"))
	if err != nil {
		return fmt.Errorf("generate questions: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "generated %d of %d questions (%d failed)\n", rep.Inserted, rep.Requested, rep.Failed)
	return nil
}

// maintenanceRunner wraps a store maintenance operation as a command that
// reports row counts before and after.
func maintenanceRunner(name string, op func(context.Context, *store.Store) (store.MaintenanceReport, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		setupLogging(cmd)
		db, err := openStore(viperForCmd(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		rep, err := op(cmd.Context(), db)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		printReport(cmd, rep)
		return nil
	}
}

func printReport(cmd *cobra.Command, rep store.MaintenanceReport) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "questions: %d -> %d\n", rep.QuestionsBefore, rep.QuestionsAfter)
	fmt.Fprintf(w, "sessions:  %d -> %d\n", rep.SessionsBefore, rep.SessionsAfter)
	fmt.Fprintf(w, "answers:   %d -> %d\n", rep.AnswersBefore, rep.AnswersAfter)
	if rep.AnswersRepointed > 0 || rep.AnswersDeleted > 0 {
		fmt.Fprintf(w, "answers repointed: %d, merged: %d, deleted: %d\n", rep.AnswersRepointed, rep.AnswersMerged, rep.AnswersDeleted)
	}
}
