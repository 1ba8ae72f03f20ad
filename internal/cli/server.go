package cli

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eduquiz-service/internal/app"
	"eduquiz-service/internal/config"
	"eduquiz-service/internal/domain"
	"eduquiz-service/internal/event"
	"eduquiz-service/internal/infra/memory"
	pgstore "eduquiz-service/internal/infra/postgres"
	rediscache "eduquiz-service/internal/infra/redis"
	transport "eduquiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var (
		catalog app.QuizCatalog
		loader  memory.QuizLoader
		ledger  app.SubmissionLedger
		roster  app.Roster
	)
	if pool != nil {
		store := pgstore.NewQuizStore(pool)
		catalog, loader = store, store
		ledger = pgstore.NewSubmissionLedger(pool)
		roster = pgstore.NewRoster(pool)
	} else {
		// Demo mode: everything in memory, seeded with a sample quiz and roster.
		store := memory.NewQuizStore(sampleQuizzes())
		catalog, loader = store, store
		ledger = memory.NewSubmissionLedger()
		roster = memory.NewRoster(sampleStudents()...)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	feed := app.NewResultsFeed()
	opts := []app.Option{app.WithResultsFeed(feed)}
	if cfg.Scoring.TrustClientScore {
		opts = append(opts, app.WithTrustedClientScore())
	}
	if cfg.AMQP.URL != "" {
		publisher, err := event.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		defer publisher.Close()
		opts = append(opts, app.WithEventPublisher(publisher))
	}
	service := app.NewQuizService(catalog, quizRepo, ledger, roster, opts...)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      transport.NewRouter(service, feed, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting eduquiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuizzes seeds demo mode; production loads quizzes from Postgres.
func sampleQuizzes() map[string]domain.RawQuiz {
	return map[string]domain.RawQuiz{
		"quiz-1": {
			Title:       "General knowledge warm-up",
			Description: "A two-question sample quiz",
			IsPublished: true,
			QuizData: domain.QuizData{Questions: []domain.RawQuestion{
				{
					Text:               "What is 2 + 2?",
					Options:            []string{"3", "4", "5"},
					CorrectAnswerIndex: json.RawMessage(`1`),
				},
				{
					Text:          "Which planet is known as the red planet?",
					Answers:       []string{"Venus", "Mars", "Jupiter"},
					CorrectAnswer: json.RawMessage(`"1"`),
				},
			}},
		},
	}
}

func sampleStudents() []domain.Student {
	return []domain.Student{
		{ID: "stu-1", Email: "alice@example.com", FullName: "Alice"},
		{ID: "stu-2", Email: "bob@example.com", FullName: "Bob"},
	}
}
