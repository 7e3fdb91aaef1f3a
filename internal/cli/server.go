package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classquiz-service/internal/app"
	"classquiz-service/internal/config"
	"classquiz-service/internal/domain"
	"classquiz-service/internal/infra/memory"
	pgstore "classquiz-service/internal/infra/postgres"
	redisinfra "classquiz-service/internal/infra/redis"
	transport "classquiz-service/internal/transport/http"
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
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	memStore := memory.NewDocStore()
	var docStore app.AccountStore = memStore
	var quizStore app.QuizStore = memStore
	var profileReader app.ProfileReader = memStore
	var profileWriter app.ProfileWriter = memStore
	var loader memory.QuestionLoader = memStore
	if pool != nil {
		pg := pgstore.NewDocStore(pool)
		docStore, quizStore, profileReader, profileWriter, loader = pg, pg, pg, pg, pg
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionSource
	if redisClient != nil {
		questions = redisinfra.NewQuestionCache(redisClient, loader, quizTTL)
	} else {
		questions = memory.NewQuestionCache(loader, quizTTL)
	}

	var rooms app.RoomRepository
	if redisClient != nil {
		rooms = redisinfra.NewRoomStore(redisClient, redisTTL)
	} else {
		rooms = memory.NewRoomStore()
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = "dev-secret"
		log.Printf("auth secret not configured, using insecure default")
	}
	tokenTTL := config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour)

	accounts := app.NewAccountService(docStore, []byte(secret), tokenTTL)
	authoring := app.NewAuthoringService(quizStore, profileReader)
	attempts := app.NewAttemptService(memory.NewAttemptStore(), questions, profileWriter)
	roomService := app.NewRoomService(rooms)

	if pool == nil {
		seedDemoContent(ctx, accounts, authoring)
	}

	apiHandler := transport.NewAPIHandler(accounts, authoring, attempts)
	wsHandler := transport.NewWSHandler(roomService)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	apiHandler.Register(mux)
	mux.HandleFunc("/live", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting classquiz service on :%s", finalPort)
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

// seedDemoContent fills the in-memory store with a demo teacher and quiz;
// swap in Postgres for real content.
func seedDemoContent(ctx context.Context, accounts *app.AccountService, authoring *app.AuthoringService) {
	if _, err := accounts.Register(ctx, "teacher@example.com", "teacher", "demo-teacher", true); err != nil {
		log.Printf("seed demo teacher: %v", err)
		return
	}
	questions := []domain.Question{
		{
			Text:          "What is 2 + 2?",
			Options:       []string{"3", "4", "5", "6"},
			CorrectAnswer: "4",
			PointsCorrect: 1,
			PointsWrong:   0,
		},
		{
			Text:          "Which planet is closest to the sun?",
			Options:       []string{"Venus", "Earth", "Mercury", "Mars"},
			CorrectAnswer: "Mercury",
			PointsCorrect: 2,
			PointsWrong:   1,
		},
	}
	meta, err := authoring.PublishQuiz(ctx, "teacher@example.com", "Demo Quiz", questions)
	if err != nil {
		log.Printf("seed demo quiz: %v", err)
		return
	}
	log.Printf("seeded demo quiz %s (teacher login teacher@example.com/teacher)", meta.ID)
}
