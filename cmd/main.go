package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"gitlab.com/judgecore-2025.net/internal/adapter/localfs"
	"gitlab.com/judgecore-2025.net/internal/adapter/postgres/questionrepository"
	"gitlab.com/judgecore-2025.net/internal/adapter/postgres/submissionrepository"
	"gitlab.com/judgecore-2025.net/internal/adapter/redis/testdatacache"
	"gitlab.com/judgecore-2025.net/internal/config"
	"gitlab.com/judgecore-2025.net/internal/core/services/judge"
	logger2 "gitlab.com/judgecore-2025.net/internal/global/logger"
	"gitlab.com/judgecore-2025.net/internal/handlers"
	http2 "gitlab.com/judgecore-2025.net/internal/http"
	"gitlab.com/judgecore-2025.net/internal/languages"
	"gitlab.com/judgecore-2025.net/internal/sandbox"
	"gitlab.com/judgecore-2025.net/internal/schedulerengine"
)

func main() {
	InitReader()
	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	logger2.Info("Starting judge engine service")

	logger := logger2.Logger

	sysCfg := config.NewSystemConfig()

	db, err := setupDatabase(sysCfg)
	if err != nil {
		panic(err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password,
		DB:       sysCfg.RedisConfig.DB,
	})

	langs, err := languages.Load(sysCfg.EngineCfg.LanguagesFile)
	if err != nil {
		panic(err)
	}

	// SECONDARY PORTS
	questionRepo := questionrepository.NewQuestionRepository(db, logger)
	submissionRepo := submissionrepository.NewSubmissionRepository(db, logger)
	testData := testdatacache.NewCache(
		redisClient,
		localfs.NewStore(sysCfg.EngineCfg.TestDataRoot),
		sysCfg.EngineCfg.TestDataCacheTTL,
		logger,
	)
	compiler := sandbox.NewCompiler(sysCfg.EngineCfg, langs, logger)
	runner := sandbox.NewRunner(sysCfg.EngineCfg, logger)

	// engine + services
	scheduler := schedulerengine.NewEngine(sysCfg.EngineCfg, logger)
	scheduler.Start()
	judgeSvc := judge.NewJudgeService(
		sysCfg.EngineCfg,
		questionRepo,
		testData,
		compiler,
		runner,
		submissionRepo,
		scheduler,
		logger,
	)

	// server
	serviceProvider := http2.NewServiceProvider(judgeSvc)
	mw := handlers.NewWithSecret(sysCfg.JwtConfig.Secret)
	httpServer := http2.NewServer(8082, "judgeEngine", *serviceProvider, mw, logger)
	if err := httpServer.Init(); err != nil {
		panic(err)
	}
	ctxBg := context.Background()
	httpServer.Start(ctxBg)

	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(ctxBg, 5*time.Second)
	defer cancel()
	httpServer.Stop(ctx)
	scheduler.Shutdown()
	redisClient.Close()
	db.Close()

	logger.Info("successfully shutdown server")
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(cfg *config.AppConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.PostgresConfig.Url)
	if err != nil {
		return nil, err
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func InitReader() {
	environment := ""
	if len(os.Args) < 2 {
		log.Fatalf("Env not supplied in argument")
	} else {
		environment = os.Args[1]
	}

	err := godotenv.Load(environment + ".env")
	if err != nil {
		log.Fatalf("Error loading %s.env file", environment)
	}
}
