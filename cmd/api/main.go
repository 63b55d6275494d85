package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"todo-api/internal/config"
	"todo-api/internal/db"
	apihttp "todo-api/internal/http"
	"todo-api/internal/repository"
	"todo-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type store struct {
	users  repository.UserRepository
	todos  repository.TodoRepository
	ping   apihttp.Pinger
	closer func(ctx context.Context) error
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store init", zap.Error(err))
	}

	checks := map[string]apihttp.Pinger{"store": st.ping}

	var (
		limiter     service.LoginLimiter
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		}
		cancel()
		limiter = service.NewRedisLoginLimiter(redisClient, cfg.LoginRateWindow, cfg.LoginRateMax)
		checks["redis"] = apihttp.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	} else {
		limiter = service.NewMemoryLoginLimiter(cfg.LoginRateWindow, cfg.LoginRateMax)
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, cfg.TokenTTL)
	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	userSvc := service.NewUserService(logger, st.users, jwtSvc, hasher, limiter, cfg.PasswordMinLength)
	todoSvc := service.NewTodoService(logger, st.todos)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := apihttp.NewRouter(
		logger,
		apihttp.AuthMiddleware(logger, userSvc),
		apihttp.NewUserHandler(logger, userSvc),
		apihttp.NewTodoHandler(logger, todoSvc),
		apihttp.NewHealthHandler(logger, checks),
	)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("starting server",
			zap.String("port", cfg.HTTPPort),
			zap.String("env", cfg.AppEnv),
			zap.String("store", cfg.StoreDriver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		logger.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	server.SetKeepAlivesEnabled(false)
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("http shutdown error", zap.Error(err))
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("redis close error", zap.Error(err))
		}
	}
	if st.closer != nil {
		if err := st.closer(ctxShutdown); err != nil {
			logger.Error("store close error", zap.Error(err))
		}
	}
	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.IsProduction() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	return logger
}

// openStore elige el backend segun STORE_DRIVER. Si la base no responde al
// arrancar solo se registra; el servidor sigue levantando.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (store, error) {
	ctxInit, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := db.NewPool(ctxInit, cfg)
		if err != nil {
			return store{}, err
		}
		if err := db.Ping(ctxInit, pool); err != nil {
			logger.Warn("postgres unreachable, starting degraded", zap.Error(err))
		} else if err := db.Migrate(ctxInit, pool); err != nil {
			logger.Warn("postgres migrations failed", zap.Error(err))
		}
		return store{
			users: repository.NewPgUserRepository(pool),
			todos: repository.NewPgTodoRepository(pool),
			ping:  apihttp.PingFunc(func(ctx context.Context) error { return db.Ping(ctx, pool) }),
			closer: func(context.Context) error {
				pool.Close()
				return nil
			},
		}, nil

	case config.StoreMemory:
		users := repository.NewMemoryUserRepository()
		return store{
			users: users,
			todos: repository.NewMemoryTodoRepository(),
			ping:  users,
		}, nil

	default:
		m, err := db.NewMongo(cfg)
		if err != nil {
			return store{}, err
		}
		users := repository.NewMongoUserRepository(m.Database)
		todos := repository.NewMongoTodoRepository(m.Database)
		if err := m.Ping(ctxInit); err != nil {
			logger.Warn("mongo unreachable, starting degraded", zap.Error(err))
		} else {
			if err := users.EnsureIndexes(ctxInit); err != nil {
				logger.Warn("user indexes", zap.Error(err))
			}
			if err := todos.EnsureIndexes(ctxInit); err != nil {
				logger.Warn("todo indexes", zap.Error(err))
			}
		}
		logger.Info("mongo configured", zap.String("database", m.Database.Name()))
		return store{
			users:  users,
			todos:  todos,
			ping:   m,
			closer: m.Close,
		}, nil
	}
}
