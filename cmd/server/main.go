package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/iliyamo/pet-buddy/internal/chat"
	"github.com/iliyamo/pet-buddy/internal/config"
	"github.com/iliyamo/pet-buddy/internal/database"
	"github.com/iliyamo/pet-buddy/internal/handler"
	"github.com/iliyamo/pet-buddy/internal/logger"
	"github.com/iliyamo/pet-buddy/internal/middleware"
	"github.com/iliyamo/pet-buddy/internal/queue"
	"github.com/iliyamo/pet-buddy/internal/repository"
	"github.com/iliyamo/pet-buddy/internal/router"
	"github.com/iliyamo/pet-buddy/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		l := logger.New(logger.Options{})
		l.Fatal().Err(err).Msg("config")
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	dialect, err := database.ParseDialect(cfg.DB.Driver)
	if err != nil {
		log.Fatal().Err(err).Msg("database driver")
	}
	db, err := database.Open(database.Options{
		Dialect:         dialect,
		DSN:             cfg.DB.DSN,
		User:            cfg.DB.User,
		Pass:            cfg.DB.Pass,
		Host:            cfg.DB.Host,
		Port:            cfg.DB.Port,
		Name:            cfg.DB.Name,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("database connect")
	}
	defer db.Close()

	users := repository.NewUserRepo(db, dialect)
	sitters := repository.NewSitterRepo(db, dialect)
	dogs := repository.NewDogRepo(db, dialect)
	postings := repository.NewPostingRepo(db, dialect)
	bookings := repository.NewBookingRepo(db, dialect)

	var publisher service.EventPublisher
	if cfg.RabbitMQ.Enabled {
		publisher = queue.NewPublisher(cfg.RabbitMQ.URL)
	}
	if cfg.Booking.ConsumerEnabled {
		consumer := queue.NewConsumer(cfg.RabbitMQ.URL, cfg.Booking.LogDir, log)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("booking consumer stopped")
			}
		}()
	}

	var chatStore chat.Store
	if cfg.Mongo.URI != "" {
		client, mdb, err := chat.Connect(ctx, chat.MongoConfig{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			log.Warn().Err(err).Msg("mongodb unavailable, chat disabled")
		} else {
			defer disconnect(client, log)
			chatStore = chat.NewMongoStore(mdb)
		}
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn().Msg("redis unavailable, cache and rate limit disabled")
	} else {
		defer rdb.Close()
	}

	authSvc := service.NewAuthService(users, sitters, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL(), cfg.Auth.BcryptCost, log)
	bookingSvc := service.NewBookingService(db, bookings, postings, publisher, cfg.Booking.StrictPostingClose, log)

	e := router.New(log)
	router.RegisterRoutes(e, db)
	limiter := middleware.NewTokenBucket(cfg.RateLimit, rdb, log)
	router.RegisterAuth(e, handler.NewAuthHandler(authSvc), cfg.Auth.JWTSecret, limiter)
	router.RegisterAPI(e, router.Handlers{
		Bookings: handler.NewBookingHandler(bookingSvc, bookings),
		Postings: handler.NewPostingHandler(postings),
		Dogs:     handler.NewDogHandler(dogs),
		Sitters:  handler.NewSitterHandler(sitters),
		Chat:     handler.NewChatHandler(chatStore),
	}, router.Options{
		JWTSecret:    cfg.Auth.JWTSecret,
		AuthRequired: cfg.Auth.Required,
		Cache:        middleware.NewRedisCache(cfg.Cache, rdb, log),
		RateLimit:    limiter,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info().Str("addr", addr).Str("env", cfg.Env).Str("driver", cfg.DB.Driver).
			Bool("strict_posting_close", cfg.Booking.StrictPostingClose).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	bookingSvc.Wait()
	log.Info().Msg("stopped")
}

func disconnect(client *mongo.Client, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Warn().Err(err).Msg("mongodb disconnect")
	}
}
