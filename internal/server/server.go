package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/userdesk/apiserver/config"
	"github.com/userdesk/apiserver/internal/db"
	"github.com/userdesk/apiserver/internal/handlers"
	"github.com/userdesk/apiserver/internal/mq"
	"github.com/userdesk/apiserver/internal/services"
	"github.com/userdesk/apiserver/internal/storage"
	"github.com/userdesk/apiserver/internal/store"
)

// Server wraps the HTTP server and its owned resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  *mq.Publisher
}

// New constructs a Server with all dependencies wired explicitly: database,
// repositories, the configured profile backend, and an optional event
// publisher. Lifecycle of every resource is owned here, not by package
// globals.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)

	profileRepo, err := newProfileRepository(ctx, cfg, dbConn)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userService := services.NewUserService(userRepo, profileRepo, services.UserServiceOptions{
		UniquePhone: cfg.Registration.UniquePhone,
		Publisher:   eventPublisher(publisher),
		Topic:       cfg.MQ.Topic,
		Logger:      slog.Default(),
	})

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	handlers.UserRouter(router, userService)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown and releases owned resources.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

// newProfileRepository selects the profile backend. The linked-relational
// backend shares the identity database; the document backend stores profile
// documents in object storage.
func newProfileRepository(ctx context.Context, cfg config.Config, dbConn *sql.DB) (services.ProfileRepository, error) {
	switch cfg.ProfileBackend {
	case config.ProfileBackendPostgres:
		return store.NewProfileRepository(dbConn), nil
	case config.ProfileBackendDocument:
		backend, err := newObjectStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, err
		}
		objectStore := storage.NewStorage(backend)
		if err := objectStore.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store.NewDocumentProfileRepository(objectStore), nil
	default:
		return nil, fmt.Errorf("unknown profile backend %q", cfg.ProfileBackend)
	}
}

func newObjectStorage(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStorage, error) {
	switch cfg.Backend {
	case config.StorageBackendMinio:
		return storage.NewMinioClient(cfg.Minio)
	case config.StorageBackendGCS:
		return storage.NewGCSClient(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newPublisher builds the optional registration-event publisher. Returns nil
// when no broker is configured.
func newPublisher(ctx context.Context, cfg config.Config) (*mq.Publisher, error) {
	switch cfg.MQ.Backend {
	case config.MQBackendNone:
		return nil, nil
	case config.MQBackendRabbitMQ:
		client, err := mq.NewRabbitMQClient(cfg.MQ.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.NewPublisher(client), nil
	case config.MQBackendPubSub:
		client, err := mq.NewPubSubClient(ctx, cfg.MQ.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.NewPublisher(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
}

// eventPublisher converts a possibly-nil *mq.Publisher into the service
// interface without producing a non-nil interface holding a nil pointer.
func eventPublisher(p *mq.Publisher) services.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}
