package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"deepmine/backend"
	"deepmine/config"
	"deepmine/handlers"
	"deepmine/messages"
	"deepmine/persistence"
	"deepmine/services"
	"deepmine/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin during development
		// In production, restrict this to your client's domain
		return true
	},
}

func openStore(cfg *config.Config) (persistence.Storage, error) {
	switch cfg.DBType {
	case config.StorePostgres:
		log.Println("Using PostgreSQL persistence")
		return persistence.NewPostgresStore(cfg.DatabaseURL)
	case config.StoreRemote:
		log.Printf("Using remote backend at %s", cfg.BackendURL)
		return backend.NewClient(cfg.BackendURL, nil), nil
	default:
		log.Println("Using JSON persistence")
		return persistence.NewJSONStore(cfg.DBFile)
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdown, err := telemetry.Setup(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize telemetry: %v", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(flushCtx); err != nil {
				log.Printf("Error flushing traces: %v", err)
			}
		}()
		log.Println("Tracing enabled")
	}

	// Initialize database
	db, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}
	defer db.Close()

	log.Println("Persistence initialized successfully")

	// Initialize services
	generator := services.NewTemplateGenerator(services.DefaultPoolSize, rand.New(rand.NewSource(time.Now().UnixNano())))
	if cfg.SeedTemplates > 0 && cfg.DBType != config.StoreRemote {
		written, err := generator.SeedStore(ctx, db, cfg.SeedTemplates)
		if err != nil {
			log.Fatalf("Failed to seed room templates: %v", err)
		}
		if written > 0 {
			log.Printf("Seeded %d room templates", written)
		}
	}

	starts := services.FallbackSource{Primary: db, Secondary: generator}
	playerService := services.NewPlayerService(db, starts, rand.New(rand.NewSource(time.Now().UnixNano())))
	clientManager := handlers.NewClientManager()

	// Set up HTTP routes
	mux := http.NewServeMux()
	handlers.NewAPIHandler(db).Routes(mux)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()

		// Each client gets its own session; discovery only uses stored templates
		session := services.NewSession(playerService, db, rand.New(rand.NewSource(time.Now().UnixNano())))
		handlers.HandleClientConnection(conn, session, clientManager, cfg.DefaultExitForm)
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down, %d clients connected", clientManager.Count())

	clientManager.BroadcastToAll(messages.BaseMessage{
		Type:    messages.MessageTypeError,
		Payload: messages.ErrorMessage{Code: "SERVER_SHUTDOWN", Message: "Server is shutting down, save your recovery code"},
	})
	clientManager.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
