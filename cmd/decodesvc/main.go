package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/punchcard-services/configs"
	"github.com/avvvet/punchcard-services/internal/db"
	"github.com/avvvet/punchcard-services/internal/decodesvc/archive"
	"github.com/avvvet/punchcard-services/internal/decodesvc/broker"
	svcconfig "github.com/avvvet/punchcard-services/internal/decodesvc/config"
	pg "github.com/avvvet/punchcard-services/internal/decodesvc/db"
	handlers "github.com/avvvet/punchcard-services/internal/decodesvc/handlers"
	"github.com/avvvet/punchcard-services/internal/decodesvc/service"
	"github.com/avvvet/punchcard-services/internal/decodesvc/store"
	natscli "github.com/avvvet/punchcard-services/internal/nats"
	"github.com/avvvet/punchcard-services/internal/punchcard/batch"
	"github.com/avvvet/punchcard-services/internal/punchcard/cipher"
)

const SERVICE_NAME = "decode"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	cfg, err := svcconfig.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// pg connection
	dbpool, err := pg.Connect(cfg.PostgresUrl)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pg.ClosePool()
	log.Printf("pg connection established successfully")

	if err := pg.Migrate(context.Background(), dbpool); err != nil {
		log.Fatalf("Failed to migrate DB: %v", err)
	}

	// raw decks are archived only when mongo is configured
	var deckArchive service.DeckArchive
	if cfg.MongoUri != "" {
		mongoDB, disconnect, err := db.ConnectToDB(cfg.MongoUri)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer disconnect()

		archiveStore := archive.NewArchiveStore(mongoDB, cfg.ArchiveTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := archiveStore.Init(ctx); err != nil {
			log.Warnf("deck archive index: %v", err)
		}
		cancel()
		deckArchive = archiveStore
		log.Printf("mongo connection established successfully, decks kept for %s", cfg.ArchiveTTL)
	}

	table, err := cipher.Build()
	if err != nil {
		log.Fatalf("Failed to build cipher table: %v", err)
	}
	driver := batch.NewDriver(table, cfg.Decode.Options())
	log.Infof("undefined pattern policy: %s", driver.Options().Policy)

	batchStore := store.NewBatchStore(dbpool)
	decodeService := service.NewDecodeService(driver, batchStore, deckArchive, nil)

	// Connect to NATS
	n, err := natscli.Connect(cfg.NatsUrl, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// init message broker, decode events go out through it
	b := broker.NewBroker(n.Conn, decodeService)
	decodeService.SetPublisher(b)

	sub, err := b.QueueSubscribeDecodeRequests()
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(1)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(decodeService, table, cfg.Port, cfg.MaxUploadBytes)
	h.InitAuth(cfg.JwtSecret)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	sub.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
