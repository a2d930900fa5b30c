package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "github.com/avvvet/punchcard-services/configs"
	"github.com/avvvet/punchcard-services/internal/comm"
	"github.com/avvvet/punchcard-services/internal/nats"
	"github.com/avvvet/punchcard-services/internal/socketsvc/broker"
	"github.com/avvvet/punchcard-services/internal/socketsvc/routes"
	"github.com/avvvet/punchcard-services/internal/socketsvc/ws"
)

const SERVICE_NAME = "socket"

type socketConfig struct {
	NatsUrl   string `env:"NATS_URL"`
	NatsToken string `env:"NATS_TOKEN"`
	Port      string `env:"SOCKET_SERVICE_PORT" envDefault:"8081"`
	RateLimit int    `env:"RATE_LIMIT" envDefault:"60"`
	JwtSecret string `env:"JWT_SECRET_KEY,notEmpty"`
}

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {
	var cfg socketConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to NATS
	n, err := nats.Connect(cfg.NatsUrl, cfg.NatsToken, SERVICE_NAME+"-"+instanceId)
	if err != nil {
		log.Errorf("Error: unable to connect to NATS server %v", err)
		os.Exit(1)
	}

	defer n.Conn.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Initialize websocket handler
	s := ws.NewWs()

	// Initialize routes
	routes.SetRoutes(r, s, routes.InitAuth(cfg.JwtSecret), cfg.Port)

	// Initialize broker, decode events are fanned out to the sockets
	b := broker.NewBroker(n.Conn, s.Broadcast)

	// subscribe to decode service
	subDecoded, err := b.Subscribe(comm.SubjectDecodeService)
	if err != nil {
		log.Errorf("Error: unable to subscribe to queue %v", err)
		os.Exit(1)
	}

	// Create server with timeout settings
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 60 * time.Second,
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

	subDecoded.Unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
