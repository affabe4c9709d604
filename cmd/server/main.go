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

	"agent-session-gateway/internal/audit"
	auditrepo "agent-session-gateway/internal/audit/repository"
	"agent-session-gateway/internal/config"
	credentialrepo "agent-session-gateway/internal/credential/repository"
	credentialservice "agent-session-gateway/internal/credential/service"
	"agent-session-gateway/internal/db"
	identityprovider "agent-session-gateway/internal/identity/provider"
	identityservice "agent-session-gateway/internal/identity/service"
	"agent-session-gateway/internal/proxy"
	"agent-session-gateway/internal/security"
	"agent-session-gateway/internal/server"
	sessionrepo "agent-session-gateway/internal/session/repository"
	sessionservice "agent-session-gateway/internal/session/service"
	"agent-session-gateway/internal/telemetry"
	telemetryotel "agent-session-gateway/internal/telemetry/otel"
	"agent-session-gateway/internal/telemetry/producer"
	"agent-session-gateway/internal/ticket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, "agent-session-gateway", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	cipher, err := security.NewCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("cipher: %v", err)
	}

	verifier := identityprovider.NewJWTVerifier(cfg.AuthJWTSecret)
	var refresher identityprovider.Refresher
	if cfg.AuthRefreshURL != "" {
		refresher = identityprovider.NewHTTPRefresher(cfg.AuthRefreshURL, cfg.AuthCallTimeout())
	}
	resolver := identityservice.NewResolver(verifier, refresher, cfg.AuthCallTimeout())

	ticketSecret := cfg.TicketSecret
	if ticketSecret == "" {
		ticketSecret = ticket.DeriveSecret(cfg.EncryptionKey)
	}
	issuer := ticket.NewIssuer(ticketSecret, cfg.RuntimeWSURL, cfg.TicketLifetime())

	forwarder := proxy.NewForwarder(cfg.RuntimeRESTURL, cfg.UpstreamCallTimeout())

	var emitters []telemetry.EventEmitter
	if brokers := cfg.AuditKafkaBrokersList(); len(brokers) > 0 {
		kafkaProducer, err := producer.NewKafkaProducer(brokers, cfg.AuditKafkaTopic)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		if kafkaProducer != nil {
			defer kafkaProducer.Close()
			emitters = append(emitters, kafkaProducer)
		}
	}
	if cfg.OTLPEndpoint != "" {
		emitters = append(emitters, telemetryotel.NewEventEmitter(providers.LoggerProvider))
	}
	emitter := telemetry.Fanout(emitters...)

	auditLogger := audit.NewLogger(auditrepo.NewPostgresRepository(database), emitter)

	router := server.NewRouter(server.Deps{
		Resolver:    resolver,
		Sessions:    sessionservice.NewService(sessionrepo.NewPostgresRepository(database)),
		Credentials: credentialservice.NewService(credentialrepo.NewPostgresRepository(database), cipher),
		Tickets:     issuer,
		Forwarder:   forwarder,
		Audit:       auditLogger,
		Emitter:     emitter,
		Health:      database,
	})

	srv := server.New(cfg.HTTPAddr, router)

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Let in-flight async telemetry emits drain before the providers close.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
