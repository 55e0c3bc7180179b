package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging library
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework
	"github.com/spf13/pflag"

	"github.com/iliyamo/event-ticket-storefront/internal/auth"
	"github.com/iliyamo/event-ticket-storefront/internal/backend"
	"github.com/iliyamo/event-ticket-storefront/internal/catalog"
	"github.com/iliyamo/event-ticket-storefront/internal/checkin"
	"github.com/iliyamo/event-ticket-storefront/internal/checkout"
	"github.com/iliyamo/event-ticket-storefront/internal/config" // Internal config loader
	"github.com/iliyamo/event-ticket-storefront/internal/database"
	"github.com/iliyamo/event-ticket-storefront/internal/handler"
	"github.com/iliyamo/event-ticket-storefront/internal/middleware"
	"github.com/iliyamo/event-ticket-storefront/internal/queue"
	"github.com/iliyamo/event-ticket-storefront/internal/repository"
	"github.com/iliyamo/event-ticket-storefront/internal/router" // Internal router setup
	queue_publisher "github.com/iliyamo/event-ticket-storefront/internal/service"
	"github.com/iliyamo/event-ticket-storefront/internal/staff"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	policyFile := pflag.String("policy", "", "YAML file with availability thresholds (overrides POLICY_FILE)")
	withConsumer := pflag.Bool("activity-consumer", true, "run the activity log consumer in this process")
	pflag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: load %s: %v", *envFile, err)
	}
	cfg := config.Load() // Load environment config
	if *policyFile == "" {
		*policyFile = cfg.PolicyFile
	}
	policy, err := config.LoadPolicy(*policyFile)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := backend.New(cfg.BackendURL, cfg.BackendTimeout)
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: cache and rate limit disabled, sessions kept in memory")
	}

	var publisher catalog.ActivityPublisher = queue_publisher.Discard{}
	if cfg.AMQPURL != "" {
		publisher = queue_publisher.New(cfg.AMQPURL)
		if *withConsumer {
			go func() {
				c := queue.Consumer{URL: cfg.AMQPURL, LogDir: cfg.ActivityLogDir}
				if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Printf("activity-consumer: stopped: %v", err)
				}
			}()
		}
	}

	var (
		dedupe   catalog.Deduper = catalog.NewMemoryDeduper()
		sessions auth.Store      = auth.NewMemoryStore()
	)
	if rdb != nil {
		dedupe = catalog.NewRedisDeduper(rdb, "storefront")
		sessions = auth.NewRedisStore(rdb, "storefront:session")
	}

	committer := catalog.NewBlockCommitter(client, dedupe, publisher)
	refresher := catalog.NewRefresher(client, committer, policy)
	checkouts := checkout.NewSessions(client, checkout.NewFingerprinter([]byte(cfg.FingerprintKey)), cfg.CheckoutTTL)
	manager := auth.NewManager(client, sessions, cfg.JWTSecret, cfg.SessionTTL)

	tickets := &handler.TicketHandler{Receipts: client}
	var audit checkin.AuditLog
	if cfg.DB.Enabled() {
		db, err := database.Open(cfg.DB.User, cfg.DB.Pass, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			log.Fatalf("database: %v", err)
		}
		repo := repository.NewCheckInAuditRepo(db)
		audit = repo
		tickets.Audit = repo
	}
	tickets.Machine = checkin.NewMachine(client, audit, publisher)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(middleware.RequestLog(), middleware.Recover())

	router.RegisterRoutes(e, refresher) // Register application routes
	router.RegisterAuth(e, handler.NewAuthHandler(manager), manager)
	router.RegisterPublic(e, router.Public{
		Events: &handler.EventHandler{Catalog: refresher, Keys: client},
		Checkout: &handler.CheckoutHandler{
			Catalog:  refresher,
			Sessions: checkouts,
			Phone:    cfg.WhatsAppPhone,
			Location: cfg.Location,
		},
		Tickets: tickets,
	},
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	)
	router.RegisterStaff(e, tickets, &handler.StaffHandler{Service: staff.NewService(client, publisher, cfg.Location)}, manager)

	go refresher.Run(ctx)
	go checkouts.Run(ctx, time.Minute)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	committer.Wait()
	if rdb != nil {
		_ = rdb.Close()
	}
}
