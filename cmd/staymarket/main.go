package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"staymarket/internal/app/commands"
	"staymarket/internal/app/guard"
	bookingapp "staymarket/internal/app/handlers/booking"
	listingsapp "staymarket/internal/app/handlers/listings"
	meapp "staymarket/internal/app/handlers/me"
	paymentsapp "staymarket/internal/app/handlers/payments"
	"staymarket/internal/app/middleware"
	appoutbox "staymarket/internal/app/outbox"
	"staymarket/internal/app/queries"
	authsvc "staymarket/internal/app/services/auth"
	"staymarket/internal/app/uow"
	domainauth "staymarket/internal/domain/auth"
	domainbooking "staymarket/internal/domain/booking"
	domainlistings "staymarket/internal/domain/listings"
	domainpayment "staymarket/internal/domain/payment"
	domainuser "staymarket/internal/domain/user"
	"staymarket/internal/infra/broker/kafka"
	redisstore "staymarket/internal/infra/cache/redis"
	"staymarket/internal/infra/config"
	mongostore "staymarket/internal/infra/db/mongo"
	ginserver "staymarket/internal/infra/http/gin"
	"staymarket/internal/infra/notify"
	"staymarket/internal/infra/obs"
	outboxinfra "staymarket/internal/infra/outbox"
	"staymarket/internal/infra/payments"
	"staymarket/internal/infra/security"
	"staymarket/internal/infra/storage/memory"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := getenv("APP_ENV", "dev")
	logger := obs.NewLogger(env)

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("using fallback configuration", "error", err)
		cfg.Env = env
		cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")
		cfg.StorageMode = "memory"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: app.ready,
	}, app.handlers)

	if app.worker != nil {
		go func() {
			if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	}
	if app.feed != nil {
		go func() {
			if err := app.feed.Run(ctx, app.feedTopics); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("event feed stopped", "error", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
		app.close(logger)
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("HTTP server stopped")
}

type application struct {
	handlers   ginserver.Handlers
	worker     *outboxinfra.Worker
	producer   *kafka.Producer
	feed       *kafka.EventFeed
	feedTopics []string
	ready      func() error
}

func (a application) close(logger *slog.Logger) {
	if a.feed != nil {
		if err := a.feed.Close(); err != nil {
			logger.Error("event feed close failed", "error", err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logger.Error("kafka producer close failed", "error", err)
		}
	}
}

func buildApplication(cfg config.Config, logger *slog.Logger) (application, error) {
	storage, err := buildStorage(cfg)
	if err != nil {
		return application{}, err
	}

	outboxStore := outboxinfra.NewStore()
	outboxBuffer := memory.NewOutboxWithSink(outboxStore.Append)
	encoder := appoutbox.JSONEventEncoder{}

	idStore := buildIdempotencyStore(cfg)

	gateway := &payments.SimulatedGateway{Logger: logger}
	notifier := notify.LogNotifier{Logger: logger}
	listingGuard := guard.NewListingGuard()

	authService := &authsvc.Service{
		Users:      storage.users,
		Sessions:   storage.sessions,
		Passwords:  security.BcryptHasher{},
		Tokens:     security.RandomTokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.RequestBookingCommand{}.Key(), &bookingapp.RequestBookingHandler{
		UoWFactory:     storage.factory,
		Guard:          listingGuard,
		Gateway:        gateway,
		GatewayTimeout: cfg.GatewayTimeout,
		Notifier:       notifier,
		Outbox:         outboxBuffer,
		Encoder:        encoder,
	})
	commands.RegisterHandler(commandBus, bookingapp.CancelBookingCommand{}.Key(), &bookingapp.CancelBookingHandler{
		Gateway:        gateway,
		GatewayTimeout: cfg.GatewayTimeout,
		Notifier:       notifier,
		Outbox:         outboxBuffer,
		Encoder:        encoder,
		Logger:         logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.CompleteBookingCommand{}.Key(), &bookingapp.CompleteBookingHandler{
		Outbox:  outboxBuffer,
		Encoder: encoder,
		Logger:  logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.ConfirmHostBookingCommand{}.Key(), &bookingapp.ConfirmHostBookingHandler{
		Notifier: notifier,
		Logger:   logger,
	})
	commands.RegisterHandler(commandBus, bookingapp.DeclineHostBookingCommand{}.Key(), &bookingapp.DeclineHostBookingHandler{
		Gateway:        gateway,
		GatewayTimeout: cfg.GatewayTimeout,
		Notifier:       notifier,
		Outbox:         outboxBuffer,
		Encoder:        encoder,
		Logger:         logger,
	})
	commands.RegisterHandler(commandBus, listingsapp.CreateHostListingCommand{}.Key(), &listingsapp.CreateHostListingHandler{
		Logger: logger,
	})
	commands.RegisterHandler(commandBus, listingsapp.PublishHostListingCommand{}.Key(), &listingsapp.PublishHostListingHandler{
		Logger: logger,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.ListHostBookingsQuery{}.Key(), &bookingapp.ListHostBookingsHandler{
		UoWFactory: storage.factory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, bookingapp.CheckAvailabilityQuery{}.Key(), &bookingapp.CheckAvailabilityHandler{
		UoWFactory: storage.factory,
	})
	queries.RegisterHandler(queryBus, bookingapp.ListingCalendarQuery{}.Key(), &bookingapp.ListingCalendarHandler{
		UoWFactory: storage.factory,
	})
	queries.RegisterHandler(queryBus, meapp.ListGuestBookingsQuery{}.Key(), &meapp.ListGuestBookingsHandler{
		UoWFactory: storage.factory,
		Logger:     logger,
	})
	queries.RegisterHandler(queryBus, paymentsapp.GetBookingPaymentQuery{}.Key(), &paymentsapp.GetBookingPaymentHandler{
		UoWFactory: storage.factory,
	})
	queries.RegisterHandler(queryBus, listingsapp.ListHostListingsQuery{}.Key(), &listingsapp.ListHostListingsHandler{
		UoWFactory: storage.factory,
	})

	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Idempotency(idStore, nil),
		middleware.Transaction(storage.factory, nil),
		middleware.OutboxFlush(outboxBuffer),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus)

	app := application{
		handlers: ginserver.Handlers{
			Booking: ginserver.BookingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Availability: ginserver.AvailabilityHandler{
				Queries: queryBusWithMiddleware,
			},
			HostBooking: ginserver.HostBookingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
				Logger:   logger,
			},
			HostListing: ginserver.HostListingHandler{
				Commands: commandBusWithMiddleware,
				Queries:  queryBusWithMiddleware,
			},
			Auth: ginserver.AuthHandler{
				Service: authService,
				Logger:  logger,
			},
			Me: ginserver.MeHandler{
				Queries: queryBusWithMiddleware,
				Logger:  logger,
			},
			AuthMiddleware: ginserver.AuthMiddleware{
				Service: authService,
				Logger:  logger,
			}.Handle,
		},
		ready: storage.ready,
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return application{}, err
		}
		app.producer = producer
		app.worker = &outboxinfra.Worker{
			Store:       outboxStore,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		logger.Info("outbox worker enabled", "brokers", cfg.KafkaBrokers)

		if cfg.KafkaConsumerGroup != "" {
			feed, err := kafka.NewEventFeed(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, nil,
				kafka.LogSink{Logger: logger}, logger)
			if err != nil {
				return application{}, err
			}
			app.feed = feed
			app.feedTopics = eventTopics(cfg.KafkaTopicPrefix)
			logger.Info("event feed enabled", "group", cfg.KafkaConsumerGroup, "topics", app.feedTopics)
		}
	}

	return app, nil
}

// eventTopics lists the topics the outbox worker publishes to.
func eventTopics(prefix string) []string {
	topics := []string{"booking.events.v1", "payment.events.v1", "listing.events.v1"}
	for i := range topics {
		topics[i] = prefix + topics[i]
	}
	return topics
}

type storageSet struct {
	factory  uow.UoWFactory
	users    domainuser.Repository
	sessions domainauth.SessionStore
	ready    func() error
}

func buildStorage(cfg config.Config) (storageSet, error) {
	if cfg.StorageMode == "mongo" {
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storageSet{}, err
		}
		users := mongostore.NewUserRepository(client.DB)
		sessions := mongostore.NewSessionStore(client.DB)
		factory := mongostore.Factory{
			DB:           client.DB,
			ListingsRepo: mongostore.NewListingRepository(client.DB),
			BookingRepo:  mongostore.NewBookingRepository(client.DB),
			PaymentRepo:  mongostore.NewPaymentRepository(client.DB),
			UserRepo:     users,
			Sessions:     sessions,
		}
		return storageSet{
			factory:  factory,
			users:    users,
			sessions: sessions,
			ready: func() error {
				pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				return client.Ping(pingCtx)
			},
		}, nil
	}

	var (
		listingsRepo domainlistings.Repository = memory.NewListingRepository()
		bookingRepo  domainbooking.Repository  = memory.NewBookingRepository()
		paymentRepo  domainpayment.Repository  = memory.NewPaymentRepository()
	)
	users := memory.NewUserRepository()
	sessions := memory.NewSessionStore()
	factory := memory.Factory{
		ListingsRepo: listingsRepo,
		BookingRepo:  bookingRepo,
		PaymentRepo:  paymentRepo,
		UserRepo:     users,
		Sessions:     sessions,
	}
	return storageSet{
		factory:  factory,
		users:    users,
		sessions: sessions,
		ready:    func() error { return nil },
	}, nil
}

func buildIdempotencyStore(cfg config.Config) middleware.IdempotencyStore {
	if cfg.RedisAddr == "" {
		return memory.NewIdempotencyStore()
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return redisstore.NewIdempotencyStore(client, cfg.IdempotencyTTL)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
