package main

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/accounts"
	"github.com/imrishuroy/kitchen-orderflow/internal/auth"
	"github.com/imrishuroy/kitchen-orderflow/internal/aws"
	"github.com/imrishuroy/kitchen-orderflow/internal/config"
	orderevents "github.com/imrishuroy/kitchen-orderflow/internal/events"
	"github.com/imrishuroy/kitchen-orderflow/internal/favorites"
	"github.com/imrishuroy/kitchen-orderflow/internal/handlers"
	"github.com/imrishuroy/kitchen-orderflow/internal/idempotency"
	"github.com/imrishuroy/kitchen-orderflow/internal/kv"
	"github.com/imrishuroy/kitchen-orderflow/internal/logger"
	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
	"github.com/imrishuroy/kitchen-orderflow/internal/payments"
	"github.com/imrishuroy/kitchen-orderflow/internal/secure"
)

func setupRouter(cfg *config.Config, hc handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.RequestID(), handlers.Logger(hc.Logger), cors.New(corsConfig(cfg)))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.RunLocal {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	handlers.RegisterRoutes(r, hc)

	return r
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key", "X-Request-Id"},
		ExposeHeaders: []string{"Content-Length", "X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSAllowOrigins) == 0 || cfg.Development() {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.CORSAllowOrigins
	}
	return c
}

func newAuthProvider(cfg *config.Config) auth.Provider {
	var verifier *auth.TokenVerifier
	if cfg.AuthJWTSecret != "" {
		verifier = auth.NewTokenVerifier([]byte(cfg.AuthJWTSecret), "")
	}
	if cfg.AuthProvider == config.AuthLocal {
		return auth.NewLocal(verifier)
	}
	return auth.NewGoTrue(cfg.AuthURL, cfg.AuthServiceKey, verifier)
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}

	var store kv.Store
	if cfg.KVTable != "" {
		store = kv.NewDynamo(clients.DynamoDB, cfg.KVTable)
	} else {
		log.Warn("KV_TABLE not set, using in-memory store")
		store = kv.NewMemory()
	}

	sealer, err := secure.NewSealerFromBase64(cfg.PaymentFieldKey)
	if err != nil {
		log.Fatal("invalid PAYMENT_FIELD_KEY", zap.Error(err))
	}

	repo := orders.NewRepository(store,
		orders.WithSealer(sealer),
		orders.WithPricing(cfg.Pricing),
		orders.WithStrictTransitions(cfg.StrictTransitions),
		orders.WithLogger(log),
	)
	for _, id := range cfg.AdminUserIDs {
		if err := repo.GrantAdmin(ctx, id); err != nil {
			log.Fatal("failed to grant admin", zap.String("user_id", id), zap.Error(err))
		}
	}

	var publisher orderevents.Publisher = orderevents.Discard{}
	if cfg.OrdersQueueURL != "" {
		publisher = aws.NewPublisher(clients.SQS, cfg.OrdersQueueURL)
	}

	provider := newAuthProvider(cfg)
	hc := handlers.HandlerConfig{
		Logger:          log,
		Auth:            provider,
		Orders:          repo,
		Accounts:        accounts.NewService(provider, store, repo),
		Favorites:       favorites.NewStore(store),
		Payments:        payments.NewStore(store),
		Idempotency:     idempotency.NewStore(store, idempotency.DefaultTTL),
		Events:          publisher,
		ExposeResetCode: cfg.ExposeResetCode,
	}

	r := setupRouter(cfg, hc)

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		log.Info("running local server", zap.String("addr", cfg.HTTPAddr))
		if err := r.Run(cfg.HTTPAddr); err != nil {
			log.Fatal("failed to run local server", zap.Error(err))
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
