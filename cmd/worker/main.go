package main

import (
	"context"
	"os"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/imrishuroy/kitchen-orderflow/internal/aws"
	"github.com/imrishuroy/kitchen-orderflow/internal/config"
	"github.com/imrishuroy/kitchen-orderflow/internal/kv"
	"github.com/imrishuroy/kitchen-orderflow/internal/logger"
	"github.com/imrishuroy/kitchen-orderflow/internal/orders"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		logger.New("info").Fatal("invalid configuration", zap.Error(err))
	}
	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatal("failed to init aws clients", zap.Error(err))
	}

	var store kv.Store
	if cfg.KVTable != "" {
		store = kv.NewDynamo(clients.DynamoDB, cfg.KVTable)
	} else {
		store = kv.NewMemory()
	}

	p := NewProcessor(
		orders.NewRepository(store, orders.WithLogger(log)),
		aws.NewMetricsEmitter(clients.CloudWatch, cfg.MetricsNamespace),
		log,
	)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if cfg.RunLocal {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"type":"order.reindex","order_key":"order:1:local-user","user_id":"local-user"}`
		}
		event := lambdaevents.SQSEvent{
			Records: []lambdaevents.SQSMessage{{MessageId: "local-1", Body: testBody}},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			log.Fatal("local handler error", zap.Error(err))
		}
		return
	}

	lambda.Start(p.Handle)
}
