package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kitchen_orders_created_total",
		Help: "Total number of orders successfully created.",
	})

	OrdersReplayedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kitchen_orders_replayed_total",
		Help: "Total number of order requests answered from an idempotency record.",
	})

	OrderStatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kitchen_order_status_updates_total",
		Help: "Total number of order status changes, by new status.",
	},
		[]string{"status"},
	)

	PartialWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kitchen_order_partial_writes_total",
		Help: "Total number of orders stored without a complete set of index entries.",
	})

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kitchen_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)
)
