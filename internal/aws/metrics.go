package aws

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// MetricsEmitter publishes order business metrics to CloudWatch.
type MetricsEmitter struct {
	CW        CloudWatchAPI
	Namespace string
	nowFunc   func() time.Time
}

func NewMetricsEmitter(cw CloudWatchAPI, namespace string) *MetricsEmitter {
	return &MetricsEmitter{CW: cw, Namespace: namespace, nowFunc: time.Now}
}

// RecordOrder emits OrdersCreated=1 and OrderValue=total in a single call.
func (m *MetricsEmitter) RecordOrder(ctx context.Context, total float64) error {
	now := m.nowFunc()
	one := 1.0
	input := &cloudwatch.PutMetricDataInput{
		Namespace: &m.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString("OrdersCreated"),
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitCount,
				Value:      &one,
			},
			{
				MetricName: awsString("OrderValue"),
				Timestamp:  &now,
				Unit:       cwtypes.StandardUnitNone,
				Value:      &total,
			},
		},
	}
	if _, err := m.CW.PutMetricData(ctx, input); err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
