package aws

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics publishes verification counters to CloudWatch. Publication is
// best-effort: a metrics failure must never fail a request that already
// recorded durable state, so errors are logged and swallowed.
type Metrics struct {
	CloudWatch CloudWatchAPI
	Namespace  string
}

// NewMetrics returns a Metrics sink publishing under the given namespace.
func NewMetrics(cwClient CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{
		CloudWatch: cwClient,
		Namespace:  namespace,
	}
}

// CountSales records how many line items a verify call newly recorded and
// how many it skipped for missing metadata.
func (m *Metrics) CountSales(ctx context.Context, recorded, skipped int) {
	data := []cwtypes.MetricDatum{
		{
			MetricName: awsString("SalesRecorded"),
			Value:      awsFloat64(float64(recorded)),
			Unit:       cwtypes.StandardUnitCount,
		},
		{
			MetricName: awsString("SalesSkipped"),
			Value:      awsFloat64(float64(skipped)),
			Unit:       cwtypes.StandardUnitCount,
		},
	}

	_, err := m.CloudWatch.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  &m.Namespace,
		MetricData: data,
	})
	if err != nil {
		log.Printf("[metrics] put metric data failed: %v", err)
	}
}

func awsFloat64(f float64) *float64 { return &f }
