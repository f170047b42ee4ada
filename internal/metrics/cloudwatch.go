package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "LensAtelier/API"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// metricPutter is the part of the CloudWatch API the client uses
type metricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatch publishes custom metrics. Puts run in the background.
type CloudWatch struct {
	client      metricPutter
	enabled     bool
	environment string
	wg          sync.WaitGroup
}

// NewCloudWatch creates a CloudWatch recorder. It is a no-op unless enabled
// and AWS credentials resolve.
func NewCloudWatch(ctx context.Context, environment string, enabled bool) *CloudWatch {
	if !enabled {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &CloudWatch{environment: environment}
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &CloudWatch{environment: environment}
	}

	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)
	return newCloudWatchWithClient(cloudwatch.NewFromConfig(cfg), environment)
}

func newCloudWatchWithClient(client metricPutter, environment string) *CloudWatch {
	return &CloudWatch{
		client:      client,
		enabled:     true,
		environment: environment,
	}
}

// RecordAPIRequest records request count (or error count) and latency
func (m *CloudWatch) RecordAPIRequest(_ context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	metricName := "APIRequests"
	if statusCode >= httpStatusServerError {
		metricName = "APIErrors"
	}
	dimensions := []types.Dimension{
		dimension("Endpoint", endpoint),
		dimension("Environment", m.environment),
	}

	m.put([]types.MetricDatum{
		datum(metricName, 1, types.StandardUnitCount, dimensions),
		datum("APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dimensions),
	})
}

// RecordGeneration records the outcome, latency, dropped items and token usage
// of a generation
func (m *CloudWatch) RecordGeneration(_ context.Context, event GenerationEvent) {
	if !m.enabled {
		return
	}

	outcomeDims := []types.Dimension{
		dimension("Mode", event.Mode),
		dimension("Outcome", event.Outcome),
		dimension("Environment", m.environment),
	}
	modelDims := []types.Dimension{
		dimension("Model", event.Model),
		dimension("Environment", m.environment),
	}

	data := []types.MetricDatum{
		datum("Generations", 1, types.StandardUnitCount, outcomeDims),
		datum("GenerationDuration", float64(event.Duration.Milliseconds()), types.StandardUnitMilliseconds, outcomeDims),
	}
	if event.Dropped > 0 {
		data = append(data, datum("DroppedItems", float64(event.Dropped), types.StandardUnitCount, outcomeDims))
	}
	if event.TotalTokens > 0 {
		data = append(data,
			datum("LLMTokens/Total", float64(event.TotalTokens), types.StandardUnitCount, modelDims),
			datum("LLMTokens/Input", float64(event.PromptTokens), types.StandardUnitCount, modelDims),
			datum("LLMTokens/Output", float64(event.CompletionTokens), types.StandardUnitCount, modelDims),
		)
	}
	m.put(data)
}

// Wait blocks until in-flight puts finish
func (m *CloudWatch) Wait() {
	m.wg.Wait()
}

func (m *CloudWatch) put(data []types.MetricDatum) {
	if !m.enabled || m.client == nil {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), cloudwatchTimeoutSeconds*time.Second)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(namespace),
			MetricData: data,
		})
		if err != nil {
			log.Printf("Failed to record %d CloudWatch metrics: %v", len(data), err)
		}
	}()
}

func dimension(name, value string) types.Dimension {
	return types.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func datum(name string, value float64, unit types.StandardUnit, dimensions []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dimensions,
	}
}
