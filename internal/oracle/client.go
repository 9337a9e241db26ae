package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"arxitex/internal/classify"
	"arxitex/internal/oraclecache"
	"arxitex/internal/telemetry"
	"arxitex/internal/types"
)

const instrumentationName = "arxitex/internal/oracle"

// Client is the generative-oracle client: it renders a caller-supplied
// prompt (prompt wording itself is out of scope here), calls the Anthropic
// API, validates the JSON response against the kind's schema, and caches
// the raw response keyed by (model, prompt).
type Client struct {
	api      anthropic.Client
	model    anthropic.Model
	cache    *oraclecache.Cache
	maxTries uint64
}

// New constructs a Client. apiKey may be empty if ANTHROPIC_API_KEY is set
// in the environment; the underlying SDK resolves it the same way.
func New(apiKey, model string, cache *oraclecache.Cache, maxTries uint64) *Client {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	oracleMetricsOnce.Do(initOracleMetrics)
	return &Client{
		api:      anthropic.NewClient(opts...),
		model:    anthropic.Model(model),
		cache:    cache,
		maxTries: maxTries,
	}
}

// Call sends prompt to the oracle under the given kind and unmarshals the
// JSON response into out (which must be a pointer to the kind's response
// struct). A cache hit on (model, prompt) short-circuits the network call.
func (c *Client) Call(ctx context.Context, kind Kind, prompt string, out interface{}) error {
	modelStr := string(c.model)

	if c.cache != nil {
		if cached, ok := c.cache.Get(modelStr, prompt); ok {
			return json.Unmarshal([]byte(cached), out)
		}
	}

	raw, err := c.callWithRetry(ctx, kind, prompt)
	if err != nil {
		return err
	}
	if c.cache != nil {
		c.cache.Put(modelStr, prompt, raw)
	}
	return json.Unmarshal([]byte(raw), out)
}

func (c *Client) callWithRetry(ctx context.Context, kind Kind, prompt string) (string, error) {
	tracer := telemetry.Tracer(instrumentationName)
	ctx, span := tracer.Start(ctx, "oracle.call")
	defer span.End()
	span.SetAttributes(
		attribute.String("arxitex.oracle.kind", string(kind)),
		attribute.String("arxitex.oracle.model", string(c.model)),
	)

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxTries)
	policy2 := backoff.WithContext(policy, ctx)

	var result string
	attempt := 0
	operation := func() error {
		attempt++
		t0 := time.Now()
		message, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     c.model,
			MaxTokens: 2048,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		ms := float64(time.Since(t0).Milliseconds())
		modelAttr := attribute.String("arxitex.oracle.model", string(c.model))

		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(classify.Wrap(classify.LLMAPIError, types.StageLLM, "oracle call failed", err))
			}
			return err
		}

		if oracleMetrics.duration != nil {
			oracleMetrics.inputTokens.Add(ctx, message.Usage.InputTokens, metric.WithAttributes(modelAttr))
			oracleMetrics.outputTokens.Add(ctx, message.Usage.OutputTokens, metric.WithAttributes(modelAttr))
			oracleMetrics.duration.Record(ctx, ms, metric.WithAttributes(modelAttr))
		}

		if len(message.Content) == 0 || message.Content[0].Type != "text" {
			return backoff.Permanent(classify.New(classify.LLMAPIError, types.StageLLM, "oracle response had no text block"))
		}
		result = message.Content[0].Text
		return nil
	}

	err := backoff.Retry(operation, policy2)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		// backoff.Retry unwraps backoff.Permanent itself, so a permanent
		// failure already arrives here as the classify.Error it was
		// constructed as; only the exhausted-retries case still needs wrapping.
		var classified classify.Error
		if errors.As(err, &classified) {
			return "", err
		}
		return "", classify.Wrap(classify.LLMAPIError, types.StageLLM, fmt.Sprintf("oracle call failed after %d attempts", attempt), err)
	}
	span.SetAttributes(attribute.Int("arxitex.oracle.attempts", attempt))
	return result, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return false
}

var oracleMetrics struct {
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	duration     metric.Float64Histogram
}
var oracleMetricsOnce sync.Once

func initOracleMetrics() {
	m := telemetry.Meter(instrumentationName)
	oracleMetrics.inputTokens, _ = m.Int64Counter("arxitex.oracle.input_tokens",
		metric.WithDescription("Oracle API input tokens consumed"), metric.WithUnit("{token}"))
	oracleMetrics.outputTokens, _ = m.Int64Counter("arxitex.oracle.output_tokens",
		metric.WithDescription("Oracle API output tokens generated"), metric.WithUnit("{token}"))
	oracleMetrics.duration, _ = m.Float64Histogram("arxitex.oracle.request.duration",
		metric.WithDescription("Oracle API request duration in milliseconds"), metric.WithUnit("ms"))
}
