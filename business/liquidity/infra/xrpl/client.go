// Package xrpl reads order books, AMM pools and ledger closes from a rippled
// server.
package xrpl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/circuitbreaker"
	"github.com/fd1az/xrpl-liquidity/internal/httpclient"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
	"github.com/fd1az/xrpl-liquidity/internal/ratelimit"
)

const (
	tracerName = "xrpl"
	meterName  = "xrpl"

	defaultRequestTimeout = 10 * time.Second
)

// ClientConfig holds JSON-RPC client configuration.
type ClientConfig struct {
	URL            string
	RequestTimeout time.Duration
	RateLimitRPS   float64
	RateLimitBurst int

	// Transport and MeterProvider fall back to the default transport and the
	// global meter provider when nil.
	Transport     http.RoundTripper
	MeterProvider metric.MeterProvider
}

// DefaultClientConfig returns sensible defaults for url.
func DefaultClientConfig(url string) ClientConfig {
	return ClientConfig{
		URL:            url,
		RequestTimeout: defaultRequestTimeout,
		RateLimitRPS:   10,
		RateLimitBurst: 5,
	}
}

type clientMetrics struct {
	requests metric.Int64Counter
	errors   metric.Int64Counter
	latency  metric.Float64Histogram
}

// Client calls rippled's JSON-RPC API. Calls are rate limited and guarded by a
// circuit breaker; server-side errors for well-formed requests do not trip it.
type Client struct {
	http    httpclient.Client
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[json.RawMessage]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics clientMetrics
}

// NewClient creates a JSON-RPC client.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	if cfg.MeterProvider == nil {
		cfg.MeterProvider = otel.GetMeterProvider()
	}

	tracer := otel.Tracer(tracerName)

	opts := []httpclient.ClientOption{
		httpclient.WithProviderName("xrpl"),
		httpclient.WithBaseURL(cfg.URL),
		httpclient.WithRequestTimeout(cfg.RequestTimeout),
		httpclient.WithTracer(tracer, false),
		httpclient.WithMeterProvider(cfg.MeterProvider),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	}
	if cfg.Transport != nil {
		opts = append(opts, httpclient.WithRoundTripper(cfg.Transport))
	}

	httpClient, err := httpclient.NewInstrumentedClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	c := &Client{
		http:    httpClient,
		limiter: ratelimit.NewWithBurst("xrpl-rpc", cfg.RateLimitRPS, cfg.RateLimitBurst),
		logger:  log,
		tracer:  tracer,
	}

	cbCfg := circuitbreaker.DefaultConfig("xrpl-rpc")
	cbCfg.IsSuccessful = func(err error) bool {
		var rpcErr *RPCError
		return err == nil || errors.As(err, &rpcErr)
	}
	cbCfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Info(context.Background(), "circuit breaker state change",
			"breaker", name, "from", from.String(), "to", to.String())
	}
	c.cb = circuitbreaker.New[json.RawMessage](cbCfg)

	if err := c.initMetrics(cfg.MeterProvider); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return c, nil
}

func (c *Client) initMetrics(mp metric.MeterProvider) error {
	meter := mp.Meter(meterName)

	var err error
	c.metrics.requests, err = meter.Int64Counter(
		"xrpl_rpc_requests_total",
		metric.WithDescription("JSON-RPC calls by method"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	c.metrics.errors, err = meter.Int64Counter(
		"xrpl_rpc_errors_total",
		metric.WithDescription("Failed JSON-RPC calls by method and error code"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return err
	}

	c.metrics.latency, err = meter.Float64Histogram(
		"xrpl_rpc_latency_ms",
		metric.WithDescription("JSON-RPC call latency"),
		metric.WithUnit("ms"),
	)
	return err
}

// BreakerState returns the circuit breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.cb.State()
}

// Call invokes method with a single params object and decodes the result into
// out. Server errors are returned as *RPCError wrapped in an AppError.
func (c *Client) Call(ctx context.Context, method string, params, out any) error {
	ctx, span := c.tracer.Start(ctx, "xrpl.rpc."+method,
		trace.WithAttributes(attribute.String("rpc.method", method)),
	)
	defer span.End()
	start := time.Now()

	attrs := metric.WithAttributes(attribute.String("method", method))
	c.metrics.requests.Add(ctx, 1, attrs)

	raw, err := c.do(ctx, method, params)
	c.metrics.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)

	if err == nil {
		if err = json.Unmarshal(raw, out); err != nil {
			err = invalidResponse(method, err)
		}
	}

	if err != nil {
		c.metrics.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("method", method),
			attribute.String("code", string(apperror.GetCode(err))),
		))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) do(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	raw, err := c.cb.Execute(func() (json.RawMessage, error) {
		var envelope rpcEnvelope
		resp, err := c.http.NewRequest().
			SetBody(rpcRequest{Method: method, Params: []any{params}}).
			SetResult(&envelope).
			SetLabels(httpclient.NewLabel("method", method)).
			Post(ctx, "")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Body())
		}
		if len(envelope.Result) == 0 {
			return nil, invalidResponse(method+": empty result", nil)
		}

		var status rpcStatus
		if err := json.Unmarshal(envelope.Result, &status); err != nil {
			return nil, invalidResponse(method, err)
		}
		if status.Status == "error" || status.Error != "" {
			return nil, &RPCError{Method: method, Code: status.Error, Message: status.ErrorMessage}
		}
		return envelope.Result, nil
	})
	if err == nil {
		return raw, nil
	}

	var rpcErr *RPCError
	switch {
	case errors.As(err, &rpcErr) && rpcErr.Code == errActNotFound:
		return nil, apperror.New(apperror.CodePoolNotFound, apperror.WithContext(method), apperror.WithCause(err))
	case errors.As(err, &rpcErr):
		return nil, apperror.New(apperror.CodeLedgerRequestFailed, apperror.WithContext(method), apperror.WithCause(err))
	case apperror.GetCode(err) != apperror.CodeUnknown:
		return nil, err
	default:
		return nil, apperror.External(apperror.CodeLedgerUnavailable, method, err)
	}
}
