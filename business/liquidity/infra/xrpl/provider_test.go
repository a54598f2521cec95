package xrpl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/fd1az/xrpl-liquidity/business/liquidity/domain"
	"github.com/fd1az/xrpl-liquidity/internal/apperror"
	"github.com/fd1az/xrpl-liquidity/internal/asset"
	"github.com/fd1az/xrpl-liquidity/internal/logger"
)

const bookOffersResponse = `{"result":{
	"ledger_index": 91000001,
	"validated": true,
	"status": "success",
	"offers": [
		{
			"Account": "rOwnerOne",
			"TakerGets": {"currency":"USD","issuer":"rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B","value":"100"},
			"TakerPays": "1000000000",
			"quality": "10000000"
		},
		{
			"Account": "rOwnerTwo",
			"TakerGets": {"currency":"USD","issuer":"rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B","value":"80"},
			"TakerPays": "880000000",
			"taker_gets_funded": {"currency":"USD","issuer":"rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B","value":"20"},
			"taker_pays_funded": "220000000"
		},
		{
			"Account": "rBroke",
			"TakerGets": {"currency":"USD","issuer":"rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B","value":"50"},
			"TakerPays": "600000000",
			"taker_gets_funded": {"currency":"USD","issuer":"rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B","value":"0"},
			"taker_pays_funded": "0"
		}
	]
}}`

const ammInfoResponse = `{"result":{
	"amm": {
		"account": "rAMMPool",
		"amount": "2000000000",
		"amount2": {"currency":"USD","issuer":"rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B","value":"1000"},
		"trading_fee": 500
	},
	"ledger_index": 91000001,
	"status": "success"
}}`

const actNotFoundResponse = `{"result":{
	"error": "actNotFound",
	"error_code": 19,
	"error_message": "Account not found.",
	"status": "error"
}}`

// rippledServer answers JSON-RPC calls from canned responses keyed by method.
type rippledServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newRippledServer(t *testing.T, responses map[string]string, status int) *rippledServer {
	t.Helper()
	s := &rippledServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)

		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		if status != http.StatusOK {
			http.Error(w, "upstream failure", status)
			return
		}
		body, ok := responses[req.Method]
		if !ok {
			body = `{"result":{"error":"unknownCmd","status":"error"}}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func newTestProvider(t *testing.T, url string) *Provider {
	t.Helper()
	cfg := DefaultClientConfig(url)
	cfg.RateLimitRPS = 0

	client, err := NewClient(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewProvider(client, ProviderConfig{BookLimit: 20}, logger.NewNop())
}

func TestProvider_FetchOffers(t *testing.T) {
	server := newRippledServer(t, map[string]string{"book_offers": bookOffersResponse}, http.StatusOK)
	provider := newTestProvider(t, server.URL)

	dir := domain.Direction{Gets: asset.USDBitstamp, Pays: asset.XRP}
	book, err := provider.FetchOffers(context.Background(), dir)
	if err != nil {
		t.Fatalf("FetchOffers: %v", err)
	}

	if book.LedgerIndex != 91000001 {
		t.Errorf("LedgerIndex = %d, want 91000001", book.LedgerIndex)
	}
	if len(book.Entries) != 2 {
		t.Fatalf("got %d entries, want 2 (unfunded offer dropped)", len(book.Entries))
	}

	first := book.Entries[0]
	if first.Owner != "rOwnerOne" {
		t.Errorf("Owner = %q", first.Owner)
	}
	if !first.TakerPays.Value().Equal(decimal.NewFromInt(1000)) {
		t.Errorf("TakerPays = %s, want 1000 XRP", first.TakerPays.Value())
	}

	funded := book.Entries[1]
	if !funded.TakerGets.Value().Equal(decimal.NewFromInt(20)) {
		t.Errorf("funded TakerGets = %s, want 20", funded.TakerGets.Value())
	}
	if !funded.TakerPays.Value().Equal(decimal.NewFromInt(220)) {
		t.Errorf("funded TakerPays = %s, want 220", funded.TakerPays.Value())
	}
}

func TestProvider_FetchOffers_WrongBook(t *testing.T) {
	server := newRippledServer(t, map[string]string{"book_offers": bookOffersResponse}, http.StatusOK)
	provider := newTestProvider(t, server.URL)

	dir := domain.Direction{Gets: asset.USDGateHub, Pays: asset.XRP}
	_, err := provider.FetchOffers(context.Background(), dir)
	if !apperror.IsCode(err, apperror.CodeLedgerResponseInvalid) {
		t.Fatalf("err = %v, want %s", err, apperror.CodeLedgerResponseInvalid)
	}
}

func TestProvider_FetchPool(t *testing.T) {
	server := newRippledServer(t, map[string]string{"amm_info": ammInfoResponse}, http.StatusOK)
	provider := newTestProvider(t, server.URL)

	pool, err := provider.FetchPool(context.Background(), asset.XRP, asset.USDBitstamp)
	if err != nil {
		t.Fatalf("FetchPool: %v", err)
	}

	if pool.Account != "rAMMPool" {
		t.Errorf("Account = %q", pool.Account)
	}
	if pool.TradingFee != 5000 {
		t.Errorf("TradingFee = %d ppm, want 5000", pool.TradingFee)
	}
	if !pool.Asset1.Value().Equal(decimal.NewFromInt(2000)) || !pool.Asset1.IsNative() {
		t.Errorf("Asset1 = %s, want 2000 XRP", pool.Asset1)
	}
	if pool.Asset2.Asset() != asset.USDBitstamp {
		t.Errorf("Asset2 = %v, want USD.bitstamp", pool.Asset2.Asset())
	}
}

func TestProvider_FetchPool_NotFoundKeepsBreakerClosed(t *testing.T) {
	server := newRippledServer(t, map[string]string{"amm_info": actNotFoundResponse}, http.StatusOK)
	provider := newTestProvider(t, server.URL)

	for range 10 {
		_, err := provider.FetchPool(context.Background(), asset.XRP, asset.SOLO)
		if !apperror.IsCode(err, apperror.CodePoolNotFound) {
			t.Fatalf("err = %v, want %s", err, apperror.CodePoolNotFound)
		}
	}

	if got := provider.BreakerState(); got != gobreaker.StateClosed {
		t.Errorf("breaker = %v, want closed", got)
	}
}

func TestClient_RPCErrorIsRequestFailure(t *testing.T) {
	server := newRippledServer(t, map[string]string{}, http.StatusOK)
	provider := newTestProvider(t, server.URL)

	var out json.RawMessage
	err := provider.client.Call(context.Background(), "server_info", struct{}{}, &out)
	if !apperror.IsCode(err, apperror.CodeLedgerRequestFailed) {
		t.Fatalf("err = %v, want %s", err, apperror.CodeLedgerRequestFailed)
	}
}

func TestClient_HTTPFailureTripsBreaker(t *testing.T) {
	server := newRippledServer(t, nil, http.StatusInternalServerError)
	provider := newTestProvider(t, server.URL)
	dir := domain.Direction{Gets: asset.USDBitstamp, Pays: asset.XRP}

	for i := range 5 {
		_, err := provider.FetchOffers(context.Background(), dir)
		if !apperror.IsCode(err, apperror.CodeLedgerUnavailable) {
			t.Fatalf("call %d: err = %v, want %s", i, err, apperror.CodeLedgerUnavailable)
		}
	}

	if got := provider.BreakerState(); got != gobreaker.StateOpen {
		t.Fatalf("breaker = %v, want open", got)
	}

	before := server.calls.Load()
	_, err := provider.FetchOffers(context.Background(), dir)
	if !apperror.IsCode(err, apperror.CodeCircuitOpen) {
		t.Errorf("err = %v, want %s", err, apperror.CodeCircuitOpen)
	}
	if server.calls.Load() != before {
		t.Error("open breaker must not reach the server")
	}
}

func TestClient_RequestShape(t *testing.T) {
	var captured rpcRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"result":{"status":"success","offers":[],"ledger_current_index":5}}`))
	}))
	defer server.Close()

	provider := newTestProvider(t, server.URL)
	dir := domain.Direction{Gets: asset.RLUSD, Pays: asset.XRP}
	book, err := provider.FetchOffers(context.Background(), dir)
	if err != nil {
		t.Fatalf("FetchOffers: %v", err)
	}
	if book.LedgerIndex != 5 {
		t.Errorf("LedgerIndex = %d, want 5", book.LedgerIndex)
	}

	if captured.Method != "book_offers" || len(captured.Params) != 1 {
		t.Fatalf("request = %+v", captured)
	}
	params, _ := captured.Params[0].(map[string]any)
	gets, _ := params["taker_gets"].(map[string]any)
	if gets["currency"] != "524C555344000000000000000000000000000000" {
		t.Errorf("taker_gets.currency = %v, want hex encoded RLUSD", gets["currency"])
	}
	pays, _ := params["taker_pays"].(map[string]any)
	if pays["currency"] != "XRP" || pays["issuer"] != nil {
		t.Errorf("taker_pays = %v, want bare XRP", pays)
	}
	if params["ledger_index"] != "validated" {
		t.Errorf("ledger_index = %v, want validated", params["ledger_index"])
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNewClient_ConfiguredTransportAndMeter(t *testing.T) {
	server := newRippledServer(t, map[string]string{"amm_info": ammInfoResponse}, http.StatusOK)

	var routed atomic.Int32
	reader := sdkmetric.NewManualReader()

	cfg := DefaultClientConfig("http://rippled.invalid")
	cfg.RateLimitRPS = 0
	cfg.MeterProvider = sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	cfg.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		routed.Add(1)
		r = r.Clone(r.Context())
		r.URL.Scheme = "http"
		r.URL.Host = server.Listener.Addr().String()
		return server.Client().Transport.RoundTrip(r)
	})

	client, err := NewClient(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	provider := NewProvider(client, ProviderConfig{BookLimit: 20}, logger.NewNop())

	if _, err := provider.FetchPool(context.Background(), asset.XRP, asset.USDBitstamp); err != nil {
		t.Fatalf("FetchPool: %v", err)
	}
	if routed.Load() != 1 || server.calls.Load() != 1 {
		t.Errorf("transport routed %d calls, server saw %d, want 1 each", routed.Load(), server.calls.Load())
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	seen := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			seen[m.Name] = true
		}
	}
	for _, name := range []string{"xrpl_rpc_requests_total", "http_client_requests_total"} {
		if !seen[name] {
			t.Errorf("metric %s not recorded on the configured provider", name)
		}
	}
}
