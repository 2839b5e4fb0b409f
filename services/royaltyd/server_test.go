package royaltyd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"royaltyhub/core/events"
	"royaltyhub/crypto"
	"royaltyhub/gateway/middleware"
	"royaltyhub/native/royalty"
	"royaltyhub/storage"
)

const testSecret = "royaltyd-test-secret"

var (
	authority = [20]byte{0xa1}
	treasury  = [20]byte{0xa2}
	creator   = [20]byte{0xa3}
	buyer     = [20]byte{0xa4}
	stranger  = [20]byte{0xa5}
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	server  *Server
}

func newTestServer(t *testing.T, authEnabled bool) *testServer {
	t.Helper()
	db, err := storage.Open(storage.DriverMemory, "")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	broadcaster := events.NewBroadcaster(16)
	engine := royalty.NewEngine()
	engine.SetStore(db)
	engine.SetEmitter(broadcaster)

	srv := NewServer(Options{
		Engine:    engine,
		Events:    broadcaster,
		Auth:      middleware.AuthConfig{Enabled: authEnabled, HMACSecret: testSecret, Issuer: "royaltyhub"},
		RateLimit: middleware.RateLimit{RequestsPerMinute: 60_000, Burst: 1_000},
	})
	return &testServer{t: t, handler: srv.Handler(), server: srv}
}

func (ts *testServer) do(method, path string, caller *[20]byte, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			ts.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != nil {
		token, err := middleware.IssueToken(testSecret, "royaltyhub", "", *caller, time.Minute, time.Now())
		if err != nil {
			ts.t.Fatalf("issue token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) expect(rec *httptest.ResponseRecorder, status int, dest any) {
	ts.t.Helper()
	if rec.Code != status {
		ts.t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	if dest != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
			ts.t.Fatalf("decode response: %v", err)
		}
	}
}

func (ts *testServer) expectCode(rec *httptest.ResponseRecorder, status int, code string) {
	ts.t.Helper()
	var body errorBody
	ts.expect(rec, status, &body)
	if body.Code != code {
		ts.t.Fatalf("expected error code %s, got %q (%s)", code, body.Code, body.Error)
	}
}

func (ts *testServer) bootstrap() {
	ts.t.Helper()
	ts.expect(ts.do(http.MethodPost, "/v1/platform/initialize", &authority, map[string]any{
		"treasury":       crypto.Encode(treasury),
		"platformFeeBps": 200,
	}), http.StatusCreated, nil)
}

func (ts *testServer) fund(account [20]byte, amount uint64) {
	ts.t.Helper()
	ts.expect(ts.do(http.MethodPost, "/v1/accounts/"+crypto.Encode(account)+"/fund", &authority, map[string]any{
		"amount": amount,
	}), http.StatusOK, nil)
}

func (ts *testServer) balance(account [20]byte) uint64 {
	ts.t.Helper()
	var body struct {
		Balance uint64 `json:"balance"`
	}
	ts.expect(ts.do(http.MethodGet, "/v1/accounts/"+crypto.Encode(account)+"/balance", nil, nil), http.StatusOK, &body)
	return body.Balance
}

func TestMarketplaceOverHTTP(t *testing.T) {
	ts := newTestServer(t, true)
	ts.bootstrap()
	ts.fund(buyer, 5_000_000)
	ts.fund(creator, 1_000_000)

	var listing listingView
	ts.expect(ts.do(http.MethodPost, "/v1/listings", &creator, map[string]any{
		"assetId":           "0x" + strings.Repeat("42", 32),
		"metadataUri":       "ipfs://royalty/1",
		"percentageBps":     500,
		"price":             1_000_000,
		"resaleAllowed":     true,
		"creatorRoyaltyBps": 250,
	}), http.StatusCreated, &listing)
	if listing.Status != "active" || listing.Creator != crypto.Encode(creator) {
		t.Fatalf("unexpected listing %+v", listing)
	}
	base := "/v1/listings/" + listing.Address

	var sale saleView
	ts.expect(ts.do(http.MethodPost, base+"/buy", &buyer, nil), http.StatusOK, &sale)
	if sale.PlatformFee != 20_000 || sale.SellerAmount != 980_000 || sale.Kind != "primary" {
		t.Fatalf("unexpected sale %+v", sale)
	}
	ts.expectCode(ts.do(http.MethodPost, base+"/buy", &stranger, nil), http.StatusConflict, "ListingNotActive")

	if got := ts.balance(creator); got != 1_980_000 {
		t.Fatalf("expected creator balance 1980000, got %d", got)
	}
	var cfg configView
	ts.expect(ts.do(http.MethodGet, "/v1/config", nil, nil), http.StatusOK, &cfg)
	if cfg.TotalFeesCollected != 20_000 || cfg.SecondaryFeeBps != 250 {
		t.Fatalf("unexpected config %+v", cfg)
	}

	var pool poolView
	ts.expect(ts.do(http.MethodPost, base+"/payouts", &creator, map[string]any{"amount": 300_000}), http.StatusOK, &pool)
	if pool.Period != 1 || pool.TotalDeposited != 300_000 {
		t.Fatalf("unexpected pool %+v", pool)
	}
	var claim claimView
	ts.expect(ts.do(http.MethodPost, base+"/claims", &buyer, nil), http.StatusCreated, &claim)
	if claim.AmountClaimed != 300_000 || claim.Holder != crypto.Encode(buyer) {
		t.Fatalf("unexpected claim %+v", claim)
	}
	ts.expectCode(ts.do(http.MethodPost, base+"/claims", &buyer, nil), http.StatusConflict, "AlreadyClaimed")

	var fetched claimView
	ts.expect(ts.do(http.MethodGet, fmt.Sprintf("%s/claims/%s/%d", base, crypto.Encode(buyer), 1), nil, nil), http.StatusOK, &fetched)
	if fetched.Address != claim.Address {
		t.Fatalf("claim lookup mismatch")
	}

	var resale resaleView
	ts.expect(ts.do(http.MethodPost, base+"/resales", &buyer, map[string]any{"price": 2_000_000}), http.StatusCreated, &resale)
	var resales []resaleView
	ts.expect(ts.do(http.MethodGet, base+"/resales", nil, nil), http.StatusOK, &resales)
	if len(resales) != 1 || resales[0].Seller != crypto.Encode(buyer) {
		t.Fatalf("unexpected resales %+v", resales)
	}

	ts.fund(stranger, 2_000_000)
	var second saleView
	ts.expect(ts.do(http.MethodPost, base+"/resales/"+crypto.Encode(buyer)+"/buy", &stranger, nil), http.StatusOK, &second)
	if second.PlatformFee != 50_000 || second.CreatorRoyalty != 50_000 || second.SellerAmount != 1_900_000 {
		t.Fatalf("unexpected resale split %+v", second)
	}

	var sales []saleView
	ts.expect(ts.do(http.MethodGet, "/v1/sales", nil, nil), http.StatusOK, &sales)
	if len(sales) != 2 {
		t.Fatalf("expected two sales in the journal, got %d", len(sales))
	}
	var claims []claimView
	ts.expect(ts.do(http.MethodGet, base+"/claims", nil, nil), http.StatusOK, &claims)
	if len(claims) != 1 {
		t.Fatalf("expected one claim, got %d", len(claims))
	}
}

func TestFundRequiresAuthority(t *testing.T) {
	ts := newTestServer(t, true)
	ts.bootstrap()
	rec := ts.do(http.MethodPost, "/v1/accounts/"+crypto.Encode(buyer)+"/fund", &buyer, map[string]any{"amount": 1})
	ts.expectCode(rec, http.StatusForbidden, "Unauthorized")
}

func TestRecordAddressCallersRefused(t *testing.T) {
	ts := newTestServer(t, true)
	ts.bootstrap()
	ts.fund(buyer, 1_000_000)

	var listing listingView
	ts.expect(ts.do(http.MethodPost, "/v1/listings", &creator, map[string]any{
		"metadataUri":   "ipfs://royalty/1",
		"percentageBps": 500,
		"price":         1_000_000,
	}), http.StatusCreated, &listing)
	base := "/v1/listings/" + listing.Address
	ts.expect(ts.do(http.MethodPost, base+"/buy", &buyer, nil), http.StatusOK, nil)
	ts.expect(ts.do(http.MethodPost, base+"/payouts", &creator, map[string]any{"amount": 100}), http.StatusOK, nil)

	listingAddr, err := crypto.ParseAddress(listing.Address)
	if err != nil {
		t.Fatalf("parse listing address: %v", err)
	}
	pool := royalty.PoolAddress(listingAddr)

	ts.expectCode(ts.do(http.MethodPost, base+"/claims", &pool, nil), http.StatusForbidden, "Unauthorized")
	ts.expectCode(ts.do(http.MethodPost, "/v1/listings", &pool, map[string]any{
		"metadataUri":   "ipfs://royalty/2",
		"percentageBps": 500,
		"price":         1,
	}), http.StatusForbidden, "Unauthorized")
	ts.expectCode(ts.do(http.MethodPost, "/v1/accounts/"+crypto.Encode(pool)+"/fund", &authority, map[string]any{
		"amount": 1,
	}), http.StatusBadRequest, "InvalidAddress")
	if got := ts.balance(pool); got != 100 {
		t.Fatalf("vault balance changed to %d", got)
	}
}

func TestRequestValidation(t *testing.T) {
	ts := newTestServer(t, true)

	ts.expect(ts.do(http.MethodPost, "/v1/listings", nil, map[string]any{}), http.StatusUnauthorized, nil)
	ts.expectCode(ts.do(http.MethodGet, "/v1/config", nil, nil), http.StatusConflict, "NotInitialized")
	ts.expect(ts.do(http.MethodGet, "/v1/listings/not-an-address", nil, nil), http.StatusBadRequest, nil)
	ts.expect(ts.do(http.MethodPost, "/v1/platform/initialize", &authority, map[string]any{"bogus": true}), http.StatusBadRequest, nil)

	ts.bootstrap()
	ts.expectCode(ts.do(http.MethodPost, "/v1/listings", &creator, map[string]any{
		"metadataUri":   "ipfs://x",
		"percentageBps": 0,
		"price":         1,
	}), http.StatusBadRequest, "InvalidPercentage")
	ts.expectCode(ts.do(http.MethodGet, "/v1/listings/"+crypto.Encode(stranger), nil, nil), http.StatusNotFound, "ListingNotFound")
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{royalty.ErrFeeTooHigh, http.StatusBadRequest},
		{royalty.ErrInsufficientFunds, http.StatusPaymentRequired},
		{royalty.ErrNotOwner, http.StatusForbidden},
		{royalty.ErrPoolNotFound, http.StatusNotFound},
		{royalty.ErrConflict, http.StatusConflict},
		{context.Canceled, http.StatusServiceUnavailable},
		{fmt.Errorf("wrapped: %w", royalty.ErrAlreadyClaimed), http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestEventStream(t *testing.T) {
	ts := newTestServer(t, false)
	httpServer := httptest.NewServer(ts.handler)
	defer httpServer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/v1/events/ws?types=royalty.ledger"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for ts.server.events.Subscribers() == 0 {
		select {
		case <-ctx.Done():
			t.Fatalf("subscriber never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	post := func(path string, caller [20]byte, body string) {
		req, _ := http.NewRequest(http.MethodPost, httpServer.URL+path, strings.NewReader(body))
		req.Header.Set(middleware.CallerHeader, crypto.Encode(caller))
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("post %s: %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode >= 300 {
			t.Fatalf("post %s: status %d", path, res.StatusCode)
		}
	}
	post("/v1/platform/initialize", authority, `{"treasury":"`+crypto.Encode(treasury)+`","platformFeeBps":100}`)
	post("/v1/accounts/"+crypto.Encode(buyer)+"/fund", authority, `{"amount":42}`)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var record events.Record
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if record.Type != royalty.EventTypeAccountFunded {
		t.Fatalf("expected funded event, got %s", record.Type)
	}
	if record.Summary == "" {
		t.Fatalf("expected audit summary on event")
	}
}
