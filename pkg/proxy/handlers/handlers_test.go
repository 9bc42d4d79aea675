package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	testproviders "listingforge/gateway/internal/providers"
	"listingforge/gateway/pkg/plans"
	"listingforge/gateway/pkg/providers"
	"listingforge/gateway/pkg/providers/groq"
	"listingforge/gateway/pkg/proxy/types"
	"listingforge/gateway/pkg/quota"
	quotastore "listingforge/gateway/pkg/quota/storage"
	"listingforge/gateway/pkg/sanitizer"
	"listingforge/gateway/pkg/security/auth"
	"listingforge/gateway/pkg/usage"
	usagestore "listingforge/gateway/pkg/usage/storage"
)

const testAccount = "acct-1"

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// failingListingStore accepts reads but fails every write.
type failingListingStore struct {
	usage.ListingStore
}

func (failingListingStore) Store(ctx context.Context, l *usage.Listing) error {
	return errors.New("disk full")
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveGeneration(provider, outcome string, latency time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, provider+":"+outcome)
}

// panickingClient fails mid-generation the way a nil dereference would.
type panickingClient struct{}

func (panickingClient) Generate(ctx context.Context, req *providers.GenerationRequest) (string, error) {
	panic("provider blew up")
}

func (panickingClient) Name() string             { return "panicky" }
func (panickingClient) Health() providers.Health { return providers.Health{IsHealthy: true} }

type fixture struct {
	provider *testproviders.MockServer
	profiles *quotastore.MemoryBackend
	listings usage.ListingStore
	gate     *quota.Gate
	recorder *usage.Recorder
	observer *recordingObserver
	generate http.Handler
}

func newFixture(t *testing.T, listings usage.ListingStore) *fixture {
	t.Helper()

	provider := testproviders.NewMockServer()
	t.Cleanup(provider.Close)
	provider.SetCompletion(testproviders.ValidDocument)

	client, err := groq.NewClient(testproviders.TestConfig(provider.URL()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if listings == nil {
		listings = usagestore.NewMemoryStorage()
	}
	profiles := quotastore.NewMemoryBackend()
	gate := quota.NewGate(profiles, nil, quota.GateConfig{
		Period: 30 * 24 * time.Hour,
		Now:    func() time.Time { return testNow },
	})
	recorder := usage.NewRecorder(listings, nil, nil)
	observer := &recordingObserver{}

	return &fixture{
		provider: provider,
		profiles: profiles,
		listings: listings,
		gate:     gate,
		recorder: recorder,
		observer: observer,
		generate: NewGenerateHandler(gate, client, recorder, observer),
	}
}

func (f *fixture) seed(tier plans.Tier, used int) {
	f.profiles.Put(quota.Profile{
		AccountID:    testAccount,
		Plan:         tier,
		ListingsUsed: used,
		LeadsUsed:    3,
		PeriodStart:  testNow.Add(-24 * time.Hour),
	})
}

func (f *fixture) used(t *testing.T) int {
	t.Helper()
	p, ok := f.profiles.Get(testAccount)
	if !ok {
		t.Fatal("profile missing")
	}
	return p.ListingsUsed
}

func serve(h http.Handler, method, target, account, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if account != "" {
		claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: account}}
		req = req.WithContext(auth.WithClaims(req.Context(), claims))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
	return body
}

const validBody = `{"address":"Calle Roble 42","price":"3,200,000 MXN","type":"casa","tone":"lujoso"}`

func TestGenerateHandler_Success(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(plans.TierFree, 4)

	rec := serve(f.generate, http.MethodPost, "/generate", testAccount, validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp types.GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	want := sanitizer.Extract(testproviders.ValidDocument)
	if !resp.Success || !reflect.DeepEqual(resp.Content, want) {
		t.Errorf("response = %+v", resp)
	}
	if resp.Usage != (types.UsageSummary{Used: 5, Limit: 5, Plan: "free"}) {
		t.Errorf("usage = %+v", resp.Usage)
	}
	if f.used(t) != 5 {
		t.Errorf("stored used = %d, want 5", f.used(t))
	}

	history, err := f.recorder.History(context.Background(), testAccount, 0)
	if err != nil || len(history) != 1 {
		t.Fatalf("History() = %v, %v", history, err)
	}
	if history[0].ID != resp.ListingID || history[0].Tone != "lujoso" {
		t.Errorf("stored listing = %+v", history[0])
	}
	if got := f.observer.outcomes; len(got) != 1 || got[0] != "groq:success" {
		t.Errorf("observer outcomes = %v", got)
	}
}

func TestGenerateHandler_QuotaExceeded(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(plans.TierFree, 5)

	rec := serve(f.generate, http.MethodPost, "/generate", testAccount, validBody)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	body := decode(t, rec)
	if body["error"] != "Has alcanzado tu límite de 5 listings este mes en el plan FREE." {
		t.Errorf("error = %v", body["error"])
	}
	if body["upgrade"] != true || body["plan"] != "free" || body["used"] != 5.0 || body["limit"] != 5.0 {
		t.Errorf("body = %v", body)
	}
	if n := f.provider.GetRequestCount(); n != 0 {
		t.Errorf("provider called %d times", n)
	}
	if f.used(t) != 5 {
		t.Errorf("stored used = %d, want 5", f.used(t))
	}
}

func TestGenerateHandler_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		account  string
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "missing price",
			method:   http.MethodPost,
			account:  testAccount,
			body:     `{"address":"Calle Roble 42"}`,
			wantCode: http.StatusBadRequest,
			wantErr:  types.MessageMissingFields,
		},
		{
			name:     "malformed body",
			method:   http.MethodPost,
			account:  testAccount,
			body:     `{"address":`,
			wantCode: http.StatusBadRequest,
			wantErr:  types.MessageInvalidJSON,
		},
		{
			name:     "unauthenticated",
			method:   http.MethodPost,
			body:     validBody,
			wantCode: http.StatusUnauthorized,
			wantErr:  auth.MessageMissingToken,
		},
		{
			name:     "wrong method",
			method:   http.MethodGet,
			account:  testAccount,
			wantCode: http.StatusMethodNotAllowed,
			wantErr:  types.MessageMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.seed(plans.TierFree, 1)

			rec := serve(f.generate, tt.method, "/generate", tt.account, tt.body)
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if body := decode(t, rec); body["error"] != tt.wantErr {
				t.Errorf("error = %v, want %q", body["error"], tt.wantErr)
			}
			if f.used(t) != 1 {
				t.Errorf("stored used = %d, want 1", f.used(t))
			}
			if n := f.provider.GetRequestCount(); n != 0 {
				t.Errorf("provider called %d times", n)
			}
		})
	}
}

func TestGenerateHandler_UpstreamFailureReleases(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(plans.TierBasic, 10)
	f.provider.SetError(http.StatusBadGateway, "upstream exploded")

	rec := serve(f.generate, http.MethodPost, "/generate", testAccount, validBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	body := decode(t, rec)
	if body["error"] != types.MessageInternal || body["code"] != types.CodeUpstreamError {
		t.Errorf("body = %v", body)
	}
	if strings.Contains(rec.Body.String(), "exploded") {
		t.Error("upstream detail leaked to client")
	}
	if f.used(t) != 10 {
		t.Errorf("stored used = %d, want 10", f.used(t))
	}
	if got := f.observer.outcomes; len(got) != 1 || got[0] != "groq:upstream_error" {
		t.Errorf("observer outcomes = %v", got)
	}
}

func TestGenerateHandler_PanicReleasesReservation(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(plans.TierBasic, 0)
	h := NewGenerateHandler(f.gate, panickingClient{}, f.recorder, nil)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the panic to propagate to the recovery middleware")
			}
		}()
		serve(h, http.MethodPost, "/generate", testAccount, validBody)
	}()

	if got := f.used(t); got != 0 {
		t.Errorf("stored used = %d after panicking generation, want 0", got)
	}
	if n, _ := f.listings.Count(context.Background(), &usage.Query{AccountID: testAccount}); n != 0 {
		t.Errorf("listings stored = %d, want 0", n)
	}
}

func TestGenerateHandler_FallbackContent(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(plans.TierPro, 0)
	f.provider.SetCompletion("Lo siento, aquí va el texto sin formato.")

	rec := serve(f.generate, http.MethodPost, "/generate", testAccount, validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp types.GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Content.MLS != "Lo siento, aquí va el texto sin formato." {
		t.Errorf("mls = %q", resp.Content.MLS)
	}
	if resp.Content.Email != sanitizer.FallbackEmail || len(resp.Content.Posts) == 0 {
		t.Errorf("content = %+v", resp.Content)
	}
	if f.used(t) != 1 {
		t.Errorf("stored used = %d, want 1", f.used(t))
	}
	if got := f.observer.outcomes; len(got) != 1 || got[0] != "groq:fallback" {
		t.Errorf("observer outcomes = %v", got)
	}
}

func TestGenerateHandler_PersistenceFailureKeepsCharge(t *testing.T) {
	f := newFixture(t, failingListingStore{usagestore.NewMemoryStorage()})
	f.seed(plans.TierFree, 2)

	rec := serve(f.generate, http.MethodPost, "/generate", testAccount, validBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	var resp types.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Code != types.CodePersistenceError || resp.Content == nil {
		t.Fatalf("response = %+v", resp)
	}
	if resp.Content.MLS != sanitizer.Extract(testproviders.ValidDocument).MLS {
		t.Errorf("content = %+v", resp.Content)
	}
	if f.used(t) != 3 {
		t.Errorf("stored used = %d, want 3", f.used(t))
	}
}

func TestGenerateHandler_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(t, nil)
	f.seed(plans.TierBasic, 49)

	codes := make([]int, 2)
	var wg sync.WaitGroup
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = serve(f.generate, http.MethodPost, "/generate", testAccount, validBody).Code
		}(i)
	}
	wg.Wait()

	granted, denied := 0, 0
	for _, c := range codes {
		switch c {
		case http.StatusOK:
			granted++
		case http.StatusTooManyRequests:
			denied++
		}
	}
	if granted != 1 || denied != 1 {
		t.Errorf("codes = %v, want one 200 and one 429", codes)
	}
	if f.used(t) != 50 {
		t.Errorf("stored used = %d, want 50", f.used(t))
	}
}

func TestUsageHandler(t *testing.T) {
	tests := []struct {
		name       string
		tier       plans.Tier
		used       int
		start      time.Time
		wantCode   int
		wantUsed   float64
		wantLimit  float64
		wantLabel  string
		wantLeads  float64
		provisions bool
	}{
		{
			name:      "free plan",
			tier:      plans.TierFree,
			used:      2,
			start:     testNow.Add(-24 * time.Hour),
			wantCode:  http.StatusOK,
			wantUsed:  2,
			wantLimit: 5,
			wantLabel: "Gratis",
			wantLeads: 3,
		},
		{
			name:      "lapsed period resets",
			tier:      plans.TierPro,
			used:      150,
			start:     testNow.Add(-31 * 24 * time.Hour),
			wantCode:  http.StatusOK,
			wantUsed:  0,
			wantLimit: 200,
			wantLabel: "Pro — $149/mes",
			wantLeads: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.profiles.Put(quota.Profile{
				AccountID:    testAccount,
				Plan:         tt.tier,
				ListingsUsed: tt.used,
				LeadsUsed:    3,
				PeriodStart:  tt.start,
			})

			rec := serve(NewUsageHandler(f.gate), http.MethodGet, "/usage", testAccount, "")
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d", rec.Code)
			}

			body := decode(t, rec)
			listings := body["listings"].(map[string]any)
			leads := body["leads"].(map[string]any)
			if body["plan"] != tt.tier.String() || body["planLabel"] != tt.wantLabel {
				t.Errorf("plan = %v / %v", body["plan"], body["planLabel"])
			}
			if listings["used"] != tt.wantUsed || listings["limit"] != tt.wantLimit {
				t.Errorf("listings = %v", listings)
			}
			if leads["used"] != tt.wantLeads {
				t.Errorf("leads = %v", leads)
			}
		})
	}
}

func TestUsageHandler_UnknownAccount(t *testing.T) {
	f := newFixture(t, nil)

	rec := serve(NewUsageHandler(f.gate), http.MethodGet, "/usage", "ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if body := decode(t, rec); body["error"] != types.MessageProfileNotFound {
		t.Errorf("error = %v", body["error"])
	}
}

func TestListingsHandler(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	for i, addr := range []string{"Primera 1", "Segunda 2", "Tercera 3"} {
		err := f.listings.Store(ctx, &usage.Listing{
			ID:        addr,
			AccountID: testAccount,
			Address:   addr,
			Price:     "1",
			Tone:      "profesional",
			CreatedAt: testNow.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Store() error = %v", err)
		}
	}
	h := NewListingsHandler(f.recorder)

	rec := serve(h, http.MethodGet, "/listings?limit=2", testAccount, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp types.ListingsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Listings) != 2 || resp.Listings[0].Address != "Tercera 3" {
		t.Errorf("listings = %+v", resp.Listings)
	}

	rec = serve(h, http.MethodGet, "/listings", "other-account", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"listings":[]`) {
		t.Errorf("other account: %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(h, http.MethodGet, "/listings?limit=abc", testAccount, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid limit: status = %d", rec.Code)
	}
	if body := decode(t, rec); body["code"] != types.CodeInvalidParameter {
		t.Errorf("invalid limit: body = %v", body)
	}
}
