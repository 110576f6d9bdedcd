package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apphttp "window-counter/backend/internal/app/http"
	"window-counter/backend/internal/app/http/handlers"
	"window-counter/backend/internal/domain/identity"
	"window-counter/backend/internal/domain/quote"
	"window-counter/backend/internal/domain/workspace"
	"window-counter/backend/internal/infra/db/memory"
)

const testSecret = "handler-secret"

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type mockDB struct {
	pingFunc func(ctx context.Context) error
}

func (m *mockDB) Ping(ctx context.Context) error {
	if m.pingFunc != nil {
		return m.pingFunc(ctx)
	}
	return nil
}

type mockPDF struct {
	generateFunc func(q quote.Quote) ([]byte, error)
}

func (m *mockPDF) Generate(q quote.Quote) ([]byte, error) {
	if m.generateFunc != nil {
		return m.generateFunc(q)
	}
	return []byte("%PDF-" + q.Name), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// rawBody is sent as-is instead of being JSON encoded.
type rawBody string

type fixture struct {
	t      *testing.T
	reg    *workspace.Registry
	router http.Handler
}

func newFixture(t *testing.T, db handlers.Pinger) *fixture {
	t.Helper()
	reg := workspace.NewRegistry(workspace.Options{
		Store:    memory.NewQuoteStore(),
		Provider: identity.NewLocalProvider(testSecret),
		Gateway:  quote.GatewayConfig{AppID: "test-app"},
		TTL:      time.Hour,
	})
	assets := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("asset:" + r.URL.Path))
	})
	h := handlers.New(reg, db, &mockPDF{}, nil)
	return &fixture{t: t, reg: reg, router: apphttp.NewRouter(h, assets, "*", nil)}
}

func (f *fixture) do(method, path string, body any, header ...string) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if raw, ok := body.(rawBody); ok {
		buf.WriteString(string(raw))
	} else if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			f.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

// open creates a workspace and waits until it is signed in.
func (f *fixture) open(header ...string) string {
	f.t.Helper()
	rec := f.do(http.MethodPost, "/v1/workspaces", nil, header...)
	if rec.Code != http.StatusCreated {
		f.t.Fatalf("open workspace: %d %s", rec.Code, rec.Body.String())
	}
	var st workspace.State
	decode(f.t, rec, &st)

	ws, ok := f.reg.Get(st.ID)
	if !ok {
		f.t.Fatal("workspace not registered")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ws.AwaitIdentity(ctx); err != nil {
		f.t.Fatal(err)
	}
	return "/v1/workspaces/" + st.ID
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v (body %q)", err, rec.Body.String())
	}
}

type errorBody struct {
	Error string           `json:"error"`
	Kind  string           `json:"kind"`
	State *workspace.State `json:"state"`
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

func TestHealth_OK(t *testing.T) {
	f := newFixture(t, &mockDB{})
	rec := f.do(http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHealth_Unhealthy(t *testing.T) {
	f := newFixture(t, &mockDB{pingFunc: func(ctx context.Context) error {
		return errors.New("connection refused")
	}})
	rec := f.do(http.MethodGet, "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Workspaces
// ---------------------------------------------------------------------------

func TestOpenWorkspace_SeedsDefaults(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	rec := f.do(http.MethodGet, base, nil)
	var st workspace.State
	decode(t, rec, &st)
	if len(st.Items) != 5 || st.Items[0].ID != "sash" {
		t.Errorf("unexpected seed %+v", st.Items)
	}
	if !st.AuthReady || st.Identity == nil || !st.Identity.Anonymous {
		t.Errorf("expected anonymous identity, got %+v", st.Identity)
	}
}

func TestOpenWorkspace_BearerToken(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open("Authorization", "Bearer "+identity.IssueToken(testSecret, "estimator-7"))

	var st workspace.State
	decode(t, f.do(http.MethodGet, base, nil), &st)
	if st.Identity == nil || st.Identity.UserID != "estimator-7" {
		t.Errorf("expected token identity, got %+v", st.Identity)
	}
}

func TestUnknownWorkspace(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/v1/workspaces/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCloseWorkspace(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()
	if rec := f.do(http.MethodDelete, base, nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, base, nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after close, got %d", rec.Code)
	}
}

// ---------------------------------------------------------------------------
// Editor
// ---------------------------------------------------------------------------

func TestAddWindowType(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	f.do(http.MethodPost, base+"/add-form", nil)
	rec := f.do(http.MethodPost, base+"/items", map[string]string{"name": "Bay", "price": "75.5"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	var st workspace.State
	decode(t, rec, &st)
	last := st.Items[len(st.Items)-1]
	if last.Name != "Bay" || last.Count != 0 || last.UnitPrice.StringFixed(2) != "75.50" {
		t.Errorf("unexpected item %+v", last)
	}
	if st.AddForm.Expanded {
		t.Error("expected add form collapsed after adding")
	}
}

func TestAddWindowType_Validation(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	tests := []struct {
		name string
		body map[string]string
		want string
	}{
		{"empty name", map[string]string{"name": "  ", "price": "5"}, "Window name cannot be empty."},
		{"negative price", map[string]string{"name": "Bay", "price": "-5"}, "Price must be a valid non-negative number."},
		{"not a number", map[string]string{"name": "Bay", "price": "abc"}, "Price must be a valid non-negative number."},
		{"too long", map[string]string{"name": strings.Repeat("x", 201), "price": "5"}, "Name must be at most 200 characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, base+"/items", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var body errorBody
			decode(t, rec, &body)
			if body.Error != tt.want {
				t.Errorf("expected %q, got %q", tt.want, body.Error)
			}
			if body.State == nil || body.State.Notice == nil || body.State.Notice.Message != tt.want {
				t.Errorf("expected notice %q, got %+v", tt.want, body.State)
			}
		})
	}
}

func TestAddWindowType_NumericPrice(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	rec := f.do(http.MethodPost, base+"/items", rawBody(`{"name":"Sash","price":10}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	var st workspace.State
	decode(t, rec, &st)
	if got := st.Items[len(st.Items)-1].UnitPrice.StringFixed(2); got != "10.00" {
		t.Errorf("expected price 10.00, got %s", got)
	}
}

func TestAddWindowType_ExponentPriceRejected(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	for _, body := range []string{
		`{"name":"Sash","price":"1e10000000"}`,
		`{"name":"Sash","price":1e10000000}`,
	} {
		rec := f.do(http.MethodPost, base+"/items", rawBody(body))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
	}
	rec := f.do(http.MethodGet, base, nil)
	if rec.Body.Len() > 4096 {
		t.Errorf("expected a small state body, got %d bytes", rec.Body.Len())
	}
	var st workspace.State
	decode(t, rec, &st)
	if len(st.Items) != 5 {
		t.Errorf("expected no item added, got %d", len(st.Items))
	}
}

func TestMalformedBodyShowsNotice(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	tests := []struct {
		name, path, body string
	}{
		{"wrong type", "/quotes", `{"name":12}`},
		{"not json", "/items", `{`},
		{"bool price", "/items", `{"name":"Sash","price":true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, base+tt.path, rawBody(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			var body errorBody
			decode(t, rec, &body)
			if body.State == nil || body.State.Notice == nil || body.State.Notice.Message != "Invalid request body." {
				t.Errorf("expected notice, got %+v", body.State)
			}
		})
	}
}

func TestCountsAndTotal(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	f.do(http.MethodPost, base+"/items/sash/edit", nil)
	f.do(http.MethodPut, base+"/edit", map[string]string{"name": "Sash Window", "price": "12.50"})
	f.do(http.MethodPost, base+"/items/sash/increment", nil)
	f.do(http.MethodPost, base+"/items/sash/increment", nil)
	f.do(http.MethodPost, base+"/items/screen/decrement", nil)
	rec := f.do(http.MethodPost, base+"/items/screen/increment", nil)

	var st workspace.State
	decode(t, rec, &st)
	if got := st.TotalCost.StringFixed(2); got != "25.00" {
		t.Errorf("expected total 25.00, got %s", got)
	}
	for _, it := range st.Items {
		if it.ID == "screen" && it.Count != 1 {
			t.Errorf("expected screen count 1, got %d", it.Count)
		}
	}
}

func TestDeleteWindowType_RequiresConfirmation(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	rec := f.do(http.MethodDelete, base+"/items/screen", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var st workspace.State
	decode(t, rec, &st)
	if len(st.Items) != 5 || st.Notice == nil || st.Notice.Confirmation == nil {
		t.Fatalf("expected pending confirmation, got %+v", st.Notice)
	}

	var resp struct {
		Outcome workspace.Outcome `json:"outcome"`
		State   workspace.State   `json:"state"`
	}
	decode(t, f.do(http.MethodPost, base+"/notice/confirm", nil), &resp)
	if !resp.Outcome.Applied || len(resp.State.Items) != 4 {
		t.Errorf("expected item removed, got %+v", resp)
	}
}

func TestEditFlow(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	if rec := f.do(http.MethodPost, base+"/items/ghost/edit", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var st workspace.State
	decode(t, f.do(http.MethodPost, base+"/items/sash/edit", nil), &st)
	if st.Edit == nil || st.Edit.ID != "sash" {
		t.Fatalf("expected edit session, got %+v", st.Edit)
	}

	rec := f.do(http.MethodPut, base+"/edit", map[string]string{"name": "Sash", "price": "oops"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = f.do(http.MethodPut, base+"/edit", map[string]string{"name": "Double sash", "price": "30"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	st = workspace.State{}
	decode(t, rec, &st)
	if st.Edit != nil || st.Items[0].Name != "Double sash" || st.Items[0].UnitPrice.StringFixed(2) != "30.00" {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestReorderAndMove(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	var st workspace.State
	decode(t, f.do(http.MethodPost, base+"/reorder", map[string]string{"dragged_id": "screen", "target_id": "sash"}), &st)
	if st.Items[0].ID != "screen" {
		t.Errorf("expected screen first, got %s", st.Items[0].ID)
	}

	st = workspace.State{}
	decode(t, f.do(http.MethodPost, base+"/move", map[string]int{"from": 0, "to": 4}), &st)
	if st.Items[4].ID != "screen" {
		t.Errorf("expected screen last, got %s", st.Items[4].ID)
	}

	if rec := f.do(http.MethodPost, base+"/move", map[string]int{"from": 1}); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing field, got %d", rec.Code)
	}
	if rec := f.do(http.MethodPost, base+"/reorder", map[string]string{"dragged_id": "sash"}); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing target, got %d", rec.Code)
	}
}

func TestDragGesture(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	var st workspace.State
	decode(t, f.do(http.MethodPost, base+"/items/fw-large/pickup", nil), &st)
	if st.Dragging != "fw-large" {
		t.Fatalf("expected dragging fw-large, got %q", st.Dragging)
	}
	st = workspace.State{}
	decode(t, f.do(http.MethodPost, base+"/items/sash/drop", nil), &st)
	if st.Dragging != "" || st.Items[0].ID != "fw-large" {
		t.Errorf("unexpected state after drop: %q %s", st.Dragging, st.Items[0].ID)
	}
}

// ---------------------------------------------------------------------------
// Quotes
// ---------------------------------------------------------------------------

func TestQuoteLifecycle(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()

	f.do(http.MethodPost, base+"/items/fw-small/increment", nil)
	rec := f.do(http.MethodPost, base+"/quotes", map[string]string{"name": "Smith job"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	var saved struct {
		Quote quote.Quote     `json:"quote"`
		State workspace.State `json:"state"`
	}
	decode(t, rec, &saved)
	if saved.Quote.ID == "" || saved.State.Notice == nil || saved.State.Notice.Message != "Quote saved successfully!" {
		t.Fatalf("unexpected save response %+v", saved)
	}

	var list struct {
		Quotes []quote.Quote `json:"quotes"`
	}
	decode(t, f.do(http.MethodGet, base+"/quotes", nil), &list)
	if len(list.Quotes) != 1 || list.Quotes[0].Name != "Smith job" {
		t.Fatalf("unexpected list %+v", list)
	}

	pdf := f.do(http.MethodGet, base+"/quotes/"+saved.Quote.ID+"/pdf", nil)
	if pdf.Code != http.StatusOK || pdf.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("unexpected pdf response %d %q", pdf.Code, pdf.Header().Get("Content-Type"))
	}

	if rec := f.do(http.MethodPost, base+"/quotes/"+saved.Quote.ID+"/load", nil); rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	f.do(http.MethodPost, base+"/notice/confirm", nil)

	if rec := f.do(http.MethodDelete, base+"/quotes/"+saved.Quote.ID, nil); rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	var resp struct {
		Outcome workspace.Outcome `json:"outcome"`
	}
	decode(t, f.do(http.MethodPost, base+"/notice/confirm", nil), &resp)
	if !resp.Outcome.Applied || len(resp.Outcome.Quotes) != 0 {
		t.Errorf("unexpected delete outcome %+v", resp.Outcome)
	}
}

func TestSaveQuote_EmptyName(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()
	rec := f.do(http.MethodPost, base+"/quotes", map[string]string{"name": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var body errorBody
	decode(t, rec, &body)
	if body.Error != "Quote name cannot be empty." || body.Kind != "validation" {
		t.Errorf("unexpected error body %+v", body)
	}
}

func TestLoadQuote_Unknown(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()
	if rec := f.do(http.MethodPost, base+"/quotes/ghost/load", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, base+"/quotes/ghost/pdf", nil); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCancelNotice(t *testing.T) {
	f := newFixture(t, nil)
	base := f.open()
	f.do(http.MethodDelete, base+"/items/sash", nil)

	var resp struct {
		Outcome workspace.Outcome `json:"outcome"`
		State   workspace.State   `json:"state"`
	}
	decode(t, f.do(http.MethodPost, base+"/notice/cancel", nil), &resp)
	if resp.Outcome.Applied || resp.State.Notice != nil || len(resp.State.Items) != 5 {
		t.Errorf("unexpected cancel result %+v", resp)
	}
}

// ---------------------------------------------------------------------------
// Assets
// ---------------------------------------------------------------------------

func TestUnknownPathsGoToAssets(t *testing.T) {
	f := newFixture(t, nil)
	rec := f.do(http.MethodGet, "/index.html", nil)
	if rec.Body.String() != "asset:/index.html" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}
