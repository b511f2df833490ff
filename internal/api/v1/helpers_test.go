package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"sync"
	"testing"
	"time"

	"tenantsync/configs"
	"tenantsync/internal/api/v1/handlers"
	"tenantsync/internal/intake"
	"tenantsync/internal/middleware"
	"tenantsync/internal/payment"
	"tenantsync/internal/repository/mock"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeAssistant struct {
	mu          sync.Mutex
	issueType   string
	classifyErr error
	complete    bool
}

func (f *fakeAssistant) AssessCompleteness(ctx context.Context, desc string) (bool, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.complete {
		return true, "", nil
	}
	return false, "Where exactly is the problem?", nil
}

func (f *fakeAssistant) ClassifyIssue(ctx context.Context, desc string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issueType, f.classifyErr
}

type fakeOrders struct {
	mu      sync.Mutex
	created []payment.OrderRequest
}

func (f *fakeOrders) Name() string { return "paypal" }

func (f *fakeOrders) CreateOrder(ctx context.Context, req payment.OrderRequest) (*payment.Order, error) {
	if req.PayeeEmail == "" {
		return nil, payment.ErrPayeeNotLinked
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	id := fmt.Sprintf("ORDER-%d", len(f.created))
	return &payment.Order{ID: id, Status: "CREATED", Links: []payment.Link{{Href: "https://paypal.example/" + id, Rel: "approve"}}}, nil
}

func (f *fakeOrders) CaptureOrder(ctx context.Context, orderID string) (*payment.Order, error) {
	return &payment.Order{ID: orderID, Status: "COMPLETED", Links: []payment.Link{}}, nil
}

type fakeIntents struct{}

func (fakeIntents) Name() string { return "stripe" }

func (fakeIntents) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (*payment.Intent, error) {
	if !amount.IsPositive() {
		return nil, errors.New("amount must be positive")
	}
	return &payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_" + amount.String()}, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events map[int][]any
}

func (f *fakeNotifier) NotifyBooking(workerID int, event any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.events == nil {
		f.events = map[int][]any{}
	}
	f.events[workerID] = append(f.events[workerID], event)
	return nil
}

func (f *fakeNotifier) count(workerID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events[workerID])
}

type testEnv struct {
	app      *fiber.App
	store    *mock.Store
	ai       *fakeAssistant
	orders   *fakeOrders
	notifier *fakeNotifier
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := configs.Config{
		JWTSecret:   "test-secret",
		SessionTTL:  time.Hour,
		UploadDir:   t.TempDir(),
		Timezone:    "UTC",
		FrontendURL: "http://localhost:5173",
	}
	store := mock.New()
	ai := &fakeAssistant{issueType: "Plumber"}
	intakeStore := intake.NewMemoryStore(time.Minute)
	t.Cleanup(func() { intakeStore.Close() })

	env := &testEnv{
		store:    store,
		ai:       ai,
		orders:   &fakeOrders{},
		notifier: &fakeNotifier{},
		now:      time.Now().UTC(),
	}
	h := handlers.New(handlers.Deps{
		Config:    cfg,
		Repo:      store,
		Auth:      middleware.NewAuth([]byte(cfg.JWTSecret), store),
		Assistant: ai,
		Intake:    intake.NewFlow(intakeStore, ai),
		Orders:    env.orders,
		Intents:   fakeIntents{},
		Notifier:  env.notifier,
		Now:       func() time.Time { return env.now },
	})

	app := fiber.New()
	app.Use(middleware.ErrorHandler())
	RegisterRoutes(app, h, nil)
	env.app = app
	return env
}

type response struct {
	status int
	body   map[string]any
}

func (r response) data() map[string]any {
	d, _ := r.body["data"].(map[string]any)
	return d
}

func (r response) list() []any {
	l, _ := r.body["data"].([]any)
	return l
}

func (e *testEnv) send(t *testing.T, req *http.Request, token string) response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := response{status: resp.StatusCode, body: map[string]any{}}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.send(t, req, token)
}

// upload builds a multipart maintenance request with optional media files.
func (e *testEnv) upload(t *testing.T, description string, files map[string]string, token string) response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("description", description))
	for name, contentType := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media"; filename="%s"`, name))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake file content"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/maintenance-request", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return e.send(t, req, token)
}

func (e *testEnv) signup(t *testing.T, fields map[string]any) int {
	t.Helper()
	body := map[string]any{"name": "Test User", "phone": "5551234567", "password": "Secret123"}
	for k, v := range fields {
		body[k] = v
	}
	res := e.do(t, http.MethodPost, "/signup", body, "")
	require.Equal(t, http.StatusCreated, res.status, res.body)
	return int(res.data()["id"].(float64))
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	res := e.do(t, http.MethodPost, "/login", map[string]any{"email": email, "password": "Secret123"}, "")
	require.Equal(t, http.StatusOK, res.status, res.body)
	return res.body["token"].(string)
}

// property seeds a landlord, one tenant with rent and one plumber.
type property struct {
	landlordID, tenantID, workerID             int
	landlordToken, tenantToken, workerToken string
}

func (e *testEnv) seedProperty(t *testing.T) property {
	t.Helper()
	var p property
	p.landlordID = e.signup(t, map[string]any{"email": "owner@example.com", "role": "landlord"})
	p.tenantID = e.signup(t, map[string]any{"email": "tia@example.com", "role": "tenant", "landlordId": p.landlordID})
	p.workerID = e.signup(t, map[string]any{
		"email": "max@example.com", "role": "maintenance",
		"typeOfMaintenance": "Plumber", "availability": "09:00-17:00",
	})
	p.landlordToken = e.login(t, "owner@example.com")
	p.tenantToken = e.login(t, "tia@example.com")
	p.workerToken = e.login(t, "max@example.com")
	return p
}

func itoa(id float64) string {
	return strconv.Itoa(int(id))
}

func newGet(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}
