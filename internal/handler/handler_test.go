package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/mortgage-service/internal/config"
	"github.com/Dan9191/mortgage-service/internal/integrations/cbr"
	"github.com/Dan9191/mortgage-service/internal/middleware"
	"github.com/Dan9191/mortgage-service/internal/models"
	"github.com/Dan9191/mortgage-service/internal/mortgage"
	"github.com/Dan9191/mortgage-service/internal/service"
	"github.com/Dan9191/mortgage-service/internal/session"
	"github.com/Dan9191/mortgage-service/internal/synchronizer"
	"github.com/Dan9191/mortgage-service/internal/view"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memoryRepo struct {
	mu     sync.Mutex
	orders []models.Order
}

func (r *memoryRepo) CreateOrder(_ context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order.ID = int64(len(r.orders) + 1)
	order.CreatedAt = time.Now()
	r.orders = append(r.orders, *order)
	return nil
}

func (r *memoryRepo) ListOrders(_ context.Context, limit int) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Order(nil), r.orders...), nil
}

type nopNotifier struct{}

func (nopNotifier) SendOrderNotification(*models.Order) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := &config.Config{
		JWTSecret:         "jwt",
		HMACSecret:        "hmac",
		EncryptionKey:     []byte("0123456789abcdef"),
		AdminUsername:     "admin",
		AdminPasswordHash: string(hash),
	}

	f, err := view.NewFormatter("en", "$")
	require.NoError(t, err)
	catalog := mortgage.MustDefaultCatalog()
	svc := service.NewService(&memoryRepo{}, nopNotifier{}, catalog, log, cfg)
	sessions := session.NewManager(session.NewMemoryStore(), catalog, view.NewView(f), time.Hour, log)
	keyRate := cbr.NewKeyRateCache(cbr.NewCBRClient("http://127.0.0.1:0", log))

	r := mux.NewRouter()
	NewHandler(svc, sessions, keyRate, log).Routes(r, middleware.AuthMiddleware(cfg))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestPrograms(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/programs", "")
	require.Equal(t, http.StatusOK, w.Code)
	programs := decode[[]models.Program](t, w)
	assert.Len(t, programs, 4)
}

func TestCalculate(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/calculate", `{"program_id":"base","price":12000000,"down_payment":6000000,"term_years":10}`)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[calculateResponse](t, w)
	assert.InDelta(t, 79_290.44, resp.Results.MonthlyPayment, 0.01)

	w = do(t, r, http.MethodPost, "/calculate", `{"program_id":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/calculate", `{invalid-json}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/calculate", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code)
	snap := decode[session.Snapshot](t, w)
	require.NotEmpty(t, snap.ID)
	base := "/sessions/" + snap.ID

	w = do(t, r, http.MethodPost, base+"/events", `{"onUpdate":"costInput","value":"20 000 000"}`)
	require.Equal(t, http.StatusOK, w.Code)
	ev := decode[synchronizer.Event](t, w)
	assert.Equal(t, 20_000_000.0, ev.Data.Price)
	for _, st := range ev.Resynced {
		assert.NotEqual(t, models.OriginCostInput, st.ID)
	}

	w = do(t, r, http.MethodPost, base+"/commit", `{"onUpdate":"costInput"}`)
	require.Equal(t, http.StatusOK, w.Code)
	st := decode[synchronizer.State](t, w)
	assert.Equal(t, "20,000,000", st.Value)

	w = do(t, r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20_000_000.0, decode[session.Snapshot](t, w).Data.Price)

	w = do(t, r, http.MethodGet, base+"/schedule?start=2026-01-01", "")
	require.Equal(t, http.StatusOK, w.Code)
	rows := decode[[]models.PaymentSchedule](t, w)
	assert.Len(t, rows, 120)

	w = do(t, r, http.MethodGet, base+"/schedule?start=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, base+"/events", `{"onUpdate":"resultsPanel","value":"1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitOrderAndList(t *testing.T) {
	r := newTestRouter(t)

	body := `{"form":{"name":"Ivan","email":"ivan@example.com","phone":"+7 999 123 45 67"},
		"data":{"program_id":"gov","price":12000000,"down_payment":6000000,"term_years":10},
		"resultData":{}}`
	w := do(t, r, http.MethodPost, "/mail.php", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SUCCESS", w.Body.String())

	w = do(t, r, http.MethodPost, "/orders", `{"form":{"name":"","email":"x","phone":"1"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FAILURE", w.Body.String())

	w = do(t, r, http.MethodGet, "/admin/orders", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/login", `{"username":"admin","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/login", `{"username":"admin","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[map[string]string](t, w)["token"]
	require.NotEmpty(t, token)

	w = do(t, r, http.MethodGet, "/admin/orders?limit=10", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	orders := decode[[]models.Order](t, w)
	require.Len(t, orders, 1)
	assert.Equal(t, "ivan@example.com", orders[0].Form.Email)
	assert.Equal(t, 0.067, orders[0].Data.InterestRate)

	w = do(t, r, http.MethodGet, "/admin/orders?limit=-1", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKeyRate_NotFetchedYet(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/key-rate", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "not available"))
}
