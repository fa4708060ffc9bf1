package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"reimburse/internal/cache"
	"reimburse/internal/calculator"
	"reimburse/internal/data"
	"reimburse/internal/features"
	"reimburse/internal/models"
	"reimburse/internal/store"
)

func init() { gin.SetMode(gin.TestMode) }

func do(t *testing.T, h http.Handler, method, path string, body any, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func trip(days int, miles, receipts float64) map[string]any {
	return map[string]any{"trip_duration_days": days, "miles_traveled": miles, "total_receipts_amount": receipts}
}

func tempStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{Path: filepath.Join(t.TempDir(), "api.db")}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestHealth(t *testing.T) {
	srv := New(calculator.New(calculator.Optimized()), Options{APIKey: "secret"})
	w := do(t, srv.Router(), http.MethodGet, "/healthz", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, calculator.VersionOptimized, decode(t, w)["version"])
}

func TestAPIKey(t *testing.T) {
	srv := New(calculator.New(calculator.Optimized()), Options{APIKey: "secret"})
	r := srv.Router()

	w := do(t, r, http.MethodPost, "/calculate", trip(1, 300, 100), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/calculate", trip(1, 300, 100), map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/calculate", trip(1, 300, 100), map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCalculate(t *testing.T) {
	r := New(calculator.New(calculator.Optimized()), Options{}).Router()

	w := do(t, r, http.MethodPost, "/calculate", trip(1, 300, 100), nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.InDelta(t, 159.06, out["reimbursement"], 1e-9)
	assert.Equal(t, calculator.VersionOptimized, out["version"])
	assert.Equal(t, false, out["cached"])

	w = do(t, r, http.MethodPost, "/calculate", trip(0, 300, 100), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["reimbursement"])
}

func TestCalculateRejectsBadInput(t *testing.T) {
	r := New(calculator.New(calculator.Optimized()), Options{}).Router()

	tests := []struct {
		name string
		body any
	}{
		{"not json", "{"},
		{"missing miles", map[string]any{"trip_duration_days": 1, "total_receipts_amount": 10}},
		{"negative receipts", trip(2, 10, -1)},
		{"negative miles", trip(2, -10, 1)},
		{"fractional days", map[string]any{"trip_duration_days": 1.5, "miles_traveled": 1, "total_receipts_amount": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/calculate", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCalculateUsesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := cache.NewMockCache(ctrl)
	tr := calculator.Trip{Days: 1, Miles: 300, Receipts: 100}
	key := cache.Key(calculator.Optimized().Fingerprint(), tr)
	want := calculator.Amount(tr, calculator.Optimized())

	gomock.InOrder(
		c.EXPECT().Get(gomock.Any(), key).Return(0.0, false),
		c.EXPECT().Set(gomock.Any(), key, want).Return(nil),
		c.EXPECT().Get(gomock.Any(), key).Return(want, true),
	)

	r := New(calculator.New(calculator.Optimized()), Options{Cache: c}).Router()

	first := decode(t, do(t, r, http.MethodPost, "/calculate", trip(1, 300, 100), nil))
	assert.Equal(t, false, first["cached"])
	second := decode(t, do(t, r, http.MethodPost, "/calculate", trip(1, 300, 100), nil))
	assert.Equal(t, true, second["cached"])
	assert.Equal(t, first["reimbursement"], second["reimbursement"])
}

func TestCacheKeyFollowsSwap(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := cache.NewMockCache(ctrl)
	tr := calculator.Trip{Days: 1, Miles: 300, Receipts: 100}

	key := cache.Key(calculator.Baseline().Fingerprint(), tr)
	c.EXPECT().Get(gomock.Any(), key).Return(0.0, false)
	c.EXPECT().Set(gomock.Any(), key, 84.0).Return(nil)

	calc := calculator.New(calculator.Optimized())
	_, err := calc.Swap(calculator.Baseline())
	require.NoError(t, err)

	out := decode(t, do(t, New(calc, Options{Cache: c}).Router(), http.MethodPost, "/calculate", trip(1, 300, 100), nil))
	assert.Equal(t, 84.0, out["reimbursement"])
}

func TestCacheMissAfterSameVersionUpdate(t *testing.T) {
	mem := cache.NewMemory(100, 0)
	r := New(calculator.New(calculator.Optimized()), Options{Cache: mem}).Router()

	first := decode(t, do(t, r, http.MethodPost, "/calculate", trip(1, 300, 100), nil))
	assert.InDelta(t, 159.06, first["reimbursement"], 1e-9)
	warm := decode(t, do(t, r, http.MethodPost, "/calculate", trip(1, 300, 100), nil))
	assert.Equal(t, true, warm["cached"])

	changed := calculator.Optimized()
	changed.SingleDay.MileRate = 5
	w := do(t, r, http.MethodPut, "/parameters", changed, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tr := calculator.Trip{Days: 1, Miles: 300, Receipts: 100}
	want := calculator.Amount(tr, changed)
	require.InDelta(t, 1135.58, want, 1e-9)

	out := decode(t, do(t, r, http.MethodPost, "/calculate", trip(1, 300, 100), nil))
	assert.Equal(t, false, out["cached"])
	assert.Equal(t, calculator.VersionOptimized, out["version"])
	assert.InDelta(t, want, out["reimbursement"], 1e-9)

	batch := decode(t, do(t, r, http.MethodPost, "/batch", []any{trip(1, 300, 100)}, nil))
	res := batch["results"].([]any)[0].(map[string]any)
	assert.Equal(t, true, res["cached"])
	assert.InDelta(t, want, res["reimbursement"], 1e-9)
}

func TestBatch(t *testing.T) {
	r := New(calculator.New(calculator.Optimized()), Options{MaxBatch: 3}).Router()

	w := do(t, r, http.MethodPost, "/batch", []any{trip(1, 300, 100), trip(11, 3000, 3000)}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	results := out["results"].([]any)
	require.Len(t, results, 2)
	assert.InDelta(t, 159.06, results[0].(map[string]any)["reimbursement"], 1e-9)
	assert.InDelta(t, 2000.0, results[1].(map[string]any)["reimbursement"], 1e-9)

	w = do(t, r, http.MethodPost, "/batch", []any{trip(1, 1, 1), trip(1, 1, 1), trip(1, 1, 1), trip(1, 1, 1)}, nil)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = do(t, r, http.MethodPost, "/batch", []any{trip(1, 1, 1), trip(1, -1, 1)}, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1.0, decode(t, w)["index"])
}

func TestParametersRoundTrip(t *testing.T) {
	calc := calculator.New(calculator.Optimized())
	st := tempStore(t)
	r := New(calc, Options{Store: st}).Router()

	w := do(t, r, http.MethodGet, "/parameters", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, calculator.VersionOptimized, decode(t, w)["version"])

	w = do(t, r, http.MethodPut, "/parameters", calculator.Baseline(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, calculator.VersionOptimized, out["previous"])
	assert.Equal(t, calculator.VersionBaseline, out["version"])
	assert.Equal(t, calculator.VersionBaseline, calc.Parameters().Version)

	// Reusing a stored version is a conflict and leaves the active set alone.
	w = do(t, r, http.MethodPut, "/parameters", calculator.Baseline(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodGet, "/parameters/history", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["items"], 1)
}

func TestPutParametersValidates(t *testing.T) {
	r := New(calculator.New(calculator.Optimized()), Options{}).Router()

	noVersion := calculator.Optimized()
	noVersion.Version = ""
	w := do(t, r, http.MethodPut, "/parameters", noVersion, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/parameters", "[1,2]", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestActivate(t *testing.T) {
	st := tempStore(t)
	_, err := st.SaveParameters(context.Background(), calculator.Baseline(), "seed", nil)
	require.NoError(t, err)

	calc := calculator.New(calculator.Optimized())
	r := New(calc, Options{Store: st}).Router()

	w := do(t, r, http.MethodPost, "/parameters/activate/"+calculator.VersionBaseline, nil, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, calculator.VersionBaseline, calc.Parameters().Version)

	w = do(t, r, http.MethodPost, "/parameters/activate/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStoreEndpointsWithoutStore(t *testing.T) {
	r := New(calculator.New(calculator.Optimized()), Options{}).Router()
	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodGet, "/parameters/history", nil, nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodPost, "/parameters/activate/x", nil, nil).Code)
}

func TestPredict(t *testing.T) {
	calc := calculator.New(calculator.Optimized())
	r := New(calc, Options{}).Router()
	assert.Equal(t, http.StatusServiceUnavailable, do(t, r, http.MethodPost, "/predict", trip(3, 100, 200), nil).Code)

	cases := data.GenerateSynthetic(200, calculator.Optimized(), 0, 3)
	X, y := features.Labelled(cases)
	tree := models.NewDecisionTree()
	tree.MaxDepth = 4
	require.NoError(t, tree.Fit(X, y))

	r = New(calc, Options{Model: tree}).Router()
	w := do(t, r, http.MethodPost, "/predict", trip(3, 100, 200), nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, tree.Name(), out["model"])
	assert.InDelta(t, 449.97, out["formula"], 1e-9)
	assert.GreaterOrEqual(t, out["reimbursement"], 0.0)
}
