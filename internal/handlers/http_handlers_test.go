package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scratchcard/internal/models"
	"scratchcard/internal/prize"
	"scratchcard/internal/services"
	"scratchcard/internal/storage"
)

type fixedSource struct{ val float64 }

func (f fixedSource) Float64() float64 { return f.val }

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(opts services.Options) *gin.Engine {
	opts.Clock = func() time.Time { return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC) }
	opts.Location = time.UTC
	svc := services.NewScratchService(storage.NewMemoryStore(), prize.NewDefaultSelector(fixedSource{0.10}), opts)
	return NewRouter(NewHTTPHandler(svc), "test-secret")
}

func do(t *testing.T, r http.Handler, method, path, client string, body any) (*httptest.ResponseRecorder, services.Snapshot) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if client != "" {
		req.Header.Set(headerClientID, client)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var snap services.Snapshot
	if w.Code == http.StatusOK && w.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	}
	return w, snap
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(services.DefaultOptions())
	w, _ := do(t, r, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestScratchFlow(t *testing.T) {
	r := newTestRouter(services.DefaultOptions())
	const client = "browser-1"

	w, snap := do(t, r, http.MethodPost, "/api/session", client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "idle", snap.State)
	require.NotNil(t, snap.Prize)
	assert.Equal(t, prize.Catalog()[0].Text, snap.Prize.Text)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, models.EventPrizeAssigned, snap.Events[0].Kind)

	w, snap = do(t, r, http.MethodPost, "/api/pointer/down", client, models.Point{X: 0, Y: 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "scratching", snap.State)

	for y := 0.0; y <= 200 && snap.State != "completed"; y += 20 {
		for x := 0.0; x <= 300 && snap.State != "completed"; x += 20 {
			w, snap = do(t, r, http.MethodPost, "/api/pointer/move", client, models.Point{X: x, Y: y})
			require.Equal(t, http.StatusOK, w.Code)
		}
	}
	require.Equal(t, "completed", snap.State)
	assert.Equal(t, 1.0, snap.Fraction)
	assert.Equal(t, 1, snap.TotalPlays)
	assert.False(t, snap.CanPlay)

	kinds := map[models.EventKind]bool{}
	for _, e := range snap.Events {
		kinds[e.Kind] = true
	}
	assert.True(t, kinds[models.EventComplete])

	w, snap = do(t, r, http.MethodPost, "/api/pointer/up", client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", snap.State)

	w, snap = do(t, r, http.MethodPost, "/api/session", client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.StateAlreadyPlayed, snap.State)
	assert.Equal(t, 1, snap.TotalPlays)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, models.EventAlreadyPlayed, snap.Events[0].Kind)

	w, snap = do(t, r, http.MethodPost, "/api/reset", client, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, snap.CanPlay)
	assert.Equal(t, 0, snap.TotalPlays)
}

func TestPointerWithoutSession(t *testing.T) {
	r := newTestRouter(services.DefaultOptions())
	w, _ := do(t, r, http.MethodPost, "/api/pointer/move", "nobody", models.Point{X: 1, Y: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPointerInvalidBody(t *testing.T) {
	r := newTestRouter(services.DefaultOptions())
	do(t, r, http.MethodPost, "/api/session", "c", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/pointer/down", bytes.NewBufferString("{x:"))
	req.Header.Set(headerClientID, "c")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestForcedReveal(t *testing.T) {
	r := newTestRouter(services.DefaultOptions())
	do(t, r, http.MethodPost, "/api/session", "c", nil)

	w, snap := do(t, r, http.MethodPost, "/api/reveal", "c", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "completed", snap.State)
	assert.Equal(t, 1, snap.TotalPlays)
}

func TestSurfaceUnavailable(t *testing.T) {
	opts := services.DefaultOptions()
	opts.SurfaceWidth = 0
	r := newTestRouter(opts)

	w, _ := do(t, r, http.MethodPost, "/api/session", "c", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Events, 1)
	assert.Equal(t, models.EventError, resp.Events[0].Kind)
}

func TestClientCookieIsMinted(t *testing.T) {
	r := newTestRouter(services.DefaultOptions())

	req := httptest.NewRequest(http.MethodPost, "/api/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	var first services.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	require.NotEmpty(t, first.ClientID)

	// The same cookie maps back to the same client.
	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var second services.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, first.ClientID, second.ClientID)
	assert.Equal(t, "idle", second.State)
}

func TestIsMobileUserAgent(t *testing.T) {
	assert.True(t, IsMobileUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"))
	assert.True(t, IsMobileUserAgent("Mozilla/5.0 (Linux; Android 14; Pixel 8)"))
	assert.False(t, IsMobileUserAgent("Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0"))
}
