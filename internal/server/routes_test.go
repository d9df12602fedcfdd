package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "github.com/xpanvictor/humidhub/docs"
	"github.com/xpanvictor/humidhub/internal/domains/device"
	"github.com/xpanvictor/humidhub/internal/domains/user"
	userRepo "github.com/xpanvictor/humidhub/internal/repository/user"
	"github.com/xpanvictor/humidhub/pkg/Logger"
	"golang.org/x/crypto/bcrypt"
)

type memPublisher struct {
	mu       sync.Mutex
	payloads map[string][]string
}

func (p *memPublisher) Publish(ctx context.Context, topic, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads[topic] = append(p.payloads[topic], payload)
	return nil
}

func newTestServer(t *testing.T) (*gin.Engine, *memPublisher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := Logger.NewNop()
	repo := userRepo.NewMemoryUserRepo()
	pub := &memPublisher{payloads: map[string][]string{}}
	deps := NewServerDependencies(
		user.NewUserServiceWithCost(repo, logger, bcrypt.MinCost),
		device.NewDeviceService(repo, pub, logger),
		logger,
	)

	r := gin.New()
	InitializeRoutes(r, deps)
	return r, pub
}

func call(t *testing.T, r http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func TestHealth(t *testing.T) {
	r, _ := newTestServer(t)

	code, body := call(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestSwaggerDocServed(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/publish-humidity")
}

func TestDeviceLifecycle(t *testing.T) {
	r, pub := newTestServer(t)

	code, body := call(t, r, http.MethodPost, "/signup", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusCreated, code)
	userID := body["userId"].(string)

	code, body = call(t, r, http.MethodPost, "/login", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, userID, body["userId"])

	code, _ = call(t, r, http.MethodPost, "/users/"+userID+"/devices", `{"deviceId":"d1","humidity":"40"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = call(t, r, http.MethodPut, "/users/"+userID+"/devices/d1", `{"humidity":"55"}`)
	require.Equal(t, http.StatusOK, code)

	code, body = call(t, r, http.MethodGet, "/users/"+userID, "")
	require.Equal(t, http.StatusOK, code)
	devices := body["devices"].([]any)
	require.Len(t, devices, 1)
	d := devices[0].(map[string]any)
	assert.Equal(t, "d1", d["deviceId"])
	assert.Equal(t, "55", d["humidity"])
	assert.NotEmpty(t, d["createdAt"])

	assert.Equal(t, []string{"id:d1"}, pub.payloads["project/newDevice"])
	assert.Equal(t, []string{"d1:55"}, pub.payloads["project/newHumidity"])
}

func TestEscapedDeviceIDRoutes(t *testing.T) {
	r, pub := newTestServer(t)

	code, body := call(t, r, http.MethodPost, "/signup", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusCreated, code)
	userID := body["userId"].(string)

	code, _ = call(t, r, http.MethodPost, "/users/"+userID+"/devices", `{"deviceId":"room/1"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = call(t, r, http.MethodPut, "/users/"+userID+"/devices/room%2F1", `{"humidity":"61"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"room/1:61"}, pub.payloads["project/newHumidity"])
}

func TestConcurrentAddsKeepEveryDevice(t *testing.T) {
	r, _ := newTestServer(t)

	code, body := call(t, r, http.MethodPost, "/signup", `{"username":"alice","password":"pw"}`)
	require.Equal(t, http.StatusCreated, code)
	userID := body["userId"].(string)

	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, "/users/"+userID+"/devices", bytes.NewBufferString(`{"deviceId":"`+id+`"}`))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(httptest.NewRecorder(), req)
		}(id)
	}
	wg.Wait()

	req := httptest.NewRequest(http.MethodGet, "/users/"+userID+"/devices", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var devices []user.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &devices))
	assert.Len(t, devices, len(ids))
}
