package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/humidhub/internal/domains/device"
	"github.com/xpanvictor/humidhub/internal/domains/user"
	userRepo "github.com/xpanvictor/humidhub/internal/repository/user"
	"github.com/xpanvictor/humidhub/pkg/Logger"
	"golang.org/x/crypto/bcrypt"
)

type stubPublisher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (p *stubPublisher) Publish(ctx context.Context, topic, payload string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, topic+" "+payload)
	return p.err
}

type failingUserService struct{ user.UserService }

func (failingUserService) ListUsers(ctx context.Context, offset, limit int) ([]user.UserResponse, error) {
	return nil, errors.New("connection refused")
}

func setupRouter(t *testing.T, pub *stubPublisher) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := Logger.NewNop()
	repo := userRepo.NewMemoryUserRepo()
	uh := NewUserHandler(user.NewUserServiceWithCost(repo, logger, bcrypt.MinCost), logger)
	dh := NewDeviceHandler(device.NewDeviceService(repo, pub, logger), logger)

	r := gin.New()
	r.UseRawPath = true
	r.UnescapePathValues = true
	r.Use(ErrorHandlerMiddleware(logger), CORSMiddleware())
	r.POST("/signup", uh.Signup)
	r.POST("/login", uh.Login)
	r.GET("/users", uh.ListUsers)
	r.GET("/users/:userId", uh.GetUser)
	r.GET("/users/:userId/devices", dh.ListDevices)
	r.POST("/users/:userId/devices", dh.AddDevice)
	r.GET("/users/:userId/devices/:deviceId", dh.GetDevice)
	r.PUT("/users/:userId/devices/:deviceId", dh.UpdateHumidity)
	r.POST("/publish-humidity", dh.PublishHumidity)
	return r
}

func do(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signup(t *testing.T, r http.Handler, username string) string {
	t.Helper()
	w := do(r, http.MethodPost, "/signup", gin.H{"username": username, "password": "pw"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp UserIDResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.UserID)
	return resp.UserID
}

func TestSignup(t *testing.T) {
	r := setupRouter(t, &stubPublisher{})

	w := do(r, http.MethodPost, "/signup", gin.H{"username": "alice", "password": "pw"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "User created successfully.")

	w = do(r, http.MethodPost, "/signup", gin.H{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/signup", gin.H{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin(t *testing.T) {
	r := setupRouter(t, &stubPublisher{})
	id := signup(t, r, "alice")

	w := do(r, http.MethodPost, "/login", gin.H{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp UserIDResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.UserID)

	w = do(r, http.MethodPost, "/login", gin.H{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/login", gin.H{"username": "ghost", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, "/login", gin.H{"password": "pw"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAndGetUsers(t *testing.T) {
	r := setupRouter(t, &stubPublisher{})
	alice := signup(t, r, "alice")
	signup(t, r, "bob")

	w := do(r, http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []user.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = do(r, http.MethodGet, "/users?offset=1&limit=1", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	require.Len(t, users, 1)
	assert.Equal(t, "bob", users[0].Username)

	w = do(r, http.MethodGet, "/users/"+alice, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/users/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDevices(t *testing.T) {
	pub := &stubPublisher{}
	r := setupRouter(t, pub)
	id := signup(t, r, "alice")

	w := do(r, http.MethodPost, "/users/"+id+"/devices", gin.H{"deviceId": "sensor-1", "humidity": "40"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Device created successfully.")

	w = do(r, http.MethodPost, "/users/"+id+"/devices", gin.H{"deviceId": "sensor-1", "humidity": "50"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(r, http.MethodPost, "/users/"+id+"/devices", gin.H{"humidity": "50"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/users/nobody/devices", gin.H{"deviceId": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPut, "/users/"+id+"/devices/sensor-1", gin.H{"humidity": "65"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Device humidity updated successfully.")

	w = do(r, http.MethodPut, "/users/"+id+"/devices/sensor-1", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPut, "/users/"+id+"/devices/ghost", gin.H{"humidity": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodGet, "/users/"+id+"/devices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var devices []user.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &devices))
	require.Len(t, devices, 1)
	assert.Equal(t, "65", devices[0].Humidity)

	w = do(r, http.MethodGet, "/users/"+id+"/devices/sensor-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status device.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "sensor-1", status.DeviceID)
	assert.Equal(t, float64(100), status.BatteryPercent)

	w = do(r, http.MethodGet, "/users/"+id+"/devices/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, []string{"project/newDevice id:sensor-1", "project/newHumidity sensor-1:65"}, pub.calls)
}

func TestDevices_EscapedSlashInDeviceID(t *testing.T) {
	pub := &stubPublisher{}
	r := setupRouter(t, pub)
	id := signup(t, r, "alice")

	w := do(r, http.MethodPost, "/users/"+id+"/devices", gin.H{"deviceId": "room/1", "humidity": "40"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPut, "/users/"+id+"/devices/room%2F1", gin.H{"humidity": "60"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(r, http.MethodGet, "/users/"+id+"/devices/room%2F1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status device.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "room/1", status.DeviceID)
	assert.Equal(t, "60", status.Humidity)

	assert.Equal(t, "project/newHumidity room/1:60", pub.calls[1])
}

func TestDevices_PublishFailureDoesNotFailRequest(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	r := setupRouter(t, pub)
	id := signup(t, r, "alice")

	w := do(r, http.MethodPost, "/users/"+id+"/devices", gin.H{"deviceId": "d1", "humidity": "40"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodPut, "/users/"+id+"/devices/d1", gin.H{"humidity": "41"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPublishHumidity(t *testing.T) {
	pub := &stubPublisher{}
	r := setupRouter(t, pub)

	w := do(r, http.MethodPost, "/publish-humidity", gin.H{"deviceId": "sensor-1", "humidity": "65"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Humidity published successfully"}`, w.Body.String())
	assert.Equal(t, []string{"project/newHumidity sensor-1:65"}, pub.calls)

	w = do(r, http.MethodPost, "/publish-humidity", gin.H{"deviceId": "sensor-1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	pub.err = errors.New("broker down")
	w = do(r, http.MethodPost, "/publish-humidity", gin.H{"deviceId": "sensor-1", "humidity": "65"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to publish humidity"}`, w.Body.String())
}

func TestStoreFailureIsInternalError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewUserHandler(failingUserService{}, Logger.NewNop())
	r := gin.New()
	r.GET("/users", h.ListUsers)

	w := do(r, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestCORSPreflight(t *testing.T) {
	r := setupRouter(t, &stubPublisher{})

	w := do(r, http.MethodOptions, "/signup", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
