package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authdomain "kanban-mail-backend/internal/auth/domain"
	"kanban-mail-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAuthUsecase struct {
	mock.Mock
}

func (m *mockAuthUsecase) ValidateToken(ctx context.Context, tokenString string) (*authdomain.User, error) {
	args := m.Called(tokenString)
	u, _ := args.Get(0).(*authdomain.User)
	return u, args.Error(1)
}

func (m *mockAuthUsecase) RegisterDevice(ctx context.Context, userID, token, deviceInfo string) (int, error) {
	args := m.Called(userID, token, deviceInfo)
	return args.Int(0), args.Error(1)
}

func (m *mockAuthUsecase) UnregisterDevice(ctx context.Context, userID, token string) error {
	return m.Called(userID, token).Error(0)
}

func newRouter(uc usecase.AuthUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/fcm")
	group.Use(AuthMiddleware(uc))
	NewFCMHandler(uc).RegisterRoutes(group)
	return r
}

func request(r http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	uc := &mockAuthUsecase{}
	uc.On("ValidateToken", "bad").Return(nil, usecase.ErrInvalidToken)
	uc.On("ValidateToken", "good").Return(&authdomain.User{ID: "u1"}, nil)
	uc.On("RegisterDevice", "u1", "t", "").Return(1, nil)
	r := newRouter(uc)

	tests := []struct {
		name     string
		auth     string
		wantCode int
		wantErr  error
	}{
		{"missing header", "", http.StatusUnauthorized, errNoCredentials},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, errBadScheme},
		{"scheme only", "Bearer", http.StatusUnauthorized, errBadScheme},
		{"invalid token", "Bearer bad", http.StatusUnauthorized, errBadSession},
		{"lowercase scheme", "bearer good", http.StatusOK, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(r, http.MethodPost, "/api/fcm/register", tt.auth, `{"token":"t"}`)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantErr != nil {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantErr.Error(), body["error"])
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr error
	}{
		{"Bearer abc.def", "abc.def", nil},
		{"  BEARER   abc  ", "abc", nil},
		{"", "", errNoCredentials},
		{"Token abc", "", errBadScheme},
		{"Bearer a b", "", errBadScheme},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, err := bearerToken(tt.header)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

func TestFCMHandler(t *testing.T) {
	uc := &mockAuthUsecase{}
	uc.On("ValidateToken", "good").Return(&authdomain.User{ID: "u1"}, nil)
	uc.On("RegisterDevice", "u1", "tok", "pixel").Return(2, nil)
	uc.On("UnregisterDevice", "u1", "tok").Return(nil)
	uc.On("UnregisterDevice", "u1", "gone").Return(usecase.ErrDeviceMissing)
	r := newRouter(uc)

	w := request(r, http.MethodPost, "/api/fcm/register", "Bearer good", `{"token":"tok","device_info":"pixel"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"device registered","devices":2}`, w.Body.String())

	w = request(r, http.MethodPost, "/api/fcm/register", "Bearer good", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodDelete, "/api/fcm/tok", "Bearer good", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(r, http.MethodDelete, "/api/fcm/gone", "Bearer good", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	uc.AssertExpectations(t)
}
