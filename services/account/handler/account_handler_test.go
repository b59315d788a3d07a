package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"auction-bidding/internal/biddingerrors"
	model "auction-bidding/internal/models"
	"auction-bidding/services/bidding/helpers"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, router http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var raw []byte
	if s, ok := body.(string); ok {
		raw = []byte(s)
	} else if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestSignupHandler(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		mockSetup      func(m *MockAccountServiceInterface)
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:        "created",
			requestBody: helpers.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "pw"},
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Signup(gomock.Any(), "alice", "alice@example.com", "pw").Return("tok", nil)
			},
			expectedStatus: http.StatusCreated,
			expectedMsg:    "user created successfully",
		},
		{
			name:        "taken",
			requestBody: helpers.SignupRequest{Username: "alice", Email: "alice@example.com", Password: "pw"},
			mockSetup: func(m *MockAccountServiceInterface) {
				m.EXPECT().Signup(gomock.Any(), "alice", "alice@example.com", "pw").Return("", biddingerrors.ErrUserExists)
			},
			expectedStatus: http.StatusConflict,
			expectedMsg:    "already in use",
		},
		{
			name:           "bad_email",
			requestBody:    helpers.SignupRequest{Username: "alice", Email: "nope", Password: "pw"},
			mockSetup:      func(*MockAccountServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
		{
			name:           "invalid_json",
			requestBody:    `{invalid json}`,
			mockSetup:      func(*MockAccountServiceInterface) {},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "invalid request payload",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockService := NewMockAccountServiceInterface(ctrl)
			tc.mockSetup(mockService)

			gin.SetMode(gin.TestMode)
			router := gin.New()
			router.POST("/signup", NewAccountHandler(mockService).SignupHandler)

			status, resp := serve(t, router, http.MethodPost, "/signup", tc.requestBody)
			require.Equal(t, tc.expectedStatus, status)
			require.Contains(t, resp["message"], tc.expectedMsg)
			if status == http.StatusCreated {
				require.Equal(t, "tok", resp["data"].(map[string]any)["token"])
			}
		})
	}
}

func TestLoginAndMeHandlers(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := NewMockAccountServiceInterface(ctrl)
	h := NewAccountHandler(mockService)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/login", h.LoginHandler)
	router.GET("/users/me", func(c *gin.Context) { c.Set(helpers.IdentityKey, "alice") }, h.MeHandler)

	mockService.EXPECT().Login(gomock.Any(), "alice@example.com", "pw").Return("tok", nil)
	status, resp := serve(t, router, http.MethodPost, "/login", helpers.LoginRequest{Email: "alice@example.com", Password: "pw"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "tok", resp["data"].(map[string]any)["token"])

	mockService.EXPECT().Login(gomock.Any(), "alice@example.com", "bad").Return("", biddingerrors.ErrInvalidCredentials)
	status, resp = serve(t, router, http.MethodPost, "/login", helpers.LoginRequest{Email: "alice@example.com", Password: "bad"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid email or password", resp["message"])

	mockService.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("mongo down"))
	status, _ = serve(t, router, http.MethodPost, "/login", helpers.LoginRequest{Email: "x@example.com", Password: "pw"})
	require.Equal(t, http.StatusInternalServerError, status)

	mockService.EXPECT().Profile(gomock.Any(), "alice").Return(model.User{Username: "alice", Email: "alice@example.com", PasswordHash: "secret-hash"}, nil)
	status, resp = serve(t, router, http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, status)
	data := resp["data"].(map[string]any)
	require.Equal(t, "alice", data["username"])
	require.NotContains(t, data, "PasswordHash")
	require.NotContains(t, data, "passwordHash")
}
