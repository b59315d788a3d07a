package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	account "auction-bidding/internal/accountService"
	"auction-bidding/internal/auth"
	bidding "auction-bidding/internal/biddingService"
	"auction-bidding/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*gin.Engine, *auth.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	tokens := auth.NewTokenService("router-secret", time.Hour)
	router := SetupRouter(Dependencies{
		Verifier: tokens,
		Accounts: account.NewAccountService(repo, tokens),
		Bidding:  bidding.NewBiddingService(repo, nil),
	})
	return router, tokens
}

func call(t *testing.T, router http.Handler, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestRouter_Health(t *testing.T) {
	router, _ := newTestRouter(t)
	status, resp := call(t, router, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ok", resp["message"])
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	router, _ := newTestRouter(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/products"},
		{http.MethodPost, "/products"},
		{http.MethodGet, "/products/x"},
		{http.MethodPost, "/products/x/bids"},
		{http.MethodDelete, "/products/x"},
		{http.MethodGet, "/users/me"},
		{http.MethodGet, "/users/me/bids"},
	}

	for _, r := range routes {
		status, resp := call(t, router, r.method, r.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, status, "%s %s", r.method, r.path)
		require.Equal(t, "token is not valid", resp["message"])

		status, _ = call(t, router, r.method, r.path, "forged", nil)
		require.Equal(t, http.StatusUnauthorized, status, "%s %s", r.method, r.path)
	}
}

func TestRouter_SignupCreateAndBid(t *testing.T) {
	router, _ := newTestRouter(t)

	status, resp := call(t, router, http.MethodPost, "/signup", "", map[string]any{
		"username": "alice", "email": "alice@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, status)
	aliceToken := resp["data"].(map[string]any)["token"].(string)

	status, _ = call(t, router, http.MethodPost, "/signup", "", map[string]any{
		"username": "bob", "email": "bob@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusCreated, status)

	status, resp = call(t, router, http.MethodPost, "/login", "", map[string]any{
		"email": "bob@example.com", "password": "pw",
	})
	require.Equal(t, http.StatusOK, status)
	bobToken := resp["data"].(map[string]any)["token"].(string)

	status, resp = call(t, router, http.MethodPost, "/products", aliceToken, map[string]any{
		"id": 1, "name": "lamp", "bidPrice": "$10", "imageSrc": "lamp.png", "imageAlt": "a lamp",
	})
	require.Equal(t, http.StatusCreated, status)
	listingID := resp["data"].(map[string]any)["_id"].(string)

	status, _ = call(t, router, http.MethodPost, "/products", aliceToken, map[string]any{
		"id": 1, "name": "lamp again", "bidPrice": "$10",
	})
	require.Equal(t, http.StatusConflict, status)

	status, resp = call(t, router, http.MethodPost, "/products/"+listingID+"/bids", bobToken, map[string]any{"bidPrice": "$15"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "$15", resp["data"].(map[string]any)["bidPrice"])

	status, resp = call(t, router, http.MethodPost, "/products/"+listingID+"/bids", bobToken, map[string]any{"bidPrice": "15"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, resp["message"], "currency symbol")

	status, resp = call(t, router, http.MethodGet, "/users/me/bids", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp["data"].(map[string]any)["finalBids"], 1)

	status, resp = call(t, router, http.MethodGet, "/users/me", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "alice@example.com", resp["data"].(map[string]any)["email"])

	status, _ = call(t, router, http.MethodDelete, "/products/"+listingID, aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, router, http.MethodGet, "/products/"+listingID, aliceToken, nil)
	require.Equal(t, http.StatusNotFound, status)
}
