package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	account "auction-bidding/internal/accountService"
	"auction-bidding/internal/auth"
	bidding "auction-bidding/internal/biddingService"
	"auction-bidding/internal/directory"
	"auction-bidding/internal/livechannel"
	"auction-bidding/internal/notification"
	"auction-bidding/internal/repository"
	"auction-bidding/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// TestApp bundles the router with the pieces tests poke at directly.
type TestApp struct {
	Router *gin.Engine
	Live   *livechannel.Server
	Tokens *auth.TokenService
}

// SetupTestApp wires the full stack over an in-memory repository.
func SetupTestApp(t *testing.T) *TestApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	tokens := auth.NewTokenService("integration-secret", time.Hour)
	live := livechannel.NewServer(tokens, directory.New())
	notifier := notification.NewPoolNotifier(live, 4, time.Second)
	t.Cleanup(notifier.Close)

	router := server.SetupRouter(server.Dependencies{
		Verifier: tokens,
		Accounts: account.NewAccountService(repo, tokens),
		Bidding:  bidding.NewBiddingService(repo, notifier),
		Live:     live,
	})
	return &TestApp{Router: router, Live: live, Tokens: tokens}
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response envelope
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := ExecuteRequest(t, router, method, url, token, reqBody)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// Signup registers a user and returns the issued token.
func Signup(t *testing.T, router *gin.Engine, username string) string {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, router, "POST", "/signup", "", map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "secret-" + username,
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["token"].(string)
}

// CreateListing creates a listing owned by the token holder and returns its _id.
func CreateListing(t *testing.T, router *gin.Engine, token string, number int64, price string) string {
	t.Helper()
	resp, w := ExecuteRequestAndParse(t, router, "POST", "/products", token, map[string]any{
		"id":       number,
		"name":     "listing",
		"bidPrice": price,
		"imageSrc": "item.png",
		"imageAlt": "an item",
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["_id"].(string)
}
