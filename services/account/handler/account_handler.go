package handler

//go:generate mockgen -source=account_handler.go -destination=mock_account_service.go -package=handler

import (
	"context"
	"net/http"

	model "auction-bidding/internal/models"
	"auction-bidding/services/bidding/helpers"
	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
)

type AccountServiceInterface interface {
	Signup(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Profile(ctx context.Context, username string) (model.User, error)
}

type AccountHandler struct {
	service AccountServiceInterface
}

func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// SignupHandler handles POST /signup
func (h *AccountHandler) SignupHandler(c *gin.Context) {
	var req helpers.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "SignupHandler", err)
		return
	}

	token, err := h.service.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		helpers.HandleServiceError(c, "SignupHandler", err, map[string]any{"username": req.Username})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, helpers.TokenResponse{Token: token}, "user created successfully")
	helpers.LogSuccess("SignupHandler", "user created successfully", map[string]any{"username": req.Username})
}

// LoginHandler handles POST /login
func (h *AccountHandler) LoginHandler(c *gin.Context) {
	var req helpers.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "LoginHandler", err)
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		helpers.HandleServiceError(c, "LoginHandler", err, nil)
		return
	}

	utils.JSONResponse(c, http.StatusOK, helpers.TokenResponse{Token: token}, "login successful")
}

// MeHandler handles GET /users/me
func (h *AccountHandler) MeHandler(c *gin.Context) {
	username, _ := helpers.CurrentUser(c)
	user, err := h.service.Profile(c.Request.Context(), username)
	if err != nil {
		helpers.HandleServiceError(c, "MeHandler", err, map[string]any{"username": username})
		return
	}

	utils.JSONResponse(c, http.StatusOK, user, "profile retrieved successfully")
}
