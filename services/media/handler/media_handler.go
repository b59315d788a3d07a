package handler

import (
	"net/http"

	"auction-bidding/internal/objectstore"
	"auction-bidding/services/bidding/helpers"
	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
)

// URLSigner issues signed object URLs
type URLSigner interface {
	SignUpload(key, contentType string) (objectstore.SignedURL, error)
	SignDownload(key string) (objectstore.SignedURL, error)
}

type MediaHandler struct {
	signer URLSigner
}

func NewMediaHandler(signer URLSigner) *MediaHandler {
	return &MediaHandler{signer: signer}
}

// UploadURLHandler handles POST /media/upload-url
func (h *MediaHandler) UploadURLHandler(c *gin.Context) {
	var req helpers.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "UploadURLHandler", err)
		return
	}

	signed, err := h.signer.SignUpload(req.Key, req.ContentType)
	if err != nil {
		helpers.HandleServiceError(c, "UploadURLHandler", err, map[string]any{"key": req.Key})
		return
	}

	utils.JSONResponse(c, http.StatusOK, signed, "upload url created")
}

// DownloadURLHandler handles POST /media/download-url
func (h *MediaHandler) DownloadURLHandler(c *gin.Context) {
	var req helpers.DownloadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "DownloadURLHandler", err)
		return
	}

	signed, err := h.signer.SignDownload(req.Key)
	if err != nil {
		helpers.HandleServiceError(c, "DownloadURLHandler", err, map[string]any{"key": req.Key})
		return
	}

	utils.JSONResponse(c, http.StatusOK, signed, "download url created")
}
