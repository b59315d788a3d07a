package handler

//go:generate mockgen -source=bidding_handler.go -destination=mock_bidding_service.go -package=handler

import (
	"context"
	"fmt"
	"net/http"

	"auction-bidding/internal/biddingerrors"
	model "auction-bidding/internal/models"
	"auction-bidding/services/bidding/helpers"
	"auction-bidding/utils"

	"github.com/gin-gonic/gin"
)

type BiddingServiceInterface interface {
	PlaceBid(ctx context.Context, listingID, bidder, priceText string) (model.Listing, error)
	CreateListing(ctx context.Context, creator string, in model.NewListing) (model.Listing, error)
	ListForBidder(ctx context.Context, bidder string) (model.BidderListings, error)
	CancelBid(ctx context.Context, listingID string) error
	GetListing(ctx context.Context, listingID string) (model.Listing, error)
	ListListings(ctx context.Context) ([]model.Listing, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

func requireUser(c *gin.Context, handlerName string) (string, bool) {
	username, ok := helpers.CurrentUser(c)
	if !ok {
		helpers.HandleServiceError(c, handlerName, fmt.Errorf("%w - no identity in request", biddingerrors.ErrUnauthenticated), nil)
	}
	return username, ok
}

// ListListingsHandler handles GET /products
func (h *BiddingHandler) ListListingsHandler(c *gin.Context) {
	listings, err := h.service.ListListings(c.Request.Context())
	if err != nil {
		helpers.HandleServiceError(c, "ListListingsHandler", err, nil)
		return
	}

	if listings == nil {
		listings = []model.Listing{}
	}

	utils.JSONResponse(c, http.StatusOK, listings, "products retrieved successfully")
	helpers.LogSuccess("ListListingsHandler", "products retrieved successfully", map[string]any{
		"count": len(listings),
	})
}

// GetListingHandler handles GET /products/:id
func (h *BiddingHandler) GetListingHandler(c *gin.Context) {
	listingID := c.Param("id")
	listing, err := h.service.GetListing(c.Request.Context(), listingID)
	if err != nil {
		helpers.HandleServiceError(c, "GetListingHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listing, "product retrieved successfully")
}

// CreateListingHandler handles POST /products
func (h *BiddingHandler) CreateListingHandler(c *gin.Context) {
	username, ok := requireUser(c, "CreateListingHandler")
	if !ok {
		return
	}

	var req helpers.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "CreateListingHandler", err)
		return
	}

	listing, err := h.service.CreateListing(c.Request.Context(), username, req.ToNewListing())
	if err != nil {
		helpers.HandleServiceError(c, "CreateListingHandler", err, map[string]any{
			"number":  req.ID,
			"creator": username,
		})
		return
	}

	utils.JSONResponse(c, http.StatusCreated, listing, "product created successfully")
	helpers.LogSuccess("CreateListingHandler", "product created successfully", map[string]any{
		"listing_id": listing.ID,
		"number":     listing.Number,
		"creator":    username,
	})
}

// PlaceBidHandler handles POST /products/:id/bids
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	username, ok := requireUser(c, "PlaceBidHandler")
	if !ok {
		return
	}

	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	listingID := c.Param("id")
	listing, err := h.service.PlaceBid(c.Request.Context(), listingID, username, req.BidPrice)
	if err != nil {
		helpers.HandleServiceError(c, "PlaceBidHandler", err, map[string]any{
			"listing_id": listingID,
			"bidder":     username,
			"bid_price":  req.BidPrice,
		})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listing, "bid placed successfully")
	helpers.LogSuccess("PlaceBidHandler", "bid placed successfully", map[string]any{
		"listing_id": listing.ID,
		"bidder":     username,
		"bid_price":  listing.BidPrice.String(),
	})
}

// CancelBidHandler handles DELETE /products/:id
func (h *BiddingHandler) CancelBidHandler(c *gin.Context) {
	listingID := c.Param("id")
	if err := h.service.CancelBid(c.Request.Context(), listingID); err != nil {
		helpers.HandleServiceError(c, "CancelBidHandler", err, map[string]any{"listing_id": listingID})
		return
	}

	utils.JSONResponse(c, http.StatusOK, gin.H{"_id": listingID}, "product deleted successfully")
	helpers.LogSuccess("CancelBidHandler", "product deleted successfully", map[string]any{"listing_id": listingID})
}

// MyBidsHandler handles GET /users/me/bids
func (h *BiddingHandler) MyBidsHandler(c *gin.Context) {
	username, ok := requireUser(c, "MyBidsHandler")
	if !ok {
		return
	}

	listings, err := h.service.ListForBidder(c.Request.Context(), username)
	if err != nil {
		helpers.HandleServiceError(c, "MyBidsHandler", err, map[string]any{"username": username})
		return
	}

	utils.JSONResponse(c, http.StatusOK, listings, "bids retrieved successfully")
	helpers.LogSuccess("MyBidsHandler", "bids retrieved successfully", map[string]any{
		"username":    username,
		"final_count": len(listings.FinalBids),
		"first_count": len(listings.FirstBids),
	})
}
