package helpers

import (
	"time"

	model "auction-bidding/internal/models"
)

// Request/Response DTOs
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type CreateListingRequest struct {
	ID       int64      `json:"id" binding:"required"`
	Name     string     `json:"name" binding:"required"`
	BidPrice string     `json:"bidPrice" binding:"required"`
	ImageSrc string     `json:"imageSrc"`
	ImageAlt string     `json:"imageAlt"`
	Details  string     `json:"details"`
	EndDate  *time.Time `json:"endDate"`
}

// ToNewListing converts the request body into the service input
func (r CreateListingRequest) ToNewListing() model.NewListing {
	return model.NewListing{
		Number:   r.ID,
		Name:     r.Name,
		BidPrice: r.BidPrice,
		ImageSrc: r.ImageSrc,
		ImageAlt: r.ImageAlt,
		Details:  r.Details,
		EndDate:  r.EndDate,
	}
}

// PlaceBidRequest leaves bidPrice unchecked, a missing price is rejected as a bad format by the service
type PlaceBidRequest struct {
	BidPrice string `json:"bidPrice"`
}

type UploadURLRequest struct {
	Key         string `json:"key" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

type DownloadURLRequest struct {
	Key string `json:"key" binding:"required"`
}
