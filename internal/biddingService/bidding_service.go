package bidding

import (
	"context"
	"fmt"
	"strings"

	"auction-bidding/internal/biddingerrors"
	"auction-bidding/internal/models"
	"auction-bidding/internal/notification"
	"auction-bidding/internal/repository"
	"auction-bidding/utils"
)

// BiddingService defines the business logic for auction bidding
type BiddingService struct {
	repo     repository.ListingStore
	notifier notification.Notifier
}

// NewBiddingService creates a new BiddingService instance. notifier may be nil.
func NewBiddingService(repo repository.ListingStore, notifier notification.Notifier) *BiddingService {
	return &BiddingService{
		repo:     repo,
		notifier: notifier,
	}
}

// PlaceBid records priceText as the new price of a listing and tells the
// previous leader they were outbid. Bids are accepted at any price.
func (s *BiddingService) PlaceBid(ctx context.Context, listingID, bidder, priceText string) (models.Listing, error) {
	if listingID == "" || bidder == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing listing ID or bidder", biddingerrors.ErrInvalidRequest)
	}

	price, err := models.ParsePrice(priceText)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: %w", err)
	}

	var previous models.Bid
	var hadPrevious bool
	updated, err := s.repo.AtomicUpdate(ctx, listingID, func(l *models.Listing) error {
		previous, hadPrevious = l.LastBid()
		l.BidPrice = price
		l.BidHistory = append(l.BidHistory, models.Bid{Username: bidder, BidPrice: price})
		return nil
	})
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to place bid on listing %s by %s: %w", listingID, bidder, err)
	}

	if hadPrevious && previous.Username != bidder {
		s.notifyOutbid(ctx, models.OutbidEvent{
			PreviousBidder: previous.Username,
			ListingID:      updated.ID,
			NewPrice:       price,
		})
	}

	return updated, nil
}

// notifyOutbid runs after commit, so failures are logged and never reach the bidder
func (s *BiddingService) notifyOutbid(ctx context.Context, event models.OutbidEvent) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, event); err != nil {
		utils.Warn("Failed to dispatch outbid notification", map[string]any{
			"listing_id": event.ListingID,
			"recipient":  event.PreviousBidder,
			"error":      err.Error(),
		})
	}
}

// CreateListing stores a new listing whose history is seeded with the creator's opening price
func (s *BiddingService) CreateListing(ctx context.Context, creator string, in models.NewListing) (models.Listing, error) {
	if creator == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing creator", biddingerrors.ErrInvalidRequest)
	}
	if strings.TrimSpace(in.Name) == "" {
		return models.Listing{}, fmt.Errorf("service: %w - missing listing name", biddingerrors.ErrInvalidRequest)
	}

	price, err := models.ParsePrice(in.BidPrice)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: %w", err)
	}

	listing := models.Listing{
		Number:     in.Number,
		Name:       in.Name,
		BidPrice:   price,
		ImageSrc:   in.ImageSrc,
		ImageAlt:   in.ImageAlt,
		Details:    in.Details,
		BidHistory: []models.Bid{{Username: creator, BidPrice: price}},
		EndDate:    in.EndDate,
	}

	created, err := s.repo.Insert(ctx, listing)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to create listing %d: %w", in.Number, err)
	}

	return created, nil
}

// ListForBidder returns the listings bidder currently leads and the ones they opened
func (s *BiddingService) ListForBidder(ctx context.Context, bidder string) (models.BidderListings, error) {
	if bidder == "" {
		return models.BidderListings{}, fmt.Errorf("service: %w - empty bidder", biddingerrors.ErrInvalidRequest)
	}

	listings, err := s.repo.QueryByBidder(ctx, bidder)
	if err != nil {
		return models.BidderListings{}, fmt.Errorf("service: failed to get listings for %s: %w", bidder, err)
	}

	out := models.BidderListings{
		FinalBids: []models.Listing{},
		FirstBids: []models.Listing{},
	}
	for _, l := range listings {
		if last, ok := l.LastBid(); ok && last.Username == bidder {
			out.FinalBids = append(out.FinalBids, l)
		}
		if first, ok := l.FirstBid(); ok && first.Username == bidder {
			out.FirstBids = append(out.FirstBids, l)
		}
	}

	return out, nil
}

// CancelBid removes the whole listing together with its history
func (s *BiddingService) CancelBid(ctx context.Context, listingID string) error {
	if listingID == "" {
		return fmt.Errorf("service: %w - empty listing ID", biddingerrors.ErrInvalidRequest)
	}

	if err := s.repo.Delete(ctx, listingID); err != nil {
		return fmt.Errorf("service: failed to cancel listing %s: %w", listingID, err)
	}

	return nil
}

// GetListing returns a single listing
func (s *BiddingService) GetListing(ctx context.Context, listingID string) (models.Listing, error) {
	if listingID == "" {
		return models.Listing{}, fmt.Errorf("service: %w - empty listing ID", biddingerrors.ErrInvalidRequest)
	}

	listing, err := s.repo.Get(ctx, listingID)
	if err != nil {
		return models.Listing{}, fmt.Errorf("service: failed to get listing %s: %w", listingID, err)
	}

	return listing, nil
}

// ListListings returns every listing
func (s *BiddingService) ListListings(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list listings: %w", err)
	}
	return listings, nil
}
