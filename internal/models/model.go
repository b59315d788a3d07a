package models

import "time"

// User represents a registered auction participant
type User struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Listing represents a product up for auction together with its bid history
type Listing struct {
	ID         string     `json:"_id"`
	Number     int64      `json:"id"`
	Name       string     `json:"name"`
	BidPrice   Price      `json:"bidPrice"`
	ImageSrc   string     `json:"imageSrc"`
	ImageAlt   string     `json:"imageAlt"`
	Details    string     `json:"details,omitempty"`
	BidHistory []Bid      `json:"bidHistory"`
	EndDate    *time.Time `json:"endDate,omitempty"`
}

// Bid represents a single price submission on a listing
type Bid struct {
	Username string `json:"username"`
	BidPrice Price  `json:"bidPrice"`
}

// NewListing holds the caller supplied fields of a listing to be created
type NewListing struct {
	Number   int64
	Name     string
	BidPrice string
	ImageSrc string
	ImageAlt string
	Details  string
	EndDate  *time.Time
}

// BidderListings splits listings by where a bidder appears in their history
type BidderListings struct {
	FinalBids []Listing `json:"finalBids"`
	FirstBids []Listing `json:"firstBids"`
}

// LastBid returns the most recent bid, false if the history is empty
func (l Listing) LastBid() (Bid, bool) {
	if len(l.BidHistory) == 0 {
		return Bid{}, false
	}
	return l.BidHistory[len(l.BidHistory)-1], true
}

// FirstBid returns the seeding bid, false if the history is empty
func (l Listing) FirstBid() (Bid, bool) {
	if len(l.BidHistory) == 0 {
		return Bid{}, false
	}
	return l.BidHistory[0], true
}

// Clone returns a copy that shares no mutable state with l
func (l Listing) Clone() Listing {
	c := l
	c.BidHistory = append([]Bid(nil), l.BidHistory...)
	if l.EndDate != nil {
		end := *l.EndDate
		c.EndDate = &end
	}
	return c
}
