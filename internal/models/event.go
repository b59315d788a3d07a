package models

// OutbidEvent is emitted after a bid commits and the previous leader was someone else
type OutbidEvent struct {
	PreviousBidder string `json:"previousBidder"`
	ListingID      string `json:"listingId"`
	NewPrice       Price  `json:"newPrice"`
}

// PushMessage is the payload delivered to a live connection
type PushMessage struct {
	Message string `json:"message"`
}
