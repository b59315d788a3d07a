package bidding

import (
	"context"
	"fmt"
	"testing"

	model "auction-bidding/internal/models"
	"auction-bidding/internal/repository"

	"pgregory.net/rapid"
)

var propertyBidders = []string{"alice", "bob", "carol", "dave"}

// Every accepted bid becomes the listing's price and grows the history by one,
// and exactly the bids that displace a different leader produce an outbid event.
func TestBiddingService_BidSequenceProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repo := repository.NewMemoryRepo()
		notifier := &countingNotifier{}
		service := NewBiddingService(repo, notifier)
		ctx := context.Background()

		creator := rapid.SampledFrom(propertyBidders).Draw(t, "creator")
		opening := rapid.Int64Range(0, 1000).Draw(t, "opening")
		created, err := service.CreateListing(ctx, creator, model.NewListing{
			Number:   1,
			Name:     "lot",
			BidPrice: fmt.Sprintf("$%d", opening),
		})
		if err != nil {
			t.Fatalf("create listing: %v", err)
		}

		leader := creator
		expectedEvents := 0
		numBids := rapid.IntRange(1, 20).Draw(t, "numBids")
		for i := 0; i < numBids; i++ {
			bidder := rapid.SampledFrom(propertyBidders).Draw(t, fmt.Sprintf("bidder-%d", i))
			amount := rapid.Int64Range(0, 1000).Draw(t, fmt.Sprintf("amount-%d", i))
			priceText := fmt.Sprintf("$%d", amount)

			before, err := service.GetListing(ctx, created.ID)
			if err != nil {
				t.Fatalf("get listing: %v", err)
			}

			after, err := service.PlaceBid(ctx, created.ID, bidder, priceText)
			if err != nil {
				t.Fatalf("place bid %s by %s: %v", priceText, bidder, err)
			}

			if len(after.BidHistory) != len(before.BidHistory)+1 {
				t.Fatalf("history grew from %d to %d", len(before.BidHistory), len(after.BidHistory))
			}
			last, _ := after.LastBid()
			if last.Username != bidder || last.BidPrice.String() != priceText {
				t.Fatalf("last bid is %+v, want %s at %s", last, bidder, priceText)
			}
			if !after.BidPrice.Equal(last.BidPrice) {
				t.Fatalf("price %s does not match last bid %s", after.BidPrice, last.BidPrice)
			}
			for j, b := range before.BidHistory {
				if b.Username != after.BidHistory[j].Username || !b.BidPrice.Equal(after.BidHistory[j].BidPrice) {
					t.Fatalf("history entry %d changed", j)
				}
			}

			if leader != bidder {
				expectedEvents++
			}
			leader = bidder
		}

		if got := notifier.count(); got != expectedEvents {
			t.Fatalf("got %d outbid events, want %d", got, expectedEvents)
		}
	})
}

// A malformed price leaves the listing untouched
func TestBiddingService_MalformedPriceProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		repo := repository.NewMemoryRepo()
		service := NewBiddingService(repo, &countingNotifier{})
		ctx := context.Background()

		created, err := service.CreateListing(ctx, "alice", model.NewListing{Number: 1, Name: "lot", BidPrice: "$10"})
		if err != nil {
			t.Fatalf("create listing: %v", err)
		}

		garbage := rapid.StringMatching(`[0-9a-z.\-]{0,8}`).Draw(t, "garbage")
		if _, err := service.PlaceBid(ctx, created.ID, "bob", garbage); err == nil {
			t.Fatalf("price %q was accepted", garbage)
		}

		after, err := service.GetListing(ctx, created.ID)
		if err != nil {
			t.Fatalf("get listing: %v", err)
		}
		if len(after.BidHistory) != 1 || after.BidPrice.String() != "$10" {
			t.Fatalf("listing changed after rejected bid: %+v", after)
		}
	})
}
