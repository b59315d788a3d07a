package repository

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

import (
	"context"
	"fmt"
	"sync"

	"auction-bidding/internal/biddingerrors"
	model "auction-bidding/internal/models"
	"auction-bidding/utils"
)

// Mutator edits a listing in place during an atomic update. Returning an
// error aborts the update without persisting anything. Stores that retry on
// contention may call it more than once, each time with a fresh copy.
type Mutator func(listing *model.Listing) error

// ListingStore defines the listing storage interface for the auction system.
// AtomicUpdate is the only way to change an existing listing and must run the
// read-modify-write of one listing without interleaving with another update.
type ListingStore interface {
	Get(ctx context.Context, id string) (model.Listing, error)
	List(ctx context.Context) ([]model.Listing, error)
	Insert(ctx context.Context, listing model.Listing) (model.Listing, error)
	AtomicUpdate(ctx context.Context, id string, mutate Mutator) (model.Listing, error)
	Delete(ctx context.Context, id string) error
	QueryByBidder(ctx context.Context, username string) ([]model.Listing, error)
}

// UserStore defines account storage
type UserStore interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

// MemoryRepo is a concurrency-safe in-memory implementation of ListingStore and UserStore
type MemoryRepo struct {
	mu       sync.RWMutex
	listings map[string]model.Listing // key: listing _id -> value: listing
	numbers  map[int64]string         // key: external numeric id -> value: listing _id
	order    []string                 // listing _ids in insertion order
	users    map[string]model.User    // key: username -> value: user
	emails   map[string]string        // key: email -> value: username
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		listings: make(map[string]model.Listing),
		numbers:  make(map[int64]string),
		users:    make(map[string]model.User),
		emails:   make(map[string]string),
	}
}

// Get returns a copy of the listing with the given _id
func (r *MemoryRepo) Get(_ context.Context, id string) (model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.listings[id]
	if !ok {
		return model.Listing{}, fmt.Errorf("get listing %s: %w", id, biddingerrors.ErrListingNotFound)
	}
	return l.Clone(), nil
}

// List returns all listings in insertion order
func (r *MemoryRepo) List(_ context.Context) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Listing, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.listings[id].Clone())
	}
	return out, nil
}

// Insert stores a new listing, assigning its _id. The external numeric id must be unused.
func (r *MemoryRepo) Insert(_ context.Context, listing model.Listing) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.numbers[listing.Number]; exists {
		return model.Listing{}, fmt.Errorf("insert listing %d: %w", listing.Number, biddingerrors.ErrConflict)
	}

	stored := listing.Clone()
	stored.ID = utils.GenerateID()
	r.listings[stored.ID] = stored
	r.numbers[stored.Number] = stored.ID
	r.order = append(r.order, stored.ID)

	return stored.Clone(), nil
}

// AtomicUpdate applies mutate to the listing under the write lock
func (r *MemoryRepo) AtomicUpdate(_ context.Context, id string, mutate Mutator) (model.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.listings[id]
	if !ok {
		return model.Listing{}, fmt.Errorf("update listing %s: %w", id, biddingerrors.ErrListingNotFound)
	}

	working := current.Clone()
	if err := mutate(&working); err != nil {
		return model.Listing{}, err
	}
	working.ID = current.ID
	working.Number = current.Number

	r.listings[id] = working
	return working.Clone(), nil
}

// Delete removes the listing with the given _id
func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.listings[id]
	if !ok {
		return fmt.Errorf("delete listing %s: %w", id, biddingerrors.ErrListingNotFound)
	}

	delete(r.listings, id)
	delete(r.numbers, l.Number)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// QueryByBidder returns every listing whose history contains a bid by username
func (r *MemoryRepo) QueryByBidder(_ context.Context, username string) ([]model.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Listing{}
	for _, id := range r.order {
		l := r.listings[id]
		for _, b := range l.BidHistory {
			if b.Username == username {
				out = append(out, l.Clone())
				break
			}
		}
	}
	return out, nil
}

// CreateUser stores a new user; username and email must both be unused
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Username]; ok {
		return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrUserExists)
	}
	if _, ok := r.emails[user.Email]; ok {
		return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrUserExists)
	}

	r.users[user.Username] = user
	r.emails[user.Email] = user.Username
	return nil
}

// GetUserByEmail looks a user up by email
func (r *MemoryRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username, ok := r.emails[email]
	if !ok {
		return model.User{}, fmt.Errorf("get user by email: %w", biddingerrors.ErrUserNotFound)
	}
	return r.users[username], nil
}

// GetUserByUsername looks a user up by username
func (r *MemoryRepo) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[username]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", username, biddingerrors.ErrUserNotFound)
	}
	return u, nil
}
