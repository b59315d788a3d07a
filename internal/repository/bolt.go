package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bolt "github.com/boltdb/bolt"

	"auction-bidding/internal/biddingerrors"
	model "auction-bidding/internal/models"
	"auction-bidding/utils"
)

var (
	listingsBucket = []byte("listings")
	numbersBucket  = []byte("listing_numbers")
	usersBucket    = []byte("users")
	emailsBucket   = []byte("user_emails")
)

// userRecord is the persisted form of a user; model.User hides the hash from JSON
type userRecord struct {
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toUserRecord(u model.User) userRecord {
	return userRecord{Username: u.Username, Email: u.Email, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}
}

func (r userRecord) toModel() model.User {
	return model.User{Username: r.Username, Email: r.Email, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}
}

// BoltRepo is a BoltDB-backed ListingStore and UserStore. Every write runs in a
// single bolt read-write transaction, which bolt serializes, so AtomicUpdate
// needs no extra locking.
type BoltRepo struct {
	db *bolt.DB
}

// NewBoltRepo opens (or creates) a BoltDB database at path and ensures all buckets exist
func NewBoltRepo(path string) (*BoltRepo, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{listingsBucket, numbersBucket, usersBucket, emailsBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bolt buckets: %w", err)
	}

	return &BoltRepo{db: db}, nil
}

// Close releases the database file lock
func (r *BoltRepo) Close() error {
	return r.db.Close()
}

func numberKey(n int64) []byte {
	return []byte(strconv.FormatInt(n, 10))
}

func readListing(b *bolt.Bucket, id string) (model.Listing, error) {
	v := b.Get([]byte(id))
	if v == nil {
		return model.Listing{}, fmt.Errorf("listing %s: %w", id, biddingerrors.ErrListingNotFound)
	}
	var l model.Listing
	if err := json.Unmarshal(v, &l); err != nil {
		return model.Listing{}, fmt.Errorf("decode listing %s: %w", id, err)
	}
	return l, nil
}

func writeListing(b *bolt.Bucket, l model.Listing) error {
	data, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode listing %s: %w", l.ID, err)
	}
	return b.Put([]byte(l.ID), data)
}

// Get retrieves a single listing by _id
func (r *BoltRepo) Get(_ context.Context, id string) (model.Listing, error) {
	var l model.Listing
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		l, err = readListing(tx.Bucket(listingsBucket), id)
		return err
	})
	return l, err
}

// List returns all listings ordered by _id
func (r *BoltRepo) List(_ context.Context) ([]model.Listing, error) {
	items := []model.Listing{}
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(listingsBucket).ForEach(func(_, v []byte) error {
			var l model.Listing
			if err := json.Unmarshal(v, &l); err != nil {
				return err
			}
			items = append(items, l)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	return items, nil
}

// Insert persists a new listing if its external numeric id is unused
func (r *BoltRepo) Insert(_ context.Context, listing model.Listing) (model.Listing, error) {
	stored := listing.Clone()
	err := r.db.Update(func(tx *bolt.Tx) error {
		numbers := tx.Bucket(numbersBucket)
		if numbers.Get(numberKey(listing.Number)) != nil {
			return fmt.Errorf("insert listing %d: %w", listing.Number, biddingerrors.ErrConflict)
		}

		stored.ID = utils.GenerateID()
		if err := numbers.Put(numberKey(stored.Number), []byte(stored.ID)); err != nil {
			return err
		}
		return writeListing(tx.Bucket(listingsBucket), stored)
	})
	if err != nil {
		return model.Listing{}, err
	}
	return stored, nil
}

// AtomicUpdate reads, mutates and writes the listing in one transaction
func (r *BoltRepo) AtomicUpdate(_ context.Context, id string, mutate Mutator) (model.Listing, error) {
	var result model.Listing
	err := r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(listingsBucket)
		current, err := readListing(b, id)
		if err != nil {
			return err
		}

		working := current.Clone()
		if err := mutate(&working); err != nil {
			return err
		}
		working.ID = current.ID
		working.Number = current.Number

		result = working
		return writeListing(b, working)
	})
	if err != nil {
		return model.Listing{}, err
	}
	return result, nil
}

// Delete removes a listing and its numeric id reservation
func (r *BoltRepo) Delete(_ context.Context, id string) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(listingsBucket)
		l, err := readListing(b, id)
		if err != nil {
			return err
		}
		if err := tx.Bucket(numbersBucket).Delete(numberKey(l.Number)); err != nil {
			return err
		}
		return b.Delete([]byte(id))
	})
}

// QueryByBidder scans every listing for a bid by username
func (r *BoltRepo) QueryByBidder(ctx context.Context, username string) ([]model.Listing, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []model.Listing{}
	for _, l := range all {
		for _, b := range l.BidHistory {
			if b.Username == username {
				out = append(out, l)
				break
			}
		}
	}
	return out, nil
}

// CreateUser stores a user if both username and email are unused
func (r *BoltRepo) CreateUser(_ context.Context, user model.User) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		users := tx.Bucket(usersBucket)
		emails := tx.Bucket(emailsBucket)
		if users.Get([]byte(user.Username)) != nil || emails.Get([]byte(user.Email)) != nil {
			return fmt.Errorf("create user %s: %w", user.Username, biddingerrors.ErrUserExists)
		}

		data, err := json.Marshal(toUserRecord(user))
		if err != nil {
			return err
		}
		if err := emails.Put([]byte(user.Email), []byte(user.Username)); err != nil {
			return err
		}
		return users.Put([]byte(user.Username), data)
	})
}

// GetUserByEmail resolves the email index then loads the user
func (r *BoltRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var username string
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(emailsBucket).Get([]byte(email))
		if v == nil {
			return fmt.Errorf("get user by email: %w", biddingerrors.ErrUserNotFound)
		}
		username = string(v)
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return r.GetUserByUsername(ctx, username)
}

// GetUserByUsername loads a user by username
func (r *BoltRepo) GetUserByUsername(_ context.Context, username string) (model.User, error) {
	var rec userRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(usersBucket).Get([]byte(username))
		if v == nil {
			return fmt.Errorf("get user %s: %w", username, biddingerrors.ErrUserNotFound)
		}
		return json.Unmarshal(v, &rec)
	})
	if err != nil {
		return model.User{}, err
	}
	return rec.toModel(), nil
}
