package objectstore

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"auction-bidding/internal/biddingerrors"

	"cloud.google.com/go/storage"
)

// Config holds the service account credentials used to sign object URLs
type Config struct {
	Bucket     string
	AccessID   string
	PrivateKey []byte
	TTL        time.Duration
}

// SignedURL is a time limited URL for a single object
type SignedURL struct {
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Signer issues V4 signed URLs for objects in one bucket
type Signer struct {
	cfg Config
	now func() time.Time
}

// NewSigner validates cfg and returns a Signer
func NewSigner(cfg Config) (*Signer, error) {
	if cfg.Bucket == "" || cfg.AccessID == "" || len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("objectstore: bucket, access id and private key are required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	return &Signer{cfg: cfg, now: time.Now}, nil
}

// SignUpload returns a PUT URL the client can upload contentType bytes to
func (s *Signer) SignUpload(key, contentType string) (SignedURL, error) {
	return s.sign(key, http.MethodPut, contentType)
}

// SignDownload returns a GET URL for key
func (s *Signer) SignDownload(key string) (SignedURL, error) {
	return s.sign(key, http.MethodGet, "")
}

func (s *Signer) sign(key, method, contentType string) (SignedURL, error) {
	key = strings.TrimSpace(key)
	if err := validateKey(key); err != nil {
		return SignedURL{}, err
	}

	expires := s.now().Add(s.cfg.TTL)
	url, err := storage.SignedURL(s.cfg.Bucket, key, &storage.SignedURLOptions{
		GoogleAccessID: s.cfg.AccessID,
		PrivateKey:     s.cfg.PrivateKey,
		Method:         method,
		ContentType:    contentType,
		Expires:        expires,
		Scheme:         storage.SigningSchemeV4,
	})
	if err != nil {
		return SignedURL{}, fmt.Errorf("objectstore: sign %s %s: %w", method, key, err)
	}

	return SignedURL{URL: url, Method: method, Key: key, ExpiresAt: expires}, nil
}

func validateKey(key string) error {
	switch {
	case key == "":
		return fmt.Errorf("objectstore: %w - empty key", biddingerrors.ErrInvalidObjectKey)
	case strings.HasPrefix(key, "/"), strings.Contains(key, ".."):
		return fmt.Errorf("objectstore: %w - %q", biddingerrors.ErrInvalidObjectKey, key)
	}
	return nil
}
