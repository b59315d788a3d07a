package utils

import (
	"errors"
	"net/http"

	"auction-bidding/internal/biddingerrors"
)

// MapErrorToHTTP maps domain/service errors to HTTP status code and message
func MapErrorToHTTP(err error) (int, string) {
	switch {
	case errors.Is(err, biddingerrors.ErrInvalidFormat):
		return http.StatusBadRequest, "invalid bid value format, it should start with a currency symbol"
	case errors.Is(err, biddingerrors.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, biddingerrors.ErrListingNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, biddingerrors.ErrConflict):
		return http.StatusConflict, "product with this id already exists"
	case errors.Is(err, biddingerrors.ErrUserExists):
		return http.StatusConflict, "username or email already in use"
	case errors.Is(err, biddingerrors.ErrUnauthenticated):
		return http.StatusUnauthorized, "token is not valid"
	case errors.Is(err, biddingerrors.ErrInvalidCredentials):
		return http.StatusBadRequest, "invalid email or password"
	case errors.Is(err, biddingerrors.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, biddingerrors.ErrInvalidObjectKey):
		return http.StatusBadRequest, "invalid object key"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
