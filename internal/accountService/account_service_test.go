package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-bidding/internal/auth"
	"auction-bidding/internal/biddingerrors"
	model "auction-bidding/internal/models"
	"auction-bidding/internal/repository"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(users repository.UserStore) (*AccountService, *auth.TokenService) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	svc := NewAccountService(users, tokens)
	svc.cost = bcrypt.MinCost
	return svc, tokens
}

func TestAccountService_SignupThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, tokens := newTestService(repository.NewMemoryRepo())

	token, err := svc.Signup(ctx, "alice", "alice@example.com", "hunter2")
	require.NoError(t, err)
	identity, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", identity)

	token, err = svc.Login(ctx, "alice@example.com", "hunter2")
	require.NoError(t, err)
	identity, err = tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice", identity)

	profile, err := svc.Profile(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", profile.Email)
	require.Empty(t, profile.PasswordHash)
}

func TestAccountService_SignupErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(repository.NewMemoryRepo())

	_, err := svc.Signup(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	tests := []struct {
		name          string
		username      string
		email         string
		password      string
		expectedError error
	}{
		{name: "duplicate_username", username: "alice", email: "new@example.com", password: "pw", expectedError: biddingerrors.ErrUserExists},
		{name: "duplicate_email", username: "alice2", email: "alice@example.com", password: "pw", expectedError: biddingerrors.ErrUserExists},
		{name: "empty_username", username: " ", email: "x@example.com", password: "pw", expectedError: biddingerrors.ErrInvalidRequest},
		{name: "empty_password", username: "carol", email: "carol@example.com", password: "", expectedError: biddingerrors.ErrInvalidRequest},
		{name: "bad_email", username: "dave", email: "not-an-email", password: "pw", expectedError: biddingerrors.ErrInvalidRequest},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tc.username, tc.email, tc.password)
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.expectedError), "expected error: %v, got: %v", tc.expectedError, err)
		})
	}
}

func TestAccountService_LoginErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockUsers := repository.NewMockUserStore(ctrl)
	svc, _ := newTestService(mockUsers)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	require.NoError(t, err)

	mockUsers.EXPECT().GetUserByEmail(gomock.Any(), "ghost@example.com").Return(model.User{}, biddingerrors.ErrUserNotFound)
	_, err = svc.Login(ctx, "ghost@example.com", "whatever")
	require.True(t, errors.Is(err, biddingerrors.ErrInvalidCredentials))

	mockUsers.EXPECT().GetUserByEmail(gomock.Any(), "alice@example.com").
		Return(model.User{Username: "alice", Email: "alice@example.com", PasswordHash: string(hash)}, nil)
	_, err = svc.Login(ctx, "alice@example.com", "wrong")
	require.True(t, errors.Is(err, biddingerrors.ErrInvalidCredentials))

	storeErr := errors.New("mongo down")
	mockUsers.EXPECT().GetUserByEmail(gomock.Any(), "bob@example.com").Return(model.User{}, storeErr)
	_, err = svc.Login(ctx, "bob@example.com", "pw")
	require.ErrorIs(t, err, storeErr)
	require.False(t, errors.Is(err, biddingerrors.ErrInvalidCredentials))
}
