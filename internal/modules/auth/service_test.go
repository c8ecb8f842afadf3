package auth

import (
	"context"
	"testing"

	"qaforum/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type stubTokenService struct{}

func (stubTokenService) GenerateToken(userID int64, email string) (string, error) {
	return "signed-token", nil
}

func testUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           1,
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		DisplayName:  "Alice",
	}
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(testUser(t, "alice123"), nil)

	svc := NewService(repo, stubTokenService{})

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "  Alice@Example.COM ",
		Password: "alice123",
	})
	require.NoError(t, err)
	assert.Equal(t, "signed-token", resp.Token)
	assert.Equal(t, int64(1), resp.User.ID)
	assert.Equal(t, "Alice", resp.User.DisplayName)
	repo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, "alice@example.com").Return(testUser(t, "alice123"), nil)

	svc := NewService(repo, stubTokenService{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

	svc := NewService(repo, stubTokenService{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_Validation(t *testing.T) {
	svc := NewService(new(MockUserRepository), stubTokenService{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "", Password: "x"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: ""})
	assert.ErrorIs(t, err, ErrValidation)
}
