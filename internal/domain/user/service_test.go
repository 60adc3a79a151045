package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int64) (User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(User), args.Error(1)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, NewPasswordValidator(), slog.Default())
}

func TestService_Register(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *User) bool {
		return u.Email == "farmer@example.com" && u.Role == RoleFarmer && u.Password != "shamba2025"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*User).ID = 123
	}).Return(nil)

	u, err := service.Register(context.Background(), RegisterRequest{
		Email:    "  Farmer@Example.com ",
		Name:     "Wanjiru",
		Password: "shamba2025",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(123), u.ID)
	assert.Equal(t, "Wanjiru", u.Name)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("shamba2025")))

	mockRepo.AssertExpectations(t)
}

func TestService_Register_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{name: "bad email", req: RegisterRequest{Email: "nope", Name: "A", Password: "shamba2025"}},
		{name: "weak password", req: RegisterRequest{Email: "a@b.io", Name: "A", Password: "short"}},
		{name: "unknown role", req: RegisterRequest{Email: "a@b.io", Name: "A", Role: "admin", Password: "shamba2025"}},
		{name: "blank name", req: RegisterRequest{Email: "a@b.io", Name: "  ", Password: "shamba2025"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			service := newTestService(mockRepo)

			_, err := service.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidInput)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestService_Register_EmailTaken(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).Return(ErrEmailTaken)

	_, err := service.Register(context.Background(), RegisterRequest{
		Email: "farmer@example.com", Name: "A", Role: RoleStakeholder, Password: "shamba2025",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	mockRepo.AssertExpectations(t)
}

func TestService_Authenticate_Success(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)

	hash, err := bcrypt.GenerateFromPassword([]byte("shamba2025"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := User{ID: 5, Email: "farmer@example.com", Role: RoleFarmer, Password: string(hash)}
	mockRepo.On("FindByEmail", mock.Anything, "farmer@example.com").Return(stored, nil)

	u, err := service.Authenticate(context.Background(), "FARMER@example.com", "shamba2025")
	require.NoError(t, err)
	assert.Equal(t, int64(5), u.ID)

	mockRepo.AssertExpectations(t)
}

func TestService_Authenticate_Failures(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("shamba2025"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		mockRepo.On("FindByEmail", mock.Anything, "farmer@example.com").
			Return(User{ID: 5, Password: string(hash)}, nil)

		_, err := service.Authenticate(context.Background(), "farmer@example.com", "wrong-pass1")
		assert.ErrorIs(t, err, ErrInvalidAuth)
	})

	t.Run("unknown user", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		mockRepo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(User{}, ErrNotFound)

		_, err := service.Authenticate(context.Background(), "ghost@example.com", "shamba2025")
		assert.ErrorIs(t, err, ErrInvalidAuth)
	})

	t.Run("repository error", func(t *testing.T) {
		mockRepo := new(MockRepository)
		service := newTestService(mockRepo)
		mockRepo.On("FindByEmail", mock.Anything, "farmer@example.com").Return(User{}, errors.New("database error"))

		_, err := service.Authenticate(context.Background(), "farmer@example.com", "shamba2025")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidAuth)
		assert.Contains(t, err.Error(), "database error")
	})
}

func TestService_Get(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	mockRepo.On("FindByID", mock.Anything, int64(9)).Return(User{}, ErrNotFound)

	_, err := service.Get(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}
