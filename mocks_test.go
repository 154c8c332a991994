package auth_test

import (
	"context"

	"github.com/goliatone/go-authz"
	"github.com/stretchr/testify/mock"
)

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindUserByID(ctx context.Context, id string) (*auth.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) FindUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	args := m.Called(ctx, username)
	user, _ := args.Get(0).(*auth.User)
	return user, args.Error(1)
}

func (m *MockCredentialStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockCredentialStore) PermissionNamesOf(ctx context.Context, roleNames []string) ([]string, error) {
	args := m.Called(ctx, roleNames)
	names, _ := args.Get(0).([]string)
	return names, args.Error(1)
}

type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetSigningKey() string    { return m.Called().String(0) }
func (m *MockConfig) GetSigningMethod() string { return m.Called().String(0) }
func (m *MockConfig) GetTokenExpiration() int  { return m.Called().Int(0) }
func (m *MockConfig) GetContextKey() string    { return m.Called().String(0) }
func (m *MockConfig) GetTokenLookup() string   { return m.Called().String(0) }
func (m *MockConfig) GetAuthScheme() string    { return m.Called().String(0) }
func (m *MockConfig) GetBcryptCost() int       { return m.Called().Int(0) }
func (m *MockConfig) GetUseHashid() bool       { return m.Called().Bool(0) }

func newMockConfig() *MockConfig {
	cfg := new(MockConfig)
	cfg.On("GetSigningKey").Return("test-signing-key")
	cfg.On("GetSigningMethod").Return("HS256")
	cfg.On("GetTokenExpiration").Return(15)
	return cfg
}
