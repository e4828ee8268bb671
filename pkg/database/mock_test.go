package database

import (
	"github.com/stretchr/testify/mock"
)

type MockConfig struct {
	mock.Mock
}

func (m *MockConfig) GetValue(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

func (m *MockConfig) GetValueOr(name, defaultValue string) string {
	args := m.Called(name, defaultValue)
	return args.String(0)
}

func newMockConfig(connections string) *MockConfig {
	cfg := new(MockConfig)
	cfg.On("GetValue", KeyMySQLIP).Return("127.0.0.1", nil).Maybe()
	cfg.On("GetValue", KeyMySQLUser).Return("bot", nil).Maybe()
	cfg.On("GetValue", KeyMySQLPassword).Return("secret", nil).Maybe()
	cfg.On("GetValue", KeyMySQLDBName).Return("games", nil).Maybe()
	cfg.On("GetValueOr", KeyMySQLConnectionsAmount, defaultConnectionsAmount).Return(connections).Maybe()
	cfg.On("GetValueOr", KeyMySQLClaimTimeout, defaultClaimTimeout).Return(defaultClaimTimeout).Maybe()
	return cfg
}
