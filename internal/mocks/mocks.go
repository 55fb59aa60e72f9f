// File: internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/routeflow/internal/browser"
	"github.com/xkilldash9x/routeflow/internal/config"
	"github.com/xkilldash9x/routeflow/internal/scenario"
	"github.com/xkilldash9x/routeflow/internal/store"
)

// -- Config Mock --

// MockConfig mocks the config.Interface.
type MockConfig struct {
	mock.Mock
}

var _ config.Interface = (*MockConfig)(nil)

// --- Getters ---

func (m *MockConfig) Logger() config.LoggerConfig {
	args := m.Called()
	return args.Get(0).(config.LoggerConfig)
}

func (m *MockConfig) Browser() config.BrowserConfig {
	args := m.Called()
	return args.Get(0).(config.BrowserConfig)
}

func (m *MockConfig) Wait() config.WaitConfig {
	args := m.Called()
	return args.Get(0).(config.WaitConfig)
}

func (m *MockConfig) Suite() config.SuiteConfig {
	args := m.Called()
	return args.Get(0).(config.SuiteConfig)
}

func (m *MockConfig) SMS() config.SMSConfig {
	args := m.Called()
	return args.Get(0).(config.SMSConfig)
}

func (m *MockConfig) Fixtures() config.FixturesConfig {
	args := m.Called()
	return args.Get(0).(config.FixturesConfig)
}

func (m *MockConfig) Locators() map[string]config.LocatorConfig {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]config.LocatorConfig)
}

func (m *MockConfig) Report() config.ReportConfig {
	args := m.Called()
	return args.Get(0).(config.ReportConfig)
}

// Database provides a mock function for the Database getter.
func (m *MockConfig) Database() config.DatabaseConfig {
	args := m.Called()
	return args.Get(0).(config.DatabaseConfig)
}

// --- Setters ---

func (m *MockConfig) SetBrowserHeadless(b bool) {
	m.Called(b)
}

func (m *MockConfig) SetReportFormat(f string) {
	m.Called(f)
}

func (m *MockConfig) SetReportOutput(p string) {
	m.Called(p)
}

// -- Store Mocks --

// MockRepository mocks store.Repository.
type MockRepository struct {
	mock.Mock
}

var _ store.Repository = (*MockRepository)(nil)

func (m *MockRepository) EnsureSchema(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRepository) SaveRun(ctx context.Context, runID string, results []scenario.Result) error {
	return m.Called(ctx, runID, results).Error(0)
}

func (m *MockRepository) LoadRun(ctx context.Context, runID string) ([]scenario.Result, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scenario.Result), args.Error(1)
}

func (m *MockRepository) LatestRunID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockStoreProvider hands out a repository without a database connection.
type MockStoreProvider struct {
	mock.Mock
}

func (m *MockStoreProvider) Create(ctx context.Context, cfg config.Interface) (store.Repository, func(), error) {
	args := m.Called(ctx, cfg)
	var repo store.Repository
	if r := args.Get(0); r != nil {
		repo = r.(store.Repository)
	}
	var cleanup func()
	if c := args.Get(1); c != nil {
		cleanup = c.(func())
	}
	return repo, cleanup, args.Error(2)
}

// -- Session Mock --

// MockSessionOpener stands in for the browser launch. Its Open method has the
// shape of scenario.SessionOpener.
type MockSessionOpener struct {
	mock.Mock
}

func (m *MockSessionOpener) Open(ctx context.Context) (browser.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(browser.Session), args.Error(1)
}
