package factory

import (
	"context"
	"time"

	"github.com/mcoot/wordbattle/internal/dependencies/mocks"
	"github.com/mcoot/wordbattle/internal/services/auth"
	"github.com/mcoot/wordbattle/internal/services/lobby"
	"github.com/mcoot/wordbattle/internal/services/quiz"
	"github.com/mcoot/wordbattle/internal/storage/memory"
	"github.com/mcoot/wordbattle/internal/testutil"
)

// TestAdminPassword is the admin password configured on test apps
const TestAdminPassword = "test-admin"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Image fetching is disabled and the hubs are not started.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	authCfg := auth.DefaultConfig()
	authCfg.AdminPassword = TestAdminPassword

	app, err := newWithDependencies(
		store, nil, mockClock, mockRandom, authCfg,
		lobby.DefaultConfig(), quiz.DefaultRoundSize, testutil.NopLogger(),
	)
	if err != nil {
		panic(err)
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// LoadTestLibrary loads a small word library for testing
func (t *TestApp) LoadTestLibrary(ctx context.Context) error {
	words := []string{
		"apple", "banana", "cherry", "dragon fruit", "elderberry", "fig",
		"grape", "honeydew", "kiwi", "lemon", "mango", "nectarine",
		"orange", "papaya", "quince", "raspberry", "strawberry", "tangerine",
	}
	return t.WordService.LoadWords(ctx, words)
}
