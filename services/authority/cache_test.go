package authority

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/udehnih/review-rating/models"
)

var testEpoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type MockAuthorityRepository struct {
	mock.Mock
}

func (m *MockAuthorityRepository) FindAuthorities(ctx context.Context, subject string) ([]string, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAuthorityRepository) Grant(ctx context.Context, grant *models.UserAuthority) error {
	return m.Called(ctx, grant).Error(0)
}

func (m *MockAuthorityRepository) Revoke(ctx context.Context, subject, authority string) error {
	return m.Called(ctx, subject, authority).Error(0)
}

func TestCachedRepository_HitAndMiss(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAuthorityRepository)
	repo.On("FindAuthorities", ctx, "456").Return([]string{"ROLE_STUDENT"}, nil).Once()

	cache := NewCachedRepository(repo, 10, time.Minute, testclock.NewClock(testEpoch))

	got, err := cache.FindAuthorities(ctx, "456")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_STUDENT"}, got)

	got[0] = "ROLE_ADMIN"
	got, err = cache.FindAuthorities(ctx, "456")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_STUDENT"}, got)

	stats := cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, 0.5, stats.HitRate)
	repo.AssertExpectations(t)
}

func TestCachedRepository_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAuthorityRepository)
	repo.On("FindAuthorities", ctx, "456").Return(nil, fmt.Errorf("connection reset")).Once()
	repo.On("FindAuthorities", ctx, "456").Return([]string{"ROLE_STUDENT"}, nil).Once()

	cache := NewCachedRepository(repo, 10, time.Minute, testclock.NewClock(testEpoch))

	_, err := cache.FindAuthorities(ctx, "456")
	assert.Error(t, err)

	got, err := cache.FindAuthorities(ctx, "456")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_STUDENT"}, got)
	repo.AssertExpectations(t)
}

func TestCachedRepository_TTLExpiration(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewClock(testEpoch)
	repo := new(MockAuthorityRepository)
	repo.On("FindAuthorities", ctx, "456").Return([]string{"ROLE_STUDENT"}, nil).Once()
	repo.On("FindAuthorities", ctx, "456").Return([]string{"ROLE_STUDENT", "ROLE_ADMIN"}, nil).Once()

	cache := NewCachedRepository(repo, 10, time.Minute, clk)

	_, err := cache.FindAuthorities(ctx, "456")
	require.NoError(t, err)

	clk.Advance(time.Minute)
	got, err := cache.FindAuthorities(ctx, "456")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_STUDENT", "ROLE_ADMIN"}, got)
	repo.AssertExpectations(t)
}

func TestCachedRepository_LRUEviction(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAuthorityRepository)
	for _, s := range []string{"a", "b", "c"} {
		repo.On("FindAuthorities", ctx, s).Return([]string{"ROLE_USER"}, nil)
	}

	cache := NewCachedRepository(repo, 2, time.Minute, testclock.NewClock(testEpoch))

	_, _ = cache.FindAuthorities(ctx, "a")
	_, _ = cache.FindAuthorities(ctx, "b")
	_, _ = cache.FindAuthorities(ctx, "a") // a is now most recent
	_, _ = cache.FindAuthorities(ctx, "c") // evicts b

	assert.Equal(t, 2, cache.Stats().Size)
	repo.AssertNumberOfCalls(t, "FindAuthorities", 3)

	_, _ = cache.FindAuthorities(ctx, "b")
	repo.AssertNumberOfCalls(t, "FindAuthorities", 4)

	_, _ = cache.FindAuthorities(ctx, "c")
	repo.AssertNumberOfCalls(t, "FindAuthorities", 4)
}

func TestCachedRepository_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAuthorityRepository)
	grant := &models.UserAuthority{Subject: "456", Authority: "ROLE_ADMIN", GrantedAt: testEpoch}

	repo.On("FindAuthorities", ctx, "456").Return([]string{"ROLE_STUDENT"}, nil).Once()
	repo.On("Grant", ctx, grant).Return(nil).Once()
	repo.On("FindAuthorities", ctx, "456").Return([]string{"ROLE_STUDENT", "ROLE_ADMIN"}, nil).Once()
	repo.On("Revoke", ctx, "456", "ROLE_ADMIN").Return(nil).Once()
	repo.On("FindAuthorities", ctx, "456").Return([]string{"ROLE_STUDENT"}, nil).Once()

	cache := NewCachedRepository(repo, 10, time.Hour, testclock.NewClock(testEpoch))

	_, err := cache.FindAuthorities(ctx, "456")
	require.NoError(t, err)

	require.NoError(t, cache.Grant(ctx, grant))
	got, err := cache.FindAuthorities(ctx, "456")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_STUDENT", "ROLE_ADMIN"}, got)

	require.NoError(t, cache.Revoke(ctx, "456", "ROLE_ADMIN"))
	got, err = cache.FindAuthorities(ctx, "456")
	require.NoError(t, err)
	assert.Equal(t, []string{"ROLE_STUDENT"}, got)

	repo.AssertExpectations(t)
}

func TestCachedRepository_RevokeDuringLoad(t *testing.T) {
	ctx := context.Background()
	repo := new(MockAuthorityRepository)

	loading := make(chan struct{})
	release := make(chan struct{})
	repo.On("FindAuthorities", ctx, "u1").Return([]string{"ROLE_ADMIN"}, nil).Run(func(mock.Arguments) {
		close(loading)
		<-release
	}).Once()
	repo.On("Revoke", ctx, "u1", "ROLE_ADMIN").Return(nil).Once()
	repo.On("FindAuthorities", ctx, "u1").Return([]string{}, nil).Once()

	cache := NewCachedRepository(repo, 10, time.Hour, testclock.NewClock(testEpoch))

	stale := make(chan []string, 1)
	go func() {
		got, _ := cache.FindAuthorities(ctx, "u1")
		stale <- got
	}()

	<-loading
	require.NoError(t, cache.Revoke(ctx, "u1", "ROLE_ADMIN"))
	close(release)
	assert.Equal(t, []string{"ROLE_ADMIN"}, <-stale)

	got, err := cache.FindAuthorities(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Zero(t, cache.Stats().Hits)
	repo.AssertExpectations(t)
}

func TestCachedRepository_CleanupExpired(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewClock(testEpoch)
	repo := new(MockAuthorityRepository)
	repo.On("FindAuthorities", ctx, mock.Anything).Return([]string{"ROLE_USER"}, nil)

	cache := NewCachedRepository(repo, 10, time.Minute, clk)
	_, _ = cache.FindAuthorities(ctx, "a")
	clk.Advance(30 * time.Second)
	_, _ = cache.FindAuthorities(ctx, "b")
	clk.Advance(30 * time.Second)

	assert.Equal(t, 1, cache.CleanupExpired())
	assert.Equal(t, 1, cache.Stats().Size)

	cache.Clear()
	assert.Zero(t, cache.Stats().Size)
}

func TestCachedRepository_Run(t *testing.T) {
	ctx := context.Background()
	clk := testclock.NewClock(testEpoch)
	repo := new(MockAuthorityRepository)
	repo.On("FindAuthorities", ctx, "a").Return([]string{"ROLE_USER"}, nil)

	cache := NewCachedRepository(repo, 10, time.Minute, clk)
	_, _ = cache.FindAuthorities(ctx, "a")

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		cache.Run(runCtx, time.Minute)
		close(done)
	}()

	require.NoError(t, clk.WaitAdvance(time.Minute, time.Second, 1))
	assert.Eventually(t, func() bool { return cache.Stats().Size == 0 }, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
