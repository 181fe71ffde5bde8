package registry

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/sharp-edge/internal/logger"
	"github.com/yourusername/sharp-edge/internal/models"
)

// fakeModelVersionRepository is an in-memory repository whose Activate mirrors
// the transactional semantics of the Postgres implementation: the whole
// deprecate-then-activate sequence runs under one lock.
type fakeModelVersionRepository struct {
	mu       sync.Mutex
	versions map[string]*models.ModelVersion
}

func newFakeRepo() *fakeModelVersionRepository {
	return &fakeModelVersionRepository{versions: make(map[string]*models.ModelVersion)}
}

func (f *fakeModelVersionRepository) Create(ctx context.Context, mv *models.ModelVersion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.versions[mv.Version]; exists {
		return models.ErrDuplicateKey
	}
	cp := *mv
	cp.CreatedAt = time.Now()
	f.versions[mv.Version] = &cp
	return nil
}

func (f *fakeModelVersionRepository) GetByVersion(ctx context.Context, version string) (*models.ModelVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	mv, ok := f.versions[version]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *mv
	return &cp, nil
}

func (f *fakeModelVersionRepository) GetActive(ctx context.Context) (*models.ModelVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.ModelVersion
	for _, mv := range f.versions {
		if mv.Status != models.StatusActive {
			continue
		}
		if latest == nil || (mv.ActivatedAt != nil && latest.ActivatedAt != nil && mv.ActivatedAt.After(*latest.ActivatedAt)) {
			latest = mv
		}
	}
	if latest == nil {
		return nil, models.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeModelVersionRepository) GetHistory(ctx context.Context, limit int) ([]*models.ModelVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ModelVersion
	for _, mv := range f.versions {
		cp := *mv
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeModelVersionRepository) UpdateStatus(ctx context.Context, version string, status models.ModelStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	mv, ok := f.versions[version]
	if !ok {
		return models.ErrNotFound
	}
	mv.Status = status
	return nil
}

func (f *fakeModelVersionRepository) UpdateMetrics(ctx context.Context, version string, metrics []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	mv, ok := f.versions[version]
	if !ok {
		return models.ErrNotFound
	}
	mv.Metrics = metrics
	return nil
}

func (f *fakeModelVersionRepository) Activate(ctx context.Context, version string) (*models.ModelVersion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target, ok := f.versions[version]
	if !ok {
		return nil, models.ErrNotFound
	}
	switch target.Status {
	case models.StatusActive, models.StatusDeprecated, models.StatusFailed:
		return nil, models.ErrInvalidTransition
	}

	for _, mv := range f.versions {
		if mv.Status == models.StatusActive {
			mv.Status = models.StatusDeprecated
		}
	}

	now := time.Now().UTC()
	target.Status = models.StatusActive
	target.ActivatedAt = &now
	cp := *target
	return &cp, nil
}

func (f *fakeModelVersionRepository) activeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, mv := range f.versions {
		if mv.Status == models.StatusActive {
			count++
		}
	}
	return count
}

func newTestRegistry(repo *fakeModelVersionRepository) *Registry {
	return NewRegistry(repo, 50*time.Millisecond, logger.NewLogger("error"))
}

func register(t *testing.T, r *Registry, version string) {
	t.Helper()
	_, err := r.Register(context.Background(), version, "gradient_boosting", nil, time.Now().Add(-30*24*time.Hour), time.Now())
	require.NoError(t, err)
}

func TestRegisterStartsInTraining(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRegistry(repo)

	register(t, r, "v1")

	mv, err := r.GetByVersion(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusTraining, mv.Status)
	assert.NotEqual(t, uuid.Nil, mv.ID)
	assert.Nil(t, mv.ActivatedAt)
}

func TestActivateDeprecatesPreviousActive(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRegistry(repo)
	ctx := context.Background()

	register(t, r, "A")
	register(t, r, "B")

	_, err := r.Activate(ctx, "A")
	require.NoError(t, err)

	activated, err := r.Activate(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, activated.Status)
	assert.NotNil(t, activated.ActivatedAt)

	previous, err := r.GetByVersion(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeprecated, previous.Status)
	assert.Equal(t, 1, repo.activeCount())
}

func TestActivateUnknownVersionIsNotFound(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRegistry(repo)

	_, err := r.Activate(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Equal(t, 0, repo.activeCount())
}

func TestActivateTerminalVersionRejected(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRegistry(repo)
	ctx := context.Background()

	register(t, r, "v1")
	require.NoError(t, r.MarkFailed(ctx, "v1"))

	_, err := r.Activate(ctx, "v1")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestConcurrentActivationsLeaveExactlyOneActive(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRegistry(repo)
	ctx := context.Background()

	register(t, r, "A")
	register(t, r, "B")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		r.Activate(ctx, "A")
	}()
	go func() {
		defer wg.Done()
		r.Activate(ctx, "B")
	}()
	wg.Wait()

	// Exactly one winner regardless of interleaving: not zero, not two.
	assert.Equal(t, 1, repo.activeCount())

	active, err := r.GetActive(ctx)
	require.NoError(t, err)
	assert.Contains(t, []string{"A", "B"}, active.Version)
}

func TestGetActiveUsesCacheUntilInvalidated(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRegistry(repo)
	ctx := context.Background()

	register(t, r, "A")
	register(t, r, "B")
	_, err := r.Activate(ctx, "A")
	require.NoError(t, err)

	first, err := r.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", first.Version)

	// Activation invalidates the cached active version.
	_, err = r.Activate(ctx, "B")
	require.NoError(t, err)

	second, err := r.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "B", second.Version)
}

func TestLifecycleTransitions(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRegistry(repo)
	ctx := context.Background()

	register(t, r, "v1")

	require.NoError(t, r.MarkValidating(ctx, "v1"))
	mv, err := r.GetByVersion(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusValidating, mv.Status)

	// Validating versions can still fail.
	require.NoError(t, r.MarkFailed(ctx, "v1"))
	mv, err = r.GetByVersion(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, mv.Status)

	// A failed version cannot move again.
	assert.Error(t, r.MarkValidating(ctx, "v1"))
}

func TestDeprecateRequiresActive(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRegistry(repo)
	ctx := context.Background()

	register(t, r, "v1")
	assert.ErrorIs(t, r.Deprecate(ctx, "v1"), models.ErrInvalidTransition)

	_, err := r.Activate(ctx, "v1")
	require.NoError(t, err)
	assert.NoError(t, r.Deprecate(ctx, "v1"))
}

func TestRecordEvaluation(t *testing.T) {
	repo := newFakeRepo()
	r := newTestRegistry(repo)
	ctx := context.Background()

	register(t, r, "v1")
	require.NoError(t, r.RecordEvaluation(ctx, "v1", []byte(`{"accuracy":0.71,"brier":0.19}`)))

	mv, err := r.GetByVersion(ctx, "v1")
	require.NoError(t, err)
	val, err := mv.GetMetric("accuracy")
	require.NoError(t, err)
	assert.Equal(t, 0.71, val)
}
