package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"DirectorySync/internal/config"
	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/model"
	"DirectorySync/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconciler(t *testing.T) (*Reconciler, interfaces.BusinessRepository) {
	t.Helper()
	repo := repository.NewBusinessRepository(newTestDB(t))
	return NewReconciler(repo, &config.SyncConfig{InsertRetries: 3}, testLogger()), repo
}

func TestReconciler_SyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t)

	first := r.Sync(ctx, austinPlaces(), nil)
	assert.Equal(t, model.SyncStats{Saved: 3}, first)

	second := r.Sync(ctx, austinPlaces(), nil)
	assert.Equal(t, model.SyncStats{Skipped: 3}, second)

	b, err := repo.FindByExternalID(ctx, "ext-a")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "lone-star-leak-repair", b.Slug)
	assert.Equal(t, "Austin", b.City)
	assert.Equal(t, "TX", b.State)
	assert.Equal(t, "78701", b.PostalCode)
	assert.True(t, b.Verified)
	assert.True(t, b.Featured)
	assert.True(t, b.Rating.Equal(decimal.RequireFromString("4.8")))
	assert.Equal(t, []string{"ext-a-photo-1"}, b.PhotoList(), "only one representative photo is stored")

	b, err = repo.FindByExternalID(ctx, "ext-b")
	require.NoError(t, err)
	assert.False(t, b.Featured, "35 reviews is below the featured threshold")
}

func TestReconciler_CollidingNamesGetSuffixedSlugs(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t)

	stats := r.Sync(ctx, []*model.RawPlace{
		place("ext-1", "Acme Restoration", "1 Main St, Austin, TX 78701, USA", 4.0, 5),
		place("ext-2", "Acme Restoration", "9 Oak St, Austin, TX 78702, USA", 4.1, 6),
		place("ext-3", "ACME  Restoration!", "5 Elm St, Austin, TX 78703, USA", 4.1, 6),
	}, nil)
	assert.Equal(t, model.SyncStats{Saved: 3}, stats)

	for id, want := range map[string]string{
		"ext-1": "acme-restoration",
		"ext-2": "acme-restoration-1",
		"ext-3": "acme-restoration-2",
	} {
		b, err := repo.FindByExternalID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, b.Slug, id)
	}
}

func TestReconciler_PerRecordErrorsAreIsolated(t *testing.T) {
	ctx := context.Background()
	r, _ := newReconciler(t)

	stats := r.Sync(ctx, []*model.RawPlace{
		{Name: "No Identity"},
		{ExternalID: "ext-noname"},
		place("ext-ok", "Fine Business", "1 Main St, Austin, TX 78701, USA", 4.0, 5),
	}, nil)
	assert.Equal(t, model.SyncStats{Saved: 1, Errors: 2}, stats)
}

func TestReconciler_UnparseableAddressStoresEmptyFields(t *testing.T) {
	ctx := context.Background()
	r, repo := newReconciler(t)
	catID := uint64(7)

	stats := r.Sync(ctx, []*model.RawPlace{{ExternalID: "ext-x", Name: "Mystery Shop", FormattedAddress: "somewhere"}}, &catID)
	assert.Equal(t, model.SyncStats{Saved: 1}, stats)

	b, err := repo.FindByExternalID(ctx, "ext-x")
	require.NoError(t, err)
	assert.Empty(t, b.City)
	assert.Empty(t, b.State)
	assert.Empty(t, b.PostalCode)
	require.NotNil(t, b.CategoryID)
	assert.Equal(t, catID, *b.CategoryID)
	assert.True(t, b.Rating.IsZero())
}

// staleLookupRepo 模拟并发写入者：查询时看不到已存在的 external_id
type staleLookupRepo struct {
	interfaces.BusinessRepository
}

func (staleLookupRepo) FindByExternalID(context.Context, string) (*model.Business, error) {
	return nil, nil
}

func TestReconciler_InsertRaceCountsAsSkipped(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewBusinessRepository(newTestDB(t))
	winner := NewReconciler(repo, &config.SyncConfig{InsertRetries: 3}, testLogger())
	require.Equal(t, model.SyncStats{Saved: 3}, winner.Sync(ctx, austinPlaces(), nil))

	loser := NewReconciler(staleLookupRepo{repo}, &config.SyncConfig{InsertRetries: 3}, testLogger())
	assert.Equal(t, model.SyncStats{Skipped: 3}, loser.Sync(ctx, austinPlaces(), nil))
}

// racySlugRepo 第一次探测 slug 时谎报未占用，模拟另一个写入者抢先落库
type racySlugRepo struct {
	interfaces.BusinessRepository
	once sync.Once
}

func (r *racySlugRepo) SlugExists(ctx context.Context, s string) (bool, error) {
	lied := false
	r.once.Do(func() { lied = true })
	if lied {
		return false, nil
	}
	return r.BusinessRepository.SlugExists(ctx, s)
}

func TestReconciler_RetriesOnSlugConflict(t *testing.T) {
	ctx := context.Background()
	base := repository.NewBusinessRepository(newTestDB(t))
	_, err := base.Insert(ctx, &model.Business{Slug: "acme-restoration", Name: "Acme Restoration"})
	require.NoError(t, err)

	r := NewReconciler(&racySlugRepo{BusinessRepository: base}, &config.SyncConfig{InsertRetries: 1}, testLogger())
	stats := r.Sync(ctx, []*model.RawPlace{place("ext-1", "Acme Restoration", "1 Main St, Austin, TX 78701, USA", 4, 1)}, nil)
	assert.Equal(t, model.SyncStats{Saved: 1}, stats)

	b, err := base.FindByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "acme-restoration-1", b.Slug)
}

// blindSlugRepo 探测永远报告未占用，冲突只能由写入时的唯一约束发现
type blindSlugRepo struct {
	interfaces.BusinessRepository
	mu     sync.Mutex
	probed []string
}

func (r *blindSlugRepo) SlugExists(_ context.Context, s string) (bool, error) {
	r.mu.Lock()
	r.probed = append(r.probed, s)
	r.mu.Unlock()
	return false, nil
}

func TestReconciler_SlugConflictResumesFromNextSuffix(t *testing.T) {
	ctx := context.Background()
	base := repository.NewBusinessRepository(newTestDB(t))
	_, err := base.Insert(ctx, &model.Business{Slug: "acme-restoration", Name: "Acme Restoration"})
	require.NoError(t, err)

	repo := &blindSlugRepo{BusinessRepository: base}
	r := NewReconciler(repo, &config.SyncConfig{InsertRetries: 2}, testLogger())
	stats := r.Sync(ctx, []*model.RawPlace{place("ext-1", "Acme Restoration", "1 Main St, Austin, TX 78701, USA", 4, 1)}, nil)
	assert.Equal(t, model.SyncStats{Saved: 1}, stats)
	assert.Equal(t, []string{"acme-restoration", "acme-restoration-1"}, repo.probed)

	b, err := base.FindByExternalID(ctx, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "acme-restoration-1", b.Slug)
}

type takenSlugRepo struct {
	interfaces.BusinessRepository
}

func (takenSlugRepo) SlugExists(context.Context, string) (bool, error) { return true, nil }

func TestSlugAssigner_Exhausted(t *testing.T) {
	a := NewSlugAssigner(takenSlugRepo{})
	a.maxProbes = 5

	_, err := a.AssignSlug(context.Background(), "Acme")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSlugExhausted))
}

func TestSlugAssigner_EmptyNameFallsBack(t *testing.T) {
	repo := repository.NewBusinessRepository(newTestDB(t))
	s, err := NewSlugAssigner(repo).AssignSlug(context.Background(), "東京")
	require.NoError(t, err)
	assert.Equal(t, "business", s)
}
