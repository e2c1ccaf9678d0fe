package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/CoconutOil2004/project-sdn-group302/internal/testutil"
	"github.com/CoconutOil2004/project-sdn-group302/pkg/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedDirectory(t *testing.T, db *gorm.DB) {
	testutil.SeedUser(t, db, 1, "Alice", domain.RoleStudent)
	testutil.SeedUser(t, db, 2, "bob", domain.RoleManager)
	testutil.SeedUser(t, db, 3, "Carol_100%", domain.RoleStudent)
	blocked := testutil.SeedUser(t, db, 4, "Dave", domain.RoleStudent)
	require.NoError(t, db.Model(blocked).Update("status", domain.UserStatusBlocked).Error)

	testutil.SeedClub(t, db, 10, "Chess", 2)
	testutil.SeedClub(t, db, 11, "Go", 3)
	testutil.SeedMember(t, db, 10, 1)
	testutil.SeedMember(t, db, 11, 1)

	testutil.SeedEvent(t, db, 20, 10, "Tournament")
	testutil.SeedEvent(t, db, 21, 11, "Workshop")
	testutil.SeedEvent(t, db, 22, 0, "Open day")
	testutil.SeedParticipant(t, db, 22, 1)
}

func TestDirectoryRepository_FindNotFound(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewDirectoryRepository(db)
	ctx := context.Background()

	_, err := repo.FindUser(ctx, 404)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.FindClub(ctx, 404)
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.FindEvent(ctx, 404)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDirectoryRepository_Memberships(t *testing.T) {
	db := testutil.NewDB(t)
	seedDirectory(t, db)
	repo := NewDirectoryRepository(db)
	ctx := context.Background()

	ok, err := repo.IsClubMember(ctx, 10, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsClubMember(ctx, 10, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.IsEventParticipant(ctx, 22, 1)
	require.NoError(t, err)
	assert.True(t, ok)

	clubs, err := repo.ClubIDsForUser(ctx, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{10, 11}, clubs)

	managed, err := repo.ManagedClubIDs(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10}, managed)

	events, err := repo.EventIDsForUser(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{22}, events)

	events, err = repo.EventIDsForUser(ctx, 3, []uint64{11})
	require.NoError(t, err)
	assert.Equal(t, []uint64{21}, events)
}

func TestDirectoryRepository_BatchLoaders(t *testing.T) {
	db := testutil.NewDB(t)
	seedDirectory(t, db)
	repo := NewDirectoryRepository(db)
	ctx := context.Background()

	users, err := repo.FindUsersByIDs(ctx, []uint64{1, 2, 2, 999})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	clubs, err := repo.FindClubsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, clubs)

	events, err := repo.FindEventsByIDs(ctx, []uint64{20, 21})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestDirectoryRepository_SearchUsers(t *testing.T) {
	db := testutil.NewDB(t)
	seedDirectory(t, db)
	repo := NewDirectoryRepository(db)
	ctx := context.Background()

	names := func(users []*domain.User) []string {
		out := make([]string, len(users))
		for i, u := range users {
			out[i] = u.Name
		}
		return out
	}

	t.Run("excludes caller and blocked users", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, 1, "", 50)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob", "Carol_100%"}, names(users))
	})

	t.Run("case insensitive", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, 2, "ALI", 50)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alice"}, names(users))
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, 1, "%", 50)
		require.NoError(t, err)
		assert.Equal(t, []string{"Carol_100%"}, names(users))

		users, err = repo.SearchUsers(ctx, 1, "_", 50)
		require.NoError(t, err)
		assert.Equal(t, []string{"Carol_100%"}, names(users))
	})

	t.Run("limit", func(t *testing.T) {
		users, err := repo.SearchUsers(ctx, 1, "", 1)
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})
}

// memoryCache is an in-process cache.Service for decorator tests
type memoryCache struct {
	items map[string][]byte
	sets  int
}

func newMemoryCache() *memoryCache { return &memoryCache{items: map[string][]byte{}} }

func (m *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	data, ok := m.items[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = data
	m.sets++
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.items[key]
	return ok, nil
}

func (m *memoryCache) IsAvailable() bool            { return true }
func (m *memoryCache) Ping(_ context.Context) error { return nil }

func TestCachedDirectoryRepository_ReadThrough(t *testing.T) {
	db := testutil.NewDB(t)
	seedDirectory(t, db)
	mc := newMemoryCache()
	repo := NewCachedDirectoryRepository(NewDirectoryRepository(db), mc)
	ctx := context.Background()

	club, err := repo.FindClub(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Chess", club.Name)
	assert.Equal(t, 1, mc.sets)

	// served from cache even after the row changes
	require.NoError(t, db.Model(&domain.Club{}).Where("id = ?", 10).Update("name", "Renamed").Error)
	club, err = repo.FindClub(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Chess", club.Name)
	assert.Equal(t, 1, mc.sets)

	_, err = repo.FindUser(ctx, 404)
	assert.ErrorIs(t, err, common.ErrNotFound)
	exists, _ := mc.Exists(ctx, cache.UserKey(404))
	assert.False(t, exists)

	event, err := repo.FindEvent(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), event.ClubID)
}

func TestNewCachedDirectoryRepository_NoCache(t *testing.T) {
	db := testutil.NewDB(t)
	base := NewDirectoryRepository(db)

	assert.Same(t, base, NewCachedDirectoryRepository(base, nil))
	assert.Same(t, base, NewCachedDirectoryRepository(base, cache.NewService(nil)))
}
