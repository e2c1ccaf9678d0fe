package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/CoconutOil2004/project-sdn-group302/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestMessageRepo(t *testing.T) (*messageRepository, *gorm.DB) {
	db := testutil.NewDB(t)
	repo := NewMessageRepository(db).(*messageRepository)
	return repo, db
}

func appendAt(t *testing.T, repo MessageRepository, key string, typ domain.ConversationType, refs []domain.ParticipantRef, sender uint64, content string, at time.Time) *domain.Message {
	t.Helper()
	msg, err := repo.Append(context.Background(), &domain.Message{
		ConversationKey: key,
		Type:            typ,
		SenderID:        sender,
		Participants:    domain.NewMessageParticipants(refs),
		Content:         content,
		CreatedAt:       at,
	})
	require.NoError(t, err)
	return msg
}

func directRefs(a, b uint64) []domain.ParticipantRef {
	return []domain.ParticipantRef{domain.UserRef(a), domain.UserRef(b)}
}

func TestMessageRepository_AppendRejectsEmptyBody(t *testing.T) {
	repo, _ := newTestMessageRepo(t)

	_, err := repo.Append(context.Background(), &domain.Message{
		ConversationKey: "DIRECT:user:1|user:2",
		Type:            domain.ConversationDirect,
		SenderID:        1,
		Content:         "   ",
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestMessageRepository_AppendStoresSnapshotAndSenderMarker(t *testing.T) {
	repo, _ := newTestMessageRepo(t)
	ctx := context.Background()
	key := "DIRECT:user:1|user:2"

	appendAt(t, repo, key, domain.ConversationDirect, directRefs(2, 1), 1, "hi", time.Now())

	latest, err := repo.FindLatestByKey(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "hi", latest.Content)
	assert.Equal(t, directRefs(2, 1), latest.ParticipantRefs())
	assert.True(t, latest.HasReadMarker(1))
	assert.False(t, latest.HasReadMarker(2))
}

func TestMessageRepository_AppendWithAttachmentsOnly(t *testing.T) {
	repo, _ := newTestMessageRepo(t)
	ctx := context.Background()
	size := int64(2048)

	msg, err := repo.Append(ctx, &domain.Message{
		ConversationKey: "EVENT:event:3",
		Type:            domain.ConversationEvent,
		SenderID:        5,
		Participants:    domain.NewMessageParticipants([]domain.ParticipantRef{domain.EventRef(3)}),
		Attachments:     []domain.Attachment{{URL: "https://cdn.example.com/a.pdf", Name: "a.pdf", Size: &size}},
	})
	require.NoError(t, err)

	found, err := repo.FindByIDs(ctx, []uint64{msg.ID})
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Len(t, found[0].Attachments, 1)
	assert.Equal(t, "a.pdf", found[0].Attachments[0].Name)
	assert.Equal(t, int64(2048), *found[0].Attachments[0].Size)
}

func TestMessageRepository_FindLatestByKey_None(t *testing.T) {
	repo, _ := newTestMessageRepo(t)

	msg, err := repo.FindLatestByKey(context.Background(), "DIRECT:user:8|user:9")
	require.NoError(t, err)
	assert.Nil(t, msg)
}

func TestMessageRepository_FindRangeNewestFirst(t *testing.T) {
	repo, _ := newTestMessageRepo(t)
	ctx := context.Background()
	key := "DIRECT:user:1|user:2"
	base := time.Now().Add(-time.Hour)

	for i := 1; i <= 25; i++ {
		appendAt(t, repo, key, domain.ConversationDirect, directRefs(1, 2), 1, fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Second))
	}

	page, total, err := repo.FindRange(ctx, key, 10, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, page, 10)
	// ranks 11..20 by recency are m15 down to m6
	assert.Equal(t, "m15", page[0].Content)
	assert.Equal(t, "m6", page[9].Content)

	empty, total, err := repo.FindRange(ctx, key, 30, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	assert.Empty(t, empty)
}

func TestMessageRepository_MarkReadIsIdempotent(t *testing.T) {
	repo, _ := newTestMessageRepo(t)
	ctx := context.Background()
	key := "DIRECT:user:1|user:2"

	appendAt(t, repo, key, domain.ConversationDirect, directRefs(1, 2), 1, "a", time.Now().Add(-2*time.Second))
	appendAt(t, repo, key, domain.ConversationDirect, directRefs(1, 2), 2, "b", time.Now().Add(-time.Second))
	appendAt(t, repo, key, domain.ConversationDirect, directRefs(1, 2), 1, "c", time.Now())

	unread, err := repo.CountUnread(ctx, key, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	n, err := repo.MarkRead(ctx, key, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err = repo.CountUnread(ctx, key, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), unread)

	n, err = repo.MarkRead(ctx, key, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.MarkRead(ctx, "DIRECT:user:3|user:4", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMessageRepository_SetPinned(t *testing.T) {
	repo, db := newTestMessageRepo(t)
	ctx := context.Background()
	key := "CLUB_BROADCAST:club:1"
	refs := []domain.ParticipantRef{domain.ClubRef(1)}

	appendAt(t, repo, key, domain.ConversationClubBroadcast, refs, 1, "a", time.Now().Add(-time.Second))
	appendAt(t, repo, key, domain.ConversationClubBroadcast, refs, 1, "b", time.Now())
	appendAt(t, repo, "CLUB_BROADCAST:club:2", domain.ConversationClubBroadcast, []domain.ParticipantRef{domain.ClubRef(2)}, 1, "other", time.Now())

	require.NoError(t, repo.SetPinned(ctx, key, true))
	require.NoError(t, repo.SetPinned(ctx, key, true))

	var pinned int64
	require.NoError(t, db.Model(&domain.Message{}).Where("is_pinned = ?", true).Count(&pinned).Error)
	assert.Equal(t, int64(2), pinned)

	require.NoError(t, repo.SetPinned(ctx, key, false))
	require.NoError(t, db.Model(&domain.Message{}).Where("is_pinned = ?", true).Count(&pinned).Error)
	assert.Equal(t, int64(0), pinned)
}

func TestMessageRepository_ScanLogVisibility(t *testing.T) {
	repo, _ := newTestMessageRepo(t)
	ctx := context.Background()
	now := time.Now()

	appendAt(t, repo, "DIRECT:user:1|user:2", domain.ConversationDirect, directRefs(1, 2), 1, "d", now)
	appendAt(t, repo, "DIRECT:user:3|user:4", domain.ConversationDirect, directRefs(3, 4), 3, "x", now)
	appendAt(t, repo, "USER_CLUB:club:10|user:5", domain.ConversationUserClub,
		[]domain.ParticipantRef{domain.UserRef(5), domain.ClubRef(10)}, 5, "uc", now)
	appendAt(t, repo, "CLUB_BROADCAST:club:10", domain.ConversationClubBroadcast,
		[]domain.ParticipantRef{domain.ClubRef(10)}, 9, "bc", now)
	appendAt(t, repo, "EVENT:event:7", domain.ConversationEvent,
		[]domain.ParticipantRef{domain.EventRef(7)}, 9, "ev", now)

	keysOf := func(entries []domain.LogEntry) map[string]bool {
		keys := map[string]bool{}
		for _, e := range entries {
			keys[e.ConversationKey] = true
		}
		return keys
	}

	t.Run("user without memberships sees own direct threads", func(t *testing.T) {
		entries, err := repo.ScanLog(ctx, domain.VisibilityScope{UserID: 2}, 2, "")
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"DIRECT:user:1|user:2": true}, keysOf(entries))
		assert.False(t, entries[0].IsRead)
	})

	t.Run("club member sees broadcast but not other members' user-club threads", func(t *testing.T) {
		scope := domain.VisibilityScope{UserID: 1, ClubIDs: []uint64{10}}
		entries, err := repo.ScanLog(ctx, scope, 1, "")
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{
			"DIRECT:user:1|user:2":   true,
			"CLUB_BROADCAST:club:10": true,
		}, keysOf(entries))
	})

	t.Run("named user sees own user-club thread", func(t *testing.T) {
		entries, err := repo.ScanLog(ctx, domain.VisibilityScope{UserID: 5}, 5, "")
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"USER_CLUB:club:10|user:5": true}, keysOf(entries))
	})

	t.Run("club manager sees user-club threads of the managed club", func(t *testing.T) {
		scope := domain.VisibilityScope{UserID: 9, ClubIDs: []uint64{10}, ManagedClubIDs: []uint64{10}}
		entries, err := repo.ScanLog(ctx, scope, 9, "")
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{
			"USER_CLUB:club:10|user:5": true,
			"CLUB_BROADCAST:club:10":   true,
		}, keysOf(entries))
	})

	t.Run("event participant sees event thread", func(t *testing.T) {
		scope := domain.VisibilityScope{UserID: 6, EventIDs: []uint64{7}}
		entries, err := repo.ScanLog(ctx, scope, 6, "")
		require.NoError(t, err)
		assert.Equal(t, map[string]bool{"EVENT:event:7": true}, keysOf(entries))
	})

	t.Run("admin sees everything with type filter", func(t *testing.T) {
		entries, err := repo.ScanLog(ctx, domain.VisibilityScope{All: true}, 99, domain.ConversationDirect)
		require.NoError(t, err)
		assert.Len(t, keysOf(entries), 2)
	})

	t.Run("sender sees own message as read", func(t *testing.T) {
		entries, err := repo.ScanLog(ctx, domain.VisibilityScope{UserID: 1}, 1, domain.ConversationDirect)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].IsRead)
	})
}
