package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MessageRepository is the append-only conversation log
type MessageRepository interface {
	// Append stores a new message with its participant snapshot and read markers
	Append(ctx context.Context, msg *domain.Message) (*domain.Message, error)
	// FindLatestByKey returns the newest message of a conversation, or nil when none exists
	FindLatestByKey(ctx context.Context, key string) (*domain.Message, error)
	// FindRange returns messages newest first plus the conversation's total count
	FindRange(ctx context.Context, key string, offset, limit int) ([]*domain.Message, int64, error)
	CountByKey(ctx context.Context, key string) (int64, error)
	// CountUnread counts messages of the conversation without a read marker for userID
	CountUnread(ctx context.Context, key string, userID uint64) (int64, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]*domain.Message, error)
	// MarkRead adds a read marker for userID to every message lacking one and returns how many were added
	MarkRead(ctx context.Context, key string, userID uint64) (int64, error)
	// SetPinned sets the pinned flag on every message of the conversation
	SetPinned(ctx context.Context, key string, pinned bool) error
	// ScanLog returns the slim log of every conversation visible in scope, with read state for readerID
	ScanLog(ctx context.Context, scope domain.VisibilityScope, readerID uint64, typeFilter domain.ConversationType) ([]domain.LogEntry, error)
}

type messageRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db, now: time.Now}
}

func preloadMessage(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Participants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Preload("ReadBy", func(db *gorm.DB) *gorm.DB { return db.Order("read_at ASC, id ASC") })
}

func (r *messageRepository) Append(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	msg.Content = strings.TrimSpace(msg.Content)
	if !msg.HasBody() {
		return nil, common.InvalidInput("Tin nhắn phải có nội dung hoặc tệp đính kèm")
	}
	if msg.ConversationKey == "" {
		return nil, common.InvalidInput("conversation key là bắt buộc")
	}
	if msg.Attachments == nil {
		msg.Attachments = []domain.Attachment{}
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.now()
	}
	// the sender has always seen their own message
	if !msg.HasReadMarker(msg.SenderID) {
		msg.ReadBy = append(msg.ReadBy, domain.ReadMarker{UserID: msg.SenderID, ReadAt: msg.CreatedAt})
	}

	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (r *messageRepository) FindLatestByKey(ctx context.Context, key string) (*domain.Message, error) {
	var msg domain.Message
	err := preloadMessage(r.db.WithContext(ctx)).
		Where("conversation_key = ?", key).
		Order("created_at DESC, id DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) FindRange(ctx context.Context, key string, offset, limit int) ([]*domain.Message, int64, error) {
	var messages []*domain.Message
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Message{}).Where("conversation_key = ?", key)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(offset) >= total {
		return []*domain.Message{}, total, nil
	}

	err := preloadMessage(r.db.WithContext(ctx)).
		Where("conversation_key = ?", key).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *messageRepository) CountByKey(ctx context.Context, key string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).Where("conversation_key = ?", key).Count(&total).Error
	return total, err
}

func (r *messageRepository) CountUnread(ctx context.Context, key string, userID uint64) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("conversation_key = ?", key).
		Where("NOT EXISTS (SELECT 1 FROM message_reads r WHERE r.message_id = messages.id AND r.user_id = ?)", userID).
		Count(&total).Error
	return total, err
}

func (r *messageRepository) FindByIDs(ctx context.Context, ids []uint64) ([]*domain.Message, error) {
	if len(ids) == 0 {
		return []*domain.Message{}, nil
	}
	var messages []*domain.Message
	err := preloadMessage(r.db.WithContext(ctx)).Where("id IN ?", ids).Find(&messages).Error
	return messages, err
}

func (r *messageRepository) MarkRead(ctx context.Context, key string, userID uint64) (int64, error) {
	var updated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var unread []uint64
		err := tx.Model(&domain.Message{}).
			Where("conversation_key = ?", key).
			Where("NOT EXISTS (SELECT 1 FROM message_reads r WHERE r.message_id = messages.id AND r.user_id = ?)", userID).
			Pluck("id", &unread).Error
		if err != nil {
			return err
		}
		if len(unread) == 0 {
			return nil
		}

		readAt := r.now()
		markers := lo.Map(unread, func(id uint64, _ int) domain.ReadMarker {
			return domain.ReadMarker{MessageID: id, UserID: userID, ReadAt: readAt}
		})
		// a concurrent mark-read may have inserted some of these already
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&markers)
		if res.Error != nil {
			return res.Error
		}
		updated = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

func (r *messageRepository) SetPinned(ctx context.Context, key string, pinned bool) error {
	return r.db.WithContext(ctx).Model(&domain.Message{}).
		Where("conversation_key = ?", key).
		Update("is_pinned", pinned).Error
}

func (r *messageRepository) ScanLog(ctx context.Context, scope domain.VisibilityScope, readerID uint64, typeFilter domain.ConversationType) ([]domain.LogEntry, error) {
	query := r.db.WithContext(ctx).Table("messages AS m").
		Select("m.id AS message_id, m.conversation_key, m.type, m.created_at, "+
			"CASE WHEN mr.id IS NULL THEN 0 ELSE 1 END AS is_read").
		Joins("LEFT JOIN message_reads mr ON mr.message_id = m.id AND mr.user_id = ?", readerID)

	if typeFilter != "" {
		query = query.Where("m.type = ?", typeFilter)
	}
	if !scope.All {
		visible := r.visibleKeys(ctx, scope)
		if visible == nil {
			return []domain.LogEntry{}, nil
		}
		query = query.Where("m.conversation_key IN (?)", visible)
	}

	var entries []domain.LogEntry
	if err := query.Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// visibleKeys builds the subquery selecting every conversation key whose
// participant snapshot falls inside scope. Returns nil when nothing can match.
func (r *messageRepository) visibleKeys(ctx context.Context, scope domain.VisibilityScope) *gorm.DB {
	var conds []string
	var args []interface{}

	if scope.UserID != 0 {
		conds = append(conds, "(vm.type = ? AND vp.user_id = ?)")
		args = append(args, domain.ConversationDirect, scope.UserID)

		if len(scope.ManagedClubIDs) > 0 {
			conds = append(conds, "(vm.type = ? AND (vp.user_id = ? OR vp.club_id IN ?))")
			args = append(args, domain.ConversationUserClub, scope.UserID, scope.ManagedClubIDs)
		} else {
			conds = append(conds, "(vm.type = ? AND vp.user_id = ?)")
			args = append(args, domain.ConversationUserClub, scope.UserID)
		}
	}
	if len(scope.ClubIDs) > 0 {
		conds = append(conds, "(vm.type = ? AND vp.club_id IN ?)")
		args = append(args, domain.ConversationClubBroadcast, scope.ClubIDs)
	}
	if len(scope.EventIDs) > 0 {
		conds = append(conds, "(vm.type = ? AND vp.event_id IN ?)")
		args = append(args, domain.ConversationEvent, scope.EventIDs)
	}
	if len(conds) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).Table("messages AS vm").
		Select("DISTINCT vm.conversation_key").
		Joins("JOIN message_participants vp ON vp.message_id = vm.id").
		Where(strings.Join(conds, " OR "), args...)
}
