package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// DirectoryRepository reads the user, club and event collaborators
type DirectoryRepository interface {
	FindUser(ctx context.Context, id uint64) (*domain.User, error)
	FindClub(ctx context.Context, id uint64) (*domain.Club, error)
	FindEvent(ctx context.Context, id uint64) (*domain.Event, error)

	IsClubMember(ctx context.Context, clubID, userID uint64) (bool, error)
	IsEventParticipant(ctx context.Context, eventID, userID uint64) (bool, error)

	// ClubIDsForUser returns clubs the user has joined or manages
	ClubIDsForUser(ctx context.Context, userID uint64) ([]uint64, error)
	ManagedClubIDs(ctx context.Context, userID uint64) ([]uint64, error)
	// EventIDsForUser returns events the user is registered for plus events of managedClubIDs
	EventIDsForUser(ctx context.Context, userID uint64, managedClubIDs []uint64) ([]uint64, error)

	FindUsersByIDs(ctx context.Context, ids []uint64) ([]*domain.User, error)
	FindClubsByIDs(ctx context.Context, ids []uint64) ([]*domain.Club, error)
	FindEventsByIDs(ctx context.Context, ids []uint64) ([]*domain.Event, error)

	// SearchUsers lists non-blocked users other than excludeID, ordered by name
	SearchUsers(ctx context.Context, excludeID uint64, search string, limit int) ([]*domain.User, error)
}

type directoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository creates a new DirectoryRepository
func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) FindUser(ctx context.Context, id uint64) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("Không tìm thấy người dùng %d", id)
		}
		return nil, err
	}
	return &user, nil
}

func (r *directoryRepository) FindClub(ctx context.Context, id uint64) (*domain.Club, error) {
	var club domain.Club
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&club).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("Không tìm thấy CLB %d", id)
		}
		return nil, err
	}
	return &club, nil
}

func (r *directoryRepository) FindEvent(ctx context.Context, id uint64) (*domain.Event, error) {
	var event domain.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.NotFound("Không tìm thấy sự kiện %d", id)
		}
		return nil, err
	}
	return &event, nil
}

func (r *directoryRepository) IsClubMember(ctx context.Context, clubID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ClubMember{}).
		Where("club_id = ? AND user_id = ?", clubID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *directoryRepository) IsEventParticipant(ctx context.Context, eventID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *directoryRepository) ClubIDsForUser(ctx context.Context, userID uint64) ([]uint64, error) {
	var joined []uint64
	if err := r.db.WithContext(ctx).Model(&domain.ClubMember{}).
		Where("user_id = ?", userID).
		Pluck("club_id", &joined).Error; err != nil {
		return nil, err
	}
	managed, err := r.ManagedClubIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Uniq(append(joined, managed...)), nil
}

func (r *directoryRepository) ManagedClubIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).Model(&domain.Club{}).
		Where("manager_id = ?", userID).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *directoryRepository) EventIDsForUser(ctx context.Context, userID uint64, managedClubIDs []uint64) ([]uint64, error) {
	var joined []uint64
	if err := r.db.WithContext(ctx).Model(&domain.EventParticipant{}).
		Where("user_id = ?", userID).
		Pluck("event_id", &joined).Error; err != nil {
		return nil, err
	}
	if len(managedClubIDs) == 0 {
		return lo.Uniq(joined), nil
	}

	var managed []uint64
	if err := r.db.WithContext(ctx).Model(&domain.Event{}).
		Where("club_id IN ?", managedClubIDs).
		Pluck("id", &managed).Error; err != nil {
		return nil, err
	}
	return lo.Uniq(append(joined, managed...)), nil
}

func (r *directoryRepository) FindUsersByIDs(ctx context.Context, ids []uint64) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	var users []*domain.User
	err := r.db.WithContext(ctx).Where("id IN ?", lo.Uniq(ids)).Find(&users).Error
	return users, err
}

func (r *directoryRepository) FindClubsByIDs(ctx context.Context, ids []uint64) ([]*domain.Club, error) {
	if len(ids) == 0 {
		return []*domain.Club{}, nil
	}
	var clubs []*domain.Club
	err := r.db.WithContext(ctx).Where("id IN ?", lo.Uniq(ids)).Find(&clubs).Error
	return clubs, err
}

func (r *directoryRepository) FindEventsByIDs(ctx context.Context, ids []uint64) ([]*domain.Event, error) {
	if len(ids) == 0 {
		return []*domain.Event{}, nil
	}
	var events []*domain.Event
	err := r.db.WithContext(ctx).Where("id IN ?", lo.Uniq(ids)).Find(&events).Error
	return events, err
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *directoryRepository) SearchUsers(ctx context.Context, excludeID uint64, search string, limit int) ([]*domain.User, error) {
	query := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id <> ?", excludeID).
		Where("status <> ?", domain.UserStatusBlocked)

	if s := strings.TrimSpace(search); s != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!')", pattern, pattern)
	}

	var users []*domain.User
	err := query.Order("LOWER(name) ASC, id ASC").Limit(limit).Find(&users).Error
	return users, err
}
