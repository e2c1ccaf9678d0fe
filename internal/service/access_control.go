package service

import (
	"context"
	"errors"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/CoconutOil2004/project-sdn-group302/internal/repository"
)

// AccessContext carries entities loaded while authorizing so callers can reuse them
type AccessContext struct {
	Club  *domain.Club
	Event *domain.Event
}

// AccessEvaluator decides whether a principal may act on a conversation
type AccessEvaluator interface {
	Authorize(ctx context.Context, p domain.Principal, t domain.ConversationType, participants []domain.ParticipantRef, action domain.Action) (*AccessContext, error)
}

type accessEvaluator struct {
	directory repository.DirectoryRepository
}

// NewAccessEvaluator creates a new AccessEvaluator
func NewAccessEvaluator(directory repository.DirectoryRepository) AccessEvaluator {
	return &accessEvaluator{directory: directory}
}

// Authorize returns ErrForbidden when the principal may not perform action,
// ErrNotFound when a referenced club or event does not exist and
// ErrInvalidConversationShape when the participant set lacks the reference the type needs.
// Admins bypass every check.
func (e *accessEvaluator) Authorize(ctx context.Context, p domain.Principal, t domain.ConversationType, participants []domain.ParticipantRef, action domain.Action) (*AccessContext, error) {
	if p.IsPrivileged() {
		return &AccessContext{}, nil
	}

	var (
		access  *AccessContext
		allowed bool
		err     error
	)
	switch t {
	case domain.ConversationDirect:
		access, allowed = &AccessContext{}, domain.HasUser(participants, p.ID)
	case domain.ConversationUserClub:
		access, allowed, err = e.userClub(ctx, p, participants)
	case domain.ConversationClubBroadcast:
		access, allowed, err = e.clubBroadcast(ctx, p, participants, action)
	case domain.ConversationEvent:
		access, allowed, err = e.event(ctx, p, participants)
	default:
		return nil, common.InvalidInput("Loại hội thoại không hợp lệ")
	}
	if err != nil {
		return nil, err
	}
	if !allowed {
		recordDenied(t, action)
		return nil, common.Forbidden("Bạn không có quyền %s hội thoại này", actionLabel(action))
	}
	return access, nil
}

func (e *accessEvaluator) userClub(ctx context.Context, p domain.Principal, participants []domain.ParticipantRef) (*AccessContext, bool, error) {
	clubRef, ok := domain.FirstOfKind(participants, domain.ParticipantClub)
	if !ok {
		return nil, false, common.InvalidShape("USER_CLUB thread yêu cầu clubId")
	}
	userRef, _ := domain.FirstOfKind(participants, domain.ParticipantUser)

	club, err := e.directory.FindClub(ctx, clubRef.ClubID)
	if err != nil {
		return nil, false, err
	}
	access := &AccessContext{Club: club}
	return access, userRef.UserID == p.ID || club.IsManagedBy(p.ID), nil
}

func (e *accessEvaluator) clubBroadcast(ctx context.Context, p domain.Principal, participants []domain.ParticipantRef, action domain.Action) (*AccessContext, bool, error) {
	clubRef, ok := domain.FirstOfKind(participants, domain.ParticipantClub)
	if !ok {
		return nil, false, common.InvalidShape("CLUB_BROADCAST thread yêu cầu clubId")
	}

	club, err := e.directory.FindClub(ctx, clubRef.ClubID)
	if err != nil {
		return nil, false, err
	}
	access := &AccessContext{Club: club}
	if club.IsManagedBy(p.ID) {
		return access, true, nil
	}
	if action == domain.ActionCreate || action == domain.ActionPin {
		return access, false, nil
	}

	member, err := e.directory.IsClubMember(ctx, club.ID, p.ID)
	if err != nil {
		return nil, false, err
	}
	return access, member, nil
}

func (e *accessEvaluator) event(ctx context.Context, p domain.Principal, participants []domain.ParticipantRef) (*AccessContext, bool, error) {
	eventRef, ok := domain.FirstOfKind(participants, domain.ParticipantEvent)
	if !ok {
		return nil, false, common.InvalidShape("EVENT thread yêu cầu eventId")
	}

	event, err := e.directory.FindEvent(ctx, eventRef.EventID)
	if err != nil {
		return nil, false, err
	}
	access := &AccessContext{Event: event}

	registered, err := e.directory.IsEventParticipant(ctx, event.ID, p.ID)
	if err != nil {
		return nil, false, err
	}
	if registered {
		return access, true, nil
	}
	if event.ClubID == 0 {
		return access, false, nil
	}

	club, err := e.directory.FindClub(ctx, event.ClubID)
	if err != nil {
		// a dangling club reference only removes the manager path
		if errors.Is(err, common.ErrNotFound) {
			return access, false, nil
		}
		return nil, false, err
	}
	access.Club = club
	return access, club.IsManagedBy(p.ID), nil
}

func actionLabel(action domain.Action) string {
	switch action {
	case domain.ActionCreate:
		return "tạo"
	case domain.ActionSend:
		return "gửi tin nhắn vào"
	case domain.ActionPin:
		return "ghim"
	default:
		return "xem"
	}
}
