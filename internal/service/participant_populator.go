package service

import (
	"context"

	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/CoconutOil2004/project-sdn-group302/internal/repository"
	"github.com/samber/lo"
)

// directoryViews holds display data for every entity referenced by a batch of messages
type directoryViews struct {
	users  map[uint64]*domain.User
	clubs  map[uint64]*domain.Club
	events map[uint64]*domain.Event
}

// loadViews batch-loads senders and participants of msgs with one query per entity kind
func loadViews(ctx context.Context, directory repository.DirectoryRepository, msgs []*domain.Message) (*directoryViews, error) {
	var userIDs, clubIDs, eventIDs []uint64
	for _, m := range msgs {
		userIDs = append(userIDs, m.SenderID)
		for _, ref := range m.ParticipantRefs() {
			switch ref.Kind() {
			case domain.ParticipantUser:
				userIDs = append(userIDs, ref.UserID)
			case domain.ParticipantClub:
				clubIDs = append(clubIDs, ref.ClubID)
			case domain.ParticipantEvent:
				eventIDs = append(eventIDs, ref.EventID)
			}
		}
	}

	users, err := directory.FindUsersByIDs(ctx, lo.Uniq(userIDs))
	if err != nil {
		return nil, err
	}
	clubs, err := directory.FindClubsByIDs(ctx, lo.Uniq(clubIDs))
	if err != nil {
		return nil, err
	}
	events, err := directory.FindEventsByIDs(ctx, lo.Uniq(eventIDs))
	if err != nil {
		return nil, err
	}

	return &directoryViews{
		users:  lo.KeyBy(users, func(u *domain.User) uint64 { return u.ID }),
		clubs:  lo.KeyBy(clubs, func(c *domain.Club) uint64 { return c.ID }),
		events: lo.KeyBy(events, func(e *domain.Event) uint64 { return e.ID }),
	}, nil
}

func (v *directoryViews) user(id uint64) *domain.UserView {
	u, ok := v.users[id]
	if !ok {
		return &domain.UserView{ID: id}
	}
	return &domain.UserView{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Role: u.Role}
}

func (v *directoryViews) club(id uint64) *domain.ClubView {
	c, ok := v.clubs[id]
	if !ok {
		return &domain.ClubView{ID: id}
	}
	return &domain.ClubView{ID: c.ID, Name: c.Name, Logo: c.Logo, ManagerID: c.ManagerID}
}

func (v *directoryViews) event(id uint64) *domain.EventView {
	e, ok := v.events[id]
	if !ok {
		return &domain.EventView{ID: id}
	}
	date := e.Date
	return &domain.EventView{ID: e.ID, Title: e.Title, ClubID: e.ClubID, Date: &date}
}

func (v *directoryViews) participants(refs []domain.ParticipantRef) []domain.ParticipantView {
	views := make([]domain.ParticipantView, 0, len(refs))
	for _, ref := range refs {
		switch ref.Kind() {
		case domain.ParticipantUser:
			views = append(views, domain.ParticipantView{User: v.user(ref.UserID)})
		case domain.ParticipantClub:
			views = append(views, domain.ParticipantView{Club: v.club(ref.ClubID)})
		case domain.ParticipantEvent:
			views = append(views, domain.ParticipantView{Event: v.event(ref.EventID)})
		}
	}
	return views
}

func (v *directoryViews) message(m *domain.Message) domain.MessageView {
	attachments := []domain.Attachment(m.Attachments)
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	readBy := lo.Map(m.ReadBy, func(r domain.ReadMarker, _ int) domain.ReadMarkerView {
		return domain.ReadMarkerView{UserID: r.UserID, ReadAt: r.ReadAt}
	})

	return domain.MessageView{
		ID:              m.ID,
		ConversationKey: m.ConversationKey,
		Type:            m.Type,
		Sender:          v.user(m.SenderID),
		Content:         m.Content,
		Attachments:     attachments,
		Meta:            domain.MessageMeta{IsPinned: m.IsPinned, IsSystem: m.IsSystem},
		CreatedAt:       m.CreatedAt,
		Participants:    v.participants(m.ParticipantRefs()),
		ReadBy:          readBy,
	}
}

// summary builds a thread summary around the conversation's latest message
func (v *directoryViews) summary(latest *domain.Message, messageCount, unreadCount int64) domain.ThreadSummary {
	last := v.message(latest)
	return domain.ThreadSummary{
		ConversationKey: latest.ConversationKey,
		Type:            latest.Type,
		Participants:    last.Participants,
		Meta:            last.Meta,
		LastMessage:     &last,
		UnreadCount:     unreadCount,
		MessageCount:    messageCount,
	}
}
