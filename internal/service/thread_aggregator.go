package service

import (
	"context"
	"sort"
	"time"

	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/CoconutOil2004/project-sdn-group302/internal/repository"
	"github.com/samber/lo"
)

// ThreadGroup is one conversation folded out of the message log
type ThreadGroup struct {
	ConversationKey string
	Type            domain.ConversationType
	LatestID        uint64
	LatestAt        time.Time
	MessageCount    int64
	UnreadCount     int64
}

// FoldThreads groups log entries by conversation key. Groups are ordered by
// latest message time descending, ties broken by key ascending.
func FoldThreads(entries []domain.LogEntry) []ThreadGroup {
	groups := make(map[string]*ThreadGroup)
	for _, e := range entries {
		g, ok := groups[e.ConversationKey]
		if !ok {
			g = &ThreadGroup{ConversationKey: e.ConversationKey, Type: e.Type}
			groups[e.ConversationKey] = g
		}
		g.MessageCount++
		if !e.IsRead {
			g.UnreadCount++
		}
		if g.LatestID == 0 || e.CreatedAt.After(g.LatestAt) ||
			(e.CreatedAt.Equal(g.LatestAt) && e.MessageID > g.LatestID) {
			g.LatestID = e.MessageID
			g.LatestAt = e.CreatedAt
			g.Type = e.Type
		}
	}

	folded := make([]ThreadGroup, 0, len(groups))
	for _, g := range groups {
		folded = append(folded, *g)
	}
	sort.Slice(folded, func(i, j int) bool {
		if !folded[i].LatestAt.Equal(folded[j].LatestAt) {
			return folded[i].LatestAt.After(folded[j].LatestAt)
		}
		return folded[i].ConversationKey < folded[j].ConversationKey
	})
	return folded
}

// ThreadAggregator lists the conversations visible to a principal
type ThreadAggregator interface {
	// Visibility computes the set of conversations p may list
	Visibility(ctx context.Context, p domain.Principal) (domain.VisibilityScope, error)
	// ListForPrincipal returns one page of summaries and the number of visible threads
	ListForPrincipal(ctx context.Context, p domain.Principal, page, pageSize int, typeFilter domain.ConversationType) ([]domain.ThreadSummary, int64, error)
}

type threadAggregator struct {
	messages  repository.MessageRepository
	directory repository.DirectoryRepository
}

// NewThreadAggregator creates a new ThreadAggregator
func NewThreadAggregator(messages repository.MessageRepository, directory repository.DirectoryRepository) ThreadAggregator {
	return &threadAggregator{messages: messages, directory: directory}
}

func (a *threadAggregator) Visibility(ctx context.Context, p domain.Principal) (domain.VisibilityScope, error) {
	if p.IsPrivileged() {
		return domain.VisibilityScope{All: true}, nil
	}

	clubIDs, err := a.directory.ClubIDsForUser(ctx, p.ID)
	if err != nil {
		return domain.VisibilityScope{}, err
	}
	managed, err := a.directory.ManagedClubIDs(ctx, p.ID)
	if err != nil {
		return domain.VisibilityScope{}, err
	}
	eventIDs, err := a.directory.EventIDsForUser(ctx, p.ID, managed)
	if err != nil {
		return domain.VisibilityScope{}, err
	}

	return domain.VisibilityScope{
		UserID:         p.ID,
		ClubIDs:        lo.Uniq(clubIDs),
		ManagedClubIDs: lo.Uniq(managed),
		EventIDs:       lo.Uniq(eventIDs),
	}, nil
}

func (a *threadAggregator) ListForPrincipal(ctx context.Context, p domain.Principal, page, pageSize int, typeFilter domain.ConversationType) ([]domain.ThreadSummary, int64, error) {
	scope, err := a.Visibility(ctx, p)
	if err != nil {
		return nil, 0, err
	}
	entries, err := a.messages.ScanLog(ctx, scope, p.ID, typeFilter)
	if err != nil {
		return nil, 0, err
	}

	groups := FoldThreads(entries)
	total := int64(len(groups))

	start := (page - 1) * pageSize
	if start >= len(groups) {
		return []domain.ThreadSummary{}, total, nil
	}
	end := lo.Min([]int{start + pageSize, len(groups)})
	groups = groups[start:end]

	latest, err := a.messages.FindByIDs(ctx, lo.Map(groups, func(g ThreadGroup, _ int) uint64 { return g.LatestID }))
	if err != nil {
		return nil, 0, err
	}
	views, err := loadViews(ctx, a.directory, latest)
	if err != nil {
		return nil, 0, err
	}
	byID := lo.KeyBy(latest, func(m *domain.Message) uint64 { return m.ID })

	summaries := make([]domain.ThreadSummary, 0, len(groups))
	for _, g := range groups {
		msg, ok := byID[g.LatestID]
		if !ok {
			continue
		}
		summaries = append(summaries, views.summary(msg, g.MessageCount, g.UnreadCount))
	}
	return summaries, total, nil
}
