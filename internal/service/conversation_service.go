package service

import (
	"context"
	"errors"
	"strings"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/CoconutOil2004/project-sdn-group302/internal/repository"
	pkglogger "github.com/CoconutOil2004/project-sdn-group302/pkg/logger"
	"github.com/samber/lo"
)

// systemInitiatorFallback names the initiator of a bootstrap message when the user has no name
const systemInitiatorFallback = "hệ thống"

// Options tunes paging and the unpin rule
type Options struct {
	DefaultPageSize       int
	MaxPageSize           int
	DirectoryDefaultLimit int
	DirectoryMaxLimit     int
	// UnpinRequiresManager makes unpin check the pin capability instead of read
	UnpinRequiresManager bool
}

// DefaultOptions returns the stock paging limits
func DefaultOptions() Options {
	return Options{
		DefaultPageSize:       20,
		MaxPageSize:           100,
		DirectoryDefaultLimit: 50,
		DirectoryMaxLimit:     100,
	}
}

// ConversationService implements the conversation operations on top of the message log
type ConversationService interface {
	// CreateOrGet resolves the conversation for the participant set, appending the
	// supplied message or a bootstrap system message. created is true when no
	// message existed before the call.
	CreateOrGet(ctx context.Context, p domain.Principal, req *domain.CreateConversationRequest) (summary *domain.ThreadSummary, created bool, err error)
	Send(ctx context.Context, p domain.Principal, key string, req *domain.SendMessageRequest) (*domain.MessageView, error)
	ListMessages(ctx context.Context, p domain.Principal, key string, page, pageSize int) (*domain.MessagePage, *common.V2Meta, error)
	ListThreads(ctx context.Context, p domain.Principal, page, pageSize int, typeFilter string) ([]domain.ThreadSummary, *common.V2Meta, error)
	MarkRead(ctx context.Context, p domain.Principal, key string) (*domain.ReadResult, error)
	Pin(ctx context.Context, p domain.Principal, key string) (*domain.PinState, error)
	Unpin(ctx context.Context, p domain.Principal, key string) (*domain.PinState, error)
	// SearchUsers lists DIRECT conversation candidates for p
	SearchUsers(ctx context.Context, p domain.Principal, search string, limit int) ([]domain.UserView, error)
}

type conversationService struct {
	messages   repository.MessageRepository
	directory  repository.DirectoryRepository
	access     AccessEvaluator
	aggregator ThreadAggregator
	opts       Options
}

// NewConversationService creates a new ConversationService
func NewConversationService(
	messages repository.MessageRepository,
	directory repository.DirectoryRepository,
	access AccessEvaluator,
	aggregator ThreadAggregator,
	opts Options,
) ConversationService {
	defaults := DefaultOptions()
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = defaults.DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = defaults.MaxPageSize
	}
	if opts.DirectoryDefaultLimit <= 0 {
		opts.DirectoryDefaultLimit = defaults.DirectoryDefaultLimit
	}
	if opts.DirectoryMaxLimit <= 0 {
		opts.DirectoryMaxLimit = defaults.DirectoryMaxLimit
	}
	return &conversationService{
		messages:   messages,
		directory:  directory,
		access:     access,
		aggregator: aggregator,
		opts:       opts,
	}
}

// CreateOrGet creates a conversation or returns the existing one
func (s *conversationService) CreateOrGet(ctx context.Context, p domain.Principal, req *domain.CreateConversationRequest) (*domain.ThreadSummary, bool, error) {
	t, ok := domain.ParseConversationType(req.Type)
	if !ok {
		return nil, false, common.InvalidInput("Loại hội thoại không hợp lệ")
	}
	key, err := domain.ResolveConversationKey(t, req.Participants)
	if err != nil {
		return nil, false, err
	}
	attachments, err := sanitizeAttachments(req.Attachments)
	if err != nil {
		return nil, false, err
	}
	content := strings.TrimSpace(req.Content)

	if _, err := s.access.Authorize(ctx, p, t, req.Participants, domain.ActionCreate); err != nil {
		return nil, false, s.fail(err, p, key)
	}

	latest, err := s.messages.FindLatestByKey(ctx, key)
	if err != nil {
		return nil, false, s.fail(err, p, key)
	}

	msg := &domain.Message{
		ConversationKey: key,
		Type:            t,
		SenderID:        p.ID,
		Participants:    domain.NewMessageParticipants(req.Participants),
		Content:         content,
		Attachments:     attachments,
	}
	switch {
	case msg.HasBody():
		if latest != nil {
			msg.IsPinned = latest.IsPinned
		}
	case latest == nil:
		msg.IsSystem = true
		msg.Content = "Cuộc trò chuyện được tạo bởi " + s.initiatorName(ctx, p) + "."
	default:
		msg = nil
	}

	if msg != nil {
		if _, err := s.messages.Append(ctx, msg); err != nil {
			return nil, false, s.fail(err, p, key)
		}
		recordAppend(msg)
	}
	created := latest == nil && msg != nil
	if created {
		recordCreated(t)
	}

	summary, err := s.summaryFor(ctx, p, key)
	if err != nil {
		return nil, false, s.fail(err, p, key)
	}
	return summary, created, nil
}

// Send appends a message to an existing conversation
func (s *conversationService) Send(ctx context.Context, p domain.Principal, key string, req *domain.SendMessageRequest) (*domain.MessageView, error) {
	latest, err := s.existing(ctx, p, key)
	if err != nil {
		return nil, err
	}
	attachments, err := sanitizeAttachments(req.Attachments)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" && len(attachments) == 0 {
		return nil, common.InvalidInput("Tin nhắn phải có nội dung hoặc tệp đính kèm")
	}

	participants := latest.ParticipantRefs()
	if _, err := s.access.Authorize(ctx, p, latest.Type, participants, domain.ActionSend); err != nil {
		return nil, s.fail(err, p, key)
	}

	msg := &domain.Message{
		ConversationKey: key,
		Type:            latest.Type,
		SenderID:        p.ID,
		Participants:    domain.NewMessageParticipants(participants),
		Content:         content,
		Attachments:     attachments,
		IsPinned:        latest.IsPinned,
	}
	if _, err := s.messages.Append(ctx, msg); err != nil {
		return nil, s.fail(err, p, key)
	}
	recordAppend(msg)

	views, err := loadViews(ctx, s.directory, []*domain.Message{msg})
	if err != nil {
		return nil, s.fail(err, p, key)
	}
	view := views.message(msg)
	return &view, nil
}

// ListMessages returns one page of the conversation, newest first
func (s *conversationService) ListMessages(ctx context.Context, p domain.Principal, key string, page, pageSize int) (*domain.MessagePage, *common.V2Meta, error) {
	latest, err := s.existing(ctx, p, key)
	if err != nil {
		return nil, nil, err
	}
	participants := latest.ParticipantRefs()
	if _, err := s.access.Authorize(ctx, p, latest.Type, participants, domain.ActionRead); err != nil {
		return nil, nil, s.fail(err, p, key)
	}

	page, pageSize = s.normalizePage(page, pageSize)
	msgs, total, err := s.messages.FindRange(ctx, key, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, nil, s.fail(err, p, key)
	}

	views, err := loadViews(ctx, s.directory, append(msgs, latest))
	if err != nil {
		return nil, nil, s.fail(err, p, key)
	}
	result := &domain.MessagePage{
		ConversationKey: key,
		Type:            latest.Type,
		Participants:    views.participants(participants),
		Items:           lo.Map(msgs, func(m *domain.Message, _ int) domain.MessageView { return views.message(m) }),
	}
	return result, common.NewV2Meta(page, pageSize, total), nil
}

// ListThreads lists the conversations visible to p. Unknown type filters are ignored.
func (s *conversationService) ListThreads(ctx context.Context, p domain.Principal, page, pageSize int, typeFilter string) ([]domain.ThreadSummary, *common.V2Meta, error) {
	filter, ok := domain.ParseConversationType(typeFilter)
	if !ok {
		filter = ""
	}

	page, pageSize = s.normalizePage(page, pageSize)
	summaries, total, err := s.aggregator.ListForPrincipal(ctx, p, page, pageSize, filter)
	if err != nil {
		return nil, nil, s.fail(err, p, "")
	}
	return summaries, common.NewV2Meta(page, pageSize, total), nil
}

// MarkRead marks every message of the conversation as read by p
func (s *conversationService) MarkRead(ctx context.Context, p domain.Principal, key string) (*domain.ReadResult, error) {
	latest, err := s.existing(ctx, p, key)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, p, latest.Type, latest.ParticipantRefs(), domain.ActionRead); err != nil {
		return nil, s.fail(err, p, key)
	}

	updated, err := s.messages.MarkRead(ctx, key, p.ID)
	if err != nil {
		return nil, s.fail(err, p, key)
	}
	return &domain.ReadResult{ConversationKey: key, UpdatedCount: updated}, nil
}

// Pin pins the conversation
func (s *conversationService) Pin(ctx context.Context, p domain.Principal, key string) (*domain.PinState, error) {
	return s.setPinned(ctx, p, key, true, domain.ActionPin)
}

// Unpin unpins the conversation. Read access suffices unless UnpinRequiresManager is set.
func (s *conversationService) Unpin(ctx context.Context, p domain.Principal, key string) (*domain.PinState, error) {
	action := domain.ActionRead
	if s.opts.UnpinRequiresManager {
		action = domain.ActionPin
	}
	return s.setPinned(ctx, p, key, false, action)
}

func (s *conversationService) setPinned(ctx context.Context, p domain.Principal, key string, pinned bool, action domain.Action) (*domain.PinState, error) {
	latest, err := s.existing(ctx, p, key)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Authorize(ctx, p, latest.Type, latest.ParticipantRefs(), action); err != nil {
		return nil, s.fail(err, p, key)
	}
	if err := s.messages.SetPinned(ctx, key, pinned); err != nil {
		return nil, s.fail(err, p, key)
	}

	state := &domain.PinState{ConversationKey: key}
	state.Meta.IsPinned = pinned
	return state, nil
}

// SearchUsers lists users p may start a DIRECT conversation with
func (s *conversationService) SearchUsers(ctx context.Context, p domain.Principal, search string, limit int) ([]domain.UserView, error) {
	if limit < 1 {
		limit = s.opts.DirectoryDefaultLimit
	}
	if limit > s.opts.DirectoryMaxLimit {
		limit = s.opts.DirectoryMaxLimit
	}

	users, err := s.directory.SearchUsers(ctx, p.ID, search, limit)
	if err != nil {
		return nil, s.fail(err, p, "")
	}
	return lo.Map(users, func(u *domain.User, _ int) domain.UserView {
		return domain.UserView{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar, Role: u.Role}
	}), nil
}

// existing loads the latest message of key, failing with NotFound when the conversation has none
func (s *conversationService) existing(ctx context.Context, p domain.Principal, key string) (*domain.Message, error) {
	if strings.TrimSpace(key) == "" {
		return nil, common.InvalidInput("conversation key là bắt buộc")
	}
	latest, err := s.messages.FindLatestByKey(ctx, key)
	if err != nil {
		return nil, s.fail(err, p, key)
	}
	if latest == nil {
		return nil, common.NotFound("Không tìm thấy cuộc trò chuyện")
	}
	return latest, nil
}

func (s *conversationService) summaryFor(ctx context.Context, p domain.Principal, key string) (*domain.ThreadSummary, error) {
	latest, err := s.messages.FindLatestByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, common.NotFound("Không tìm thấy cuộc trò chuyện")
	}
	count, err := s.messages.CountByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountUnread(ctx, key, p.ID)
	if err != nil {
		return nil, err
	}
	views, err := loadViews(ctx, s.directory, []*domain.Message{latest})
	if err != nil {
		return nil, err
	}
	summary := views.summary(latest, count, unread)
	return &summary, nil
}

func (s *conversationService) initiatorName(ctx context.Context, p domain.Principal) string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	user, err := s.directory.FindUser(ctx, p.ID)
	if err != nil || strings.TrimSpace(user.Name) == "" {
		return systemInitiatorFallback
	}
	return strings.TrimSpace(user.Name)
}

func (s *conversationService) normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = s.opts.DefaultPageSize
	}
	if pageSize > s.opts.MaxPageSize {
		pageSize = s.opts.MaxPageSize
	}
	return page, pageSize
}

// fail logs unexpected errors and passes every error through unchanged
func (s *conversationService) fail(err error, p domain.Principal, key string) error {
	if common.StatusFromError(err) >= 500 && !errors.Is(err, context.Canceled) {
		log := pkglogger.WithUserID(p.ID)
		log.Error().Err(err).Str("conversation_key", key).Msg("messaging store failure")
	}
	return err
}

// sanitizeAttachments drops entries without a URL and trims names
func sanitizeAttachments(in []domain.Attachment) ([]domain.Attachment, error) {
	out := make([]domain.Attachment, 0, len(in))
	for i, a := range in {
		url := strings.TrimSpace(a.URL)
		if url == "" {
			continue
		}
		if a.Size != nil && *a.Size < 0 {
			return nil, common.InvalidInput("attachments[%d].size không hợp lệ", i)
		}
		out = append(out, domain.Attachment{URL: url, Name: strings.TrimSpace(a.Name), Size: a.Size})
	}
	return out, nil
}
