package service

import (
	"context"
	"testing"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockDirectoryRepository is a mock implementation of DirectoryRepository
type MockDirectoryRepository struct {
	mock.Mock
}

func (m *MockDirectoryRepository) FindUser(ctx context.Context, id uint64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockDirectoryRepository) FindClub(ctx context.Context, id uint64) (*domain.Club, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Club), args.Error(1)
}

func (m *MockDirectoryRepository) FindEvent(ctx context.Context, id uint64) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockDirectoryRepository) IsClubMember(ctx context.Context, clubID, userID uint64) (bool, error) {
	args := m.Called(ctx, clubID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectoryRepository) IsEventParticipant(ctx context.Context, eventID, userID uint64) (bool, error) {
	args := m.Called(ctx, eventID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectoryRepository) ClubIDsForUser(ctx context.Context, userID uint64) ([]uint64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *MockDirectoryRepository) ManagedClubIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *MockDirectoryRepository) EventIDsForUser(ctx context.Context, userID uint64, managedClubIDs []uint64) ([]uint64, error) {
	args := m.Called(ctx, userID, managedClubIDs)
	return args.Get(0).([]uint64), args.Error(1)
}

func (m *MockDirectoryRepository) FindUsersByIDs(ctx context.Context, ids []uint64) ([]*domain.User, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockDirectoryRepository) FindClubsByIDs(ctx context.Context, ids []uint64) ([]*domain.Club, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*domain.Club), args.Error(1)
}

func (m *MockDirectoryRepository) FindEventsByIDs(ctx context.Context, ids []uint64) ([]*domain.Event, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*domain.Event), args.Error(1)
}

func (m *MockDirectoryRepository) SearchUsers(ctx context.Context, excludeID uint64, search string, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, excludeID, search, limit)
	return args.Get(0).([]*domain.User), args.Error(1)
}

func student(id uint64) domain.Principal {
	return domain.Principal{ID: id, Name: "student", Role: domain.RoleStudent}
}

func TestAccessEvaluator_AdminBypass(t *testing.T) {
	dir := new(MockDirectoryRepository)
	eval := NewAccessEvaluator(dir)
	admin := domain.Principal{ID: 99, Role: domain.RoleAdmin}

	for _, typ := range domain.ConversationTypes {
		_, err := eval.Authorize(context.Background(), admin, typ, []domain.ParticipantRef{domain.ClubRef(1)}, domain.ActionPin)
		assert.NoError(t, err, typ)
	}
	dir.AssertNotCalled(t, "FindClub", mock.Anything, mock.Anything)
}

func TestAccessEvaluator_Direct(t *testing.T) {
	eval := NewAccessEvaluator(new(MockDirectoryRepository))
	refs := []domain.ParticipantRef{domain.UserRef(1), domain.UserRef(2)}

	_, err := eval.Authorize(context.Background(), student(1), domain.ConversationDirect, refs, domain.ActionSend)
	assert.NoError(t, err)

	_, err = eval.Authorize(context.Background(), student(3), domain.ConversationDirect, refs, domain.ActionRead)
	assert.ErrorIs(t, err, common.ErrForbidden)

	// managers get no special treatment
	manager := domain.Principal{ID: 3, Role: domain.RoleManager}
	_, err = eval.Authorize(context.Background(), manager, domain.ConversationDirect, refs, domain.ActionRead)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestAccessEvaluator_UserClub(t *testing.T) {
	ctx := context.Background()
	dir := new(MockDirectoryRepository)
	dir.On("FindClub", ctx, uint64(10)).Return(&domain.Club{ID: 10, ManagerID: 7}, nil)
	eval := NewAccessEvaluator(dir)
	refs := []domain.ParticipantRef{domain.UserRef(1), domain.ClubRef(10)}

	access, err := eval.Authorize(ctx, student(1), domain.ConversationUserClub, refs, domain.ActionCreate)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), access.Club.ID)

	_, err = eval.Authorize(ctx, student(7), domain.ConversationUserClub, refs, domain.ActionPin)
	assert.NoError(t, err)

	_, err = eval.Authorize(ctx, student(2), domain.ConversationUserClub, refs, domain.ActionRead)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestAccessEvaluator_UserClubMissingClub(t *testing.T) {
	ctx := context.Background()
	dir := new(MockDirectoryRepository)
	dir.On("FindClub", ctx, uint64(10)).Return(nil, common.NotFound("club"))
	eval := NewAccessEvaluator(dir)

	_, err := eval.Authorize(ctx, student(1), domain.ConversationUserClub,
		[]domain.ParticipantRef{domain.UserRef(1), domain.ClubRef(10)}, domain.ActionCreate)
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NotErrorIs(t, err, common.ErrForbidden)
}

func TestAccessEvaluator_ClubBroadcast(t *testing.T) {
	ctx := context.Background()
	dir := new(MockDirectoryRepository)
	dir.On("FindClub", ctx, uint64(10)).Return(&domain.Club{ID: 10, ManagerID: 7}, nil)
	dir.On("IsClubMember", ctx, uint64(10), uint64(1)).Return(true, nil)
	dir.On("IsClubMember", ctx, uint64(10), uint64(2)).Return(false, nil)
	eval := NewAccessEvaluator(dir)
	refs := []domain.ParticipantRef{domain.ClubRef(10)}

	tests := []struct {
		name    string
		user    uint64
		action  domain.Action
		allowed bool
	}{
		{"manager creates", 7, domain.ActionCreate, true},
		{"manager pins", 7, domain.ActionPin, true},
		{"member sends", 1, domain.ActionSend, true},
		{"member reads", 1, domain.ActionRead, true},
		{"member cannot create", 1, domain.ActionCreate, false},
		{"member cannot pin", 1, domain.ActionPin, false},
		{"outsider cannot send", 2, domain.ActionSend, false},
		{"outsider cannot read", 2, domain.ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval.Authorize(ctx, student(tt.user), domain.ConversationClubBroadcast, refs, tt.action)
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, common.ErrForbidden)
			}
		})
	}
}

func TestAccessEvaluator_Event(t *testing.T) {
	ctx := context.Background()
	dir := new(MockDirectoryRepository)
	dir.On("FindEvent", ctx, uint64(20)).Return(&domain.Event{ID: 20, ClubID: 10}, nil)
	dir.On("FindEvent", ctx, uint64(21)).Return(&domain.Event{ID: 21}, nil)
	dir.On("FindClub", ctx, uint64(10)).Return(&domain.Club{ID: 10, ManagerID: 7}, nil)
	dir.On("IsEventParticipant", ctx, uint64(20), uint64(1)).Return(true, nil)
	dir.On("IsEventParticipant", ctx, uint64(20), mock.Anything).Return(false, nil)
	dir.On("IsEventParticipant", ctx, uint64(21), mock.Anything).Return(false, nil)
	eval := NewAccessEvaluator(dir)
	eventRefs := []domain.ParticipantRef{domain.EventRef(20)}

	_, err := eval.Authorize(ctx, student(1), domain.ConversationEvent, eventRefs, domain.ActionSend)
	assert.NoError(t, err)

	access, err := eval.Authorize(ctx, student(7), domain.ConversationEvent, eventRefs, domain.ActionPin)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), access.Club.ID)
	assert.Equal(t, uint64(20), access.Event.ID)

	_, err = eval.Authorize(ctx, student(2), domain.ConversationEvent, eventRefs, domain.ActionRead)
	assert.ErrorIs(t, err, common.ErrForbidden)

	// events without a club have no manager path
	_, err = eval.Authorize(ctx, student(7), domain.ConversationEvent, []domain.ParticipantRef{domain.EventRef(21)}, domain.ActionRead)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestAccessEvaluator_MissingReferenceIsShapeError(t *testing.T) {
	eval := NewAccessEvaluator(new(MockDirectoryRepository))

	_, err := eval.Authorize(context.Background(), student(1), domain.ConversationEvent,
		[]domain.ParticipantRef{domain.UserRef(1)}, domain.ActionRead)
	assert.ErrorIs(t, err, common.ErrInvalidConversationShape)
}

func TestAccessEvaluator_CountsDenials(t *testing.T) {
	eval := NewAccessEvaluator(new(MockDirectoryRepository))
	counter := accessDeniedTotal.WithLabelValues(string(domain.ConversationDirect), string(domain.ActionSend))
	before := testutil.ToFloat64(counter)

	_, err := eval.Authorize(context.Background(), student(3), domain.ConversationDirect,
		[]domain.ParticipantRef{domain.UserRef(1), domain.UserRef(2)}, domain.ActionSend)
	require.ErrorIs(t, err, common.ErrForbidden)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
