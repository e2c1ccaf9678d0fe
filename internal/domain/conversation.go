package domain

import "fmt"

// ConversationType is the topology of a conversation
type ConversationType string

const (
	ConversationDirect        ConversationType = "DIRECT"
	ConversationUserClub      ConversationType = "USER_CLUB"
	ConversationClubBroadcast ConversationType = "CLUB_BROADCAST"
	ConversationEvent         ConversationType = "EVENT"
)

// ConversationTypes lists every supported topology
var ConversationTypes = []ConversationType{
	ConversationDirect,
	ConversationUserClub,
	ConversationClubBroadcast,
	ConversationEvent,
}

// IsValid reports whether t is a known topology
func (t ConversationType) IsValid() bool {
	for _, known := range ConversationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseConversationType parses a type tag. The second value is false for unknown tags.
func ParseConversationType(s string) (ConversationType, bool) {
	t := ConversationType(s)
	return t, t.IsValid()
}

// ParticipantKind tells which reference a ParticipantRef holds
type ParticipantKind string

const (
	ParticipantNone  ParticipantKind = ""
	ParticipantUser  ParticipantKind = "user"
	ParticipantClub  ParticipantKind = "club"
	ParticipantEvent ParticipantKind = "event"
	participantMixed ParticipantKind = "mixed"
)

// ParticipantRef references exactly one of a user, a club or an event
type ParticipantRef struct {
	UserID  uint64 `json:"user_id,omitempty"`
	ClubID  uint64 `json:"club_id,omitempty"`
	EventID uint64 `json:"event_id,omitempty"`
}

// UserRef builds a user participant reference
func UserRef(id uint64) ParticipantRef { return ParticipantRef{UserID: id} }

// ClubRef builds a club participant reference
func ClubRef(id uint64) ParticipantRef { return ParticipantRef{ClubID: id} }

// EventRef builds an event participant reference
func EventRef(id uint64) ParticipantRef { return ParticipantRef{EventID: id} }

// Kind returns the referenced entity kind, ParticipantNone when empty and
// an internal mixed marker when more than one id is set.
func (p ParticipantRef) Kind() ParticipantKind {
	kind := ParticipantNone
	set := 0
	if p.UserID != 0 {
		kind, set = ParticipantUser, set+1
	}
	if p.ClubID != 0 {
		kind, set = ParticipantClub, set+1
	}
	if p.EventID != 0 {
		kind, set = ParticipantEvent, set+1
	}
	if set > 1 {
		return participantMixed
	}
	return kind
}

// Token renders the reference as "user:<id>", "club:<id>" or "event:<id>"
func (p ParticipantRef) Token() string {
	switch p.Kind() {
	case ParticipantUser:
		return fmt.Sprintf("user:%d", p.UserID)
	case ParticipantClub:
		return fmt.Sprintf("club:%d", p.ClubID)
	case ParticipantEvent:
		return fmt.Sprintf("event:%d", p.EventID)
	default:
		return "unknown"
	}
}

// Role is the principal's role. Only admin is special-cased by messaging.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStudent Role = "student"
)

// ParseRole maps a role string onto the closed role set. Unknown roles become student.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleStudent:
		return Role(s)
	default:
		return RoleStudent
	}
}

// IsPrivileged reports whether the role bypasses conversation access checks
func (r Role) IsPrivileged() bool {
	return r == RoleAdmin
}

// Principal is the authenticated caller
type Principal struct {
	ID   uint64
	Name string
	Role Role
}

// IsPrivileged reports whether the principal bypasses conversation access checks
func (p Principal) IsPrivileged() bool {
	return p.Role.IsPrivileged()
}

// Action is an operation checked by the access evaluator
type Action string

const (
	ActionCreate Action = "create"
	ActionSend   Action = "send"
	ActionRead   Action = "read"
	ActionPin    Action = "pin"
)

// VisibilityScope is the set of conversations a principal may list.
// All is set for privileged principals; the id lists are ignored then.
// ClubIDs (joined or managed) gates broadcasts, ManagedClubIDs gates
// user-club threads the principal is not named in.
type VisibilityScope struct {
	All            bool
	UserID         uint64
	ClubIDs        []uint64
	ManagedClubIDs []uint64
	EventIDs       []uint64
}
