package domain

import (
	"sort"
	"time"

	"gorm.io/datatypes"
)

// Attachment is an already-hosted file referenced by a message
type Attachment struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size *int64 `json:"size,omitempty"`
}

// Message is one immutable row of the conversation log.
// Only IsPinned and the ReadBy markers change after creation.
type Message struct {
	ID              uint64                          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ConversationKey string                          `gorm:"column:conversation_key;size:512;not null;index:idx_messages_key_created,priority:1" json:"conversation_key"`
	Type            ConversationType                `gorm:"column:type;size:32;not null;index" json:"type"`
	SenderID        uint64                          `gorm:"column:sender_id;not null;index" json:"sender_id"`
	Participants    []MessageParticipant            `gorm:"foreignKey:MessageID" json:"participants"`
	Content         string                          `gorm:"column:content;type:text" json:"content"`
	Attachments     datatypes.JSONSlice[Attachment] `gorm:"column:attachments" json:"attachments"`
	IsPinned        bool                            `gorm:"column:is_pinned;not null;default:false" json:"is_pinned"`
	IsSystem        bool                            `gorm:"column:is_system;not null;default:false" json:"is_system"`
	CreatedAt       time.Time                       `gorm:"column:created_at;index:idx_messages_key_created,priority:2" json:"created_at"`
	ReadBy          []ReadMarker                    `gorm:"foreignKey:MessageID" json:"read_by"`
}

func (Message) TableName() string { return "messages" }

// MessageParticipant is the participant snapshot captured when the message was written
type MessageParticipant struct {
	ID        uint64  `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MessageID uint64  `gorm:"column:message_id;not null;index" json:"-"`
	Position  int     `gorm:"column:position;not null" json:"-"`
	UserID    *uint64 `gorm:"column:user_id;index" json:"user_id,omitempty"`
	ClubID    *uint64 `gorm:"column:club_id;index" json:"club_id,omitempty"`
	EventID   *uint64 `gorm:"column:event_id;index" json:"event_id,omitempty"`
}

func (MessageParticipant) TableName() string { return "message_participants" }

// Ref converts the stored row back into a ParticipantRef
func (p MessageParticipant) Ref() ParticipantRef {
	var ref ParticipantRef
	if p.UserID != nil {
		ref.UserID = *p.UserID
	}
	if p.ClubID != nil {
		ref.ClubID = *p.ClubID
	}
	if p.EventID != nil {
		ref.EventID = *p.EventID
	}
	return ref
}

// NewMessageParticipants builds snapshot rows keeping the supplied order
func NewMessageParticipants(refs []ParticipantRef) []MessageParticipant {
	rows := make([]MessageParticipant, len(refs))
	for i, ref := range refs {
		row := MessageParticipant{Position: i}
		if ref.UserID != 0 {
			id := ref.UserID
			row.UserID = &id
		}
		if ref.ClubID != 0 {
			id := ref.ClubID
			row.ClubID = &id
		}
		if ref.EventID != 0 {
			id := ref.EventID
			row.EventID = &id
		}
		rows[i] = row
	}
	return rows
}

// ReadMarker records that a user has seen a message. At most one per (message, user).
type ReadMarker struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MessageID uint64    `gorm:"column:message_id;not null;uniqueIndex:uq_message_reads_message_user,priority:1" json:"-"`
	UserID    uint64    `gorm:"column:user_id;not null;uniqueIndex:uq_message_reads_message_user,priority:2;index" json:"user_id"`
	ReadAt    time.Time `gorm:"column:read_at;not null" json:"read_at"`
}

func (ReadMarker) TableName() string { return "message_reads" }

// ParticipantRefs returns the participant snapshot in supplied order
func (m *Message) ParticipantRefs() []ParticipantRef {
	rows := make([]MessageParticipant, len(m.Participants))
	copy(rows, m.Participants)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Position < rows[j].Position })

	refs := make([]ParticipantRef, len(rows))
	for i, row := range rows {
		refs[i] = row.Ref()
	}
	return refs
}

// HasReadMarker reports whether userID has read the message
func (m *Message) HasReadMarker(userID uint64) bool {
	for _, r := range m.ReadBy {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

// HasBody reports whether the message has content or at least one attachment
func (m *Message) HasBody() bool {
	return m.Content != "" || len(m.Attachments) > 0
}

// LogEntry is the slim projection of a message the thread aggregator folds over
type LogEntry struct {
	MessageID       uint64           `gorm:"column:message_id"`
	ConversationKey string           `gorm:"column:conversation_key"`
	Type            ConversationType `gorm:"column:type"`
	CreatedAt       time.Time        `gorm:"column:created_at"`
	IsRead          bool             `gorm:"column:is_read"`
}
