package domain

import "time"

// UserView is the public projection of a user. Unknown users carry only the id.
type UserView struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Role   Role   `json:"role,omitempty"`
}

// ClubView is the public projection of a club
type ClubView struct {
	ID        uint64 `json:"id"`
	Name      string `json:"name,omitempty"`
	Logo      string `json:"logo,omitempty"`
	ManagerID uint64 `json:"manager_id,omitempty"`
}

// EventView is the public projection of an event
type EventView struct {
	ID     uint64     `json:"id"`
	Title  string     `json:"title,omitempty"`
	ClubID uint64     `json:"club_id,omitempty"`
	Date   *time.Time `json:"date,omitempty"`
}

// ParticipantView holds exactly one populated reference
type ParticipantView struct {
	User  *UserView  `json:"user,omitempty"`
	Club  *ClubView  `json:"club,omitempty"`
	Event *EventView `json:"event,omitempty"`
}

// MessageMeta carries the message flags
type MessageMeta struct {
	IsPinned bool `json:"is_pinned"`
	IsSystem bool `json:"is_system"`
}

// ReadMarkerView is a read marker as returned to clients
type ReadMarkerView struct {
	UserID uint64    `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// MessageView is a message as returned to clients
type MessageView struct {
	ID              uint64            `json:"id"`
	ConversationKey string            `json:"conversation_key"`
	Type            ConversationType  `json:"type"`
	Sender          *UserView         `json:"sender,omitempty"`
	Content         string            `json:"content"`
	Attachments     []Attachment      `json:"attachments"`
	Meta            MessageMeta       `json:"meta"`
	CreatedAt       time.Time         `json:"created_at"`
	Participants    []ParticipantView `json:"participants"`
	ReadBy          []ReadMarkerView  `json:"read_by"`
}

// ThreadSummary is a conversation folded out of the message log
type ThreadSummary struct {
	ConversationKey string            `json:"conversation_key"`
	Type            ConversationType  `json:"type"`
	Participants    []ParticipantView `json:"participants"`
	Meta            MessageMeta       `json:"meta"`
	LastMessage     *MessageView      `json:"last_message"`
	UnreadCount     int64             `json:"unread_count"`
	MessageCount    int64             `json:"message_count"`
}

// MessagePage is one page of a conversation, newest first
type MessagePage struct {
	ConversationKey string            `json:"conversation_key"`
	Type            ConversationType  `json:"type"`
	Participants    []ParticipantView `json:"participants"`
	Items           []MessageView     `json:"items"`
}

// PinState is returned by pin/unpin
type PinState struct {
	ConversationKey string `json:"conversation_key"`
	Meta            struct {
		IsPinned bool `json:"is_pinned"`
	} `json:"meta"`
}

// ReadResult is returned by mark-read
type ReadResult struct {
	ConversationKey string `json:"conversation_key"`
	UpdatedCount    int64  `json:"updated_count"`
}
