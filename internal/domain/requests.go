package domain

// CreateConversationRequest is the create-or-get body
type CreateConversationRequest struct {
	Type         string           `json:"type"`
	Participants []ParticipantRef `json:"participants"`
	Content      string           `json:"content"`
	Attachments  []Attachment     `json:"attachments"`
}

// SendMessageRequest is the send body
type SendMessageRequest struct {
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
}
