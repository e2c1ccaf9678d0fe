package domain

import (
	"sort"
	"strings"

	"github.com/CoconutOil2004/project-sdn-group302/internal/common"
)

// ValidateParticipants checks that every reference names exactly one entity
func ValidateParticipants(participants []ParticipantRef) error {
	if len(participants) == 0 {
		return common.InvalidInput("participants phải là mảng và không được rỗng")
	}
	for i, p := range participants {
		switch p.Kind() {
		case ParticipantUser, ParticipantClub, ParticipantEvent:
		case ParticipantNone:
			return common.InvalidInput("participants[%d] phải chứa userId, clubId hoặc eventId", i)
		default:
			return common.InvalidInput("participants[%d] chỉ được chứa một trong userId, clubId, eventId", i)
		}
	}
	return nil
}

// ValidateShape checks the participant set against the cardinality rules of t
func ValidateShape(t ConversationType, participants []ParticipantRef) error {
	if !t.IsValid() {
		return common.InvalidInput("Loại hội thoại không hợp lệ")
	}
	if err := ValidateParticipants(participants); err != nil {
		return err
	}

	var users, clubs, events int
	seen := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		token := p.Token()
		if _, dup := seen[token]; dup {
			return common.InvalidShape("participants chứa phần tử trùng lặp: %s", token)
		}
		seen[token] = struct{}{}

		switch p.Kind() {
		case ParticipantUser:
			users++
		case ParticipantClub:
			clubs++
		case ParticipantEvent:
			events++
		}
	}

	switch t {
	case ConversationDirect:
		if users != len(participants) || users < 2 {
			return common.InvalidShape("DIRECT thread yêu cầu ít nhất 2 userId")
		}
	case ConversationUserClub:
		if users != 1 || clubs != 1 || events != 0 {
			return common.InvalidShape("USER_CLUB thread yêu cầu đúng một userId và một clubId")
		}
	case ConversationClubBroadcast:
		// user references are accepted but do not enter the key
		if clubs != 1 || events != 0 {
			return common.InvalidShape("CLUB_BROADCAST thread yêu cầu đúng một clubId")
		}
	case ConversationEvent:
		if events != 1 || len(participants) != 1 {
			return common.InvalidShape("EVENT thread yêu cầu đúng một eventId")
		}
	}
	return nil
}

// ResolveConversationKey derives the canonical conversation key:
// type + ":" + the participant tokens sorted lexicographically and joined by "|".
// The result depends only on the type and the participant set, never on input order.
// A broadcast is keyed by its club alone; user references do not split it.
func ResolveConversationKey(t ConversationType, participants []ParticipantRef) (string, error) {
	if err := ValidateShape(t, participants); err != nil {
		return "", err
	}

	if t == ConversationClubBroadcast {
		club, _ := FirstOfKind(participants, ParticipantClub)
		return string(t) + ":" + club.Token(), nil
	}

	tokens := make([]string, len(participants))
	for i, p := range participants {
		tokens[i] = p.Token()
	}
	sort.Strings(tokens)

	return string(t) + ":" + strings.Join(tokens, "|"), nil
}

// FirstOfKind returns the first reference of the given kind
func FirstOfKind(participants []ParticipantRef, kind ParticipantKind) (ParticipantRef, bool) {
	for _, p := range participants {
		if p.Kind() == kind {
			return p, true
		}
	}
	return ParticipantRef{}, false
}

// HasUser reports whether userID is one of the user references
func HasUser(participants []ParticipantRef, userID uint64) bool {
	for _, p := range participants {
		if p.Kind() == ParticipantUser && p.UserID == userID {
			return true
		}
	}
	return false
}
