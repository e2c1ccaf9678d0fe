package domain

import "time"

// User status values
const (
	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

// User is the read-only view of the users table owned by the account service
type User struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	Email     string    `gorm:"column:email;size:255;uniqueIndex" json:"email"`
	Avatar    string    `gorm:"column:avatar;size:500" json:"avatar"`
	Role      Role      `gorm:"column:role;size:20;default:student" json:"role"`
	Status    string    `gorm:"column:status;size:20;default:active" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (User) TableName() string { return "users" }

// Club is the read-only view of a club
type Club struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;size:255;not null" json:"name"`
	Logo      string    `gorm:"column:logo;size:500" json:"logo"`
	ManagerID uint64    `gorm:"column:manager_id;not null;index" json:"manager_id"`
	Status    string    `gorm:"column:status;size:20;default:pending" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Club) TableName() string { return "clubs" }

// IsManagedBy reports whether userID manages the club
func (c *Club) IsManagedBy(userID uint64) bool {
	return c != nil && c.ManagerID != 0 && c.ManagerID == userID
}

// ClubMember is a club membership row
type ClubMember struct {
	ClubID   uint64    `gorm:"column:club_id;primaryKey" json:"club_id"`
	UserID   uint64    `gorm:"column:user_id;primaryKey;index" json:"user_id"`
	JoinedAt time.Time `gorm:"column:joined_at" json:"joined_at"`
}

func (ClubMember) TableName() string { return "club_members" }

// Event is the read-only view of a club event
type Event struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	ClubID    uint64    `gorm:"column:club_id;index" json:"club_id"`
	Title     string    `gorm:"column:title;size:255;not null" json:"title"`
	Date      time.Time `gorm:"column:date" json:"date"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Event) TableName() string { return "events" }

// EventParticipant is an event registration row
type EventParticipant struct {
	EventID  uint64    `gorm:"column:event_id;primaryKey" json:"event_id"`
	UserID   uint64    `gorm:"column:user_id;primaryKey;index" json:"user_id"`
	JoinedAt time.Time `gorm:"column:joined_at" json:"joined_at"`
}

func (EventParticipant) TableName() string { return "event_participants" }
