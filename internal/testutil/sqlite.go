// Package testutil provides an in-memory database seeded with directory fixtures
package testutil

import (
	"testing"
	"time"

	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"github.com/CoconutOil2004/project-sdn-group302/internal/migration"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a fresh in-memory sqlite database with every table migrated.
// The pool is pinned to one connection so all queries see the same database.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.RunDirectory(db); err != nil {
		t.Fatalf("failed to migrate directory: %v", err)
	}
	if err := migration.Run(db); err != nil {
		t.Fatalf("failed to migrate messaging: %v", err)
	}
	return db
}

// SeedUser inserts an active user
func SeedUser(t *testing.T, db *gorm.DB, id uint64, name string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:        id,
		Name:      name,
		Email:     name + "@example.com",
		Role:      role,
		Status:    domain.UserStatusActive,
		CreatedAt: time.Now(),
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %d: %v", id, err)
	}
	return u
}

// SeedClub inserts an approved club managed by managerID
func SeedClub(t *testing.T, db *gorm.DB, id uint64, name string, managerID uint64) *domain.Club {
	t.Helper()
	c := &domain.Club{ID: id, Name: name, ManagerID: managerID, Status: "approved", CreatedAt: time.Now()}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed club %d: %v", id, err)
	}
	return c
}

// SeedMember adds userID to clubID
func SeedMember(t *testing.T, db *gorm.DB, clubID, userID uint64) {
	t.Helper()
	m := &domain.ClubMember{ClubID: clubID, UserID: userID, JoinedAt: time.Now()}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed member %d/%d: %v", clubID, userID, err)
	}
}

// SeedEvent inserts an event. clubID may be 0 for events without a club.
func SeedEvent(t *testing.T, db *gorm.DB, id, clubID uint64, title string) *domain.Event {
	t.Helper()
	e := &domain.Event{ID: id, ClubID: clubID, Title: title, Date: time.Now().Add(24 * time.Hour), CreatedAt: time.Now()}
	if err := db.Create(e).Error; err != nil {
		t.Fatalf("seed event %d: %v", id, err)
	}
	return e
}

// SeedParticipant registers userID for eventID
func SeedParticipant(t *testing.T, db *gorm.DB, eventID, userID uint64) {
	t.Helper()
	p := &domain.EventParticipant{EventID: eventID, UserID: userID, JoinedAt: time.Now()}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed participant %d/%d: %v", eventID, userID, err)
	}
}
