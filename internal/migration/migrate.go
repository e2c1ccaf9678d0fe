package migration

import (
	"github.com/CoconutOil2004/project-sdn-group302/internal/domain"
	"gorm.io/gorm"
)

// MessagingModels are the tables owned by the messaging subsystem
func MessagingModels() []interface{} {
	return []interface{}{
		&domain.Message{},
		&domain.MessageParticipant{},
		&domain.ReadMarker{},
	}
}

// DirectoryModels are the collaborator tables messaging reads from.
// Production schemas are owned by the club/user/event services; migrating
// them here is for local setups and tests.
func DirectoryModels() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Club{},
		&domain.ClubMember{},
		&domain.Event{},
		&domain.EventParticipant{},
	}
}

// Run creates or updates the messaging tables
func Run(db *gorm.DB) error {
	return db.AutoMigrate(MessagingModels()...)
}

// RunDirectory creates or updates the collaborator tables
func RunDirectory(db *gorm.DB) error {
	return db.AutoMigrate(DirectoryModels()...)
}

// TableNames lists table names for the given models
func TableNames(db *gorm.DB, models []interface{}) ([]string, error) {
	names := make([]string, 0, len(models))
	for _, m := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(m); err != nil {
			return nil, err
		}
		names = append(names, stmt.Schema.Table)
	}
	return names, nil
}
