package gatewaygorm

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefinitionModel is the GORM persistence model for gateway definitions.
// It maps directly to the "gateway_definitions" table in Postgres.
type DefinitionModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"size:64;not null;uniqueIndex"`
	Driver      string    `gorm:"size:32;not null"`
	Enabled     bool      `gorm:"not null;default:true;index"`
	Description string    `gorm:"size:255"`
	Settings    []byte    `gorm:"type:jsonb"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
}

// TableName overrides the default table name used by GORM.
func (DefinitionModel) TableName() string {
	return "gateway_definitions"
}

// BeforeCreate ensures a UUID is set before inserting a new record.
func (m *DefinitionModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
