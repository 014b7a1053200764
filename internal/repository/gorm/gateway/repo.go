// Package gatewaygorm stores gateway definitions in Postgres through GORM.
package gatewaygorm

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/polysms/internal/db"
	domain "github.com/oggyb/polysms/internal/domain/gateway"
)

// Repository is a GORM-backed implementation of domain.Repository.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a definition repository using the given DB adapter.
func NewRepository(d db.DB) *Repository {
	return &Repository{
		db: d.Conn().(*gorm.DB),
	}
}

// Migrate creates or updates the gateway_definitions table.
func (r *Repository) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&DefinitionModel{})
}

// List returns definitions ordered by name.
func (r *Repository) List(ctx context.Context, enabledOnly bool) ([]*domain.Definition, error) {
	var models []DefinitionModel

	query := r.db.WithContext(ctx).Order("name ASC")
	if enabledOnly {
		query = query.Where("enabled = ?", true)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return toDomainMany(models)
}

// Get returns the definition for name.
func (r *Repository) Get(ctx context.Context, name string) (*domain.Definition, error) {
	var m DefinitionModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomain(&m)
}

// Upsert inserts the definition or updates the row with the same name.
func (r *Repository) Upsert(ctx context.Context, d *domain.Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}
	model, err := fromDomain(d)
	if err != nil {
		return err
	}
	now := time.Now()
	if model.CreatedAt.IsZero() {
		model.CreatedAt = now
	}
	model.UpdatedAt = now

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"driver", "enabled", "description", "settings", "updated_at"}),
		}).
		Create(model).Error
}

// Delete removes the definition for name.
func (r *Repository) Delete(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Where("name = ?", name).Delete(&DefinitionModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ domain.Repository = (*Repository)(nil)
