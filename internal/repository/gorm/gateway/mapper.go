package gatewaygorm

import (
	"encoding/json"
	"fmt"

	domain "github.com/oggyb/polysms/internal/domain/gateway"
)

// toDomain maps a DefinitionModel to a domain Definition.
func toDomain(m *DefinitionModel) (*domain.Definition, error) {
	var settings map[string]any
	if len(m.Settings) > 0 {
		if err := json.Unmarshal(m.Settings, &settings); err != nil {
			return nil, fmt.Errorf("decode settings of %q: %w", m.Name, err)
		}
	}
	return &domain.Definition{
		Name:        m.Name,
		Driver:      m.Driver,
		Enabled:     m.Enabled,
		Description: m.Description,
		Settings:    settings,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}, nil
}

// toDomainMany maps a slice of models, failing on the first bad row.
func toDomainMany(models []DefinitionModel) ([]*domain.Definition, error) {
	out := make([]*domain.Definition, len(models))
	for i := range models {
		d, err := toDomain(&models[i])
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

// fromDomain maps a domain Definition to a DefinitionModel.
func fromDomain(d *domain.Definition) (*DefinitionModel, error) {
	settings, err := json.Marshal(d.Settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings of %q: %w", d.Name, err)
	}
	return &DefinitionModel{
		Name:        d.Name,
		Driver:      d.Driver,
		Enabled:     d.Enabled,
		Description: d.Description,
		Settings:    settings,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}
