package toml

import (
	"fmt"

	"github.com/bnema/windsurf-accounts-cli/internal/domain"
)

const currentSchemaVersion = 1

type fileSchema struct {
	Version      int        `toml:"version"`
	Sort         sortSchema `toml:"sort"`
	AccountOrder []string   `toml:"account_order,omitempty"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
	if s.Sort.Field == "" {
		s.Sort.Field = string(domain.SortFieldCreatedAt)
	}
	if s.Sort.Direction == "" {
		s.Sort.Direction = string(domain.SortAsc)
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported settings schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type sortSchema struct {
	Field     string `toml:"field"`
	Direction string `toml:"direction"`
}

func (s sortSchema) toDomain() domain.SortConfig {
	cfg := domain.SortConfig{
		Field:     domain.SortField(s.Field),
		Direction: domain.SortDirection(s.Direction),
	}
	if !cfg.Field.Valid() || !cfg.Direction.Valid() {
		return domain.DefaultSortConfig()
	}
	return cfg
}
