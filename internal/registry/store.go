package registry

import (
	"context"

	"github.com/yanun0323/errors"
	"gorm.io/gorm"

	"main/internal/feature"
	"main/internal/signal"
)

// symbolRow is the persisted symbol definition.
type symbolRow struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"column:name;uniqueIndex:idx_symbol_venue"`
	Venue    string `gorm:"column:venue;uniqueIndex:idx_symbol_venue"`
	Mode     string `gorm:"column:mode"`
	Preset   string `gorm:"column:preset"`
	DepthCap int    `gorm:"column:depth_cap"`
}

func (symbolRow) TableName() string { return "watched_symbols" }

// presetRow is the persisted preset. Parameter bundles are stored as
// JSON blobs so tuning columns never chase the feature set.
type presetRow struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"column:name;uniqueIndex"`
	Features []byte `gorm:"column:features;type:jsonb"`
	Signal   []byte `gorm:"column:signal;type:jsonb"`
}

func (presetRow) TableName() string { return "signal_presets" }

// Store loads registry rows from Postgres.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the registry tables when missing.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&symbolRow{}, &presetRow{})
}

// Load reads every symbol and preset.
func (s *Store) Load(ctx context.Context) ([]Symbol, []Preset, error) {
	var symRows []symbolRow
	if err := s.db.WithContext(ctx).Find(&symRows).Error; err != nil {
		return nil, nil, errors.Wrap(err, "load symbols")
	}
	var presetRows []presetRow
	if err := s.db.WithContext(ctx).Find(&presetRows).Error; err != nil {
		return nil, nil, errors.Wrap(err, "load presets")
	}

	symbols := make([]Symbol, 0, len(symRows))
	for _, row := range symRows {
		symbols = append(symbols, Symbol{
			Name:     row.Name,
			Venue:    row.Venue,
			Mode:     row.Mode,
			Preset:   row.Preset,
			DepthCap: row.DepthCap,
		})
	}

	presets := make([]Preset, 0, len(presetRows))
	for _, row := range presetRows {
		p, err := decodePreset(row)
		if err != nil {
			return nil, nil, errors.Wrap(err, "decode preset").With("name", row.Name)
		}
		presets = append(presets, p)
	}
	return symbols, presets, nil
}

func decodePreset(row presetRow) (Preset, error) {
	p := Preset{
		Name:     row.Name,
		Features: feature.DefaultConfig(),
		Signal:   signal.DefaultConfig(),
	}
	if len(row.Features) > 0 {
		if err := unmarshalJSON(row.Features, &p.Features); err != nil {
			return Preset{}, err
		}
	}
	if len(row.Signal) > 0 {
		if err := unmarshalJSON(row.Signal, &p.Signal); err != nil {
			return Preset{}, err
		}
	}
	return p, nil
}
