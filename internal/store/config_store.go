package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Quaviousthe3rd/waylins-app/internal/models"
)

// LoadConfig reads the config document, seeding it with defaults when
// the store is empty. Documents written by older versions may miss
// newer fields; defaults are merged in.
func (s *Store) LoadConfig(ctx context.Context) (models.StoreConfig, error) {
	if s.rdb == nil {
		return models.StoreConfig{}, ErrNotConnected
	}

	raw, err := s.rdb.Get(ctx, configKey).Bytes()
	if err == redis.Nil {
		cfg := models.DefaultConfig()
		if err := s.writeConfig(ctx, cfg); err != nil {
			return models.StoreConfig{}, fmt.Errorf("seed config: %w", err)
		}
		s.log.Info().Msg("config document seeded with defaults")
		return cfg, nil
	}
	if err != nil {
		return models.StoreConfig{}, fmt.Errorf("load config: %w", err)
	}

	var cfg models.StoreConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return models.StoreConfig{}, fmt.Errorf("decode config: %w", err)
	}

	defaults := models.DefaultConfig()
	if cfg.Services == nil {
		cfg.Services = defaults.Services
	}
	if cfg.WeeklyHours == nil {
		cfg.WeeklyHours = defaults.WeeklyHours
	}
	if cfg.Blockouts == nil {
		cfg.Blockouts = []models.Blockout{}
	}
	return cfg, nil
}

// UpdateConfig applies a read-modify-write cycle against the
// authoritative document and notifies subscribers. The local cache is
// never mutated directly; it catches up via the change stream.
func (s *Store) UpdateConfig(ctx context.Context, mutate func(*models.StoreConfig) error) error {
	if s.rdb == nil {
		return ErrNotConnected
	}

	cfg, err := s.LoadConfig(ctx)
	if err != nil {
		return err
	}
	if err := mutate(&cfg); err != nil {
		return err
	}
	if err := s.writeConfig(ctx, cfg); err != nil {
		return err
	}
	s.notify(ctx, ScopeConfig)
	return nil
}

func (s *Store) writeConfig(ctx context.Context, cfg models.StoreConfig) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := s.rdb.Set(ctx, configKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// AddService appends a menu entry.
func (s *Store) AddService(ctx context.Context, svc models.ServiceItem) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	return s.UpdateConfig(ctx, func(cfg *models.StoreConfig) error {
		cfg.Services = append(cfg.Services, svc)
		return nil
	})
}

// UpdateService replaces the menu entry with the same id. Bookings
// keep their denormalized snapshot and are unaffected.
func (s *Store) UpdateService(ctx context.Context, svc models.ServiceItem) error {
	if err := svc.Validate(); err != nil {
		return err
	}
	return s.UpdateConfig(ctx, func(cfg *models.StoreConfig) error {
		for i := range cfg.Services {
			if cfg.Services[i].ID == svc.ID {
				cfg.Services[i] = svc
				return nil
			}
		}
		return fmt.Errorf("service %s: %w", svc.ID, ErrNotFound)
	})
}

// DeleteService removes a menu entry.
func (s *Store) DeleteService(ctx context.Context, id string) error {
	return s.UpdateConfig(ctx, func(cfg *models.StoreConfig) error {
		kept := cfg.Services[:0]
		for _, svc := range cfg.Services {
			if svc.ID != id {
				kept = append(kept, svc)
			}
		}
		cfg.Services = kept
		return nil
	})
}

// SetWorkingHours replaces one weekday's hours (0=Sunday .. 6=Saturday).
func (s *Store) SetWorkingHours(ctx context.Context, weekday int, hours models.WorkingHours) error {
	if weekday < 0 || weekday > 6 {
		return fmt.Errorf("weekday %d out of range", weekday)
	}
	if err := hours.Validate(); err != nil {
		return err
	}
	return s.UpdateConfig(ctx, func(cfg *models.StoreConfig) error {
		cfg.WeeklyHours[weekday] = hours
		return nil
	})
}

// AddBlockout appends a blockout window.
func (s *Store) AddBlockout(ctx context.Context, b models.Blockout) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.UpdateConfig(ctx, func(cfg *models.StoreConfig) error {
		cfg.Blockouts = append(cfg.Blockouts, b)
		return nil
	})
}

// RemoveBlockout deletes a blockout by id.
func (s *Store) RemoveBlockout(ctx context.Context, id string) error {
	return s.UpdateConfig(ctx, func(cfg *models.StoreConfig) error {
		kept := cfg.Blockouts[:0]
		for _, b := range cfg.Blockouts {
			if b.ID != id {
				kept = append(kept, b)
			}
		}
		cfg.Blockouts = kept
		return nil
	})
}
