// Package profile owns the persisted profile and cached RDA values of each
// anonymous user.
package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/pageza/caltrack/web/internal/metrics"
	"github.com/pageza/caltrack/web/internal/models"
	"github.com/pageza/caltrack/web/internal/nutrition"
	"github.com/pageza/caltrack/web/internal/session"
	"github.com/pageza/caltrack/web/internal/storage"
	"github.com/pageza/caltrack/web/internal/units"
)

// RDACalculator computes RDA values remotely.
type RDACalculator interface {
	CalculateRDA(ctx context.Context, userID string, req models.RDARequest) (*models.RDAValues, error)
}

// Listener is told when a user's cached RDA values change.
type Listener interface {
	RDAUpdated(userID string, values models.RDAValues)
}

// Store reads and writes profiles and RDA values as JSON documents.
type Store struct {
	kv        storage.Store
	calc      RDACalculator
	listeners []Listener
}

var _ nutrition.RDASource = (*Store)(nil)

func NewStore(kv storage.Store, calc RDACalculator) *Store {
	return &Store{kv: kv, calc: calc}
}

// AddListener registers l for RDA change notifications.
func (s *Store) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

// Load returns the stored profile. Missing or corrupt data is reported as absent.
func (s *Store) Load(ctx context.Context, userID string) (*models.Profile, bool) {
	var p models.Profile
	if !s.read(ctx, session.ProfileKey(userID), "profile", &p) {
		return nil, false
	}
	return &p, true
}

// Save normalizes p and overwrites the stored profile.
func (s *Store) Save(ctx context.Context, userID string, p models.Profile) (*models.Profile, error) {
	p.HeightCm = units.HeightToCm(p.HeightFeet, p.HeightInches)
	p.WeightKg = units.LbsToKg(p.WeightLbs)
	p.TargetWeightKg = units.LbsToKg(p.TargetWeightLbs)
	if p.ActivityLevel == "" {
		p.ActivityLevel = models.ActivitySedentary
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := s.kv.Set(ctx, session.ProfileKey(userID), data); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return &p, nil
}

// CachedRDA returns the last successfully calculated RDA values.
func (s *Store) CachedRDA(ctx context.Context, userID string) (*models.RDAValues, bool) {
	var values models.RDAValues
	if !s.read(ctx, session.RDAKey(userID), "rda", &values) {
		return nil, false
	}
	if err := values.Validate(); err != nil {
		log.Printf("[ProfileStore] Ignoring cached RDA for user %s: %v", userID, err)
		metrics.IncCorruptEntry("rda")
		return nil, false
	}
	return &values, true
}

// RequestRDARecalculation sends the metric profile upstream and caches the
// answer. On failure the previous cache entry is left in place.
func (s *Store) RequestRDARecalculation(ctx context.Context, userID string, p models.Profile) (*models.RDAValues, error) {
	values, err := s.calc.CalculateRDA(ctx, userID, p.RDARequest())
	if err != nil {
		metrics.IncRDARecalculation("error")
		log.Printf("[ProfileStore] RDA calculation failed for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to calculate RDA: %w", err)
	}
	if err := values.Validate(); err != nil {
		metrics.IncRDARecalculation("invalid")
		return nil, fmt.Errorf("failed to calculate RDA: %w", err)
	}

	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to encode RDA values: %w", err)
	}
	if err := s.kv.Set(ctx, session.RDAKey(userID), data); err != nil {
		metrics.IncRDARecalculation("error")
		return nil, fmt.Errorf("failed to cache RDA values: %w", err)
	}

	metrics.IncRDARecalculation("ok")
	for _, l := range s.listeners {
		l.RDAUpdated(userID, *values)
	}
	return values, nil
}

// DisplayName is the greeting shown in the page header.
func (s *Store) DisplayName(ctx context.Context, userID string) string {
	if p, ok := s.Load(ctx, userID); ok && p.Name != "" {
		return fmt.Sprintf("Hello, %s", p.Name)
	}
	return fmt.Sprintf("User ID: %s", userID)
}

func (s *Store) read(ctx context.Context, key, kind string, out interface{}) bool {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("[ProfileStore] Failed to read %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("[ProfileStore] Corrupt %s data under %s: %v", kind, key, err)
		metrics.IncCorruptEntry(kind)
		return false
	}
	return true
}
