package store

import (
	"encoding/json"
	"fmt"
	"time"

	"contentforge/internal/logging"
	"contentforge/internal/profile"
)

// SaveVoice inserts or replaces a custom voice profile. Presets are rejected.
func (s *Store) SaveVoice(v *profile.VoiceToneProfile) error {
	if v == nil || v.ID == "" {
		return fmt.Errorf("voice profile ID is required")
	}
	if v.IsPreset {
		return profile.ErrPresetImmutable
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal voice profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	created, updated := timestamps(v.CreatedAt, v.UpdatedAt)
	_, err = s.db.Exec(`
		INSERT INTO voice_profiles (id, name, profile_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			profile_json = excluded.profile_json,
			updated_at = excluded.updated_at
	`, v.ID, v.Name, string(data), created, updated)
	if err != nil {
		return fmt.Errorf("failed to save voice profile: %w", err)
	}
	return nil
}

// DeleteVoice removes a custom voice profile. Unknown IDs are not an error.
func (s *Store) DeleteVoice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM voice_profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete voice profile: %w", err)
	}
	return nil
}

// LoadVoices returns all stored voice profiles ordered by name.
func (s *Store) LoadVoices() ([]*profile.VoiceToneProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, profile_json FROM voice_profiles ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query voice profiles: %w", err)
	}
	defer rows.Close()

	var out []*profile.VoiceToneProfile
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan voice profile: %w", err)
		}
		var v profile.VoiceToneProfile
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			logging.StoreError("Skipping corrupt voice profile %s: %v", id, err)
			continue
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}

// SaveBrand inserts or replaces a brand profile.
func (s *Store) SaveBrand(b *profile.BrandProfile) error {
	if b == nil || b.ID == "" {
		return fmt.Errorf("brand profile ID is required")
	}
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal brand profile: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	created, updated := timestamps(b.CreatedAt, b.UpdatedAt)
	_, err = s.db.Exec(`
		INSERT INTO brand_profiles (id, name, profile_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			profile_json = excluded.profile_json,
			updated_at = excluded.updated_at
	`, b.ID, b.Name, string(data), created, updated)
	if err != nil {
		return fmt.Errorf("failed to save brand profile: %w", err)
	}
	return nil
}

// DeleteBrand removes a brand profile. Unknown IDs are not an error.
func (s *Store) DeleteBrand(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM brand_profiles WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete brand profile: %w", err)
	}
	return nil
}

// LoadBrands returns all stored brand profiles ordered by name.
func (s *Store) LoadBrands() ([]*profile.BrandProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT id, profile_json FROM brand_profiles ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand profiles: %w", err)
	}
	defer rows.Close()

	var out []*profile.BrandProfile
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan brand profile: %w", err)
		}
		var b profile.BrandProfile
		if err := json.Unmarshal([]byte(data), &b); err != nil {
			logging.StoreError("Skipping corrupt brand profile %s: %v", id, err)
			continue
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// LoadInto loads stored profiles into an in-memory profile store and
// returns how many were accepted.
func (s *Store) LoadInto(ps *profile.Store) (int, error) {
	voices, err := s.LoadVoices()
	if err != nil {
		return 0, err
	}
	brands, err := s.LoadBrands()
	if err != nil {
		return 0, err
	}
	n := ps.LoadCustom(voices, brands)
	logging.Store("Loaded %d custom profiles from %s", n, s.dbPath)
	return n, nil
}

func timestamps(created, updated time.Time) (time.Time, time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = now
	}
	return created, updated
}
