package profile

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"contentforge/internal/logging"

	"github.com/google/uuid"
)

// Store is the in-memory owner of voice and brand profiles.
// Presets are loaded at construction and cannot be changed.
// Concurrent writers are last-writer-wins.
type Store struct {
	mu     sync.RWMutex
	voices map[string]*VoiceToneProfile
	brands map[string]*BrandProfile
	now    func() time.Time
}

// NewStore creates a store seeded with the preset voices.
func NewStore() *Store {
	s := &Store{
		voices: make(map[string]*VoiceToneProfile),
		brands: make(map[string]*BrandProfile),
		now:    time.Now,
	}
	loaded := s.now()
	for _, p := range Presets() {
		p.IsPreset = true
		p.CreatedAt = loaded
		p.UpdatedAt = loaded
		s.voices[p.ID] = p
	}
	logging.ProfileDebug("Profile store initialized with %d presets", len(s.voices))
	return s
}

// GetVoice returns a copy of the voice profile with the given ID.
func (s *Store) GetVoice(id string) (*VoiceToneProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.voices[id]
	if !ok {
		return nil, fmt.Errorf("%w: voice %s", ErrProfileNotFound, id)
	}
	return cloneVoice(p), nil
}

// ListVoices returns copies of all voice profiles, presets first, then by name.
func (s *Store) ListVoices() []*VoiceToneProfile {
	s.mu.RLock()
	out := make([]*VoiceToneProfile, 0, len(s.voices))
	for _, p := range s.voices {
		out = append(out, cloneVoice(p))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPreset != out[j].IsPreset {
			return out[i].IsPreset
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// CreateVoice stores a new custom voice profile, assigning an ID when empty.
func (s *Store) CreateVoice(p *VoiceToneProfile) (*VoiceToneProfile, error) {
	if p == nil || p.Name == "" {
		return nil, fmt.Errorf("voice profile name is required")
	}
	c := cloneVoice(p)
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.IsPreset = false
	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.mu.Lock()
	if existing, ok := s.voices[c.ID]; ok && existing.IsPreset {
		s.mu.Unlock()
		return nil, ErrPresetImmutable
	}
	s.voices[c.ID] = c
	s.mu.Unlock()

	logging.Profile("Created voice profile %s (%s)", c.Name, c.ID)
	return cloneVoice(c), nil
}

// UpdateVoice replaces a custom voice profile.
func (s *Store) UpdateVoice(p *VoiceToneProfile) (*VoiceToneProfile, error) {
	if p == nil {
		return nil, fmt.Errorf("voice profile is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.voices[p.ID]
	if !ok {
		return nil, fmt.Errorf("%w: voice %s", ErrProfileNotFound, p.ID)
	}
	if existing.IsPreset {
		return nil, ErrPresetImmutable
	}
	c := cloneVoice(p)
	c.IsPreset = false
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	s.voices[c.ID] = c
	return cloneVoice(c), nil
}

// DeleteVoice removes a custom voice profile.
func (s *Store) DeleteVoice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.voices[id]
	if !ok {
		return fmt.Errorf("%w: voice %s", ErrProfileNotFound, id)
	}
	if existing.IsPreset {
		return ErrPresetImmutable
	}
	delete(s.voices, id)
	logging.Profile("Deleted voice profile %s", id)
	return nil
}

// GetBrand returns a copy of the brand profile with the given ID.
func (s *Store) GetBrand(id string) (*BrandProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.brands[id]
	if !ok {
		return nil, fmt.Errorf("%w: brand %s", ErrProfileNotFound, id)
	}
	return cloneBrand(b), nil
}

// ListBrands returns copies of all brand profiles sorted by name.
func (s *Store) ListBrands() []*BrandProfile {
	s.mu.RLock()
	out := make([]*BrandProfile, 0, len(s.brands))
	for _, b := range s.brands {
		out = append(out, cloneBrand(b))
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CreateBrand stores a new brand profile, assigning an ID when empty.
func (s *Store) CreateBrand(b *BrandProfile) (*BrandProfile, error) {
	if b == nil || b.Name == "" {
		return nil, fmt.Errorf("brand profile name is required")
	}
	c := cloneBrand(b)
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now

	s.mu.Lock()
	s.brands[c.ID] = c
	s.mu.Unlock()

	logging.Profile("Created brand profile %s (%s)", c.Name, c.ID)
	return cloneBrand(c), nil
}

// UpdateBrand replaces a brand profile.
func (s *Store) UpdateBrand(b *BrandProfile) (*BrandProfile, error) {
	if b == nil {
		return nil, fmt.Errorf("brand profile is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.brands[b.ID]
	if !ok {
		return nil, fmt.Errorf("%w: brand %s", ErrProfileNotFound, b.ID)
	}
	c := cloneBrand(b)
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now()
	s.brands[c.ID] = c
	return cloneBrand(c), nil
}

// DeleteBrand removes a brand profile.
func (s *Store) DeleteBrand(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.brands[id]; !ok {
		return fmt.Errorf("%w: brand %s", ErrProfileNotFound, id)
	}
	delete(s.brands, id)
	logging.Profile("Deleted brand profile %s", id)
	return nil
}

// LoadCustom installs previously persisted custom profiles, keeping their
// timestamps. Entries that collide with a preset ID are skipped.
func (s *Store) LoadCustom(voices []*VoiceToneProfile, brands []*BrandProfile) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, v := range voices {
		if existing, ok := s.voices[v.ID]; ok && existing.IsPreset {
			logging.Get(logging.CategoryProfile).Warn("Skipping persisted voice %s: collides with preset", v.ID)
			continue
		}
		c := cloneVoice(v)
		c.IsPreset = false
		s.voices[c.ID] = c
		n++
	}
	for _, b := range brands {
		s.brands[b.ID] = cloneBrand(b)
		n++
	}
	return n
}

func cloneVoice(p *VoiceToneProfile) *VoiceToneProfile {
	c := *p
	c.VocabularyPreferences = cloneStrings(p.VocabularyPreferences)
	c.ExamplePhrases = cloneStrings(p.ExamplePhrases)
	c.AvoidPhrases = cloneStrings(p.AvoidPhrases)
	return &c
}

func cloneBrand(b *BrandProfile) *BrandProfile {
	c := *b
	c.CoreValues = cloneStrings(b.CoreValues)
	c.UniqueSellingPoints = cloneStrings(b.UniqueSellingPoints)
	if b.Voice != nil {
		c.Voice = cloneVoice(b.Voice)
	}
	return &c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
