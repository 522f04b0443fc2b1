// Package profile holds voice/tone and brand profiles, blends them into
// system prompts, and merges several voices into one hybrid.
package profile

import (
	"errors"
	"time"
)

// Characteristic axis levels.
type (
	Formality  string
	Enthusiasm string
	Humor      string
	Empathy    string
	Expertise  string
)

const (
	FormalityCasual         Formality = "casual"
	FormalityConversational Formality = "conversational"
	FormalityProfessional   Formality = "professional"
	FormalityFormal         Formality = "formal"

	EnthusiasmLow      Enthusiasm = "low"
	EnthusiasmModerate Enthusiasm = "moderate"
	EnthusiasmHigh     Enthusiasm = "high"
	EnthusiasmVeryHigh Enthusiasm = "very_high"

	HumorNone     Humor = "none"
	HumorSubtle   Humor = "subtle"
	HumorModerate Humor = "moderate"
	HumorFrequent Humor = "frequent"

	EmpathyLow      Empathy = "low"
	EmpathyModerate Empathy = "moderate"
	EmpathyHigh     Empathy = "high"

	ExpertiseBeginner     Expertise = "beginner"
	ExpertiseIntermediate Expertise = "intermediate"
	ExpertiseExpert       Expertise = "expert"
)

// Structural preferences.
type (
	SentenceStructure string
	PunctuationStyle  string
	EmojiUsage        string
)

const (
	SentencesShort   SentenceStructure = "short"
	SentencesVaried  SentenceStructure = "varied"
	SentencesComplex SentenceStructure = "complex"

	PunctuationMinimal    PunctuationStyle = "minimal"
	PunctuationStandard   PunctuationStyle = "standard"
	PunctuationExpressive PunctuationStyle = "expressive"

	EmojiNone     EmojiUsage = "none"
	EmojiMinimal  EmojiUsage = "minimal"
	EmojiModerate EmojiUsage = "moderate"
	EmojiFrequent EmojiUsage = "frequent"
)

// Characteristics are the five tone axes.
type Characteristics struct {
	Formality  Formality  `json:"formality"`
	Enthusiasm Enthusiasm `json:"enthusiasm"`
	Humor      Humor      `json:"humor"`
	Empathy    Empathy    `json:"empathy"`
	Expertise  Expertise  `json:"expertise"`
}

// VoiceToneProfile is a stylistic rule set blended into a system prompt.
type VoiceToneProfile struct {
	ID                    string            `json:"id"`
	Name                  string            `json:"name"`
	Description           string            `json:"description,omitempty"`
	Characteristics       Characteristics   `json:"characteristics"`
	VocabularyPreferences []string          `json:"vocabulary_preferences,omitempty"`
	SentenceStructure     SentenceStructure `json:"sentence_structure,omitempty"`
	PunctuationStyle      PunctuationStyle  `json:"punctuation_style,omitempty"`
	EmojiUsage            EmojiUsage        `json:"emoji_usage,omitempty"`
	ExamplePhrases        []string          `json:"example_phrases,omitempty"`
	AvoidPhrases          []string          `json:"avoid_phrases,omitempty"`
	IsPreset              bool              `json:"is_preset"`
	CreatedAt             time.Time         `json:"created_at"`
	UpdatedAt             time.Time         `json:"updated_at"`
}

// BrandProfile is organizational identity context. It owns its voice.
type BrandProfile struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	Industry            string            `json:"industry,omitempty"`
	TargetAudience      string            `json:"target_audience,omitempty"`
	CoreValues          []string          `json:"core_values,omitempty"`
	Voice               *VoiceToneProfile `json:"voice,omitempty"`
	BrandGuidelines     string            `json:"brand_guidelines,omitempty"`
	CompetitorAnalysis  string            `json:"competitor_analysis,omitempty"`
	UniqueSellingPoints []string          `json:"unique_selling_points,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

var (
	// ErrNoProfiles is returned when merging an empty profile list.
	ErrNoProfiles = errors.New("at least one profile is required")
	// ErrNilProfile is returned when a merge input is nil.
	ErrNilProfile = errors.New("profile is nil")
	// ErrWeightMismatch is returned when weights do not match the profile count.
	ErrWeightMismatch = errors.New("weights must match profiles length")
	// ErrPresetImmutable is returned on attempts to edit or delete a preset.
	ErrPresetImmutable = errors.New("preset profiles are read-only")
	// ErrProfileNotFound is returned when an ID does not resolve.
	ErrProfileNotFound = errors.New("profile not found")
)
