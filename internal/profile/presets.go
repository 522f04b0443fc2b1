package profile

// Preset IDs.
const (
	PresetProfessional  = "preset-professional"
	PresetFriendly      = "preset-friendly"
	PresetWitty         = "preset-witty"
	PresetInspirational = "preset-inspirational"
	PresetEducational   = "preset-educational"
	PresetBold          = "preset-bold"
)

// Presets returns fresh copies of the built-in voice profiles.
func Presets() []*VoiceToneProfile {
	return []*VoiceToneProfile{
		{
			ID:          PresetProfessional,
			Name:        "Professional",
			Description: "Clear, credible and measured. Suits B2B and finance.",
			Characteristics: Characteristics{
				Formality:  FormalityProfessional,
				Enthusiasm: EnthusiasmModerate,
				Humor:      HumorNone,
				Empathy:    EmpathyModerate,
				Expertise:  ExpertiseExpert,
			},
			VocabularyPreferences: []string{"strategic", "proven", "efficient", "insight"},
			SentenceStructure:     SentencesVaried,
			PunctuationStyle:      PunctuationStandard,
			EmojiUsage:            EmojiNone,
			ExamplePhrases:        []string{"Here is what the data shows.", "The result: fewer steps, better outcomes."},
			AvoidPhrases:          []string{"OMG", "literally insane", "game-changer"},
		},
		{
			ID:          PresetFriendly,
			Name:        "Friendly",
			Description: "Warm and approachable, like advice from a neighbour.",
			Characteristics: Characteristics{
				Formality:  FormalityConversational,
				Enthusiasm: EnthusiasmHigh,
				Humor:      HumorSubtle,
				Empathy:    EmpathyHigh,
				Expertise:  ExpertiseIntermediate,
			},
			VocabularyPreferences: []string{"you", "together", "easy", "love"},
			SentenceStructure:     SentencesShort,
			PunctuationStyle:      PunctuationExpressive,
			EmojiUsage:            EmojiModerate,
			ExamplePhrases:        []string{"You've got this!", "Let's make it simple."},
			AvoidPhrases:          []string{"per our policy", "leverage synergies"},
		},
		{
			ID:          PresetWitty,
			Name:        "Witty",
			Description: "Playful and clever with a wink.",
			Characteristics: Characteristics{
				Formality:  FormalityCasual,
				Enthusiasm: EnthusiasmHigh,
				Humor:      HumorFrequent,
				Empathy:    EmpathyModerate,
				Expertise:  ExpertiseIntermediate,
			},
			VocabularyPreferences: []string{"plot twist", "spoiler", "honestly"},
			SentenceStructure:     SentencesShort,
			PunctuationStyle:      PunctuationExpressive,
			EmojiUsage:            EmojiMinimal,
			ExamplePhrases:        []string{"Plot twist: the spreadsheet was the villain all along."},
			AvoidPhrases:          []string{"we are pleased to announce"},
		},
		{
			ID:          PresetInspirational,
			Name:        "Inspirational",
			Description: "Uplifting and forward-looking.",
			Characteristics: Characteristics{
				Formality:  FormalityConversational,
				Enthusiasm: EnthusiasmVeryHigh,
				Humor:      HumorNone,
				Empathy:    EmpathyHigh,
				Expertise:  ExpertiseIntermediate,
			},
			VocabularyPreferences: []string{"imagine", "growth", "journey", "possible"},
			SentenceStructure:     SentencesVaried,
			PunctuationStyle:      PunctuationStandard,
			EmojiUsage:            EmojiMinimal,
			ExamplePhrases:        []string{"Every expert was once a beginner."},
			AvoidPhrases:          []string{"impossible", "give up"},
		},
		{
			ID:          PresetEducational,
			Name:        "Educational",
			Description: "Patient and structured. Explains before it persuades.",
			Characteristics: Characteristics{
				Formality:  FormalityProfessional,
				Enthusiasm: EnthusiasmModerate,
				Humor:      HumorSubtle,
				Empathy:    EmpathyHigh,
				Expertise:  ExpertiseExpert,
			},
			VocabularyPreferences: []string{"step", "example", "why", "because"},
			SentenceStructure:     SentencesVaried,
			PunctuationStyle:      PunctuationStandard,
			EmojiUsage:            EmojiNone,
			ExamplePhrases:        []string{"Step one: understand the why.", "Here's a quick example."},
			AvoidPhrases:          []string{"obviously", "everyone knows"},
		},
		{
			ID:          PresetBold,
			Name:        "Bold",
			Description: "Confident, direct and a little provocative.",
			Characteristics: Characteristics{
				Formality:  FormalityCasual,
				Enthusiasm: EnthusiasmVeryHigh,
				Humor:      HumorModerate,
				Empathy:    EmpathyLow,
				Expertise:  ExpertiseExpert,
			},
			VocabularyPreferences: []string{"stop", "truth", "now", "never"},
			SentenceStructure:     SentencesShort,
			PunctuationStyle:      PunctuationExpressive,
			EmojiUsage:            EmojiMinimal,
			ExamplePhrases:        []string{"Stop doing this. Start doing that."},
			AvoidPhrases:          []string{"maybe", "kind of", "just wanted to"},
		},
	}
}
