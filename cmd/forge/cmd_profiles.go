package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"contentforge/internal/profile"

	"github.com/spf13/cobra"
)

var (
	profName        string
	profDescription string
	profFormality   string
	profEnthusiasm  string
	profHumor       string
	profEmpathy     string
	profExpertise   string
	profSentences   string
	profPunctuation string
	profEmoji       string
	profVocabulary  []string
	profExamples    []string
	profAvoid       []string

	brandIndustry   string
	brandAudience   string
	brandValues     []string
	brandUSPs       []string
	brandGuidelines string
	brandVoice      string

	mergeWeights []string
	mergeName    string
)

// profilesCmd groups voice and brand profile commands
var profilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"profile"},
	Short:   "Manage voice and brand profiles",
}

// profilesListCmd lists presets, custom voices and brands
var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List voice and brand profiles",
	Args:  cobra.NoArgs,
	RunE:  listProfiles,
}

// profilesCreateCmd creates a custom voice or brand profile
var profilesCreateCmd = &cobra.Command{
	Use:   "create [voice|brand]",
	Short: "Create a custom voice or brand profile",
	Long: `Creates a profile and stores it in the local database.

Examples:
  forge profiles create voice --name "Dry wit" --formality conversational --humor subtle --avoid "synergy"
  forge profiles create brand --name Acme --industry fitness --value grit --value joy --voice preset-bold`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"voice", "brand"},
	RunE:      createProfile,
}

// profilesDeleteCmd removes a custom profile
var profilesDeleteCmd = &cobra.Command{
	Use:   "delete [profile-id]",
	Short: "Delete a custom voice or brand profile",
	Args:  cobra.ExactArgs(1),
	RunE:  deleteProfile,
}

// profilesMergeCmd blends voices into a hybrid
var profilesMergeCmd = &cobra.Command{
	Use:   "merge [voice-id] [voice-id]...",
	Short: "Merge voice profiles into a new hybrid voice",
	Long: `Unions vocabulary, example and avoid lists in order; tone axes and
structure come from the first profile. Weights are checked against the
profile count but do not change the result.`,
	Args: cobra.MinimumNArgs(2),
	RunE: mergeProfiles,
}

func init() {
	f := profilesCreateCmd.Flags()
	f.StringVar(&profName, "name", "", "Profile name (required)")
	f.StringVar(&profDescription, "description", "", "Voice description")
	f.StringVar(&profFormality, "formality", string(profile.FormalityConversational), "casual|conversational|professional|formal")
	f.StringVar(&profEnthusiasm, "enthusiasm", string(profile.EnthusiasmModerate), "low|moderate|high|very_high")
	f.StringVar(&profHumor, "humor", string(profile.HumorNone), "none|subtle|moderate|frequent")
	f.StringVar(&profEmpathy, "empathy", string(profile.EmpathyModerate), "low|moderate|high")
	f.StringVar(&profExpertise, "expertise", string(profile.ExpertiseIntermediate), "beginner|intermediate|expert")
	f.StringVar(&profSentences, "sentences", "", "short|varied|complex")
	f.StringVar(&profPunctuation, "punctuation", "", "minimal|standard|expressive")
	f.StringVar(&profEmoji, "emoji", "", "none|minimal|moderate|frequent")
	f.StringArrayVar(&profVocabulary, "vocab", nil, "Preferred word or phrase (repeatable)")
	f.StringArrayVar(&profExamples, "example", nil, "Example phrase (repeatable)")
	f.StringArrayVar(&profAvoid, "avoid", nil, "Phrase to avoid (repeatable)")

	f.StringVar(&brandIndustry, "industry", "", "Brand industry")
	f.StringVar(&brandAudience, "audience", "", "Brand target audience")
	f.StringArrayVar(&brandValues, "value", nil, "Brand core value (repeatable)")
	f.StringArrayVar(&brandUSPs, "usp", nil, "Unique selling point (repeatable)")
	f.StringVar(&brandGuidelines, "guidelines", "", "Brand guidelines")
	f.StringVar(&brandVoice, "voice", "", "Voice profile ID the brand speaks in")
	profilesCreateCmd.MarkFlagRequired("name")

	profilesMergeCmd.Flags().StringSliceVar(&mergeWeights, "weights", nil, "Comma-separated weights, one per profile")
	profilesMergeCmd.Flags().StringVar(&mergeName, "name", "", "Name for the merged voice")
}

func listProfiles(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VOICE ID\tNAME\tTONE\tKIND")
	for _, v := range a.profiles.ListVoices() {
		kind := "custom"
		if v.IsPreset {
			kind = "preset"
		}
		c := v.Characteristics
		fmt.Fprintf(w, "%s\t%s\t%s/%s/%s\t%s\n", v.ID, v.Name, c.Formality, c.Enthusiasm, c.Humor, kind)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	brands := a.profiles.ListBrands()
	if len(brands) == 0 {
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout())
	w = tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "BRAND ID\tNAME\tINDUSTRY\tVOICE")
	for _, b := range brands {
		voice := "-"
		if b.Voice != nil {
			voice = b.Voice.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Name, b.Industry, voice)
	}
	return w.Flush()
}

func createProfile(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	switch args[0] {
	case "voice":
		v, err := a.profiles.CreateVoice(voiceFromFlags())
		if err != nil {
			return err
		}
		if err := a.store.SaveVoice(v); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created voice %s (%s)\n", v.Name, v.ID)

	case "brand":
		b := &profile.BrandProfile{
			Name:                profName,
			Industry:            brandIndustry,
			TargetAudience:      brandAudience,
			CoreValues:          brandValues,
			UniqueSellingPoints: brandUSPs,
			BrandGuidelines:     brandGuidelines,
		}
		if brandVoice != "" {
			if b.Voice, err = a.profiles.GetVoice(brandVoice); err != nil {
				return fmt.Errorf("voice %q: %w", brandVoice, err)
			}
		}
		created, err := a.profiles.CreateBrand(b)
		if err != nil {
			return err
		}
		if err := a.store.SaveBrand(created); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created brand %s (%s)\n", created.Name, created.ID)

	default:
		return fmt.Errorf("unknown profile kind %q (expected voice or brand)", args[0])
	}
	return nil
}

func voiceFromFlags() *profile.VoiceToneProfile {
	return &profile.VoiceToneProfile{
		Name:        profName,
		Description: profDescription,
		Characteristics: profile.Characteristics{
			Formality:  profile.Formality(profFormality),
			Enthusiasm: profile.Enthusiasm(profEnthusiasm),
			Humor:      profile.Humor(profHumor),
			Empathy:    profile.Empathy(profEmpathy),
			Expertise:  profile.Expertise(profExpertise),
		},
		VocabularyPreferences: profVocabulary,
		SentenceStructure:     profile.SentenceStructure(profSentences),
		PunctuationStyle:      profile.PunctuationStyle(profPunctuation),
		EmojiUsage:            profile.EmojiUsage(profEmoji),
		ExamplePhrases:        profExamples,
		AvoidPhrases:          profAvoid,
	}
}

func deleteProfile(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id := args[0]
	if _, err := a.profiles.GetVoice(id); err == nil {
		if err := a.profiles.DeleteVoice(id); err != nil {
			return err
		}
		if err := a.store.DeleteVoice(id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted voice %s\n", id)
		return nil
	}
	if err := a.profiles.DeleteBrand(id); err != nil {
		return fmt.Errorf("profile %q: %w", id, err)
	}
	if err := a.store.DeleteBrand(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted brand %s\n", id)
	return nil
}

func mergeProfiles(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	voices := make([]*profile.VoiceToneProfile, 0, len(args))
	for _, id := range args {
		v, err := a.profiles.GetVoice(id)
		if err != nil {
			return fmt.Errorf("voice %q: %w", id, err)
		}
		voices = append(voices, v)
	}

	var weights []float64
	for _, w := range mergeWeights {
		f, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return fmt.Errorf("invalid weight %q", w)
		}
		weights = append(weights, f)
	}

	merged, err := profile.MergeProfiles(voices, weights)
	if err != nil {
		return err
	}
	if mergeName != "" {
		merged.Name = mergeName
	}
	created, err := a.profiles.CreateVoice(merged)
	if err != nil {
		return err
	}
	if err := a.store.SaveVoice(created); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created voice %s (%s)\n", created.Name, created.ID)
	return nil
}
