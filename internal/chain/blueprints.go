package chain

import "sort"

// Blueprint IDs.
const (
	ShortFormVideoPackageID = "short-form-video-package"
	LongFormVideoPackageID  = "long-form-video-package"
	CampaignPackageID       = "campaign-package"
	RepurposingPackageID    = "repurposing-package"
	ThreadToArticleID       = "thread-to-article"
)

// ShortFormVideoPackage: hooks, then a script built on them, then a
// thumbnail concept for the script.
// Inputs: topic (required), platform, audience, duration.
func ShortFormVideoPackage() *PromptChain {
	return &PromptChain{
		ID:          ShortFormVideoPackageID,
		Name:        "Short-Form Video Package",
		Description: "Hooks, a short-form script and a thumbnail concept for one topic.",
		Steps: []PromptChainStep{
			{
				StepNumber:       1,
				PromptTemplateID: "hooks",
				InputMapping:     map[string]string{"topic": "topic", "platform": "platform", "audience": "audience"},
				OutputKey:        "hooks",
			},
			{
				StepNumber:       2,
				PromptTemplateID: "short_script",
				InputMapping:     map[string]string{"topic": "topic", "hook": "hooks", "platform": "platform", "duration": "duration"},
				OutputKey:        "script",
			},
			{
				StepNumber:       3,
				PromptTemplateID: "thumbnail",
				InputMapping:     map[string]string{"topic": "topic", "script": "script"},
				OutputKey:        "thumbnail",
			},
		},
		FinalOutputFormat: "## Hooks\n{{hooks}}\n\n## Script\n{{script}}\n\n## Thumbnail Concept\n{{thumbnail}}",
	}
}

// LongFormVideoPackage: script, thumbnail, description, hashtags.
// Inputs: topic (required), audience, duration, key_points, platform.
func LongFormVideoPackage() *PromptChain {
	return &PromptChain{
		ID:          LongFormVideoPackageID,
		Name:        "Long-Form Video Package",
		Description: "A long-form script with its thumbnail, description and hashtags.",
		Steps: []PromptChainStep{
			{
				StepNumber:       1,
				PromptTemplateID: "long_script",
				InputMapping:     map[string]string{"topic": "topic", "audience": "audience", "duration": "duration", "key_points": "key_points"},
				OutputKey:        "script",
			},
			{
				StepNumber:       2,
				PromptTemplateID: "thumbnail",
				InputMapping:     map[string]string{"topic": "topic", "script": "script"},
				OutputKey:        "thumbnail",
			},
			{
				StepNumber:       3,
				PromptTemplateID: "description",
				InputMapping:     map[string]string{"topic": "topic", "script": "script"},
				OutputKey:        "description",
			},
			{
				StepNumber:       4,
				PromptTemplateID: "hashtags",
				InputMapping:     map[string]string{"topic": "topic", "content": "description", "platform": "platform"},
				OutputKey:        "hashtags",
			},
		},
		FinalOutputFormat: "## Script\n{{script}}\n\n## Thumbnail Concept\n{{thumbnail}}\n\n## Description\n{{description}}\n\n## Hashtags\n{{hashtags}}",
	}
}

// CampaignPackage: ad copy, then an email sequence, carousel and thread
// all derived from it.
// Inputs: product and audience (required), offer, platform.
func CampaignPackage() *PromptChain {
	return &PromptChain{
		ID:          CampaignPackageID,
		Name:        "Campaign Package",
		Description: "Ad copy plus an email sequence, a carousel and a thread built from it.",
		Steps: []PromptChainStep{
			{
				StepNumber:       1,
				PromptTemplateID: "ad_copy",
				InputMapping:     map[string]string{"product": "product", "audience": "audience", "offer": "offer", "platform": "platform"},
				OutputKey:        "ad_copy",
			},
			{
				StepNumber:       2,
				PromptTemplateID: "email_sequence",
				InputMapping:     map[string]string{"product": "product", "audience": "audience", "source_copy": "ad_copy"},
				OutputKey:        "emails",
			},
			{
				StepNumber:       3,
				PromptTemplateID: "carousel",
				InputMapping:     map[string]string{"topic": "product", "source_content": "ad_copy"},
				OutputKey:        "carousel",
			},
			{
				StepNumber:       4,
				PromptTemplateID: "thread",
				InputMapping:     map[string]string{"topic": "product", "source_content": "ad_copy"},
				OutputKey:        "thread",
			},
		},
		FinalOutputFormat: "## Ad Copy\n{{ad_copy}}\n\n## Email Sequence\n{{emails}}\n\n## Carousel\n{{carousel}}\n\n## Thread\n{{thread}}",
	}
}

// RepurposingPackage: one piece of source content becomes a thread, a
// carousel, hooks and an email sequence.
// Inputs: topic (required), content, platform, audience.
func RepurposingPackage() *PromptChain {
	return &PromptChain{
		ID:          RepurposingPackageID,
		Name:        "Repurposing Package",
		Description: "Turn existing content into a thread, carousel, hooks and emails.",
		Steps: []PromptChainStep{
			{
				StepNumber:       1,
				PromptTemplateID: "thread",
				InputMapping:     map[string]string{"topic": "topic", "source_content": "content"},
				OutputKey:        "thread",
			},
			{
				StepNumber:       2,
				PromptTemplateID: "carousel",
				InputMapping:     map[string]string{"topic": "topic", "source_content": "thread"},
				OutputKey:        "carousel",
			},
			{
				StepNumber:       3,
				PromptTemplateID: "hooks",
				InputMapping:     map[string]string{"topic": "topic", "platform": "platform", "audience": "audience"},
				OutputKey:        "hooks",
			},
			{
				StepNumber:       4,
				PromptTemplateID: "email_sequence",
				InputMapping:     map[string]string{"product": "topic", "audience": "audience", "source_copy": "thread"},
				OutputKey:        "emails",
			},
		},
		FinalOutputFormat: "## Thread\n{{thread}}\n\n## Carousel\n{{carousel}}\n\n## Hooks\n{{hooks}}\n\n## Email Sequence\n{{emails}}",
	}
}

// ThreadToArticle: a thread expanded into a long-form article.
// Inputs: topic (required), content, word_count.
func ThreadToArticle() *PromptChain {
	return &PromptChain{
		ID:          ThreadToArticleID,
		Name:        "Thread to Article",
		Description: "Write a thread, then expand it into an article.",
		Steps: []PromptChainStep{
			{
				StepNumber:       1,
				PromptTemplateID: "thread",
				InputMapping:     map[string]string{"topic": "topic", "source_content": "content"},
				OutputKey:        "thread",
			},
			{
				StepNumber:       2,
				PromptTemplateID: "article_expansion",
				InputMapping:     map[string]string{"thread": "thread", "topic": "topic", "word_count": "word_count"},
				OutputKey:        "article",
			},
		},
		FinalOutputFormat: "{{article}}",
	}
}

// Blueprints returns fresh copies of every built-in chain, sorted by ID.
func Blueprints() []*PromptChain {
	all := []*PromptChain{
		ShortFormVideoPackage(),
		LongFormVideoPackage(),
		CampaignPackage(),
		RepurposingPackage(),
		ThreadToArticle(),
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Blueprint returns a fresh copy of the built-in chain with id.
func Blueprint(id string) (*PromptChain, bool) {
	for _, c := range Blueprints() {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}
