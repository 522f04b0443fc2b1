package prompt

import (
	"testing"

	"contentforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultCorpus(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	for _, id := range []string{
		"hooks", "short_script", "long_script", "thumbnail", "description", "hashtags",
		"ad_copy", "email_sequence", "carousel", "thread", "article_expansion", "caption",
	} {
		tpl, err := r.Lookup(id)
		if assert.NoError(t, err, id) {
			assert.NotEmpty(t, tpl.UserPromptTemplate, id)
			assert.NotEmpty(t, tpl.SystemPrompt, id)
		}
	}
	assert.Equal(t, 12, r.Count())
}

func TestDefaultCorpus_SuggestedNextResolve(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	for _, tpl := range r.List() {
		for _, next := range tpl.SuggestedNext {
			_, err := r.Lookup(next)
			assert.NoError(t, err, "%s suggests %s", tpl.ID, next)
		}
	}
}

func TestDefaultCorpus_RendersWithRequiredOnly(t *testing.T) {
	r, err := NewDefaultRegistry()
	require.NoError(t, err)

	// supplying every required variable must leave no placeholder unresolved
	for _, tpl := range r.List() {
		vars := types.Values{}
		for _, name := range tpl.RequiredVariables() {
			vars[name] = types.String("x")
		}
		rendered := r.Render(tpl, vars)
		assert.Empty(t, rendered.Unresolved, tpl.ID)
	}
}
