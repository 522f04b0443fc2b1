package chain

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"contentforge/internal/logging"
	"contentforge/internal/profile"
	"contentforge/internal/prompt"
	"contentforge/internal/types"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recorder is a scripted generator that echoes the user prompt and records
// every call in order.
type recorder struct {
	mu      sync.Mutex
	systems []string
	prompts []string
	failAt  int // 1-based call index that fails; 0 = never
}

func (r *recorder) Generate(ctx context.Context, system, user string, opts types.GenerateOptions) (*types.Generation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.systems = append(r.systems, system)
	r.prompts = append(r.prompts, user)
	n := len(r.prompts)
	if n == r.failAt {
		return nil, &types.ProviderError{Provider: "stub", StatusCode: 500, Message: "boom"}
	}
	return &types.Generation{
		Text:       "<" + user + ">",
		TokensUsed: 10 * n,
		Cost:       0.001 * float64(n),
		Provider:   "stub",
	}, nil
}

func testRegistry(t *testing.T) *prompt.Registry {
	t.Helper()
	reg := prompt.NewRegistry()
	require.NoError(t, reg.RegisterAll([]*prompt.PromptTemplate{
		{
			ID:                 "hooks",
			SystemPrompt:       "You write hooks.",
			UserPromptTemplate: "hooks for {{topic}}",
			Variables:          []prompt.Variable{{Name: "topic", Type: prompt.VarString, Required: true}},
		},
		{
			ID:                 "script",
			SystemPrompt:       "You write scripts.",
			UserPromptTemplate: "script for {{topic}} from {{hook}}",
			Variables: []prompt.Variable{
				{Name: "topic", Type: prompt.VarString, Required: true},
				{Name: "hook", Type: prompt.VarString, Required: true},
			},
		},
		{
			ID:                 "thumb",
			UserPromptTemplate: "thumb from {{script}}",
			Variables:          []prompt.Variable{{Name: "script", Type: prompt.VarString, Required: true}},
		},
	}))
	return reg
}

func twoStepChain() *PromptChain {
	return &PromptChain{
		ID: "hook-script",
		Steps: []PromptChainStep{
			{StepNumber: 1, PromptTemplateID: "hooks", InputMapping: map[string]string{"topic": "topic"}, OutputKey: "h"},
			{StepNumber: 2, PromptTemplateID: "script", InputMapping: map[string]string{"topic": "topic", "hook": "h"}, OutputKey: "s"},
		},
		FinalOutputFormat: "{{h}} --- {{s}}",
	}
}

func TestExecuteChain_EchoScenario(t *testing.T) {
	gen := &recorder{}
	e := NewExecutor(testRegistry(t), gen)

	res, err := e.ExecuteChain(context.Background(), twoStepChain(), map[string]any{"topic": "fitness"}, Options{})
	require.NoError(t, err)

	h := "<hooks for fitness>"
	s := "<script for fitness from <hooks for fitness>>"
	assert.Equal(t, h+" --- "+s, res.FinalOutput)
	assert.Empty(t, res.Unresolved)
	assert.Equal(t, StateCompleted, e.State())
	assert.Equal(t, -1, e.CurrentStep())
}

func TestExecuteChain_CallOrderThreadsContext(t *testing.T) {
	gen := &recorder{}
	e := NewExecutor(testRegistry(t), gen)

	c := twoStepChain()
	c.Steps = append(c.Steps, PromptChainStep{
		StepNumber: 3, PromptTemplateID: "thumb", InputMapping: map[string]string{"script": "s"}, OutputKey: "t",
	})
	c.FinalOutputFormat = "{{t}}"

	res, err := e.ExecuteChain(context.Background(), c, map[string]any{"topic": "fitness"}, Options{})
	require.NoError(t, err)
	require.Len(t, gen.prompts, 3)

	assert.Contains(t, gen.prompts[1], res.StepResults[0].Output)
	assert.Contains(t, gen.prompts[2], res.StepResults[1].Output)
	assert.Equal(t, "You write hooks.", gen.systems[0])
}

func TestExecuteChain_TotalsEqualSumOfSteps(t *testing.T) {
	gen := &recorder{}
	e := NewExecutor(testRegistry(t), gen)

	c := twoStepChain()
	c.Steps = append(c.Steps, PromptChainStep{StepNumber: 3, PromptTemplateID: "thumb", InputMapping: map[string]string{"script": "s"}, OutputKey: "t"})

	res, err := e.ExecuteChain(context.Background(), c, map[string]any{"topic": "x"}, Options{})
	require.NoError(t, err)

	var cost float64
	var tokens int
	for _, sr := range res.StepResults {
		cost += sr.Cost
		tokens += sr.TokensUsed
	}
	assert.InDelta(t, cost, res.TotalCost, 1e-12)
	assert.Equal(t, tokens, res.TotalTokens)
	assert.Equal(t, 60, res.TotalTokens)
}

func TestExecuteChain_StepsRunInStepNumberOrder(t *testing.T) {
	gen := &recorder{}
	e := NewExecutor(testRegistry(t), gen)

	c := twoStepChain()
	c.Steps[0], c.Steps[1] = c.Steps[1], c.Steps[0]

	var seen []int
	res, err := e.ExecuteChain(context.Background(), c, map[string]any{"topic": "x"}, Options{
		OnStepComplete: func(sr StepResult) { seen = append(seen, sr.StepNumber) },
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, seen)
	assert.Equal(t, "hooks for x", gen.prompts[0])
	assert.Len(t, res.StepResults, 2)
}

func TestExecuteChain_MissingVariableAborts(t *testing.T) {
	gen := &recorder{}
	e := NewExecutor(testRegistry(t), gen)

	c := twoStepChain()
	c.Steps[1].InputMapping = map[string]string{"topic": "topic", "hook": "nowhere"}

	res, err := e.ExecuteChain(context.Background(), c, map[string]any{"topic": "x"}, Options{})
	require.Error(t, err)

	var missing *types.MissingVariablesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 2, missing.Step)
	assert.Equal(t, []string{"hook"}, missing.Names)

	require.NotNil(t, res)
	assert.Len(t, res.StepResults, 1)
	assert.Empty(t, res.FinalOutput)
	assert.Len(t, gen.prompts, 1)
	assert.Equal(t, StateFailed, e.State())
}

func TestExecuteChain_RequiresUserInputProceeds(t *testing.T) {
	gen := &recorder{}
	e := NewExecutor(testRegistry(t), gen)

	c := twoStepChain()
	c.Steps[1].InputMapping = map[string]string{"topic": "topic"}
	c.Steps[1].RequiresUserInput = true

	res, err := e.ExecuteChain(context.Background(), c, map[string]any{"topic": "x"}, Options{})
	require.NoError(t, err)
	require.Len(t, res.StepResults, 2)
	assert.Equal(t, []string{"hook"}, res.StepResults[1].Missing)
	assert.Equal(t, []string{"hook"}, res.StepResults[1].Unresolved)
	assert.Equal(t, "script for x from {{hook}}", gen.prompts[1])
}

func TestExecuteChain_TemplateNotFound(t *testing.T) {
	e := NewExecutor(testRegistry(t), &recorder{})

	c := twoStepChain()
	c.Steps[1].PromptTemplateID = "nope"

	res, err := e.ExecuteChain(context.Background(), c, map[string]any{"topic": "x"}, Options{})
	assert.ErrorIs(t, err, types.ErrTemplateNotFound)
	assert.Len(t, res.StepResults, 1)
}

func TestExecuteChain_GeneratorErrorKeepsCompletedSteps(t *testing.T) {
	gen := &recorder{failAt: 2}
	e := NewExecutor(testRegistry(t), gen)

	res, err := e.ExecuteChain(context.Background(), twoStepChain(), map[string]any{"topic": "x"}, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrProvider)
	require.Len(t, res.StepResults, 1)
	assert.Equal(t, "h", res.StepResults[0].OutputKey)
	assert.InDelta(t, 0.001, res.TotalCost, 1e-12)
	assert.Equal(t, StateFailed, e.State())
}

func TestExecuteChain_CancelledContext(t *testing.T) {
	gen := &recorder{}
	e := NewExecutor(testRegistry(t), gen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.ExecuteChain(ctx, twoStepChain(), map[string]any{"topic": "x"}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.prompts)
}

func TestExecuteChain_DotPathInputs(t *testing.T) {
	gen := &recorder{}
	e := NewExecutor(testRegistry(t), gen)

	c := twoStepChain()
	c.Steps[0].InputMapping = map[string]string{"topic": "brief.subject.name"}

	inputs := map[string]any{
		"topic": "fitness",
		"brief": map[string]any{"subject": map[string]string{"name": "yoga"}},
	}
	_, err := e.ExecuteChain(context.Background(), c, inputs, Options{})
	require.NoError(t, err)
	assert.Equal(t, "hooks for yoga", gen.prompts[0])
}

func TestExecuteChain_FinalOutputReportsUnresolved(t *testing.T) {
	e := NewExecutor(testRegistry(t), &recorder{})

	c := twoStepChain()
	c.FinalOutputFormat = "{{h}} / {{missing}}"

	res, err := e.ExecuteChain(context.Background(), c, map[string]any{"topic": "x"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "<hooks for x> / {{missing}}", res.FinalOutput)
	assert.Equal(t, []string{"missing"}, res.Unresolved)
}

func TestExecuteChain_NoFormatUsesLastOutput(t *testing.T) {
	e := NewExecutor(testRegistry(t), &recorder{})

	c := twoStepChain()
	c.FinalOutputFormat = ""

	res, err := e.ExecuteChain(context.Background(), c, map[string]any{"topic": "x"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, res.StepResults[1].Output, res.FinalOutput)
}

func TestExecuteChain_BlendsProfiles(t *testing.T) {
	gen := &recorder{}
	voice := profile.Presets()[0]
	e := NewExecutor(testRegistry(t), gen, WithProfiles(voice, nil))

	_, err := e.ExecuteChain(context.Background(), twoStepChain(), map[string]any{"topic": "x"}, Options{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gen.systems[0], "You write hooks."))
	assert.Contains(t, gen.systems[0], "## Voice & Tone: "+voice.Name)
}

func TestExecuteChain_BusyWhileRunning(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	gen := types.GeneratorFunc(func(ctx context.Context, system, user string, opts types.GenerateOptions) (*types.Generation, error) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return &types.Generation{Text: "ok"}, nil
	})
	e := NewExecutor(testRegistry(t), gen)

	done := make(chan error, 1)
	go func() {
		_, err := e.ExecuteChain(context.Background(), twoStepChain(), map[string]any{"topic": "x"}, Options{})
		done <- err
	}()

	<-started
	assert.Equal(t, StateRunning, e.State())
	assert.Equal(t, 0, e.CurrentStep())

	_, err := e.ExecuteChain(context.Background(), twoStepChain(), map[string]any{"topic": "x"}, Options{})
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateCompleted, e.State())
}

func TestValidateChain(t *testing.T) {
	reg := testRegistry(t)

	t.Run("ok with later steps unchecked", func(t *testing.T) {
		assert.NoError(t, ValidateChain(reg, twoStepChain(), map[string]any{"topic": "x"}))
	})

	t.Run("first step missing variable", func(t *testing.T) {
		err := ValidateChain(reg, twoStepChain(), map[string]any{})
		var missing *types.MissingVariablesError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, 1, missing.Step)
		assert.Equal(t, []string{"topic"}, missing.Names)
	})

	t.Run("unknown template", func(t *testing.T) {
		c := twoStepChain()
		c.Steps[1].PromptTemplateID = "ghost"
		err := ValidateChain(reg, c, map[string]any{"topic": "x"})
		assert.ErrorIs(t, err, types.ErrTemplateNotFound)
	})

	t.Run("duplicate step numbers", func(t *testing.T) {
		c := twoStepChain()
		c.Steps[1].StepNumber = 1
		err := ValidateChain(reg, c, map[string]any{"topic": "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate step number")
	})

	t.Run("steps declared out of order", func(t *testing.T) {
		c := twoStepChain()
		c.Steps[0], c.Steps[1] = c.Steps[1], c.Steps[0]
		assert.NoError(t, ValidateChain(reg, c, map[string]any{"topic": "x"}))

		res, err := NewExecutor(reg, &recorder{}).ExecuteChain(context.Background(), c, map[string]any{"topic": "x"}, Options{})
		require.NoError(t, err)
		assert.Equal(t, 1, res.StepResults[0].StepNumber)
	})

	t.Run("empty chain", func(t *testing.T) {
		assert.Error(t, ValidateChain(reg, &PromptChain{ID: "empty"}, nil))
	})
}

func TestBlueprints_ValidateAgainstDefaultCorpus(t *testing.T) {
	reg, err := prompt.NewDefaultRegistry()
	require.NoError(t, err)

	inputs := map[string]any{"topic": "morning routines", "product": "Sleep app", "audience": "new parents"}
	bps := Blueprints()
	require.Len(t, bps, 5)

	for _, bp := range bps {
		t.Run(bp.ID, func(t *testing.T) {
			require.NoError(t, ValidateChain(reg, bp, inputs))

			res, err := NewExecutor(reg, &recorder{}).ExecuteChain(context.Background(), bp, inputs, Options{})
			require.NoError(t, err)
			assert.Len(t, res.StepResults, len(bp.Steps))
			assert.Empty(t, res.Unresolved)
			for _, sr := range res.StepResults {
				assert.Empty(t, sr.Missing, "step %d", sr.StepNumber)
			}
		})
	}
}

func TestBlueprint_Lookup(t *testing.T) {
	bp, ok := Blueprint(ShortFormVideoPackageID)
	require.True(t, ok)
	got := make([]string, 0, len(bp.Steps))
	for _, s := range bp.Steps {
		got = append(got, s.PromptTemplateID)
	}
	if diff := cmp.Diff([]string{"hooks", "short_script", "thumbnail"}, got); diff != "" {
		t.Errorf("short-form steps mismatch (-want +got):\n%s", diff)
	}

	// Copies are independent.
	bp.Steps[0].OutputKey = "changed"
	again, _ := Blueprint(ShortFormVideoPackageID)
	assert.Equal(t, "hooks", again.Steps[0].OutputKey)

	_, ok = Blueprint("missing")
	assert.False(t, ok)
}

func TestResolvePath(t *testing.T) {
	root := map[string]any{
		"a":      "top",
		"x.y":    "literal dotted key",
		"nested": map[string]any{"inner": map[string]any{"leaf": 3}},
		"vals":   types.Values{"k": types.Map(map[string]string{"z": "deep"})},
	}

	tests := []struct {
		path string
		want any
		ok   bool
	}{
		{"a", "top", true},
		{"x.y", "literal dotted key", true},
		{"nested.inner.leaf", 3, true},
		{"vals.k.z", "deep", true},
		{"nested.missing", nil, false},
		{"a.b", nil, false},
		{"", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := ResolvePath(root, tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseChainsYAML(t *testing.T) {
	data := []byte(`
- id: promo
  name: Promo
  steps:
    - step_number: 1
      template: hooks
      input_mapping: {topic: topic}
      output_key: h
    - step_number: 2
      template: script
      input_mapping: {topic: topic, hook: h}
      output_key: s
      requires_user_input: true
  final_output_format: "{{h}}\n{{s}}"
- id: broken
- name: no id
`)
	chains, err := ParseChainsYAML(data, "inline")
	require.NoError(t, err)
	require.Len(t, chains, 1)

	c := chains[0]
	assert.Equal(t, "promo", c.ID)
	require.Len(t, c.Steps, 2)
	assert.Equal(t, "h", c.Steps[1].InputMapping["hook"])
	assert.True(t, c.Steps[1].RequiresUserInput)
	assert.Equal(t, "{{h}}\n{{s}}", c.FinalOutputFormat)
}

func TestLoadChainsFromYAML_SingleAndCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
id: short-form-video-package
name: Custom short form
steps:
  - step_number: 1
    template: hooks
    input_mapping: {topic: topic}
    output_key: hooks
`), 0644))

	chains, err := LoadChainsFromYAML(path)
	require.NoError(t, err)
	require.Len(t, chains, 1)

	cat := Catalog(chains...)
	assert.Len(t, cat, 5)
	assert.Equal(t, "Custom short form", cat[ShortFormVideoPackageID].Name)

	_, err = LoadChainsFromYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExecuteChain_UnsupportedInputType(t *testing.T) {
	e := NewExecutor(testRegistry(t), &recorder{})
	_, err := e.ExecuteChain(context.Background(), twoStepChain(), map[string]any{"topic": struct{}{}}, Options{})
	require.Error(t, err)
	assert.False(t, errors.Is(err, types.ErrMissingVariables))
	assert.Contains(t, err.Error(), fmt.Sprintf("%T", struct{}{}))
}

func TestExecuteChain_NullInputOmitted(t *testing.T) {
	gen := &recorder{}
	e := NewExecutor(testRegistry(t), gen)

	c := &PromptChain{
		ID: "c",
		Steps: []PromptChainStep{{
			StepNumber: 1, PromptTemplateID: "hooks",
			InputMapping: map[string]string{"topic": "topic", "extra": "notes"},
			OutputKey:    "h",
		}},
	}
	res, err := e.ExecuteChain(context.Background(), c, map[string]any{"topic": "fitness", "notes": nil}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "<hooks for fitness>", res.FinalOutput)
	assert.Equal(t, []string{"hooks for fitness"}, gen.prompts)
}

func TestExecuteChain_NullRequiredInputIsMissing(t *testing.T) {
	gen := &recorder{}
	e := NewExecutor(testRegistry(t), gen)

	c := twoStepChain()
	_, err := e.ExecuteChain(context.Background(), c, map[string]any{"topic": nil}, Options{})

	var missing *types.MissingVariablesError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.Step)
	assert.Equal(t, []string{"topic"}, missing.Names)
	assert.Empty(t, gen.prompts)
}

func TestExecuteChain_LogsCompletionAtInfo(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logging.SetBase(zap.New(core))
	t.Cleanup(func() { logging.SetBase(nil) })

	e := NewExecutor(testRegistry(t), &recorder{})
	_, err := e.ExecuteChain(context.Background(), twoStepChain(), map[string]any{"topic": "x"}, Options{})
	require.NoError(t, err)

	done := logs.FilterMessageSnippet("ExecuteChain hook-script completed in").All()
	require.Len(t, done, 1)
	assert.Equal(t, "chain", done[0].ContextMap()["category"])
}
