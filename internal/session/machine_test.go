package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_HappyPath(t *testing.T) {
	s := Session{Step: StepIdle}

	steps := []struct {
		ev       Event
		wantStep Step
		wantEff  Effect
	}{
		{StartEvent(), StepAwaitingName, EffectPromptName},
		{TextEvent("Ali"), StepAwaitingPhone, EffectPromptPhone},
		{TextEvent("+998 90 000"), StepAwaitingProfession, EffectPromptProfession},
		{TextEvent("doctor"), StepAwaitingRegion, EffectPromptRegion},
		{TextEvent("Tashkent"), StepCommitted, EffectCommit},
	}
	for i, st := range steps {
		var eff Effect
		s, eff = Transition(s, st.ev)
		assert.Equal(t, st.wantStep, s.Step, "step %d", i)
		assert.Equal(t, st.wantEff, eff, "effect %d", i)
	}

	assert.Equal(t, "Ali", s.Draft.Name)
	assert.Equal(t, "+998 90 000", s.Draft.Phone)
	require.NotNil(t, s.Draft.Profession)
	require.NotNil(t, s.Draft.Region)
	assert.Equal(t, "doctor", *s.Draft.Profession)
	assert.Equal(t, "Tashkent", *s.Draft.Region)
}

func TestTransition_AcceptsEmptyAndWhitespaceVerbatim(t *testing.T) {
	s, _ := Transition(Session{}, StartEvent())
	s, _ = Transition(s, TextEvent(""))
	s, _ = Transition(s, TextEvent("   "))

	assert.Equal(t, StepAwaitingProfession, s.Step)
	assert.Equal(t, "", s.Draft.Name)
	assert.Equal(t, "   ", s.Draft.Phone)
}

func TestTransition_CancelFromEveryActiveStep(t *testing.T) {
	for _, step := range []Step{StepAwaitingName, StepAwaitingPhone, StepAwaitingProfession, StepAwaitingRegion} {
		t.Run(string(step), func(t *testing.T) {
			next, eff := Transition(Session{Step: step}, CancelEvent())
			assert.Equal(t, EffectCancelled, eff)
			assert.Equal(t, StepCancelled, next.Step)
			assert.Equal(t, "", next.Draft.Name)
		})
	}
}

func TestTransition_StartWhileActiveResetsDraft(t *testing.T) {
	cur := Session{Step: StepAwaitingProfession}
	cur.Draft.Name = "old"
	cur.Draft.Phone = "123"

	next, eff := Transition(cur, StartEvent())

	assert.Equal(t, EffectPromptName, eff)
	assert.Equal(t, StepAwaitingName, next.Step)
	assert.Equal(t, "", next.Draft.Name)
	assert.Equal(t, "", next.Draft.Phone)
}

func TestTransition_TextWhileIdleIsIgnored(t *testing.T) {
	cur := Session{Step: StepIdle}
	next, eff := Transition(cur, TextEvent("hello"))

	assert.Equal(t, EffectIgnored, eff)
	assert.Equal(t, cur, next)
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	prof := "doctor"
	cur := Session{Step: StepAwaitingRegion}
	cur.Draft.Profession = &prof

	_, _ = Transition(cur, TextEvent("Tashkent"))

	assert.Equal(t, StepAwaitingRegion, cur.Step)
	assert.Nil(t, cur.Draft.Region)
}

func TestEffectString(t *testing.T) {
	assert.Equal(t, "commit", EffectCommit.String())
	assert.Equal(t, "ignored", Effect(99).String())
}
