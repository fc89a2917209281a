// Package session drives the add-contact dialogue: a pure transition
// function over Session values and a Manager that owns the per-user session
// table and commits finished drafts to the directory.
package session

import (
	"time"

	"github.com/m3rciful/phonebook/internal/directory"
)

// Step is the position of a user inside the add-contact dialogue.
type Step string

const (
	StepIdle               Step = "idle"
	StepAwaitingName       Step = "awaiting_name"
	StepAwaitingPhone      Step = "awaiting_phone"
	StepAwaitingProfession Step = "awaiting_profession"
	StepAwaitingRegion     Step = "awaiting_region"
	// StepCommitted and StepCancelled are terminal; sessions in these steps
	// are never stored.
	StepCommitted Step = "committed"
	StepCancelled Step = "cancelled"
)

// Active reports whether the step is waiting for user input.
func (s Step) Active() bool {
	switch s {
	case StepAwaitingName, StepAwaitingPhone, StepAwaitingProfession, StepAwaitingRegion:
		return true
	}
	return false
}

// Session is one user's in-progress dialogue.
type Session struct {
	Step      Step            `json:"step"`
	Draft     directory.Draft `json:"draft"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// EventKind enumerates what a user can send into the dialogue.
type EventKind int

const (
	EventStart EventKind = iota + 1
	EventText
	EventCancel
)

// Event is a single user action.
type Event struct {
	Kind EventKind
	Text string
}

// StartEvent begins (or restarts) the dialogue.
func StartEvent() Event { return Event{Kind: EventStart} }

// TextEvent carries a free-form answer.
func TextEvent(text string) Event { return Event{Kind: EventText, Text: text} }

// CancelEvent aborts the dialogue.
func CancelEvent() Event { return Event{Kind: EventCancel} }

// Effect is the side effect the caller must perform after a transition.
type Effect int

const (
	EffectIgnored Effect = iota
	EffectPromptName
	EffectPromptPhone
	EffectPromptProfession
	EffectPromptRegion
	EffectCommit
	EffectCancelled
)

func (e Effect) String() string {
	switch e {
	case EffectPromptName:
		return "prompt_name"
	case EffectPromptPhone:
		return "prompt_phone"
	case EffectPromptProfession:
		return "prompt_profession"
	case EffectPromptRegion:
		return "prompt_region"
	case EffectCommit:
		return "commit"
	case EffectCancelled:
		return "cancelled"
	default:
		return "ignored"
	}
}

// Transition computes the next session and the effect for ev. It has no side
// effects. Answers are stored verbatim; every step moves forward or to
// cancellation. Start on a live session restarts it with an empty draft.
func Transition(cur Session, ev Event) (Session, Effect) {
	switch ev.Kind {
	case EventStart:
		return Session{Step: StepAwaitingName}, EffectPromptName
	case EventCancel:
		return Session{Step: StepCancelled}, EffectCancelled
	case EventText:
	default:
		return cur, EffectIgnored
	}

	next := cur
	text := ev.Text
	switch cur.Step {
	case StepAwaitingName:
		next.Draft.Name = text
		next.Step = StepAwaitingPhone
		return next, EffectPromptPhone
	case StepAwaitingPhone:
		next.Draft.Phone = text
		next.Step = StepAwaitingProfession
		return next, EffectPromptProfession
	case StepAwaitingProfession:
		next.Draft.Profession = &text
		next.Step = StepAwaitingRegion
		return next, EffectPromptRegion
	case StepAwaitingRegion:
		next.Draft.Region = &text
		next.Step = StepCommitted
		return next, EffectCommit
	}
	return cur, EffectIgnored
}
