// Package onboarding models the onboarding wizard as a small state machine.
// The wizard only collects input; the terminal step is delegated to a
// Submitter which persists it.
package onboarding

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/habitkeeper/internal/server/models"
)

type Step int

const (
	Welcome Step = iota
	GoalSelection
	ActivitySelection
	Submitting
	Done
)

func (s Step) String() string {
	switch s {
	case Welcome:
		return "welcome"
	case GoalSelection:
		return "goal_selection"
	case ActivitySelection:
		return "activity_selection"
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	}
	return "unknown"
}

// Goals offered on the goal selection step.
var Goals = []string{"Productivity", "Health & Fitness", "Personal Growth", "Work/Career"}

var (
	ErrInvalidTransition = errors.New("invalid onboarding transition")
	ErrNoActivities      = errors.New("at least one activity is required")
)

// Submitter persists the terminal step.
type Submitter interface {
	Submit(ctx context.Context, data models.OnboardingData) error
}

type SubmitFunc func(ctx context.Context, data models.OnboardingData) error

func (f SubmitFunc) Submit(ctx context.Context, data models.OnboardingData) error {
	return f(ctx, data)
}

type Wizard struct {
	step       Step
	timezone   string
	goals      []string
	activities []string
}

func NewWizard(timezone string) *Wizard {
	return &Wizard{step: Welcome, timezone: timezone}
}

func (w *Wizard) Step() Step {
	return w.step
}

// Start leaves the welcome screen.
func (w *Wizard) Start() error {
	if w.step != Welcome {
		return w.invalid("start")
	}
	w.step = GoalSelection
	return nil
}

// SelectGoals records the chosen goals (possibly none) and moves on.
func (w *Wizard) SelectGoals(goals []string) error {
	if w.step != GoalSelection {
		return w.invalid("select goals")
	}
	w.goals = models.UniqueNames(goals)
	w.step = ActivitySelection
	return nil
}

// Back is only allowed from activity selection to goal selection.
func (w *Wizard) Back() error {
	if w.step != ActivitySelection {
		return w.invalid("back")
	}
	w.step = GoalSelection
	return nil
}

// SelectActivities records the chosen activities; the list must not be empty.
func (w *Wizard) SelectActivities(activities []string) error {
	if w.step != ActivitySelection {
		return w.invalid("select activities")
	}
	a := models.UniqueNames(activities)
	if len(a) == 0 {
		return ErrNoActivities
	}
	w.activities = a
	return nil
}

// Data returns what would be submitted.
func (w *Wizard) Data() models.OnboardingData {
	return models.OnboardingData{
		Timezone:   w.timezone,
		Goals:      append([]string(nil), w.goals...),
		Activities: append([]string(nil), w.activities...),
	}
}

// Submit runs the terminal transition. On failure the wizard returns to
// activity selection so the user can retry.
func (w *Wizard) Submit(ctx context.Context, s Submitter) error {
	if w.step != ActivitySelection {
		return w.invalid("submit")
	}
	if len(w.activities) == 0 {
		return ErrNoActivities
	}

	w.step = Submitting
	if err := s.Submit(ctx, w.Data()); err != nil {
		w.step = ActivitySelection
		return err
	}
	w.step = Done
	return nil
}

func (w *Wizard) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s at %s", ErrInvalidTransition, action, w.step)
}
