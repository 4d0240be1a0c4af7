// Package session persists per-user routing state between messages that can
// arrive hours or days apart.
package session

import (
	"context"
	"time"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
)

// Mode is the interaction mode a user is currently in.
type Mode string

const (
	ModeMenu          Mode = "menu"
	ModeWizard        Mode = "wizard"
	ModeAITopic       Mode = "ai_topic"
	ModeAIFreeform    Mode = "ai_freeform"
	ModeAfterPackages Mode = "after_packages"
)

// TopicServices scopes topic AI mode to the services persona.
const TopicServices = "services"

// State is the persisted session of one user.
type State struct {
	UserID         string         `json:"user_id" dynamodbav:"user_id"`
	PausedForHuman bool           `json:"paused_for_human" dynamodbav:"paused_for_human"`
	Mode           Mode           `json:"mode" dynamodbav:"mode"`
	Topic          string         `json:"topic,omitempty" dynamodbav:"topic,omitempty"`
	WizardStep     int            `json:"wizard_step" dynamodbav:"wizard_step"`
	WizardData     bookings.Draft `json:"wizard_data" dynamodbav:"wizard_data"`
	AwaitingCode   bool           `json:"awaiting_code" dynamodbav:"awaiting_code"`
	UpdatedAt      time.Time      `json:"updated_at" dynamodbav:"updated_at"`
}

// InWizard reports whether a reservation is in progress.
func (s *State) InWizard() bool {
	return s != nil && s.WizardStep != 0
}

// InAIMode reports whether messages go to the AI bridge.
func (s *State) InAIMode() bool {
	return s != nil && (s.Mode == ModeAITopic || s.Mode == ModeAIFreeform)
}

// Patch is a partial update. Nil fields are left untouched by Save.
type Patch struct {
	PausedForHuman *bool
	Mode           *Mode
	Topic          *string
	WizardStep     *int
	WizardData     *bookings.Draft
	AwaitingCode   *bool
}

// Ptr returns a pointer to v, for building patches inline.
func Ptr[T any](v T) *T {
	return &v
}

// Empty reports whether the patch writes nothing.
func (p Patch) Empty() bool {
	return p.PausedForHuman == nil && p.Mode == nil && p.Topic == nil &&
		p.WizardStep == nil && p.WizardData == nil && p.AwaitingCode == nil
}

// Apply merges the patch into s.
func (p Patch) Apply(s *State) {
	if p.PausedForHuman != nil {
		s.PausedForHuman = *p.PausedForHuman
	}
	if p.Mode != nil {
		s.Mode = *p.Mode
	}
	if p.Topic != nil {
		s.Topic = *p.Topic
	}
	if p.WizardStep != nil {
		s.WizardStep = *p.WizardStep
	}
	if p.WizardData != nil {
		s.WizardData = *p.WizardData
	}
	if p.AwaitingCode != nil {
		s.AwaitingCode = *p.AwaitingCode
	}
}

// ClearPatch resets the wizard and returns the user to the menu. The pause
// flag and the awaiting-code flag are not touched.
func ClearPatch() Patch {
	return Patch{
		Mode:       Ptr(ModeMenu),
		Topic:      Ptr(""),
		WizardStep: Ptr(0),
		WizardData: &bookings.Draft{},
	}
}

// Store is the durable session state contract. Get returns nil, nil for a
// user that has never been seen. Writes are last-write-wins.
type Store interface {
	Get(ctx context.Context, userID string) (*State, error)
	Save(ctx context.Context, userID string, patch Patch) error
	Clear(ctx context.Context, userID string) error
	ListPaused(ctx context.Context) ([]string, error)
}

func newState(userID string) *State {
	return &State{UserID: userID, Mode: ModeMenu}
}
