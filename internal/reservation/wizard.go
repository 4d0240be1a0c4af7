// Package reservation implements the seven step booking wizard. Each step
// validates its input with a grammar object; input that fails validation
// re-prompts without touching the stored step or draft.
package reservation

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/devdanielvaldez/autoclinic-bot/internal/bookings"
	"github.com/devdanielvaldez/autoclinic-bot/internal/catalog"
	"github.com/devdanielvaldez/autoclinic-bot/internal/replies"
	"github.com/devdanielvaldez/autoclinic-bot/internal/session"
	"github.com/devdanielvaldez/autoclinic-bot/pkg/logging"
)

var wizardTracer = otel.Tracer("autoclinic.internal.reservation")

// Step is the wizard position stored in the session. Zero means no wizard.
type Step int

const (
	StepNone Step = iota
	StepPhoneConfirm
	StepPackageSelect
	StepSizeSelect
	StepVehicleInfo
	StepDateSelect
	StepTimeSelect
	StepFinalConfirm
)

func (s Step) String() string {
	switch s {
	case StepPhoneConfirm:
		return "phone_confirm"
	case StepPackageSelect:
		return "package_select"
	case StepSizeSelect:
		return "size_select"
	case StepVehicleInfo:
		return "vehicle_info"
	case StepDateSelect:
		return "date_select"
	case StepTimeSelect:
		return "time_select"
	case StepFinalConfirm:
		return "final_confirm"
	default:
		return "none"
	}
}

// BookingCreator persists a finished draft.
type BookingCreator interface {
	Create(ctx context.Context, draft bookings.Draft) (*bookings.Booking, error)
}

// StepObserver receives one outcome per handled wizard message.
type StepObserver interface {
	ObserveWizardStep(step, outcome string)
}

// Wizard drives reservations through the session store.
type Wizard struct {
	store        session.Store
	creator      BookingCreator
	logger       *logging.Logger
	contactPhone string
	observer     StepObserver

	affirmative AffirmativeGrammar
	phone       PhoneGrammar
	size        SizeGrammar
	vehicle     VehicleInfoGrammar
	date        DateGrammar
	time        TimeGrammar
}

// NewWizard creates a wizard. contactPhone is quoted when a booking cannot be
// saved and the catalog has no phone of its own.
func NewWizard(store session.Store, creator BookingCreator, contactPhone string, logger *logging.Logger) *Wizard {
	if store == nil {
		panic("reservation: session store cannot be nil")
	}
	if creator == nil {
		panic("reservation: booking creator cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(contactPhone) == "" {
		contactPhone = catalog.DefaultCompany.Contact.Phone
	}
	return &Wizard{
		store:        store,
		creator:      creator,
		logger:       logger,
		contactPhone: contactPhone,
		phone:        PhoneGrammar{MinDigits: 10},
		vehicle:      VehicleInfoGrammar{MinLength: 3},
	}
}

// WithObserver attaches a step observer, typically the chat metrics.
func (w *Wizard) WithObserver(o StepObserver) *Wizard {
	w.observer = o
	return w
}

// Start seeds a draft from the sender identity and asks to confirm the phone.
func (w *Wizard) Start(ctx context.Context, userID, displayName string) (string, error) {
	draft := bookings.Draft{CustomerName: strings.TrimSpace(displayName), CustomerPhone: userID}
	patch := session.Patch{
		Mode:       session.Ptr(session.ModeWizard),
		Topic:      session.Ptr(""),
		WizardStep: session.Ptr(int(StepPhoneConfirm)),
		WizardData: &draft,
	}
	if err := w.store.Save(ctx, userID, patch); err != nil {
		return "", fmt.Errorf("reservation: failed to start: %w", err)
	}
	w.observe(StepNone, "started")
	w.logger.Info("reservation started", "user_id", userID)
	return startPrompt(draft.CustomerName, userID), nil
}

// Handle feeds one message to the active step. A state without an active
// step starts a new reservation.
func (w *Wizard) Handle(ctx context.Context, st *session.State, input, displayName string, snap *catalog.Snapshot) (string, error) {
	if st == nil || !st.InWizard() {
		userID := ""
		if st != nil {
			userID = st.UserID
		}
		return w.Start(ctx, userID, displayName)
	}

	step := Step(st.WizardStep)
	ctx, span := wizardTracer.Start(ctx, "reservation.handle")
	defer span.End()
	span.SetAttributes(attribute.String("autoclinic.wizard_step", step.String()))

	draft := st.WizardData
	var pkgs []catalog.Package
	if snap != nil {
		pkgs = snap.Packages
	}

	switch step {
	case StepPhoneConfirm:
		if w.affirmative.Match(input) {
			if name := strings.TrimSpace(displayName); name != "" {
				draft.CustomerName = name
			}
			return w.advance(ctx, st.UserID, step, StepPackageSelect, draft, packageList(pkgs, false))
		}
		if phone, ok := w.phone.Parse(input); ok {
			draft.CustomerPhone = phone
			if name := strings.TrimSpace(displayName); name != "" {
				draft.CustomerName = name
			}
			return w.advance(ctx, st.UserID, step, StepPackageSelect, draft,
				"✅ Número actualizado: "+phone+"\n\n"+packageList(pkgs, false))
		}
		return w.reject(step, phoneRetry(draft.CustomerPhone))

	case StepPackageSelect:
		n, ok := SelectionGrammar{Max: len(pkgs)}.Parse(input)
		if !ok {
			return w.reject(step, packageList(pkgs, true))
		}
		pkg := pkgs[n-1]
		draft.PackageID = pkg.ID
		draft.PackageName = pkg.Name
		return w.advance(ctx, st.UserID, step, StepSizeSelect, draft,
			"✅ *"+pkg.Name+"* seleccionado\n\n"+sizeQuestion)

	case StepSizeSelect:
		size, ok := w.size.Parse(input)
		if !ok {
			return w.reject(step, sizeRetry)
		}
		pkg, found := snap.PackageByID(draft.PackageID)
		if !found {
			// The catalog changed under an in-flight reservation; choose again.
			w.logger.Warn("selected package no longer in catalog", "user_id", st.UserID, "package_id", draft.PackageID)
			draft.PackageID, draft.PackageName = "", ""
			return w.advance(ctx, st.UserID, step, StepPackageSelect, draft, packageList(pkgs, true))
		}
		draft.VehicleSize = size
		draft.Total = pkg.Prices.For(size)
		return w.advance(ctx, st.UserID, step, StepVehicleInfo, draft,
			"✅ Tamaño: *"+size.Label()+"*\n\nDime la marca, modelo, año y color de tu vehículo:\n\nEjemplo: \"Toyota Corolla 2022 blanco\"")

	case StepVehicleInfo:
		info, ok := w.vehicle.Parse(input)
		if !ok {
			return w.reject(step, vehicleRetry)
		}
		draft.VehicleInfo = info
		return w.advance(ctx, st.UserID, step, StepDateSelect, draft, "✅ Vehículo registrado\n\n"+dateQuestion)

	case StepDateSelect:
		date, ok := w.date.Parse(input)
		if !ok {
			return w.reject(step, dateRetry)
		}
		draft.PreferredDate = date
		return w.advance(ctx, st.UserID, step, StepTimeSelect, draft, timeQuestion(date, w.time.Slots()))

	case StepTimeSelect:
		at, ok := w.time.Parse(input)
		if !ok {
			return w.reject(step, timeRetry(w.time.Slots()))
		}
		draft.PreferredTime = at
		return w.advance(ctx, st.UserID, step, StepFinalConfirm, draft, finalSummary(draft))

	case StepFinalConfirm:
		return w.finish(ctx, st.UserID, draft, input, snap)

	default:
		w.logger.Warn("unknown wizard step, resetting", "user_id", st.UserID, "step", st.WizardStep)
		w.clear(ctx, st.UserID)
		return replies.MainMenu(displayName), nil
	}
}

func (w *Wizard) finish(ctx context.Context, userID string, draft bookings.Draft, input string, snap *catalog.Snapshot) (string, error) {
	if !w.affirmative.Match(input) {
		w.clear(ctx, userID)
		w.observe(StepFinalConfirm, "cancelled")
		w.logger.Info("reservation cancelled", "user_id", userID)
		return cancelled(draft.CustomerName), nil
	}

	booking, err := w.creator.Create(ctx, draft)
	w.clear(ctx, userID)
	if err != nil {
		w.observe(StepFinalConfirm, "failed")
		w.logger.Error("failed to persist reservation", "user_id", userID, "package_id", draft.PackageID, "error", err.Error())
		phone := w.contactPhone
		if snap != nil && strings.TrimSpace(snap.Company.Contact.Phone) != "" {
			phone = snap.Company.Contact.Phone
		}
		return persistFailed(phone), nil
	}
	w.observe(StepFinalConfirm, "completed")
	return confirmed(booking), nil
}

func (w *Wizard) advance(ctx context.Context, userID string, from, to Step, draft bookings.Draft, reply string) (string, error) {
	patch := session.Patch{WizardStep: session.Ptr(int(to)), WizardData: &draft}
	if err := w.store.Save(ctx, userID, patch); err != nil {
		return "", fmt.Errorf("reservation: failed to save step %s: %w", to, err)
	}
	w.observe(from, "advanced")
	w.logger.Debug("wizard advanced", "user_id", userID, "from", from.String(), "to", to.String())
	return reply, nil
}

func (w *Wizard) reject(step Step, reply string) (string, error) {
	w.observe(step, "invalid")
	return reply, nil
}

func (w *Wizard) clear(ctx context.Context, userID string) {
	if err := w.store.Clear(ctx, userID); err != nil {
		w.logger.Error("failed to clear wizard state", "user_id", userID, "error", err.Error())
	}
}

func (w *Wizard) observe(step Step, outcome string) {
	if w.observer != nil {
		w.observer.ObserveWizardStep(step.String(), outcome)
	}
}
