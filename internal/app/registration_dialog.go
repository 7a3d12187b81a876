package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"crm_onboarding_bot/internal/domain/customer"
	domainTelegram "crm_onboarding_bot/internal/domain/telegram"
	"crm_onboarding_bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrDialogFinished = fmt.Errorf("registration dialog already finished")
	ErrDialogExpired  = fmt.Errorf("registration dialog expired")
)

// Step is the position of a dialog in the registration state machine.
type Step int

const (
	StepAwaitFirstName Step = iota
	StepAwaitLastName
	StepAwaitPromoCode
	StepAwaitBirthDate
	StepSubmitting
	StepPolling
	StepDone
	StepCancelled
	StepFailed
)

var stepNames = [...]string{
	StepAwaitFirstName: "await_first_name",
	StepAwaitLastName:  "await_last_name",
	StepAwaitPromoCode: "await_promo_code",
	StepAwaitBirthDate: "await_birth_date",
	StepSubmitting:     "submitting",
	StepPolling:        "polling",
	StepDone:           "done",
	StepCancelled:      "cancelled",
	StepFailed:         "failed",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// IsTerminal reports whether the dialog accepts no more input.
func (s Step) IsTerminal() bool {
	return s == StepDone || s == StepCancelled || s == StepFailed
}

// InputKind tells text answers apart from the skip button and commands.
type InputKind int

const (
	InputText InputKind = iota
	InputSkip
	InputCommand
)

// Input is one operator event delivered to a dialog.
type Input struct {
	Kind InputKind
	Text string
}

func TextInput(text string) Input {
	return Input{Kind: InputText, Text: text}
}

func SkipInput() Input {
	return Input{Kind: InputSkip}
}

func CommandInput(text string) Input {
	return Input{Kind: InputCommand, Text: text}
}

// OutcomeKind is the result of a dialog as seen by its owner.
type OutcomeKind int

const (
	OutcomePending OutcomeKind = iota
	OutcomeCancelled
	OutcomeRegistered
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeRegistered:
		return "registered"
	default:
		return fmt.Sprintf("outcome(%d)", int(k))
	}
}

// Outcome is queried once the dialog is terminal. Record is nil for a registration whose
// card did not show up while polling. Err explains a cancellation that was not requested
// by the operator (exhausted attempts, expiry, interrupted context).
type Outcome struct {
	Kind   OutcomeKind
	Record *customer.Record
	Err    error
}

type dialogPolicy struct {
	pollAttempts int
	pollDelay    time.Duration
}

// Dialog is one registration run for one phone number. Deliver advances it by exactly one
// operator event. Calls are serialized by the dialog itself.
type Dialog struct {
	mu sync.Mutex

	id     uuid.UUID
	chatID int64
	phone  customer.Phone

	draft        *customer.Draft
	step         Step
	resubmitting bool
	failures     int
	outcome      Outcome
	lastActivity time.Time

	notifier  domainTelegram.Notifier
	submitter *RegistrationSubmitter
	retrier   *LookupRetrier
	policy    dialogPolicy
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *logrus.Entry
}

func (d *Dialog) ID() uuid.UUID {
	return d.id
}

func (d *Dialog) ChatID() int64 {
	return d.chatID
}

func (d *Dialog) Phone() customer.Phone {
	return d.phone
}

func (d *Dialog) Step() Step {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.step
}

// Draft returns a copy of the fields collected so far. It reports false once the dialog is
// terminal and the draft has been discarded.
func (d *Dialog) Draft() (customer.Draft, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.draft == nil {
		return customer.Draft{}, false
	}
	return *d.draft, true
}

func (d *Dialog) Outcome() Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.outcome
}

// start asks the first question. It is called once, before the dialog is published.
func (d *Dialog) start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastActivity = d.now()
	d.logger.Info("Registration dialog started")
	return d.notifier.Prompt(ctx, msgAskFirstName)
}

// Deliver feeds one operator event into the dialog and returns the resulting step.
func (d *Dialog) Deliver(ctx context.Context, in Input) (Step, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.step.IsTerminal() {
		return d.step, ErrDialogFinished
	}
	d.lastActivity = d.now()

	if in.Kind == InputCommand {
		d.logger.WithField("command", in.Text).Info("Registration cancelled by command")
		d.say(ctx, d.notifier.Notify, msgRegistrationCanceled)
		d.showMenu(ctx)
		d.finish(StepCancelled, Outcome{Kind: OutcomeCancelled})
		d.metrics.IncRegistration(metrics.OutcomeCancelled)
		return d.step, nil
	}

	switch d.step {
	case StepAwaitFirstName:
		d.draft.FirstName = optionalValue(in)
		d.advance(ctx, StepAwaitLastName, msgAskLastName)

	case StepAwaitLastName:
		d.draft.LastName = optionalValue(in)
		d.advance(ctx, StepAwaitPromoCode, msgAskPromoCode)

	case StepAwaitPromoCode:
		d.draft.PromoCode = optionalValue(in)
		if d.resubmitting {
			if d.draft.PromoCode == "" {
				d.say(ctx, d.notifier.Notify, msgRetryWithoutPromo)
			} else {
				d.say(ctx, d.notifier.Notify, fmt.Sprintf(msgRetryWithPromo, d.draft.PromoCode))
			}
			return d.submit(ctx)
		}
		if in.Kind == InputSkip {
			d.say(ctx, d.notifier.Notify, msgNoPromoCode)
		}
		d.advance(ctx, StepAwaitBirthDate, msgAskBirthDate)

	case StepAwaitBirthDate:
		if in.Kind == InputSkip {
			d.draft.BirthDate = customer.MinimumBirthDate(d.now())
			d.say(ctx, d.notifier.Notify, msgBirthDateDefaulted)
			return d.submit(ctx)
		}
		birthDate, err := customer.ParseBirthDate(in.Text, d.now())
		if err != nil {
			d.logger.WithError(err).Debug("Birth date rejected")
			d.say(ctx, d.notifier.Prompt, err.Error()+"\n"+msgBirthDateRetry)
			return d.step, nil
		}
		d.draft.BirthDate = birthDate
		d.say(ctx, d.notifier.Notify, fmt.Sprintf(msgBirthDateSet, birthDate.OperatorString()))
		return d.submit(ctx)

	default:
		return d.step, fmt.Errorf("dialog %s cannot take input in step %s", d.id, d.step)
	}

	return d.step, nil
}

// expireIfIdle cancels the dialog when it has waited for input since before cutoff.
// A dialog busy in another call is left alone.
func (d *Dialog) expireIfIdle(ctx context.Context, cutoff time.Time) bool {
	if !d.mu.TryLock() {
		return false
	}
	defer d.mu.Unlock()

	if d.step.IsTerminal() || !d.lastActivity.Before(cutoff) {
		return false
	}

	d.logger.WithField("idle_since", d.lastActivity).Info("Registration dialog expired")
	d.say(ctx, d.notifier.Notify, msgDialogExpired)
	d.showMenu(ctx)
	d.finish(StepCancelled, Outcome{Kind: OutcomeCancelled, Err: ErrDialogExpired})
	d.metrics.IncRegistration(metrics.OutcomeExpired)
	return true
}

// abandon finishes the dialog silently when a new one replaces it.
func (d *Dialog) abandon() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.step.IsTerminal() {
		return
	}
	d.logger.Info("Registration dialog replaced")
	d.finish(StepCancelled, Outcome{Kind: OutcomeCancelled})
	d.metrics.IncRegistration(metrics.OutcomeCancelled)
}

func (d *Dialog) submit(ctx context.Context) (Step, error) {
	d.step = StepSubmitting
	d.resubmitting = false

	verdict, _, err := d.submitter.Submit(ctx, d.notifier, d.draft, &d.failures)
	if err != nil {
		d.logger.WithError(err).Error("Registration submission interrupted")
		d.say(context.WithoutCancel(ctx), d.notifier.Notify, fmt.Sprintf(msgRegistrationFailed, err.Error()))
		d.finish(StepFailed, Outcome{Kind: OutcomeCancelled, Err: err})
		d.metrics.IncRegistration(metrics.OutcomeFailed)
		return d.step, err
	}

	switch verdict {
	case VerdictNeedPromoCode:
		d.step = StepAwaitPromoCode
		d.resubmitting = true
		return d.step, nil
	case VerdictExhausted:
		d.showMenu(ctx)
		d.finish(StepCancelled, Outcome{Kind: OutcomeCancelled, Err: customer.ErrAttemptsExhausted})
		d.metrics.IncRegistration(metrics.OutcomeExhausted)
		return d.step, nil
	}

	d.say(ctx, d.notifier.Notify, msgRegistered)
	d.step = StepPolling

	record, found := d.retrier.Find(ctx, d.draft.Phone, d.policy.pollAttempts, d.policy.pollDelay)
	if found {
		if err := d.notifier.ShowCustomer(ctx, *record); err != nil {
			d.logger.WithError(err).Error("Failed to show registered customer")
		}
	} else {
		d.say(ctx, d.notifier.Notify, msgCardNotYetAvailable)
		d.metrics.IncCardNotAvailable()
	}
	d.showMenu(ctx)

	d.finish(StepDone, Outcome{Kind: OutcomeRegistered, Record: record})
	d.metrics.IncRegistration(metrics.OutcomeRegistered)
	return d.step, nil
}

func (d *Dialog) advance(ctx context.Context, next Step, question string) {
	d.step = next
	d.say(ctx, d.notifier.Prompt, question)
}

func (d *Dialog) finish(step Step, outcome Outcome) {
	d.step = step
	d.outcome = outcome
	d.draft = nil
	d.logger.WithFields(logrus.Fields{
		"step":    step.String(),
		"outcome": outcome.Kind.String(),
	}).Info("Registration dialog finished")
}

func (d *Dialog) showMenu(ctx context.Context) {
	if err := d.notifier.ShowMainMenu(ctx); err != nil {
		d.logger.WithError(err).Error("Failed to show main menu")
	}
}

func (d *Dialog) say(ctx context.Context, send func(context.Context, string) error, text string) {
	if err := send(ctx, text); err != nil {
		d.logger.WithError(err).Error("Failed to message operator")
	}
}

func optionalValue(in Input) string {
	if in.Kind == InputSkip {
		return ""
	}
	return in.Text
}

// IsDialogFinished reports whether err says the dialog no longer accepts input.
func IsDialogFinished(err error) bool {
	return errors.Is(err, ErrDialogFinished)
}
