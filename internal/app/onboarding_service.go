package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crm_onboarding_bot/internal/domain/customer"
	domainTelegram "crm_onboarding_bot/internal/domain/telegram"
	"crm_onboarding_bot/internal/infra/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OnboardingConfig holds the attempt budgets of the registration flow.
type OnboardingConfig struct {
	MaxSubmitAttempts int
	PollAttempts      int
	PollDelay         time.Duration
}

// OnboardingService decides between showing an existing customer and registering a new one,
// and keeps the in-flight registration dialog of every operator chat.
type OnboardingService struct {
	retrier   *LookupRetrier
	submitter *RegistrationSubmitter
	policy    dialogPolicy
	now       func() time.Time
	metrics   *metrics.Metrics
	logger    *logrus.Entry

	mu      sync.Mutex
	dialogs map[int64]*Dialog
}

func NewOnboardingService(gateway customer.Gateway, cfg OnboardingConfig, m *metrics.Metrics, logger *logrus.Entry) *OnboardingService {
	if cfg.PollAttempts < 1 {
		cfg.PollAttempts = DefaultPollAttempts
	}
	if cfg.PollDelay <= 0 {
		cfg.PollDelay = DefaultPollDelay
	}
	return &OnboardingService{
		retrier:   NewLookupRetrier(gateway, m, logger),
		submitter: NewRegistrationSubmitter(gateway, cfg.MaxSubmitAttempts, m, logger),
		policy:    dialogPolicy{pollAttempts: cfg.PollAttempts, pollDelay: cfg.PollDelay},
		now:       time.Now,
		metrics:   m,
		logger:    logger.WithField("component", "onboarding_service"),
		dialogs:   make(map[int64]*Dialog),
	}
}

// WithClock replaces the time source used for age checks and idle tracking.
func (s *OnboardingService) WithClock(now func() time.Time) *OnboardingService {
	s.now = now
	return s
}

// WithWait replaces the delay used between polling attempts.
func (s *OnboardingService) WithWait(wait WaitFunc) *OnboardingService {
	s.retrier.WithWait(wait)
	return s
}

// HandlePhone normalizes raw, shows the customer card when the CRM knows the number and
// otherwise starts a registration dialog for the chat.
func (s *OnboardingService) HandlePhone(ctx context.Context, chatID int64, raw string, n domainTelegram.Notifier) error {
	logCtx := s.logger.WithField("chat_id", chatID)

	phone, err := customer.NormalizePhone(raw)
	if err != nil {
		logCtx.WithField("input", raw).Debug("Rejected phone input")
		return n.Notify(ctx, err.Error())
	}

	record, found := s.retrier.Find(ctx, phone, SingleLookupAttempts, 0)
	if found {
		logCtx.WithField("card_number", record.CardNumber).Info("Existing customer shown")
		if err := n.ShowCustomer(ctx, *record); err != nil {
			return fmt.Errorf("failed to show customer: %w", err)
		}
		return n.ShowMainMenu(ctx)
	}

	if err := n.Notify(ctx, msgCustomerNotFound); err != nil {
		logCtx.WithError(err).Warn("Failed to announce registration")
	}
	_, err = s.StartRegistration(ctx, chatID, phone, n)
	return err
}

// StartRegistration begins a fresh dialog for phone in chatID. A dialog already running in
// the chat is cancelled and replaced; drafts are never carried over.
func (s *OnboardingService) StartRegistration(ctx context.Context, chatID int64, phone customer.Phone, n domainTelegram.Notifier) (*Dialog, error) {
	id := uuid.New()
	d := &Dialog{
		id:        id,
		chatID:    chatID,
		phone:     phone,
		draft:     &customer.Draft{Phone: phone},
		step:      StepAwaitFirstName,
		notifier:  n,
		submitter: s.submitter,
		retrier:   s.retrier,
		policy:    s.policy,
		now:       s.now,
		metrics:   s.metrics,
		logger: s.logger.WithFields(logrus.Fields{
			"dialog_id": id.String(),
			"chat_id":   chatID,
			"phone":     phone.String(),
		}),
	}

	s.mu.Lock()
	previous := s.dialogs[chatID]
	s.dialogs[chatID] = d
	active := len(s.dialogs)
	s.mu.Unlock()
	s.metrics.SetActiveDialogs(active)

	if previous != nil {
		previous.abandon()
	}

	if err := d.start(ctx); err != nil {
		s.drop(chatID, d)
		return nil, fmt.Errorf("failed to start registration: %w", err)
	}
	return d, nil
}

// Deliver routes operator input to the chat's dialog. handled is false when the chat has
// no dialog in progress. Finished dialogs are forgotten.
func (s *OnboardingService) Deliver(ctx context.Context, chatID int64, in Input) (step Step, handled bool, err error) {
	d := s.Dialog(chatID)
	if d == nil {
		return 0, false, nil
	}

	step, err = d.Deliver(ctx, in)
	if step.IsTerminal() {
		s.drop(chatID, d)
	}
	if IsDialogFinished(err) {
		return step, false, nil
	}
	return step, true, err
}

// Dialog returns the dialog in progress for chatID or nil.
func (s *OnboardingService) Dialog(chatID int64) *Dialog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialogs[chatID]
}

func (s *OnboardingService) HasActiveDialog(chatID int64) bool {
	return s.Dialog(chatID) != nil
}

// ExpireIdle cancels dialogs that have waited for input longer than ttl and returns how many
// were cancelled.
func (s *OnboardingService) ExpireIdle(ctx context.Context, ttl time.Duration) int {
	cutoff := s.now().Add(-ttl)

	s.mu.Lock()
	snapshot := make([]*Dialog, 0, len(s.dialogs))
	for _, d := range s.dialogs {
		snapshot = append(snapshot, d)
	}
	s.mu.Unlock()

	expired := 0
	for _, d := range snapshot {
		if d.expireIfIdle(ctx, cutoff) {
			s.drop(d.ChatID(), d)
			expired++
		}
	}

	if expired > 0 {
		s.logger.WithField("expired", expired).Info("Idle registration dialogs cancelled")
	}
	return expired
}

func (s *OnboardingService) drop(chatID int64, d *Dialog) {
	s.mu.Lock()
	if s.dialogs[chatID] == d {
		delete(s.dialogs, chatID)
	}
	active := len(s.dialogs)
	s.mu.Unlock()
	s.metrics.SetActiveDialogs(active)
}
