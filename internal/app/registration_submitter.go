package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crm_onboarding_bot/internal/domain/customer"
	domainTelegram "crm_onboarding_bot/internal/domain/telegram"
	"crm_onboarding_bot/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// DefaultMaxSubmitAttempts bounds the counted registration failures of one dialog.
const DefaultMaxSubmitAttempts = 3

// SubmitVerdict is what the dialog has to do after a submission round.
type SubmitVerdict int

const (
	// VerdictRegistered means the CRM accepted the customer.
	VerdictRegistered SubmitVerdict = iota
	// VerdictNeedPromoCode means the operator was asked for a replacement promo code.
	VerdictNeedPromoCode
	// VerdictExhausted means the counted failures reached the limit.
	VerdictExhausted
)

func (v SubmitVerdict) String() string {
	switch v {
	case VerdictRegistered:
		return "registered"
	case VerdictNeedPromoCode:
		return "need_promo_code"
	case VerdictExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// RegistrationSubmitter sends a completed draft to the CRM and classifies failures.
//
// Failures caused only by the promo code are not counted against maxAttempts: the operator is
// asked for another code and the draft materially changes before the next call. Every other
// failure is counted, including validation failures that also mention the promo code.
type RegistrationSubmitter struct {
	gateway     customer.Gateway
	maxAttempts int
	metrics     *metrics.Metrics
	logger      *logrus.Entry
}

func NewRegistrationSubmitter(gateway customer.Gateway, maxAttempts int, m *metrics.Metrics, logger *logrus.Entry) *RegistrationSubmitter {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxSubmitAttempts
	}
	return &RegistrationSubmitter{
		gateway:     gateway,
		maxAttempts: maxAttempts,
		metrics:     m,
		logger:      logger.WithField("component", "registration_submitter"),
	}
}

// Submit registers draft, retrying counted failures until maxAttempts is reached.
// failures carries the counted failures of the dialog across promo-code rounds.
// A non-nil error is returned only when ctx ends while talking to the CRM.
func (s *RegistrationSubmitter) Submit(ctx context.Context, n domainTelegram.Notifier, draft *customer.Draft, failures *int) (SubmitVerdict, *customer.RegistrationAck, error) {
	logCtx := s.logger.WithField("phone", draft.Phone.String())

	for *failures < s.maxAttempts {
		logCtx.WithFields(logrus.Fields{
			"attempt":    *failures + 1,
			"first_name": draft.FirstName,
			"last_name":  draft.LastName,
			"birth_date": draft.BirthDate.String(),
			"promo_code": draft.PromoCode,
		}).Info("Submitting registration")

		ack, err := s.register(ctx, n, *draft)
		if err == nil {
			logCtx.WithField("status", ack.Status).Info("Registration accepted by CRM")
			return VerdictRegistered, ack, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			logCtx.WithError(err).Warn("Registration interrupted")
			return VerdictExhausted, nil, ctxErr
		}

		var crmErr *customer.CrmError
		if !errors.As(err, &crmErr) {
			crmErr = &customer.CrmError{Kind: customer.KindUnknown, Message: err.Error(), Err: err}
		}
		s.metrics.IncSubmitFailure(string(crmErr.Kind))
		logCtx.WithError(err).WithField("kind", crmErr.Kind).Warn("Registration rejected")

		switch crmErr.Kind {
		case customer.KindPromoCode:
			s.say(ctx, n.Prompt, msgPromoCodeNotFound)
			return VerdictNeedPromoCode, nil, nil

		case customer.KindValidation:
			s.say(ctx, n.Notify, fmt.Sprintf(msgValidationFailed, crmErr.Error()))
			if crmErr.OnlyPromoCode() {
				s.say(ctx, n.Prompt, msgAskAnotherPromoCode)
				return VerdictNeedPromoCode, nil, nil
			}
			if lines := crmErr.DetailLines(); len(lines) > 0 {
				s.say(ctx, n.Notify, msgValidationDetails+strings.Join(lines, "\n"))
			}
			*failures++
			if *failures >= s.maxAttempts {
				break
			}
			if crmErr.HasField(customer.FieldPromoCode) {
				s.say(ctx, n.Prompt, msgAskAnotherPromoCode)
				return VerdictNeedPromoCode, nil, nil
			}

		default:
			reason := crmErr.Message
			if reason == "" {
				reason = msgUnknownCrmFailure
			}
			s.say(ctx, n.Notify, fmt.Sprintf(msgRegistrationFailed, reason))
			*failures++
		}

		if *failures < s.maxAttempts {
			s.say(ctx, n.Notify, msgRetrying)
		}
	}

	logCtx.WithField("failures", *failures).Warn("Registration attempts exhausted")
	s.say(ctx, n.Notify, msgAttemptsExhausted)
	return VerdictExhausted, nil, nil
}

// register calls the CRM while the operator is told, without waiting for delivery, that the
// data is being sent. The notification result never affects the call.
func (s *RegistrationSubmitter) register(ctx context.Context, n domainTelegram.Notifier, draft customer.Draft) (*customer.RegistrationAck, error) {
	notified := make(chan struct{})
	go func() {
		defer close(notified)
		if err := n.Notify(ctx, msgSubmitting); err != nil {
			s.logger.WithError(err).Debug("Submitting notice not delivered")
		}
	}()

	ack, err := s.gateway.Register(ctx, draft)
	<-notified
	if err == nil && ack == nil {
		ack = &customer.RegistrationAck{}
	}
	return ack, err
}

func (s *RegistrationSubmitter) say(ctx context.Context, send func(context.Context, string) error, text string) {
	if err := send(ctx, text); err != nil {
		s.logger.WithError(err).Error("Failed to message operator")
	}
}
