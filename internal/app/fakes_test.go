package app

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"crm_onboarding_bot/internal/domain/customer"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type lookupResult struct {
	records []customer.Record
	err     error
}

type registerResult struct {
	ack *customer.RegistrationAck
	err error
}

// fakeGateway replays scripted CRM answers. Once a script runs out its last entry repeats.
type fakeGateway struct {
	mu        sync.Mutex
	lookups   []lookupResult
	registers []registerResult

	lookupCalls int
	drafts      []customer.Draft
}

func (g *fakeGateway) Lookup(ctx context.Context, phone customer.Phone) ([]customer.Record, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.lookupCalls++
	if len(g.lookups) == 0 {
		return nil, nil
	}
	r := g.lookups[0]
	if len(g.lookups) > 1 {
		g.lookups = g.lookups[1:]
	}
	return r.records, r.err
}

func (g *fakeGateway) Register(ctx context.Context, draft customer.Draft) (*customer.RegistrationAck, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.drafts = append(g.drafts, draft)
	if err := ctx.Err(); err != nil {
		return nil, &customer.CrmError{Kind: customer.KindNetwork, Err: err}
	}
	if len(g.registers) == 0 {
		return &customer.RegistrationAck{Status: "success"}, nil
	}
	r := g.registers[0]
	if len(g.registers) > 1 {
		g.registers = g.registers[1:]
	}
	return r.ack, r.err
}

func (g *fakeGateway) LookupCalls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lookupCalls
}

func (g *fakeGateway) Drafts() []customer.Draft {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]customer.Draft(nil), g.drafts...)
}

func miss() lookupResult {
	return lookupResult{}
}

func hit(card string) lookupResult {
	return lookupResult{records: []customer.Record{{CardNumber: card, Name: "Иван Петров", Balance: "100"}}}
}

func transportFailure() registerResult {
	return registerResult{err: &customer.CrmError{Kind: customer.KindNetwork, Message: "Ошибка соединения с CRM"}}
}

func promoRejected() registerResult {
	return registerResult{err: &customer.CrmError{Kind: customer.KindPromoCode, Message: "Промокод не найден"}}
}

func accepted() registerResult {
	return registerResult{ack: &customer.RegistrationAck{Status: "success"}}
}

type notice struct {
	kind string // prompt, notify, customer or menu
	text string
}

// recordingNotifier is safe for concurrent use: the submitting notice is sent from a goroutine.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
}

func (n *recordingNotifier) add(kind, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{kind: kind, text: text})
	return nil
}

func (n *recordingNotifier) Prompt(_ context.Context, text string) error {
	return n.add("prompt", text)
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	return n.add("notify", text)
}

func (n *recordingNotifier) ShowCustomer(_ context.Context, record customer.Record) error {
	return n.add("customer", record.CardNumber)
}

func (n *recordingNotifier) ShowMainMenu(context.Context) error {
	return n.add("menu", "")
}

func (n *recordingNotifier) Notices() []notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notice(nil), n.notices...)
}

func (n *recordingNotifier) Count(kind string) int {
	count := 0
	for _, e := range n.Notices() {
		if e.kind == kind {
			count++
		}
	}
	return count
}

// Said reports whether any notice contains text.
func (n *recordingNotifier) Said(text string) bool {
	for _, e := range n.Notices() {
		if strings.Contains(e.text, text) {
			return true
		}
	}
	return false
}

func (n *recordingNotifier) Last() notice {
	all := n.Notices()
	if len(all) == 0 {
		return notice{}
	}
	return all[len(all)-1]
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordedWaits struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (w *recordedWaits) Wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.delays = append(w.delays, d)
	w.mu.Unlock()
	return ctx.Err()
}

func (w *recordedWaits) Delays() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.delays...)
}
