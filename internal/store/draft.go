package store

import (
	"encoding/json"
	"sync"

	"eclub/internal/domain"
	"eclub/internal/payment"
)

// PaymentDraft remembers the non-sensitive part of the checkout card form.
// The card number is reduced to brand and last four digits; the CVV is dropped.
type PaymentDraft struct {
	mu    sync.Mutex
	draft *domain.PaymentDraft
	hub   hub[*domain.PaymentDraft]
}

func NewPaymentDraft() *PaymentDraft { return &PaymentDraft{} }

func (p *PaymentDraft) Subscribe(fn func(d *domain.PaymentDraft)) func() {
	return p.hub.subscribe(fn)
}

func (p *PaymentDraft) Save(cd domain.CardDetails) domain.PaymentDraft {
	d := payment.Draft(cd)
	p.mu.Lock()
	p.draft = &d
	p.mu.Unlock()
	snap := d
	p.hub.notify(&snap)
	return d
}

func (p *PaymentDraft) Get() (domain.PaymentDraft, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.draft == nil {
		return domain.PaymentDraft{}, false
	}
	return *p.draft, true
}

func (p *PaymentDraft) Clear() {
	p.mu.Lock()
	if p.draft == nil {
		p.mu.Unlock()
		return
	}
	p.draft = nil
	p.mu.Unlock()
	p.hub.notify(nil)
}

func (p *PaymentDraft) namespace() string { return NSPaymentDraft }

func (p *PaymentDraft) encode() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return json.Marshal(p.draft)
}

func (p *PaymentDraft) restore(b []byte) error {
	var d *domain.PaymentDraft
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	p.mu.Lock()
	p.draft = d
	p.mu.Unlock()
	return nil
}

func (p *PaymentDraft) onChange(fn func()) func() {
	return p.Subscribe(func(*domain.PaymentDraft) { fn() })
}
