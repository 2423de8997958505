package sync

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lavpop-sync/internal/features/customer"
	"lavpop-sync/internal/features/whatchimp"
	"lavpop-sync/pkg/utils"

	"go.uber.org/zap"
)

// CRMClient is the slice of the WhatChimp client the pipeline depends on.
type CRMClient interface {
	GetSubscriber(ctx context.Context, phone string) (*whatchimp.Subscriber, error)
	CreateSubscriber(ctx context.Context, phone, name string) error
	AssignLabels(ctx context.Context, phone string, labelIDs []int) error
	RemoveLabels(ctx context.Context, phone string, labelIDs []int) error
	SetCustomField(ctx context.Context, phone, key, value string) error
}

const (
	// Delay between two sequential calls for the same customer, and between
	// batches. The provider silently drops requests when hammered; these are
	// reliability pauses, not correctness requirements.
	defaultCallDelay  = 100 * time.Millisecond
	defaultBatchDelay = 50 * time.Millisecond

	walletField = "saldo_carteira"
)

// Pipeline drives deduplicated, filtered customers through the CRM at a
// fixed concurrency.
type Pipeline struct {
	crm         CRMClient
	concurrency int
	callDelay   time.Duration
	batchDelay  time.Duration
	log         *zap.Logger
}

func NewPipeline(crm CRMClient, concurrency int, log *zap.Logger) *Pipeline {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		crm:         crm,
		concurrency: concurrency,
		callDelay:   defaultCallDelay,
		batchDelay:  defaultBatchDelay,
		log:         log,
	}
}

// Run processes customers in batches of the configured concurrency. Within a
// batch every customer syncs concurrently; batches themselves are strictly
// sequential. A failure or panic in one customer's flow never aborts the
// batch or the run. onProgress, when non-nil, is invoked after each batch
// with the number of customers processed so far.
func (p *Pipeline) Run(ctx context.Context, customers []customer.Customer, onProgress func(processed, total int)) []CustomerResult {
	results := make([]CustomerResult, len(customers))
	total := len(customers)

	for start := 0; start < total; start += p.concurrency {
		end := start + p.concurrency
		if end > total {
			end = total
		}

		done := make(chan struct{})
		for i := start; i < end; i++ {
			go func(idx int) {
				defer func() {
					if r := recover(); r != nil {
						results[idx] = CustomerResult{
							Doc:    customers[idx].Doc,
							Phone:  utils.NormalizePhone(customers[idx].Telefone),
							Status: StatusFailed,
							Error:  fmt.Sprintf("panic: %v", r),
						}
					}
					done <- struct{}{}
				}()
				results[idx] = p.syncOne(ctx, customers[idx])
			}(i)
		}
		for i := start; i < end; i++ {
			<-done
		}

		if onProgress != nil {
			onProgress(end, total)
		}

		if end < total {
			sleep(ctx, p.batchDelay)
		}
	}

	return results
}

// syncOne runs the per-customer state machine: look the subscriber up, then
// take the existing- or new-subscriber branch. Any failed step aborts this
// customer with a reason naming the call that failed.
func (p *Pipeline) syncOne(ctx context.Context, c customer.Customer) CustomerResult {
	phone := utils.NormalizePhone(c.Telefone)
	labels := whatchimp.ResolveLabels(c.Segment, c.RiskLevel)

	result := CustomerResult{Doc: c.Doc, Phone: phone, Labels: labels}

	sub, err := p.crm.GetSubscriber(ctx, phone)
	if err != nil {
		return fail(result, "get_subscriber", err)
	}

	if sub != nil {
		return p.syncExisting(ctx, result, c, labels)
	}
	return p.syncNew(ctx, result, c, labels)
}

func (p *Pipeline) syncExisting(ctx context.Context, result CustomerResult, c customer.Customer, labels []int) CustomerResult {
	// The provider has no atomic label replace. Remove the full managed set
	// first, otherwise labels pile up as the customer moves between
	// segments; partial removal would leave the subscriber inconsistent, so
	// a removal failure aborts before any assignment.
	sleep(ctx, p.callDelay)
	if err := p.crm.RemoveLabels(ctx, result.Phone, whatchimp.ManagedLabelIDs()); err != nil {
		return fail(result, "remove_labels", err)
	}

	if len(labels) > 0 {
		sleep(ctx, p.callDelay)
		if err := p.crm.AssignLabels(ctx, result.Phone, labels); err != nil {
			return fail(result, "assign_labels", err)
		}
	}

	// Wallet balance is pushed even for label-less customers.
	sleep(ctx, p.callDelay)
	if err := p.crm.SetCustomField(ctx, result.Phone, walletField, formatWallet(c.SaldoCarteira)); err != nil {
		return fail(result, "set_custom_field", err)
	}

	result.Status = StatusUpdated
	return result
}

func (p *Pipeline) syncNew(ctx context.Context, result CustomerResult, c customer.Customer, labels []int) CustomerResult {
	sleep(ctx, p.callDelay)
	if err := p.crm.CreateSubscriber(ctx, result.Phone, c.Nome); err != nil {
		// The earlier lookup can miss a subscriber created moments ago.
		// A duplicate-create rejection means the record is there; continue.
		if !errors.Is(err, whatchimp.ErrAlreadyExists) {
			return fail(result, "create_subscriber", err)
		}
		p.log.Debug("Subscriber already existed on create", zap.String("phone", result.Phone))
	}

	if len(labels) > 0 {
		sleep(ctx, p.callDelay)
		if err := p.crm.AssignLabels(ctx, result.Phone, labels); err != nil {
			return fail(result, "assign_labels", err)
		}
	}

	sleep(ctx, p.callDelay)
	if err := p.crm.SetCustomField(ctx, result.Phone, walletField, formatWallet(c.SaldoCarteira)); err != nil {
		return fail(result, "set_custom_field", err)
	}

	result.Status = StatusCreated
	return result
}

func fail(result CustomerResult, op string, err error) CustomerResult {
	result.Status = StatusFailed
	result.Error = fmt.Sprintf("%s: %v", op, err)
	return result
}

func formatWallet(balance float64) string {
	return strconv.FormatFloat(balance, 'f', 2, 64)
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Tally folds per-customer results into the run summary.
func Tally(results []CustomerResult, duplicates []Duplicate) Summary {
	summary := Summary{
		Total:              len(results),
		DuplicatesResolved: len(duplicates),
	}
	for _, r := range results {
		switch r.Status {
		case StatusCreated:
			summary.Created++
		case StatusUpdated:
			summary.Updated++
		case StatusFailed:
			summary.Failed++
		}
	}
	return summary
}
