package sync

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"lavpop-sync/internal/features/customer"
	"lavpop-sync/internal/features/whatchimp"

	"go.uber.org/zap"
)

// fakeCRM records calls per phone and fails whichever operations the test
// configures.
type fakeCRM struct {
	mu       sync.Mutex
	calls    map[string][]string // phone -> ordered operation names
	existing map[string]bool     // phones GetSubscriber reports as present
	failOps  map[string]error    // operation name -> error to return

	inFlight    int32
	maxInFlight int32
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		calls:    make(map[string][]string),
		existing: make(map[string]bool),
		failOps:  make(map[string]error),
	}
}

func (f *fakeCRM) record(phone, op string) error {
	cur := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, cur) {
			break
		}
	}

	f.mu.Lock()
	f.calls[phone] = append(f.calls[phone], op)
	err := f.failOps[op]
	f.mu.Unlock()
	return err
}

func (f *fakeCRM) GetSubscriber(ctx context.Context, phone string) (*whatchimp.Subscriber, error) {
	if err := f.record(phone, "get"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existing[phone] {
		return &whatchimp.Subscriber{ID: "sub-" + phone, Phone: phone}, nil
	}
	return nil, nil
}

func (f *fakeCRM) CreateSubscriber(ctx context.Context, phone, name string) error {
	return f.record(phone, "create")
}

func (f *fakeCRM) AssignLabels(ctx context.Context, phone string, labelIDs []int) error {
	return f.record(phone, "assign")
}

func (f *fakeCRM) RemoveLabels(ctx context.Context, phone string, labelIDs []int) error {
	return f.record(phone, "remove")
}

func (f *fakeCRM) SetCustomField(ctx context.Context, phone, key, value string) error {
	return f.record(phone, "field:"+key)
}

func (f *fakeCRM) callsFor(phone string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls[phone]...)
}

func testPipeline(crm CRMClient, concurrency int) *Pipeline {
	p := NewPipeline(crm, concurrency, zap.NewNop())
	p.callDelay = 0
	p.batchDelay = 0
	return p
}

func TestPipelineCreatesNewSubscriber(t *testing.T) {
	crm := newFakeCRM()
	p := testPipeline(crm, 1)

	results := p.Run(context.Background(), []customer.Customer{
		{Doc: "111", Nome: "Ana", Telefone: "5554999990000", Segment: "VIP", RiskLevel: "Baixo", SaldoCarteira: 12.5},
	}, nil)

	if results[0].Status != StatusCreated {
		t.Fatalf("expected created, got %s (%s)", results[0].Status, results[0].Error)
	}
	want := []string{"get", "create", "assign", "field:saldo_carteira"}
	got := crm.callsFor("5554999990000")
	if len(got) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestPipelineRemovesLabelsBeforeAssignForExisting(t *testing.T) {
	crm := newFakeCRM()
	crm.existing["5554999990000"] = true
	p := testPipeline(crm, 1)

	results := p.Run(context.Background(), []customer.Customer{
		{Doc: "111", Telefone: "5554999990000", Segment: "Regular", RiskLevel: "Alto"},
	}, nil)

	if results[0].Status != StatusUpdated {
		t.Fatalf("expected updated, got %s (%s)", results[0].Status, results[0].Error)
	}
	got := crm.callsFor("5554999990000")
	want := []string{"get", "remove", "assign", "field:saldo_carteira"}
	if len(got) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestPipelineRemoveFailureAbortsBeforeAssign(t *testing.T) {
	crm := newFakeCRM()
	crm.existing["5554999990000"] = true
	crm.failOps["remove"] = &whatchimp.APIError{Op: "remove-label", Message: "server busy"}
	p := testPipeline(crm, 1)

	results := p.Run(context.Background(), []customer.Customer{
		{Doc: "111", Telefone: "5554999990000", Segment: "VIP", RiskLevel: "Baixo"},
	}, nil)

	if results[0].Status != StatusFailed {
		t.Fatalf("expected failed, got %s", results[0].Status)
	}
	if !strings.Contains(results[0].Error, "remove_labels") {
		t.Errorf("error should name the failed operation, got %q", results[0].Error)
	}
	for _, op := range crm.callsFor("5554999990000") {
		if op == "assign" || strings.HasPrefix(op, "field:") {
			t.Errorf("no further calls expected after removal failure, saw %s", op)
		}
	}
}

func TestPipelineToleratesDuplicateCreate(t *testing.T) {
	crm := newFakeCRM()
	crm.failOps["create"] = whatchimp.ErrAlreadyExists
	p := testPipeline(crm, 1)

	results := p.Run(context.Background(), []customer.Customer{
		{Doc: "111", Telefone: "5554999990000", Segment: "Novato", RiskLevel: "Baixo"},
	}, nil)

	if results[0].Status != StatusCreated {
		t.Fatalf("duplicate create must not fail the customer, got %s (%s)",
			results[0].Status, results[0].Error)
	}
	got := crm.callsFor("5554999990000")
	if got[len(got)-1] != "field:saldo_carteira" {
		t.Errorf("sync should continue through the wallet push, calls: %v", got)
	}
}

func TestPipelineSetsWalletWithoutLabels(t *testing.T) {
	crm := newFakeCRM()
	p := testPipeline(crm, 1)

	// Unknown segment and risk resolve to no labels at all.
	results := p.Run(context.Background(), []customer.Customer{
		{Doc: "111", Telefone: "5554999990000", Segment: "", RiskLevel: "", SaldoCarteira: 3},
	}, nil)

	if results[0].Status != StatusCreated {
		t.Fatalf("expected created, got %s (%s)", results[0].Status, results[0].Error)
	}
	got := crm.callsFor("5554999990000")
	for _, op := range got {
		if op == "assign" {
			t.Errorf("no labels to assign, but assign was called: %v", got)
		}
	}
	if got[len(got)-1] != "field:saldo_carteira" {
		t.Errorf("wallet must be pushed even without labels, calls: %v", got)
	}
}

func TestPipelineConcurrencyCap(t *testing.T) {
	crm := newFakeCRM()
	p := testPipeline(crm, 5)

	customers := make([]customer.Customer, 23)
	for i := range customers {
		customers[i] = customer.Customer{
			Doc:      string(rune('a' + i)),
			Telefone: "55549000000" + string(rune('0'+i%10)) + string(rune('0'+i/10)),
		}
	}

	var progress []int
	p.Run(context.Background(), customers, func(processed, total int) {
		progress = append(progress, processed)
		if total != 23 {
			t.Errorf("expected total 23, got %d", total)
		}
	})

	if max := atomic.LoadInt32(&crm.maxInFlight); max > 5 {
		t.Errorf("observed %d concurrent calls, cap is 5", max)
	}
	want := []int{5, 10, 15, 20, 23}
	if len(progress) != len(want) {
		t.Fatalf("expected progress %v, got %v", want, progress)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress step %d: expected %d, got %d", i, want[i], progress[i])
		}
	}
}

func TestTallyCountsStatuses(t *testing.T) {
	results := []CustomerResult{
		{Status: StatusCreated},
		{Status: StatusCreated},
		{Status: StatusUpdated},
		{Status: StatusFailed},
	}
	duplicates := []Duplicate{{Phone: "111"}}

	summary := Tally(results, duplicates)

	if summary.Total != 4 || summary.Created != 2 || summary.Updated != 1 || summary.Failed != 1 {
		t.Errorf("wrong tally: %+v", summary)
	}
	if summary.DuplicatesResolved != 1 {
		t.Errorf("expected 1 duplicate resolved, got %d", summary.DuplicatesResolved)
	}
}
