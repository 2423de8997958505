package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"lavpop-sync/internal/features/customer"
	"lavpop-sync/internal/features/settings"
	"lavpop-sync/internal/features/whatchimp"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// stubSyncService returns canned data so handler tests can pin response
// shapes without any backing store.
type stubSyncService struct {
	report      *RunReport
	customer    *customer.Customer
	result      *CustomerResult
	subscribers []whatchimp.Subscriber
}

func (s *stubSyncService) SyncAll(ctx context.Context) (*RunReport, error) {
	return s.report, nil
}

func (s *stubSyncService) SyncCustomer(ctx context.Context, doc, phone string) (*customer.Customer, *CustomerResult, error) {
	if s.customer == nil {
		return nil, nil, ErrCustomerNotFound
	}
	return s.customer, s.result, nil
}

func (s *stubSyncService) RunBackground(trigger string) {}

func (s *stubSyncService) ListSubscribers(ctx context.Context, page, limit int) ([]whatchimp.Subscriber, error) {
	return s.subscribers, nil
}

func (s *stubSyncService) LastStatus(ctx context.Context) (*settings.LastSyncStatus, error) {
	return nil, nil
}

func (s *stubSyncService) ListLogs(ctx context.Context, limit int64) ([]SyncLog, error) {
	return nil, nil
}

func newTestApp(service SyncService) *fiber.App {
	app := fiber.New()
	ctrl := NewSyncController(service, zap.NewNop())
	app.Post("/api/whatchimp", ctrl.HandleAction)
	return app
}

func postAction(t *testing.T, app *fiber.App, body string) (int, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/whatchimp", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestHandleActionGetLabelsShape(t *testing.T) {
	app := newTestApp(&stubSyncService{})

	status, body := postAction(t, app, `{"action":"get_labels"}`)

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	for _, key := range []string{"success", "labels", "mapping"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q key: %v", key, body)
		}
	}
	mapping, ok := body["mapping"].(map[string]interface{})
	if !ok {
		t.Fatalf("mapping is not an object: %v", body["mapping"])
	}
	if _, ok := mapping["segments"]; !ok {
		t.Errorf("mapping missing segments table: %v", mapping)
	}
}

func TestHandleActionListSubscribersShape(t *testing.T) {
	app := newTestApp(&stubSyncService{
		subscribers: []whatchimp.Subscriber{
			{ID: "1", Phone: "5554999990000"},
			{ID: "2", Phone: "5554988880000"},
		},
	})

	status, body := postAction(t, app, `{"action":"list_subscribers","page":2,"limit":5}`)

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	if body["page"] != float64(2) {
		t.Errorf("page = %v, want 2", body["page"])
	}
	if body["count"] != float64(2) {
		t.Errorf("count = %v, want 2", body["count"])
	}
	if _, ok := body["subscribers"]; !ok {
		t.Errorf("response missing subscribers key: %v", body)
	}
}

func TestHandleActionSyncCustomerShape(t *testing.T) {
	app := newTestApp(&stubSyncService{
		customer: &customer.Customer{Doc: "111", Telefone: "5554999990000"},
		result:   &CustomerResult{Doc: "111", Phone: "5554999990000", Status: StatusUpdated},
	})

	status, body := postAction(t, app, `{"action":"sync_customer","doc":"111"}`)

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	for _, key := range []string{"success", "customer", "whatchimp"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response missing %q key: %v", key, body)
		}
	}
	if body["success"] != true {
		t.Errorf("success = %v, want true", body["success"])
	}
}

func TestHandleActionSyncCustomerNotFound(t *testing.T) {
	app := newTestApp(&stubSyncService{})

	status, body := postAction(t, app, `{"action":"sync_customer","doc":"999"}`)

	if status != fiber.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if _, ok := body["error"]; !ok {
		t.Errorf("error response missing error key: %v", body)
	}
}

func TestHandleActionSyncCustomerRequiresDocOrPhone(t *testing.T) {
	app := newTestApp(&stubSyncService{})

	status, _ := postAction(t, app, `{"action":"sync_customer"}`)

	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestHandleActionUnknown(t *testing.T) {
	app := newTestApp(&stubSyncService{})

	status, body := postAction(t, app, `{"action":"bogus"}`)

	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if _, ok := body["error"]; !ok {
		t.Errorf("error response missing error key: %v", body)
	}
}

func TestHandleActionSyncAllCapsErrors(t *testing.T) {
	results := make([]CustomerResult, 12)
	for i := range results {
		results[i] = CustomerResult{
			Phone:  fmt.Sprintf("55549000000%02d", i),
			Status: StatusFailed,
			Error:  "get_subscriber: boom",
		}
	}
	report := &RunReport{
		Summary: Tally(results, nil),
		Results: results,
	}
	app := newTestApp(&stubSyncService{report: report})

	status, body := postAction(t, app, `{"action":"sync_all"}`)

	if status != fiber.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	errs, ok := body["errors"].([]interface{})
	if !ok {
		t.Fatalf("errors is not a list: %v", body["errors"])
	}
	if len(errs) != 10 {
		t.Errorf("reported errors = %d, want 10", len(errs))
	}
	if body["errors_omitted"] != float64(2) {
		t.Errorf("errors_omitted = %v, want 2", body["errors_omitted"])
	}
}
