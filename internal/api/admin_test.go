package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/avelkins10/kin-communications-platform-sub002/internal/storage"
	"github.com/avelkins10/kin-communications-platform-sub002/internal/types"
)

func TestPutRule(t *testing.T) {
	handler := NewAdminHandler(storage.NewNoopStore(), &fakeBus{}, zerolog.Nop())

	body := `{"ruleId":"rule-vip","name":"VIP callers","priority":100,"enabled":true}`
	req := httptest.NewRequest(http.MethodPut, "/internal/rules", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.PutRule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rule-vip") {
		t.Errorf("expected saved rule in response, got %s", rec.Body.String())
	}
}

func TestPutRuleRequiresID(t *testing.T) {
	handler := NewAdminHandler(storage.NewNoopStore(), &fakeBus{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPut, "/internal/rules", strings.NewReader(`{"name":"no id"}`))
	rec := httptest.NewRecorder()

	handler.PutRule(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestPutWorkerAnnouncesStatus(t *testing.T) {
	bus := &fakeBus{}
	handler := NewAdminHandler(storage.NewNoopStore(), bus, zerolog.Nop())

	body := `{"workerId":"w1","name":"Ada","department":"support","skills":["billing"],"available":true}`
	req := httptest.NewRequest(http.MethodPut, "/internal/workers", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.PutWorker(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	names := bus.names()
	if len(names) != 1 || names[0] != types.EventWorkerStatusChanged {
		t.Errorf("expected worker_status_changed broadcast, got %v", names)
	}
}

func TestPutWorkerBadBody(t *testing.T) {
	handler := NewAdminHandler(storage.NewNoopStore(), &fakeBus{}, zerolog.Nop())

	req := httptest.NewRequest(http.MethodPut, "/internal/workers", strings.NewReader("{"))
	rec := httptest.NewRecorder()

	handler.PutWorker(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
