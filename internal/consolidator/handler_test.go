package consolidator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
)

func handlerFixture(t *testing.T, capacity int) (*Handler, *Engine, *MockSettingsRepo, *MockArchiveRepo) {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := testEngine(t, capacity, now)
	settingsRepo := &MockSettingsRepo{}
	archiveRepo := &MockArchiveRepo{}

	h := NewHandler(HandlerDeps{
		Engine:       engine,
		SettingsRepo: settingsRepo,
		ArchiveRepo:  archiveRepo,
	}, apt.NewConfig(), apt.NewNoopLogger())

	return h, engine, settingsRepo, archiveRepo
}

func serveFixture(t *testing.T, h *Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestNewHandler(t *testing.T) {
	tests := []struct {
		name   string
		deps   HandlerDeps
		logger apt.Logger
	}{
		{
			name:   "withAllDependencies",
			deps:   HandlerDeps{Engine: testEngine(t, 5, time.Now()), SettingsRepo: &MockSettingsRepo{}, ArchiveRepo: &MockArchiveRepo{}},
			logger: apt.NewNoopLogger(),
		},
		{
			name:   "withNilLogger",
			deps:   HandlerDeps{Engine: testEngine(t, 5, time.Now())},
			logger: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.deps, apt.NewConfig(), tt.logger)
			if h == nil {
				t.Error("NewHandler() returned nil")
			}
		})
	}
}

func TestHandlerRegisterRoutes(t *testing.T) {
	h, _, _, _ := handlerFixture(t, 5)
	r := chi.NewRouter()

	// Should not panic
	h.RegisterRoutes(r)
}

func TestHandlerIngestSnapshot(t *testing.T) {
	h, engine, _, _ := handlerFixture(t, 5)

	payload := []byte(`{
		"event_type": "order.snapshot.captured",
		"source": "scraper",
		"orders": [
			{
				"platform_id": "X1",
				"customer_name": "Maya R",
				"wait_time": 4,
				"items": [{"name": "Pork Dumplings", "quantity": 2}]
			}
		]
	}`)

	w := serveFixture(t, h, http.MethodPost, "/snapshots", payload)

	if w.Code != http.StatusOK {
		t.Fatalf("IngestSnapshot() status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	if !engine.BatchAt(0).HasOrder("x1_maya-r") {
		t.Error("ingested order not assigned to a batch")
	}
}

func TestHandlerIngestSnapshotInvalidPayload(t *testing.T) {
	h, _, _, _ := handlerFixture(t, 5)

	w := serveFixture(t, h, http.MethodPost, "/snapshots", []byte("{not json"))

	if w.Code != http.StatusBadRequest {
		t.Errorf("IngestSnapshot() status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandlerListBatches(t *testing.T) {
	h, engine, _, _ := handlerFixture(t, 5)
	engine.AssignOrders([]*Order{testOrder("a", 10)})

	w := serveFixture(t, h, http.MethodGet, "/batches", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("ListBatches() status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response does not contain data object: %s", w.Body.String())
	}
	batches, ok := data["batches"].([]interface{})
	if !ok {
		t.Fatalf("Response does not contain batches array: %s", w.Body.String())
	}
	if len(batches) != 1 {
		t.Errorf("batches count = %d, want 1", len(batches))
	}
}

func TestHandlerGetBatch(t *testing.T) {
	tests := []struct {
		name           string
		index          string
		expectedStatus int
	}{
		{name: "success", index: "0", expectedStatus: http.StatusOK},
		{name: "notFound", index: "5", expectedStatus: http.StatusNotFound},
		{name: "invalidIndex", index: "abc", expectedStatus: http.StatusBadRequest},
		{name: "negativeIndex", index: "-1", expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, engine, _, _ := handlerFixture(t, 5)
			engine.AssignOrders([]*Order{testOrder("a", 10)})

			w := serveFixture(t, h, http.MethodGet, "/batches/"+tt.index, nil)

			if w.Code != tt.expectedStatus {
				t.Errorf("GetBatch(%s) status = %d, want %d", tt.index, w.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandlerGetBatchProjections(t *testing.T) {
	h, engine, _, _ := handlerFixture(t, 5)
	engine.AssignOrders([]*Order{testOrder("a", 10)})

	for _, target := range []string{
		"/batches/0/by-category",
		"/batches/0/by-size",
		"/batches/0/labels",
		"/batches/stats",
	} {
		w := serveFixture(t, h, http.MethodGet, target, nil)
		if w.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want %d", target, w.Code, http.StatusOK)
		}
	}
}

func TestHandlerCreateBatch(t *testing.T) {
	h, engine, _, _ := handlerFixture(t, 5)

	w := serveFixture(t, h, http.MethodPost, "/batches", nil)

	if w.Code != http.StatusCreated {
		t.Fatalf("CreateBatch() status = %d, want %d", w.Code, http.StatusCreated)
	}
	if engine.BatchCount() != 2 {
		t.Errorf("BatchCount() = %d after create, want 2", engine.BatchCount())
	}
}

func TestHandlerCompleteOrder(t *testing.T) {
	tests := []struct {
		name           string
		orderID        string
		expectedStatus int
	}{
		{name: "success", orderID: "a", expectedStatus: http.StatusOK},
		{name: "notFound", orderID: "missing", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, engine, _, _ := handlerFixture(t, 5)
			engine.AssignOrders([]*Order{testOrder("a", 10)})

			w := serveFixture(t, h, http.MethodPost, "/orders/"+tt.orderID+"/complete", nil)

			if w.Code != tt.expectedStatus {
				t.Errorf("CompleteOrder(%s) status = %d, want %d", tt.orderID, w.Code, tt.expectedStatus)
			}
			if tt.expectedStatus == http.StatusOK && !engine.BatchAt(0).Order("a").Completed {
				t.Error("order not completed after request")
			}
		})
	}
}

func TestHandlerGetSettings(t *testing.T) {
	h, _, _, _ := handlerFixture(t, 7)

	w := serveFixture(t, h, http.MethodGet, "/settings", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("GetSettings() status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &resp)
	data, ok := resp["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("Response does not contain data object: %s", w.Body.String())
	}
	if got := data["max_batch_capacity"]; got != float64(7) {
		t.Errorf("max_batch_capacity = %v, want 7", got)
	}
}

func TestHandlerUpdateSettings(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		expectedStatus int
		wantCapacity   int
	}{
		{
			name:           "updatesCapacity",
			body:           `{"max_batch_capacity": 8}`,
			expectedStatus: http.StatusOK,
			wantCapacity:   8,
		},
		{
			name:           "legacyFieldHonored",
			body:           `{"max_wave_capacity": 6}`,
			expectedStatus: http.StatusOK,
			wantCapacity:   6,
		},
		{
			name:           "zeroFallsBackToDefault",
			body:           `{}`,
			expectedStatus: http.StatusOK,
			wantCapacity:   DefaultCapacity,
		},
		{
			name:           "invalidPayload",
			body:           "{not json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, engine, settingsRepo, _ := handlerFixture(t, 5)

			w := serveFixture(t, h, http.MethodPut, "/settings", []byte(tt.body))

			if w.Code != tt.expectedStatus {
				t.Fatalf("UpdateSettings() status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}
			if got := engine.Capacity(); got != tt.wantCapacity {
				t.Errorf("engine Capacity() = %d, want %d", got, tt.wantCapacity)
			}
			if len(settingsRepo.Saved) != 1 {
				t.Errorf("settings saved %d times, want 1", len(settingsRepo.Saved))
			}
		})
	}
}

func TestHandlerUpdateSettingsPersistFailureIsNonFatal(t *testing.T) {
	h, engine, settingsRepo, _ := handlerFixture(t, 5)
	settingsRepo.SaveFunc = func(ctx context.Context, s *Settings) error {
		return errors.New("mongo down")
	}

	w := serveFixture(t, h, http.MethodPut, "/settings", []byte(`{"max_batch_capacity": 9}`))

	if w.Code != http.StatusOK {
		t.Errorf("UpdateSettings() status = %d, want %d despite persist failure", w.Code, http.StatusOK)
	}
	if engine.Capacity() != 9 {
		t.Errorf("engine Capacity() = %d, want 9", engine.Capacity())
	}
}

func TestHandlerListArchive(t *testing.T) {
	h, _, _, archiveRepo := handlerFixture(t, 5)
	archiveRepo.ListFunc = func(ctx context.Context, limit int) ([]BatchArchive, error) {
		return []BatchArchive{{BatchID: "b1", Number: 1}}, nil
	}

	w := serveFixture(t, h, http.MethodGet, "/batches/archive", nil)

	if w.Code != http.StatusOK {
		t.Fatalf("ListArchive() status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHandlerListArchiveError(t *testing.T) {
	h, _, _, archiveRepo := handlerFixture(t, 5)
	archiveRepo.ListFunc = func(ctx context.Context, limit int) ([]BatchArchive, error) {
		return nil, errors.New("database error")
	}

	w := serveFixture(t, h, http.MethodGet, "/batches/archive", nil)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("ListArchive() status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
