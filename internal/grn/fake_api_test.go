package grn

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

// fakeAPI is an in-process backend that counts calls per endpoint
type fakeAPI struct {
	mu     sync.Mutex
	calls  map[string]int
	bodies map[string][]map[string]any
	routes map[string]http.HandlerFunc
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	api := &fakeAPI{
		calls:  map[string]int{},
		bodies: map[string][]map[string]any{},
		routes: map[string]http.HandlerFunc{},
	}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeAPI) handle(path string, h http.HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.routes[path] = h
}

// reply registers a fixed JSON response for path
func (a *fakeAPI) reply(path string, status int, body any) {
	a.handle(path, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status, body)
	})
}

func (a *fakeAPI) count(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[path]
}

func (a *fakeAPI) lastBody(path string) map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	list := a.bodies[path]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/")

	var body map[string]any
	if r.Body != nil {
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			json.Unmarshal(data, &body)
		}
	}

	a.mu.Lock()
	a.calls[path]++
	if body != nil {
		a.bodies[path] = append(a.bodies[path], body)
	}
	h, ok := a.routes[path]
	a.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func testConfig(srv *httptest.Server) *Config {
	return &Config{
		APIBase:         srv.URL + "/api/",
		Brand:           "GRN CLI",
		TabID:           "test",
		Storage:         StorageMemory,
		HTTPTimeout:     5 * time.Second,
		LogLevel:        "error",
		TransporterMode: ResolveRefetch,
	}
}

func testLogger() *logrus.Logger {
	return NewLogger(io.Discard, "error")
}

// testHarness wires a workflow against the fake backend
type testHarness struct {
	api     *fakeAPI
	srv     *httptest.Server
	storage *MemoryStorage
	sink    *MemorySink
	cue     *countingCue
	client  *Client
	wf      *Workflow
}

type countingCue struct {
	mu    sync.Mutex
	plays int
}

func (c *countingCue) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plays++
	return nil
}

func (c *countingCue) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.plays
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	api, srv := newFakeAPI(t)
	h := &testHarness{api: api, srv: srv, storage: NewMemoryStorage()}
	h.client = NewClient(testConfig(srv), NewMemoryStorage(), testLogger())
	h.wf = h.workflow(ResolveRefetch)
	return h
}

// workflow builds a fresh workflow over the harness storage, as a reload would
func (h *testHarness) workflow(mode string) *Workflow {
	h.sink = &MemorySink{}
	h.cue = &countingCue{}
	logger := testLogger()
	notifier := &Notifier{Sink: h.sink, Cue: h.cue, Logger: logger}
	return NewWorkflow(h.client, NewSessionStore(h.storage, logger), notifier, logger, mode)
}

// standardRoutes registers successful responses for every endpoint
func (h *testHarness) standardRoutes() {
	h.api.reply("auth/login", http.StatusOK, map[string]any{
		"status": true, "userId": 7, "ledgerId": 42, "machines": []any{},
	})
	h.api.reply("grn/transporters", http.StatusOK, map[string]any{
		"status": true,
		"transporters": []map[string]any{
			{"ledgerName": "Fast Freight", "ledgerId": 501},
			{"ledgerName": "Slow Boats ", "ledgerId": 502},
		},
	})
	h.api.reply("grn/initiate", http.StatusOK, map[string]any{
		"status": true, "ledgerName": "Acme Co",
	})
	h.api.reply("grn/save-delivery-note", http.StatusOK, map[string]any{
		"status":             true,
		"deliveryNoteNumber": 9001,
		"data": map[string]any{
			"clientName":      "Acme Co",
			"modeOfTransport": "Road",
			"transporterName": "Fast Freight",
			"containerNumber": "C1",
			"vehicleNumber":   "WB01",
			"sealNumber":      "S1",
			"barcode":         12345,
		},
		"sp": map[string]any{
			"jobName":              "Cartons A",
			"orderQty":             100,
			"gpnQty":               90,
			"deliveredThisVoucher": 10,
			"deliveredTotal":       40,
			"cartonCount":          2,
			"transactionId":        "T100",
		},
	})
	h.api.handle("grn/update-delivery-note", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": true,
			"sp": map[string]any{
				"jobName":        "Cartons B",
				"orderQty":       50,
				"deliveredTotal": nil,
			},
		})
	})
}

func filledForm() ChallanForm {
	return ChallanForm{
		ClientName:      "Acme Co",
		ModeOfTransport: "Road",
		ContainerNumber: "C1",
		SealNumber:      "S1",
		TransporterName: "Fast Freight",
		VehicleNumber:   "WB01",
	}
}
