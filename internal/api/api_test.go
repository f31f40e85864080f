package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/natsmesh/natsmesh/internal/api"
	"github.com/natsmesh/natsmesh/internal/credential"
	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/service"
	"github.com/natsmesh/natsmesh/internal/signer"
	"github.com/natsmesh/natsmesh/internal/storage/memory"
	"github.com/natsmesh/natsmesh/internal/validation"
)

// testServer creates a test server with in-memory storage and a fake signer
type testServer struct {
	handler      http.Handler
	store        *memory.Store
	fake         *signer.Fake
	bootstrapKey string
}

func newTestServer() *testServer {
	store := memory.New()
	bootstrapKey := "test-bootstrap-key"

	fake := signer.NewFake()
	builder := credential.NewBuilder(fake, time.Second, 0)
	engine := service.NewEngine(builder, validation.Options{})
	gen := service.NewGenerationService(store, engine)

	handler := api.NewRouter(store, engine, gen, bootstrapKey)

	return &testServer{
		handler:      handler,
		store:        store,
		fake:         fake,
		bootstrapKey: bootstrapKey,
	}
}

func (ts *testServer) request(method, path string, body any, apiKey string) *httptest.ResponseRecorder {
	var reqBody io.Reader
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewReader(jsonBytes)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

const testDocument = `{
	"name": "prod-mesh",
	"operator": {"name": "acme"},
	"accounts": [
		{"name": "sys", "system": true},
		{"name": "svc", "users": [{"name": "worker"}]}
	],
	"nodes": [
		{"name": "hub-1", "kind": "hub", "port": 4222, "leaf_port": 7422},
		{"name": "edge-1", "kind": "leaf", "port": 4222, "hub": "hub-1", "account": "svc", "user": "worker"}
	]
}`

func createTopology(t *testing.T, ts *testServer, document string) *domain.TopologyRecord {
	t.Helper()
	req := domain.CreateTopologyRequest{Name: "prod-mesh", Document: json.RawMessage(document)}
	rr := ts.request("POST", "/api/v1/topologies", req, ts.bootstrapKey)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var record domain.TopologyRecord
	_ = json.Unmarshal(rr.Body.Bytes(), &record)
	return &record
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer()

	rr := ts.request("GET", "/health", nil, "")

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	var resp map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("Expected status ok, got %s", resp["status"])
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer()

	// Request without auth header
	rr := ts.request("GET", "/api/v1/topologies", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}

	// Request with invalid auth header format
	req := httptest.NewRequest("GET", "/api/v1/topologies", nil)
	req.Header.Set("Authorization", "Basic invalid")
	rr = httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}

	// Request with invalid API key
	rr = ts.request("GET", "/api/v1/topologies", nil, "invalid-key")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", rr.Code)
	}
}

func TestBootstrapKeyAuth(t *testing.T) {
	ts := newTestServer()

	// Bootstrap key should work when no API keys exist
	rr := ts.request("GET", "/api/v1/topologies", nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 with bootstrap key, got %d", rr.Code)
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	ts := newTestServer()

	// Create API key using bootstrap key
	createReq := domain.CreateAPIKeyRequest{Name: "Test Key"}
	rr := ts.request("POST", "/api/v1/keys", createReq, ts.bootstrapKey)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var createResp domain.CreateAPIKeyResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &createResp)
	if createResp.Key == "" {
		t.Error("Expected key to be returned on creation")
	}

	// Use the new API key
	rr = ts.request("GET", "/api/v1/topologies", nil, createResp.Key)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 with new API key, got %d", rr.Code)
	}

	// Bootstrap key stops working once a real key exists
	rr = ts.request("GET", "/api/v1/topologies", nil, ts.bootstrapKey)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for bootstrap key after key creation, got %d", rr.Code)
	}

	// List API keys
	rr = ts.request("GET", "/api/v1/keys", nil, createResp.Key)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	var keys []*domain.APIKey
	_ = json.Unmarshal(rr.Body.Bytes(), &keys)
	if len(keys) != 1 {
		t.Errorf("Expected 1 key, got %d", len(keys))
	}

	// Delete API key
	rr = ts.request("DELETE", "/api/v1/keys/"+createResp.ID, nil, createResp.Key)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}
}

func TestTopologyCRUD(t *testing.T) {
	ts := newTestServer()

	record := createTopology(t, ts, testDocument)
	if record.Name != "prod-mesh" {
		t.Errorf("Expected name 'prod-mesh', got '%s'", record.Name)
	}

	// Get topology (note trailing slash for the subrouter)
	rr := ts.request("GET", "/api/v1/topologies/"+record.ID+"/", nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}

	// List topologies
	rr = ts.request("GET", "/api/v1/topologies", nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	var records []*domain.TopologyRecord
	_ = json.Unmarshal(rr.Body.Bytes(), &records)
	if len(records) != 1 {
		t.Errorf("Expected 1 topology, got %d", len(records))
	}

	// Delete topology
	rr = ts.request("DELETE", "/api/v1/topologies/"+record.ID+"/", nil, ts.bootstrapKey)
	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", rr.Code)
	}

	// Verify deleted
	rr = ts.request("GET", "/api/v1/topologies/"+record.ID+"/", nil, ts.bootstrapKey)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}

func TestTopologyLookupByName(t *testing.T) {
	ts := newTestServer()

	record := createTopology(t, ts, testDocument)

	rr := ts.request("GET", "/api/v1/topologies?name=prod-mesh", nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var records []*domain.TopologyRecord
	_ = json.Unmarshal(rr.Body.Bytes(), &records)
	if len(records) != 1 || records[0].ID != record.ID {
		t.Errorf("Expected the created topology, got %+v", records)
	}

	rr = ts.request("GET", "/api/v1/topologies?name=unknown", nil, ts.bootstrapKey)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 for unknown name, got %d", rr.Code)
	}
}

func TestTopologyCreate_MalformedDocument(t *testing.T) {
	ts := newTestServer()

	req := domain.CreateTopologyRequest{
		Name: "broken",
		Document: json.RawMessage(`{
			"name": "broken",
			"operator": {"name": "op"},
			"accounts": [{"name": "svc"}, {"name": "svc"}]
		}`),
	}
	rr := ts.request("POST", "/api/v1/topologies", req, ts.bootstrapKey)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for duplicate names, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestTopologyValidate(t *testing.T) {
	ts := newTestServer()

	record := createTopology(t, ts, testDocument)

	rr := ts.request("POST", "/api/v1/topologies/"+record.ID+"/validate", nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp["valid"] != true {
		t.Errorf("Expected valid=true, got %v", resp)
	}
}

func TestTopologyValidate_Violations(t *testing.T) {
	ts := newTestServer()

	// The leaf references a hub that declares no leaf listen port.
	document := `{
		"name": "prod-mesh",
		"operator": {"name": "acme"},
		"accounts": [{"name": "sys", "system": true}],
		"nodes": [
			{"name": "hub-1", "kind": "hub", "port": 4222},
			{"name": "edge-1", "kind": "leaf", "port": 4222, "hub": "hub-1"}
		]
	}`
	record := createTopology(t, ts, document)

	rr := ts.request("POST", "/api/v1/topologies/"+record.ID+"/validate", nil, ts.bootstrapKey)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Valid      bool                    `json:"valid"`
		Violations []*validation.Violation `json:"violations"`
	}
	_ = json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Valid || len(resp.Violations) != 1 {
		t.Errorf("Expected 1 violation, got %+v", resp)
	}
}

func TestTopologyGenerate(t *testing.T) {
	ts := newTestServer()

	record := createTopology(t, ts, testDocument)

	rr := ts.request("POST", "/api/v1/topologies/"+record.ID+"/generate", nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var run domain.GenerationRun
	_ = json.Unmarshal(rr.Body.Bytes(), &run)
	if run.Status != domain.RunStatusSuccess {
		t.Fatalf("Expected success, got %q (error: %s)", run.Status, run.Error)
	}

	// Operator, two accounts, one user were issued.
	if ts.fake.IssuedCount() != 4 {
		t.Errorf("Expected 4 issued entities, got %d", ts.fake.IssuedCount())
	}

	// The run is listed for the topology and retrievable by ID.
	rr = ts.request("GET", "/api/v1/topologies/"+record.ID+"/runs", nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var runs []*domain.GenerationRun
	_ = json.Unmarshal(rr.Body.Bytes(), &runs)
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}

	rr = ts.request("GET", "/api/v1/runs/"+run.ID, nil, ts.bootstrapKey)
	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rr.Code)
	}
	var fetched domain.GenerationRun
	_ = json.Unmarshal(rr.Body.Bytes(), &fetched)
	if fetched.Artifacts == "" {
		t.Error("Expected recorded artifacts on the stored run")
	}
}

func TestTopologyGenerate_ValidationFailure(t *testing.T) {
	ts := newTestServer()

	// The leaf binds to an undeclared account.
	document := `{
		"name": "prod-mesh",
		"operator": {"name": "acme"},
		"accounts": [{"name": "svc"}],
		"nodes": [
			{"name": "hub-1", "kind": "hub", "port": 4222, "leaf_port": 7422},
			{"name": "edge-1", "kind": "leaf", "port": 4222, "hub": "hub-1", "account": "missing"}
		]
	}`
	record := createTopology(t, ts, document)

	rr := ts.request("POST", "/api/v1/topologies/"+record.ID+"/generate", nil, ts.bootstrapKey)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d: %s", rr.Code, rr.Body.String())
	}

	var run domain.GenerationRun
	_ = json.Unmarshal(rr.Body.Bytes(), &run)
	if run.Status != domain.RunStatusValidationFailed {
		t.Errorf("Expected validation_failed, got %q", run.Status)
	}
	if ts.fake.IssuedCount() != 0 {
		t.Errorf("Signer was called %d times for an invalid topology", ts.fake.IssuedCount())
	}
}
