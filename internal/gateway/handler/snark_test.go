package handler_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/proofmesh/snarkgate/internal/bridge"
	"github.com/proofmesh/snarkgate/internal/gateway/handler"
	"github.com/proofmesh/snarkgate/internal/kernel"
	"github.com/proofmesh/snarkgate/internal/noun"
	"github.com/proofmesh/snarkgate/internal/protocol"
	"go.uber.org/zap"
)

// scriptedKernel replays a fixed effect stream for every cause.
type scriptedKernel struct {
	effects []noun.Noun
}

func (k *scriptedKernel) Poke(ctx context.Context, cause noun.Noun) ([]noun.Noun, error) {
	return k.effects, nil
}

func setupScriptedRouter(t *testing.T, effects []noun.Noun) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	br := bridge.New(&scriptedKernel{effects: effects}, 0, zap.NewNop())
	if err := br.Init(context.Background()); err != nil {
		t.Fatalf("bridge init: %v", err)
	}
	r := gin.New()
	handler.NewSnarkHandler(br, zap.NewNop()).Register(r.Group("/api/v1"))
	return r
}

func setupSnarkRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	k := kernel.NewMemory(zap.NewNop())
	br := bridge.New(k, 0, zap.NewNop())
	if err := br.Init(context.Background()); err != nil {
		t.Fatalf("bridge init: %v", err)
	}

	r := gin.New()
	h := handler.NewSnarkHandler(br, zap.NewNop())
	v1 := r.Group("/api/v1")
	h.Register(v1)
	return r
}

func submitBody(proof, vk, submitter string) string {
	b, _ := json.Marshal(map[string]any{
		"proof":            proof,
		"public_inputs":    []string{},
		"verification_key": vk,
		"proof_system":     "groth16",
		"submitter":        submitter,
	})
	return string(b)
}

func postSubmit(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/snark", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestSubmit_201(t *testing.T) {
	router := setupSnarkRouter(t)

	w := postSubmit(router, submitBody(b64("hello"), b64("vk"), "alice"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["success"] != true {
		t.Errorf("expected success=true, got %v", resp["success"])
	}
	if resp["id"] == nil {
		t.Error("expected a non-null id")
	}
}

func TestSubmit_validationOrder(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"empty proof", submitBody("", b64("vk"), "alice"), "Proof data is required"},
		{"empty vk", submitBody(b64("p"), "", "alice"), "Verification key is required"},
		{"empty submitter", submitBody(b64("p"), b64("vk"), ""), "Submitter is required"},
		{"bad proof base64", submitBody("!!!not-base64!!!", b64("vk"), "alice"), "Invalid Base64 in proof data"},
		{"bad vk base64", submitBody(b64("p"), "!!!not-base64!!!", "alice"), "Invalid Base64 in verification key"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := setupSnarkRouter(t)
			w := postSubmit(router, tc.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			var resp map[string]any
			json.Unmarshal(w.Body.Bytes(), &resp)
			if resp["error"] != tc.wantMsg {
				t.Errorf("error = %q, want %q", resp["error"], tc.wantMsg)
			}
		})
	}
}

func TestGet_200(t *testing.T) {
	router := setupSnarkRouter(t)
	postSubmit(router, submitBody(b64("hello"), b64("vk"), "alice"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snark/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["proof"] != b64("hello") {
		t.Errorf("proof = %v", resp["proof"])
	}
	if resp["submitter"] != "alice" {
		t.Errorf("submitter = %v", resp["submitter"])
	}
	if resp["status"] != "pending" {
		t.Errorf("status = %v", resp["status"])
	}
}

func TestGet_404(t *testing.T) {
	router := setupSnarkRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snark/999999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["error"] != "SNARK not found" {
		t.Errorf("error = %q, want %q", resp["error"], "SNARK not found")
	}
}

func TestGet_400_invalidID(t *testing.T) {
	router := setupSnarkRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snark/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestList_emptyThenPopulated(t *testing.T) {
	router := setupSnarkRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/snarks", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Snarks []map[string]any `json:"snarks"`
		Total  int              `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Snarks == nil || len(resp.Snarks) != 0 || resp.Total != 0 {
		t.Errorf("expected empty list with total 0, got %+v", resp)
	}

	postSubmit(router, submitBody(b64("p1"), b64("vk"), "alice"))
	postSubmit(router, submitBody(b64("p2"), b64("vk"), "bob"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/snarks", nil))
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Snarks) != 2 {
		t.Fatalf("expected 2 snarks, got %+v", resp)
	}
	if resp.Snarks[0]["submitter"] != "alice" || resp.Snarks[1]["submitter"] != "bob" {
		t.Errorf("list order wrong: %+v", resp.Snarks)
	}
}

func TestList_totalComesFromKernel(t *testing.T) {
	// A list effect whose total disagrees with the summary count: the
	// kernel's total must reach the caller unaltered.
	summary := noun.Tuple(
		noun.FromUint64(1),
		noun.FromText("groth16"),
		noun.FromText("alice"),
		noun.FromText("2026-08-23T10:00:00Z"),
		noun.FromText("pending"),
		noun.FromText(""),
	)
	effect := noun.Tuple(
		noun.FromText(protocol.EffectList),
		noun.FromUint64(5),
		noun.List(summary),
	)
	router := setupScriptedRouter(t, []noun.Noun{effect})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/snarks", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Snarks []map[string]any `json:"snarks"`
		Total  int              `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 5 {
		t.Errorf("total = %d, want the kernel-reported 5", resp.Total)
	}
	if len(resp.Snarks) != 1 {
		t.Errorf("got %d summaries, want 1", len(resp.Snarks))
	}
}

func TestDelete_200_then404(t *testing.T) {
	router := setupSnarkRouter(t)
	postSubmit(router, submitBody(b64("p"), b64("vk"), "alice"))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/snark/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Deleting again is a 404.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/snark/1", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestSubmit_concurrentAllSerialized(t *testing.T) {
	router := setupSnarkRouter(t)

	const n = 16
	var wg sync.WaitGroup
	codes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			w := postSubmit(router, submitBody(b64(fmt.Sprintf("proof-%d", idx)), b64("vk"), "alice"))
			codes[idx] = w.Code
		}(i)
	}
	wg.Wait()

	for i, code := range codes {
		if code != http.StatusCreated {
			t.Errorf("request %d: status %d", i, code)
		}
	}

	// Every submission must have landed, each with a distinct id.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/snarks", nil))
	var resp struct {
		Total int `json:"total"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != n {
		t.Errorf("total = %d, want %d", resp.Total, n)
	}
}
