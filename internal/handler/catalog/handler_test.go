package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/code-companion/backend/internal/model/catalog"
	chatService "github.com/zhouzirui/code-companion/backend/internal/service/chat"
)

func TestListModels(t *testing.T) {
	r := chi.NewRouter()
	New(
		catalog.NewMemoryStore(catalog.Seed(), catalog.DefaultModelID),
		chatService.Settings{ContextWindow: 5, ContextMin: 2, ContextMax: 20},
	).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body ListResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(body.Models))
	}
	if body.Default != catalog.DefaultModelID {
		t.Fatalf("unexpected default: %s", body.Default)
	}
	if body.ContextMin != 2 || body.ContextMax != 20 || body.ContextWindow != 5 {
		t.Fatalf("unexpected bounds: %+v", body)
	}
}
