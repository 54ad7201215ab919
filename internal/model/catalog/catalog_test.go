package catalog

import "testing"

func TestSeedContainsDefault(t *testing.T) {
	store := NewMemoryStore(Seed(), DefaultModelID)
	if got := store.Default().ID; got != DefaultModelID {
		t.Fatalf("unexpected default model: %s", got)
	}
	if _, ok := store.FindByID("deepseek-r1:3b"); !ok {
		t.Fatal("expected deepseek-r1:3b in seed catalog")
	}
	if _, ok := store.FindByID("gpt-4"); ok {
		t.Fatal("unexpected model outside the catalog")
	}
}

func TestDefaultFallsBackToFirst(t *testing.T) {
	store := NewMemoryStore([]Option{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}}, "missing")
	if got := store.Default().ID; got != "a" {
		t.Fatalf("expected fallback to first option, got %s", got)
	}
}

func TestListReturnsCopy(t *testing.T) {
	store := NewMemoryStore(Seed(), DefaultModelID)
	list := store.List()
	list[0].ID = "mutated"
	if store.List()[0].ID == "mutated" {
		t.Fatal("List must not expose internal slice")
	}
}

func TestParse(t *testing.T) {
	options, err := Parse(" llama3.2=Llama 3.2 , qwen2.5-coder:7b ,")
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %d", len(options))
	}
	if options[0] != (Option{ID: "llama3.2", Label: "Llama 3.2"}) {
		t.Fatalf("unexpected first option: %+v", options[0])
	}
	if options[1] != (Option{ID: "qwen2.5-coder:7b", Label: "qwen2.5-coder:7b"}) {
		t.Fatalf("unexpected second option: %+v", options[1])
	}
}

func TestParseRejectsDuplicatesAndMissingIDs(t *testing.T) {
	if _, err := Parse("a=A,a=B"); err == nil {
		t.Fatal("expected duplicate id error")
	}
	if _, err := Parse("=label"); err == nil {
		t.Fatal("expected missing id error")
	}
	if options, err := Parse("  "); err != nil || options != nil {
		t.Fatalf("expected empty catalog, got %v %v", options, err)
	}
}
