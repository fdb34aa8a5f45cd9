package test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/sproutbox/api/core/catalog"
)

type selectionView struct {
	Kind  string            `json:"kind"`
	Items []catalog.Product `json:"items"`
	Count int               `json:"count"`
}

func addItem(t *testing.T, e *TestEnv, kind, slug string) *http.Response {
	t.Helper()

	w, err := e.do(http.MethodPut, "/selection/"+kind+"/items", map[string]string{"slug": slug})
	if err != nil {
		t.Fatalf("adding %s to %s: %v", slug, kind, err)
	}
	return w
}

func showSelection(t *testing.T, e *TestEnv, kind string) selectionView {
	t.Helper()

	w, err := e.do(http.MethodGet, "/selection/"+kind, nil)
	if err != nil {
		t.Fatalf("fetching %s: %v", kind, err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		t.Fatalf("fetching %s answered status %s", kind, w.Status)
	}

	var view selectionView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decoding %s view: %v", kind, err)
	}
	return view
}

func TestSelectionUnknownKind(t *testing.T) {
	env, err := NewTestEnv(t, "selection_kind")
	if err != nil {
		t.Fatal(err)
	}

	w, err := env.do(http.MethodGet, "/selection/wishlist", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown kind answered status %s, want 404", w.Status)
	}
}

func TestAnonymousSelection(t *testing.T) {
	env, err := NewTestEnv(t, "selection_anon")
	if err != nil {
		t.Fatal(err)
	}

	w := addItem(t, env, "cart", "stripy-romper")
	defer w.Body.Close()
	if w.StatusCode != http.StatusOK {
		t.Fatalf("adding item answered status %s", w.Status)
	}

	var count struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(w.Body).Decode(&count); err != nil {
		t.Fatalf("decoding count: %v", err)
	}
	if count.Count != 1 {
		t.Fatalf("expected count 1 after first add, got %d", count.Count)
	}

	// Adding the same garment twice keeps a single slot occupied.
	w = addItem(t, env, "cart", "stripy-romper")
	defer w.Body.Close()
	json.NewDecoder(w.Body).Decode(&count)
	if count.Count != 1 {
		t.Fatalf("duplicate add must not grow the cart, got count %d", count.Count)
	}

	view := showSelection(t, env, "cart")
	if len(view.Items) != 1 || view.Items[0].Name != "Stripy Romper" {
		t.Fatalf("cart view not resolved against the catalog: %+v", view.Items)
	}

	// A slug the catalog no longer knows stays stored but is dropped from
	// the resolved view.
	w = addItem(t, env, "cart", "retired-onesie")
	w.Body.Close()

	view = showSelection(t, env, "cart")
	if view.Count != 2 {
		t.Fatalf("stored count must include unresolved slugs, got %d", view.Count)
	}
	if len(view.Items) != 1 {
		t.Fatalf("unresolved slugs must be dropped from the view, got %d items", len(view.Items))
	}
}

func TestCartCapacity(t *testing.T) {
	env, err := NewTestEnv(t, "selection_capacity")
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range boxProducts[:5] {
		w := addItem(t, env, "cart", p.Slug)
		w.Body.Close()
		if w.StatusCode != http.StatusOK {
			t.Fatalf("adding %s answered status %s", p.Slug, w.Status)
		}
	}

	w := addItem(t, env, "cart", boxProducts[5].Slug)
	defer w.Body.Close()
	if w.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("sixth cart item answered status %s, want 422", w.Status)
	}

	// Favorites have no such cap.
	for _, p := range boxProducts {
		w := addItem(t, env, "favorites", p.Slug)
		w.Body.Close()
		if w.StatusCode != http.StatusOK {
			t.Fatalf("favoriting %s answered status %s", p.Slug, w.Status)
		}
	}
}

func TestRemoveItem(t *testing.T) {
	env, err := NewTestEnv(t, "selection_remove")
	if err != nil {
		t.Fatal(err)
	}

	addItem(t, env, "cart", "knit-beanie").Body.Close()

	for i := 0; i < 2; i++ {
		w, err := env.do(http.MethodDelete, "/selection/cart/items/knit-beanie", nil)
		if err != nil {
			t.Fatal(err)
		}
		w.Body.Close()
		if w.StatusCode != http.StatusNoContent {
			t.Fatalf("remove %d answered status %s, want 204", i+1, w.Status)
		}
	}

	if view := showSelection(t, env, "cart"); view.Count != 0 {
		t.Fatalf("expected empty cart after removal, got count %d", view.Count)
	}
}

func TestLoginMigratesSelection(t *testing.T) {
	env, err := NewTestEnv(t, "selection_migration")
	if err != nil {
		t.Fatal(err)
	}

	addItem(t, env, "cart", "stripy-romper").Body.Close()
	addItem(t, env, "cart", "linen-overalls").Body.Close()
	addItem(t, env, "favorites", "rain-jacket").Body.Close()

	if err := env.Login(); err != nil {
		t.Fatal(err)
	}

	if view := showSelection(t, env, "cart"); view.Count != 2 {
		t.Fatalf("cart must survive sign-in, got count %d", view.Count)
	}
	if view := showSelection(t, env, "favorites"); view.Count != 1 {
		t.Fatalf("favorites must survive sign-in, got count %d", view.Count)
	}

	var rows int
	if err := env.DB.Get(&rows, "SELECT COUNT(*) FROM cart_items"); err != nil {
		t.Fatalf("counting cart rows: %v", err)
	}
	if rows != 2 {
		t.Fatalf("expected 2 cart rows after migration, got %d", rows)
	}

	// Logging out drops back to a blank anonymous session.
	if err := env.Logout(); err != nil {
		t.Fatal(err)
	}
	if view := showSelection(t, env, "cart"); view.Count != 0 {
		t.Fatalf("anonymous cart must be blank after logout, got count %d", view.Count)
	}

	// The remote copy is still there on the next sign-in.
	if err := env.Login(); err != nil {
		t.Fatal(err)
	}
	if view := showSelection(t, env, "cart"); view.Count != 2 {
		t.Fatalf("remote cart must persist across sessions, got count %d", view.Count)
	}
}

func TestMigrationHonorsCapacity(t *testing.T) {
	env, err := NewTestEnv(t, "selection_migration_cap")
	if err != nil {
		t.Fatal(err)
	}

	// Seed the remote cart with three garments from a previous visit.
	if err := env.Login(); err != nil {
		t.Fatal(err)
	}
	for _, p := range boxProducts[:3] {
		addItem(t, env, "cart", p.Slug).Body.Close()
	}
	if err := env.Logout(); err != nil {
		t.Fatal(err)
	}

	// Anonymously pick three more. Only two fit next to the remote ones.
	for _, p := range boxProducts[3:] {
		addItem(t, env, "cart", p.Slug).Body.Close()
	}

	if err := env.Login(); err != nil {
		t.Fatal(err)
	}
	if view := showSelection(t, env, "cart"); view.Count != 5 {
		t.Fatalf("merged cart must stop at capacity, got count %d", view.Count)
	}
}
