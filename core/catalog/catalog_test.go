package catalog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResolve(t *testing.T) {
	snap := BuildSnapshot([]Product{
		{Slug: "s1", Name: "Linen Overalls"},
		{Slug: "s3", Name: "Knit Beanie"},
	})

	got := Resolve([]string{"s1", "s2", "s3"}, snap)
	want := []Product{
		{Slug: "s1", Name: "Linen Overalls"},
		{Slug: "s3", Name: "Knit Beanie"},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resolve must drop misses and preserve order:\n%s", diff)
	}
}

func TestResolveEmpty(t *testing.T) {
	snap := BuildSnapshot(nil)

	if got := Resolve([]string{"a", "b"}, snap); len(got) != 0 {
		t.Fatalf("empty snapshot must resolve to nothing, got %v", got)
	}
	if got := Resolve(nil, snap); len(got) != 0 {
		t.Fatalf("no slugs must resolve to nothing, got %v", got)
	}
}

func TestResolveKeepsDuplicates(t *testing.T) {
	snap := BuildSnapshot([]Product{{Slug: "s1"}})

	got := Resolve([]string{"s1", "s1"}, snap)
	if len(got) != 2 {
		t.Fatalf("resolve is a pure join, it must not deduplicate: got %d records", len(got))
	}
}
