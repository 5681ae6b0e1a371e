package walker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"galleria/classify"
	"galleria/gallery"
	"galleria/variants"
)

func newTestBuilder(t *testing.T, root string) *Builder {
	t.Helper()
	rules := classify.DefaultRules()
	if err := rules.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	resolver := variants.NewResolver(root, &rules, nil)
	return NewBuilder(root, &rules, resolver, 2)
}

func writeFile(t *testing.T, root string, rel string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func findChild(t *testing.T, album *gallery.AlbumItemContent, name string) *gallery.AlbumItemContent {
	t.Helper()
	for _, child := range album.Albums {
		if child.Name == name {
			return child
		}
	}
	t.Fatalf("album %q not found under %q", name, album.Name)
	return nil
}

func TestBuildSkipsMarkedEntries(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "trip/a.jpg")
	writeFile(t, root, "trip/b_skip.jpg")
	writeFile(t, root, "skip_old/c.jpg")

	tree, err := newTestBuilder(t, root).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(tree.Albums) != 1 {
		t.Fatalf("want 1 album, got %d", len(tree.Albums))
	}
	trip := findChild(t, tree, "trip")
	if len(trip.Images) != 1 || trip.Images[0].Name != "a.jpg" {
		t.Errorf("trip must contain only a.jpg, got %d images", len(trip.Images))
	}
}

func TestBuildOmitsEmptyAlbums(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "trip/a.jpg")
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Only non-media content is also "empty".
	writeFile(t, root, "docs/readme.txt")

	tree, err := newTestBuilder(t, root).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(tree.Albums) != 1 || tree.Albums[0].Name != "trip" {
		t.Fatalf("only trip must survive, got %d albums", len(tree.Albums))
	}
}

func TestBuildNavigationSegmentsAndIds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "trip/beach/a.jpg")

	b := newTestBuilder(t, root)
	tree, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	trip := findChild(t, tree, "trip")
	beach := findChild(t, trip, "beach")
	if len(beach.NavigationPathSegments) != 2 ||
		beach.NavigationPathSegments[0] != "trip" ||
		beach.NavigationPathSegments[1] != "beach" {
		t.Errorf("beach segments = %v", beach.NavigationPathSegments)
	}
	img := beach.Images[0]
	if len(img.NavigationPathSegments) != 3 || img.NavigationPathSegments[2] != "a.jpg" {
		t.Errorf("image segments = %v", img.NavigationPathSegments)
	}

	// Ids are path-derived and must survive a rebuild unchanged.
	tree2, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	beach2 := findChild(t, findChild(t, tree2, "trip"), "beach")
	if beach.Id != beach2.Id {
		t.Errorf("album id changed across rebuilds: %d vs %d", beach.Id, beach2.Id)
	}
	if img.Id != beach2.Images[0].Id {
		t.Error("image id changed across rebuilds")
	}
	if beach.Id == img.Id {
		t.Error("distinct paths must get distinct ids")
	}
}

func TestBuildRoleInheritance(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "family_trip/beach/a.jpg")
	writeFile(t, root, "open/b.jpg")

	tree, err := newTestBuilder(t, root).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	family := classify.Role{Name: "family"}
	trip := findChild(t, tree, "family_trip")
	if !trip.Roles.Contains(family) {
		t.Error("marked album must carry its role")
	}
	beach := findChild(t, trip, "beach")
	if !beach.Roles.Contains(family) {
		t.Error("child album must inherit the ancestor role")
	}
	if !beach.Images[0].Roles.Contains(family) {
		t.Error("image must inherit the ancestor role")
	}
	// The implicit public is only a fallback; restricted nodes must not
	// carry it, or a session claiming "public" would match them.
	if beach.Roles.Contains(classify.Public()) {
		t.Error("restricted album must not carry the implicit public")
	}
	if beach.Images[0].Roles.Contains(classify.Public()) {
		t.Error("restricted image must not carry the implicit public")
	}
	open := findChild(t, tree, "open")
	if !open.Roles.PublicOnly() {
		t.Errorf("unmarked album must stay public-only, got %v", open.Roles.Strings())
	}
}

func TestBuildOrdering(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "trip/old.jpg")
	writeFile(t, root, "trip/new.jpg")

	older := time.Now().Add(-48 * time.Hour)
	newer := time.Now().Add(-1 * time.Hour)
	if err := os.Chtimes(filepath.Join(root, "trip", "old.jpg"), older, older); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(filepath.Join(root, "trip", "new.jpg"), newer, newer); err != nil {
		t.Fatal(err)
	}
	// Backdate the directory so the album timestamp has to come from the
	// newest image, not the directory itself.
	if err := os.Chtimes(filepath.Join(root, "trip"), older, older); err != nil {
		t.Fatal(err)
	}

	tree, err := newTestBuilder(t, root).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	trip := findChild(t, tree, "trip")
	if trip.Images[0].Name != "new.jpg" || trip.Images[1].Name != "old.jpg" {
		t.Errorf("images not newest-first: %s, %s", trip.Images[0].Name, trip.Images[1].Name)
	}
	// The album timestamp follows its newest content.
	if !trip.ItemTimestampUtc.Equal(trip.Images[0].ItemTimestampUtc) {
		t.Error("album timestamp must match its newest image")
	}
}

func TestBuildCoverPrefersFeature(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "trip/zzz.jpg")
	writeFile(t, root, "trip/aaa_label.jpg")

	// Make the non-feature image the newest so the feature marker has to
	// win against recency.
	newer := time.Now().Add(-1 * time.Hour)
	older := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(root, "trip", "zzz.jpg"), newer, newer); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(filepath.Join(root, "trip", "aaa_label.jpg"), older, older); err != nil {
		t.Fatal(err)
	}

	tree, err := newTestBuilder(t, root).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	trip := findChild(t, tree, "trip")
	if trip.ThumbnailPath == "" {
		t.Fatal("album cover missing")
	}
	var feature *gallery.ImageItemContent
	for _, img := range trip.Images {
		if img.IsFeature {
			feature = img
		}
	}
	if feature == nil {
		t.Fatal("feature image not detected")
	}
	if trip.ThumbnailPath != feature.ThumbnailPath {
		t.Errorf("cover = %q, want feature image %q", trip.ThumbnailPath, feature.ThumbnailPath)
	}
}

func TestBuildMissingRoot(t *testing.T) {
	b := newTestBuilder(t, filepath.Join(t.TempDir(), "nope"))
	if _, err := b.Build(context.Background()); !errors.Is(err, ErrRootMissing) {
		t.Errorf("want ErrRootMissing, got %v", err)
	}
}

func TestBuildCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "trip/a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newTestBuilder(t, root).Build(ctx); err == nil {
		t.Error("cancelled build must fail")
	}
}
