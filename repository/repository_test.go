package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"galleria/access"
	"galleria/classify"
	"galleria/variants"
	"galleria/walker"
)

func newTestRepo(t *testing.T, root string, ttl time.Duration) *Repository {
	t.Helper()
	rules := classify.DefaultRules()
	if err := rules.Normalize(); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	resolver := variants.NewResolver(root, &rules, nil)
	builder := walker.NewBuilder(root, &rules, resolver, 2)
	return New(builder, root, ttl, 10*time.Second)
}

func seed(t *testing.T, root string, rel string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGetAlbumRoot(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "trip/a.jpg")

	repo := newTestRepo(t, root, time.Minute)
	got, err := repo.GetAlbum(context.Background(), "", access.Guest())
	if err != nil {
		t.Fatalf("GetAlbum: %v", err)
	}
	if len(got.Albums) != 1 || got.Albums[0].Name != "trip" {
		t.Errorf("root albums = %d", len(got.Albums))
	}
}

func TestGetAlbumByPath(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "trip/beach/a.jpg")

	repo := newTestRepo(t, root, time.Minute)

	got, err := repo.GetAlbum(context.Background(), "trip/beach", access.Guest())
	if err != nil {
		t.Fatalf("GetAlbum: %v", err)
	}
	if got.Name != "beach" || len(got.Images) != 1 {
		t.Errorf("got album %q with %d images", got.Name, len(got.Images))
	}

	// Album lookup is case-insensitive.
	if _, err := repo.GetAlbum(context.Background(), "Trip/BEACH", access.Guest()); err != nil {
		t.Errorf("case-insensitive lookup failed: %v", err)
	}
}

func TestGetAlbumNotFound(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "trip/a.jpg")

	repo := newTestRepo(t, root, time.Minute)

	if _, err := repo.GetAlbum(context.Background(), "nope", access.Guest()); !errors.Is(err, ErrAlbumNotFound) {
		t.Errorf("want ErrAlbumNotFound, got %v", err)
	}
	if _, err := repo.GetAlbum(context.Background(), "../trip", access.Guest()); !errors.Is(err, ErrAlbumNotFound) {
		t.Errorf("traversal must look like not found, got %v", err)
	}
}

func TestGetAlbumDeniedLooksAbsent(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "family_trip/a.jpg")

	repo := newTestRepo(t, root, time.Minute)

	_, errDenied := repo.GetAlbum(context.Background(), "family_trip", access.Guest())
	_, errAbsent := repo.GetAlbum(context.Background(), "no_such_album", access.Guest())

	if !errors.Is(errDenied, ErrAlbumNotFound) || !errors.Is(errAbsent, ErrAlbumNotFound) {
		t.Fatalf("denied = %v, absent = %v", errDenied, errAbsent)
	}
	if errDenied.Error() != errAbsent.Error() {
		t.Error("denied and absent responses must be indistinguishable")
	}

	// A session claiming just the public role stays locked out too.
	pub := access.NewViewer(classify.Public())
	if _, err := repo.GetAlbum(context.Background(), "family_trip", pub); !errors.Is(err, ErrAlbumNotFound) {
		t.Errorf("public-claim viewer must read as not found, got %v", err)
	}

	// The owner of the role does see it.
	viewer := access.NewViewer(classify.Role{Name: "family"})
	if _, err := repo.GetAlbum(context.Background(), "family_trip", viewer); err != nil {
		t.Errorf("family viewer denied: %v", err)
	}
}

func TestCacheServesStaleWithinTTL(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "trip/a.jpg")

	repo := newTestRepo(t, root, time.Hour)

	first, err := repo.GetAlbum(context.Background(), "trip", access.Guest())
	if err != nil {
		t.Fatalf("GetAlbum: %v", err)
	}

	seed(t, root, "trip/b.jpg")

	second, err := repo.GetAlbum(context.Background(), "trip", access.Guest())
	if err != nil {
		t.Fatalf("GetAlbum: %v", err)
	}
	if len(second.Images) != len(first.Images) {
		t.Error("cached tree must be served unchanged within the TTL")
	}
}

func TestCacheRebuildsAfterExpiry(t *testing.T) {
	root := t.TempDir()
	seed(t, root, "trip/a.jpg")

	repo := newTestRepo(t, root, 0)

	if _, err := repo.GetAlbum(context.Background(), "trip", access.Guest()); err != nil {
		t.Fatalf("GetAlbum: %v", err)
	}

	seed(t, root, "other/b.jpg")
	// Force a distinct root modtime regardless of filesystem timestamp
	// granularity.
	bumped := time.Now().Add(time.Minute)
	if err := os.Chtimes(root, bumped, bumped); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetAlbum(context.Background(), "", access.Guest())
	if err != nil {
		t.Fatalf("GetAlbum: %v", err)
	}
	if len(got.Albums) != 2 {
		t.Errorf("new album not picked up after expiry: %d albums", len(got.Albums))
	}
}

func TestGetAlbumMissingRoot(t *testing.T) {
	repo := newTestRepo(t, filepath.Join(t.TempDir(), "nope"), time.Minute)
	if _, err := repo.GetAlbum(context.Background(), "", access.Guest()); !errors.Is(err, ErrAlbumNotFound) {
		t.Errorf("missing root must read as not found, got %v", err)
	}
}
