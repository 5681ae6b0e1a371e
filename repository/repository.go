// Package repository orchestrates tree building and access filtering per
// request, fronted by a short-lived cache.
package repository

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"galleria/access"
	"galleria/gallery"
	"galleria/logging"
	"galleria/utils"
	"galleria/walker"
)

// ErrAlbumNotFound covers both a truly absent album and one the viewer
// may not see; the two are deliberately indistinguishable so existence
// never leaks.
var ErrAlbumNotFound = errors.New("album not found")

type Repository struct {
	builder     *walker.Builder
	root        string
	ttl         time.Duration
	walkTimeout time.Duration

	// cached trees are read-only once published and replaced atomically,
	// never mutated in place.
	cached  atomic.Pointer[cachedTree]
	rebuild sync.Mutex
}

type cachedTree struct {
	tree        *gallery.AlbumItemContent
	builtAt     time.Time
	rootModTime time.Time
}

func New(builder *walker.Builder, root string, ttl, walkTimeout time.Duration) *Repository {
	return &Repository{
		builder:     builder,
		root:        root,
		ttl:         ttl,
		walkTimeout: walkTimeout,
	}
}

// GetAlbum returns the access-filtered hierarchical content for a named
// album, or the gallery root when name is empty.
func (r *Repository) GetAlbum(ctx context.Context, name string, viewer access.Viewer) (*gallery.AlbumItemContent, error) {
	logg := logging.Enter(ctx, "repository.getAlbum", map[string]any{"album": name})

	tree, err := r.tree(ctx)
	if err != nil {
		logging.ExitErr(logg, err)
		if errors.Is(err, walker.ErrRootMissing) {
			return nil, ErrAlbumNotFound
		}
		return nil, err
	}

	segments := utils.SplitSegments(name)
	if len(segments) == 0 {
		logging.Exit(logg, "root", nil)
		return access.FilterRoot(tree, viewer), nil
	}
	if utils.HasTraversal(segments) {
		logging.Exit(logg, "traversal rejected", nil)
		return nil, ErrAlbumNotFound
	}

	node := findAlbum(tree, segments)
	if node == nil {
		logging.Exit(logg, "not found", nil)
		return nil, ErrAlbumNotFound
	}

	filtered := access.Filter(node, viewer)
	if filtered == nil {
		// Denied looks exactly like absent.
		logging.Exit(logg, "not found", nil)
		return nil, ErrAlbumNotFound
	}

	logging.Exit(logg, "ok", map[string]any{
		"albums": len(filtered.Albums),
		"images": len(filtered.Images),
	})
	return filtered, nil
}

// tree returns the current unfiltered tree, rebuilding when the cache
// has expired and the root directory changed.
func (r *Repository) tree(ctx context.Context) (*gallery.AlbumItemContent, error) {
	now := time.Now()

	if c := r.cached.Load(); c != nil && now.Sub(c.builtAt) < r.ttl {
		return c.tree, nil
	}

	info, err := os.Stat(r.root)
	if err != nil {
		return nil, walker.ErrRootMissing
	}

	if c := r.cached.Load(); c != nil && info.ModTime().Equal(c.rootModTime) {
		r.cached.Store(&cachedTree{
			tree:        c.tree,
			builtAt:     now,
			rootModTime: c.rootModTime,
		})
		return c.tree, nil
	}

	r.rebuild.Lock()
	defer r.rebuild.Unlock()

	// Another request may have rebuilt while this one waited.
	if c := r.cached.Load(); c != nil && time.Since(c.builtAt) < r.ttl {
		return c.tree, nil
	}

	buildCtx, cancel := context.WithTimeout(ctx, r.walkTimeout)
	defer cancel()

	tree, err := r.builder.Build(buildCtx)
	if err != nil {
		return nil, err
	}

	r.cached.Store(&cachedTree{
		tree:        tree,
		builtAt:     time.Now(),
		rootModTime: info.ModTime(),
	})
	return tree, nil
}

// findAlbum descends the tree by path segments, matching album names
// case-insensitively.
func findAlbum(node *gallery.AlbumItemContent, segments []string) *gallery.AlbumItemContent {
	for _, seg := range segments {
		var next *gallery.AlbumItemContent
		for _, child := range node.Albums {
			if strings.EqualFold(child.Name, seg) {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	return node
}
