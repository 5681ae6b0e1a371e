// Package walker builds the hierarchical album tree from the configured
// gallery folder. Classification is recomputed from naming conventions
// and directory state on every build; nothing is persisted.
package walker

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"galleria/classify"
	"galleria/gallery"
	"galleria/logging"
	"galleria/utils"
	"galleria/variants"

	"github.com/rs/zerolog/log"
)

var ErrRootMissing = errors.New("gallery root does not exist")

// maxDepth bounds the recursion; archives deeper than this are almost
// certainly mis-mounted loops.
const maxDepth = 64

type Builder struct {
	root     string
	rules    *classify.Rules
	resolver *variants.Resolver

	// sem bounds concurrent directory walks so deep fan-out cannot
	// exhaust file descriptors.
	sem chan struct{}
}

func NewBuilder(root string, rules *classify.Rules, resolver *variants.Resolver, parallelism int) *Builder {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Builder{
		root:     root,
		rules:    rules,
		resolver: resolver,
		sem:      make(chan struct{}, parallelism),
	}
}

// Build walks the whole gallery and returns the root album. Unreadable
// entries are logged and skipped; only a missing root is fatal.
func (b *Builder) Build(ctx context.Context) (*gallery.AlbumItemContent, error) {
	logg := logging.Enter(ctx, "walker.build", map[string]any{"root": b.root})

	info, err := os.Stat(b.root)
	if err != nil || !info.IsDir() {
		logging.ExitErr(logg, ErrRootMissing)
		return nil, ErrRootMissing
	}

	root := &gallery.AlbumItemContent{
		ItemContent: gallery.ItemContent{
			Id:                     utils.PathID(""),
			Name:                   path.Base(filepath.ToSlash(b.root)),
			NavigationPathSegments: []string{},
			LastUpdatedUtc:         info.ModTime().UTC(),
			ItemTimestampUtc:       info.ModTime().UTC(),
			Roles:                  classify.NewRoleSet(classify.Public()),
		},
	}

	if err := b.buildDir(ctx, "", root, root.Roles, 0); err != nil {
		logging.ExitErr(logg, err)
		return nil, err
	}

	logging.Exit(logg, "ok", map[string]any{
		"albums": len(root.Albums),
		"images": len(root.Images),
	})
	return root, nil
}

// buildDir fills album with the classified content of one directory.
// Child directories fan out onto the semaphore when a slot is free and
// are walked inline otherwise; the parent joins every child before it
// finalizes (a parent never completes first).
func (b *Builder) buildDir(ctx context.Context, rel string, album *gallery.AlbumItemContent, inherited classify.RoleSet, depth int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if depth > maxDepth {
		log.Logger.Warn().Str("path", rel).Msg("directory tree too deep, subtree skipped")
		return nil
	}

	abs := filepath.Join(b.root, filepath.FromSlash(rel))
	entries, err := os.ReadDir(abs)
	if err != nil {
		// Unreadable: recovered locally, the entry just yields nothing.
		log.Logger.Warn().Str("path", rel).Err(err).Msg("directory not readable, skipped")
		return nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		childErr error
	)

	for _, entry := range entries {
		name := entry.Name()
		verdict := classify.Classify(b.rules, name)
		if verdict.Skip {
			continue
		}

		childRel := path.Join(rel, name)

		if entry.IsDir() {
			info, err := entry.Info()
			if err != nil {
				log.Logger.Warn().Str("path", childRel).Err(err).Msg("entry not readable, skipped")
				continue
			}
			roles := inherited.Effective(verdict.Roles)
			child := &gallery.AlbumItemContent{
				ItemContent: gallery.ItemContent{
					Id:                     utils.PathID(childRel),
					Name:                   name,
					NavigationPathSegments: utils.SplitSegments(childRel),
					LastUpdatedUtc:         info.ModTime().UTC(),
					ItemTimestampUtc:       info.ModTime().UTC(),
					Roles:                  roles,
				},
			}

			walk := func() error {
				return b.buildDir(ctx, childRel, child, roles, depth+1)
			}
			collect := func(err error) {
				mu.Lock()
				defer mu.Unlock()
				if err != nil && childErr == nil {
					childErr = err
				}
				if err == nil && !child.IsEmpty() {
					album.Albums = append(album.Albums, child)
				}
			}

			select {
			case b.sem <- struct{}{}:
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer func() { <-b.sem }()
					collect(walk())
				}()
			default:
				collect(walk())
			}
			continue
		}

		if !b.rules.IsMediaFile(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Logger.Warn().Str("path", childRel).Err(err).Msg("entry not readable, skipped")
			continue
		}

		item := b.resolver.Resolve(ctx, childRel, info)
		item.Roles = inherited.Effective(verdict.Roles)
		item.IsFeature = verdict.IsFeature

		mu.Lock()
		album.Images = append(album.Images, item)
		mu.Unlock()
	}

	wg.Wait()
	if childErr != nil {
		return childErr
	}

	b.finalize(album)
	return nil
}

// finalize orders the album content and derives its cover and timestamp.
// Sorting happens after the parallel joins, so completion order never
// leaks into the result.
func (b *Builder) finalize(album *gallery.AlbumItemContent) {
	sort.SliceStable(album.Albums, func(i, j int) bool {
		a, b := album.Albums[i], album.Albums[j]
		if !a.ItemTimestampUtc.Equal(b.ItemTimestampUtc) {
			return a.ItemTimestampUtc.After(b.ItemTimestampUtc)
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
	sort.SliceStable(album.Images, func(i, j int) bool {
		a, b := album.Images[i], album.Images[j]
		if !a.ItemTimestampUtc.Equal(b.ItemTimestampUtc) {
			return a.ItemTimestampUtc.After(b.ItemTimestampUtc)
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})

	for _, img := range album.Images {
		if img.ItemTimestampUtc.After(album.ItemTimestampUtc) {
			album.ItemTimestampUtc = img.ItemTimestampUtc
		}
	}
	for _, child := range album.Albums {
		if child.ItemTimestampUtc.After(album.ItemTimestampUtc) {
			album.ItemTimestampUtc = child.ItemTimestampUtc
		}
	}

	album.ThumbnailPath, album.ImageHDPath = b.cover(album)
}

// cover prefers a feature-marked image, then the newest own image, then
// the first child album's cover.
func (b *Builder) cover(album *gallery.AlbumItemContent) (thumb, hd string) {
	for _, img := range album.Images {
		if img.IsFeature {
			return img.ThumbnailPath, img.ImageHDPath
		}
	}
	if len(album.Images) > 0 {
		return album.Images[0].ThumbnailPath, album.Images[0].ImageHDPath
	}
	if len(album.Albums) > 0 {
		return album.Albums[0].ThumbnailPath, album.Albums[0].ImageHDPath
	}
	return "", ""
}
