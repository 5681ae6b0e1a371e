// Package variants resolves the resolution renditions of a media file
// and reads its embedded metadata.
//
// Renditions live next to the originals under
// <root>/_thumbnails/<height>/<relative path>; movie renditions are jpg
// stills. A missing HD/UHD rendition falls back to the original file; a
// missing thumbnail is a data-integrity warning, never a failure.
package variants

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"galleria/classify"
	"galleria/exif"
	"galleria/gallery"
	"galleria/logging"
	"galleria/utils"

	"github.com/rs/zerolog/log"
)

const (
	ThumbnailsDir = "_thumbnails"

	ThumbHeight = 400
	HDHeight    = 1080
	UHDHeight   = 1440
)

// MetadataReader reads embedded metadata from an absolute file path.
// Implementations are best-effort; errors disable metadata for the item.
type MetadataReader interface {
	Read(ctx context.Context, absPath string) (exif.Summary, error)
}

// ExiftoolReader reads through the shared persistent exiftool session.
type ExiftoolReader struct{}

func (ExiftoolReader) Read(ctx context.Context, absPath string) (exif.Summary, error) {
	tool, err := exif.GetExiftool(ctx)
	if err != nil {
		return exif.Summary{}, err
	}
	raw, err := tool.Read(ctx, absPath)
	if err != nil {
		return exif.Summary{}, err
	}
	return exif.Summarize(raw), nil
}

type Resolver struct {
	root   string
	rules  *classify.Rules
	reader MetadataReader
}

// NewResolver creates a resolver rooted at the gallery folder. A nil
// reader disables embedded metadata entirely.
func NewResolver(root string, rules *classify.Rules, reader MetadataReader) *Resolver {
	return &Resolver{root: root, rules: rules, reader: reader}
}

// Resolve builds the image item for one media file. relPath is slash
// separated and relative to the gallery root.
func (r *Resolver) Resolve(ctx context.Context, relPath string, info fs.FileInfo) *gallery.ImageItemContent {
	logg := logging.Enter(ctx, "variants.resolve", map[string]any{"path": relPath})

	item := &gallery.ImageItemContent{
		ItemContent: gallery.ItemContent{
			Id:                     utils.PathID(relPath),
			Name:                   path.Base(relPath),
			NavigationPathSegments: utils.SplitSegments(relPath),
			LastUpdatedUtc:         info.ModTime().UTC(),
			ItemTimestampUtc:       info.ModTime().UTC(),
		},
		IsMovie:           r.rules.IsMovieFile(relPath),
		ImageOriginalPath: "/" + relPath,
	}

	item.ThumbnailPath = r.renditionPath(relPath, ThumbHeight)
	if ok, _ := utils.FileExists(filepath.Join(r.root, filepath.FromSlash(item.ThumbnailPath))); !ok {
		log.Logger.Warn().
			Str("path", relPath).
			Int("height", ThumbHeight).
			Msg("thumbnail rendition missing")
		item.ThumbnailPath = item.ImageOriginalPath
	}
	item.ImageHDPath = r.renditionOrOriginal(relPath, HDHeight)
	item.ImageUHDPath = r.renditionOrOriginal(relPath, UHDHeight)

	if r.reader != nil {
		summary, err := r.reader.Read(ctx, filepath.Join(r.root, filepath.FromSlash(relPath)))
		switch {
		case err != nil:
			// Malformed metadata never fails the item.
			logging.ErrorContinue(logg, err, map[string]any{"path": relPath})
		case !summary.IsZero():
			item.ImageExif = &gallery.ImageExif{
				CameraMake:  summary.CameraMake,
				CameraModel: summary.CameraModel,
				LensModel:   summary.LensModel,
				TakenAtUtc:  summary.TakenAt,
				Width:       summary.Width,
				Height:      summary.Height,
			}
			if summary.TakenAt != nil {
				item.ItemTimestampUtc = summary.TakenAt.UTC()
			}
		}
	}

	logging.Exit(logg, "ok", nil)
	return item
}

// renditionPath is the wire path of a rendition, without checking disk.
func (r *Resolver) renditionPath(relPath string, height int) string {
	rel := relPath
	if r.rules.IsMovieFile(relPath) {
		ext := path.Ext(rel)
		rel = strings.TrimSuffix(rel, ext) + ".jpg"
	}
	return "/" + path.Join(ThumbnailsDir, strconv.Itoa(height), rel)
}

func (r *Resolver) renditionOrOriginal(relPath string, height int) string {
	p := r.renditionPath(relPath, height)
	if ok, _ := utils.FileExists(filepath.Join(r.root, filepath.FromSlash(p))); ok {
		return p
	}
	return "/" + relPath
}
