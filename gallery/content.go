// Package gallery defines the content tree the rest of the system
// produces, filters and serves.
package gallery

import (
	"time"

	"galleria/classify"
)

// ImageExif is the best-effort subset of embedded metadata exposed on the
// wire. Parsing failures leave it nil; the item is still produced.
type ImageExif struct {
	CameraMake  string     `json:"camera_make,omitempty"`
	CameraModel string     `json:"camera_model,omitempty"`
	LensModel   string     `json:"lens_model,omitempty"`
	TakenAtUtc  *time.Time `json:"taken_at_utc,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
}

// ItemContent is the shared shape of albums and images.
type ItemContent struct {
	// Id is derived from the normalized relative path and is stable
	// across rebuilds for an unchanged path.
	Id   uint64 `json:"id"`
	Name string `json:"name"`
	// NavigationPathSegments reproduces the relative path from the
	// gallery root to this node, one component per element.
	NavigationPathSegments []string  `json:"navigation_path_segments"`
	ThumbnailPath          string    `json:"thumbnail_path"`
	LastUpdatedUtc         time.Time `json:"last_updated_utc"`
	// ItemTimestampUtc is the content-derived time: EXIF capture time
	// when present, the file time otherwise.
	ItemTimestampUtc time.Time `json:"item_timestamp_utc"`

	// Roles is the effective role set: own markers unioned with every
	// ancestor album's markers, with the implicit public kept only when
	// no restricting marker applies. Never serialized.
	Roles classify.RoleSet `json:"-"`
}

type ImageItemContent struct {
	ItemContent

	ImageHDPath       string     `json:"image_hd_path"`
	ImageUHDPath      string     `json:"image_uhd_path"`
	ImageOriginalPath string     `json:"image_original_path"`
	IsMovie           bool       `json:"is_movie"`
	ImageExif         *ImageExif `json:"image_exif,omitempty"`

	// IsFeature marks the preferred album cover. Internal only.
	IsFeature bool `json:"-"`
}

type AlbumItemContent struct {
	ItemContent

	ImageHDPath string `json:"image_hd_path"`

	Albums []*AlbumItemContent `json:"albums"`
	Images []*ImageItemContent `json:"images"`
}

// IsEmpty reports whether nothing survived below this album.
func (a *AlbumItemContent) IsEmpty() bool {
	return len(a.Albums) == 0 && len(a.Images) == 0
}
