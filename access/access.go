// Package access prunes a built album tree down to what one viewer may
// see.
package access

import (
	"galleria/classify"
	"galleria/gallery"
)

// Viewer is the typed per-request identity: the granted role set,
// including exact identifiers for value-parameterized roles. It is
// constructed once from the session and threaded explicitly; tree logic
// never looks at raw headers.
type Viewer struct {
	Authenticated bool
	Roles         classify.RoleSet
}

func Guest() Viewer {
	return Viewer{}
}

func NewViewer(roles ...classify.Role) Viewer {
	return Viewer{
		Authenticated: true,
		Roles:         classify.NewRoleSet(roles...),
	}
}

// CanSee reports whether the effective role set of a node admits the
// viewer. Public-only nodes admit everyone; anything else needs an exact
// restricting role (for value roles the identifier must match, the bare
// role name grants nothing). A session claiming "public" gets exactly
// what a guest gets: the public role never unlocks restricted content.
func (v Viewer) CanSee(roles classify.RoleSet) bool {
	if roles.PublicOnly() {
		return true
	}
	if !v.Authenticated {
		return false
	}
	for r := range v.Roles {
		if !r.IsPublic() && roles.Contains(r) {
			return true
		}
	}
	return false
}

// Filter returns the visible copy of album, or nil when the album itself
// is denied or nothing survives underneath it. A denied album blocks the
// whole subtree regardless of descendant markers; albums left empty are
// omitted entirely.
func Filter(album *gallery.AlbumItemContent, viewer Viewer) *gallery.AlbumItemContent {
	if album == nil || !viewer.CanSee(album.Roles) {
		return nil
	}

	out := *album
	out.Albums = make([]*gallery.AlbumItemContent, 0, len(album.Albums))
	out.Images = make([]*gallery.ImageItemContent, 0, len(album.Images))

	for _, child := range album.Albums {
		if filtered := Filter(child, viewer); filtered != nil {
			out.Albums = append(out.Albums, filtered)
		}
	}
	for _, img := range album.Images {
		if viewer.CanSee(img.Roles) {
			out.Images = append(out.Images, img)
		}
	}

	if out.IsEmpty() {
		return nil
	}
	return &out
}

// FilterRoot behaves like Filter but keeps the gallery root itself even
// when everything below it was pruned.
func FilterRoot(root *gallery.AlbumItemContent, viewer Viewer) *gallery.AlbumItemContent {
	if filtered := Filter(root, viewer); filtered != nil {
		return filtered
	}
	if root == nil {
		return nil
	}
	out := *root
	out.Albums = []*gallery.AlbumItemContent{}
	out.Images = []*gallery.ImageItemContent{}
	return &out
}
