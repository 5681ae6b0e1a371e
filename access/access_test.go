package access

import (
	"testing"

	"galleria/classify"
	"galleria/gallery"
)

func album(name string, roles ...classify.Role) *gallery.AlbumItemContent {
	return &gallery.AlbumItemContent{
		ItemContent: gallery.ItemContent{
			Name:  name,
			Roles: classify.NewRoleSet(roles...),
		},
	}
}

func image(name string, roles ...classify.Role) *gallery.ImageItemContent {
	return &gallery.ImageItemContent{
		ItemContent: gallery.ItemContent{
			Name:  name,
			Roles: classify.NewRoleSet(roles...),
		},
	}
}

func TestCanSee(t *testing.T) {
	family := classify.Role{Name: "family"}
	custid42 := classify.Role{Name: "custid", Value: "42"}

	tests := []struct {
		name   string
		viewer Viewer
		roles  classify.RoleSet
		want   bool
	}{
		{"guest sees public", Guest(), classify.NewRoleSet(classify.Public()), true},
		{"guest sees empty set", Guest(), classify.NewRoleSet(), true},
		{"guest denied family", Guest(), classify.NewRoleSet(classify.Public(), family), false},
		{"family viewer sees family", NewViewer(family), classify.NewRoleSet(classify.Public(), family), true},
		{"friends viewer denied family", NewViewer(classify.Role{Name: "friends"}), classify.NewRoleSet(family), false},
		{"exact custid matches", NewViewer(custid42), classify.NewRoleSet(custid42), true},
		{"other custid denied", NewViewer(classify.Role{Name: "custid", Value: "43"}), classify.NewRoleSet(custid42), false},
		{"bare custid name grants nothing", NewViewer(classify.Role{Name: "custid"}), classify.NewRoleSet(custid42), false},
		{"authenticated still sees public", NewViewer(family), classify.NewRoleSet(classify.Public()), true},
		{"public claim grants nothing restricted", NewViewer(classify.Public()), classify.NewRoleSet(family), false},
		{"public claim denied on mixed set", NewViewer(classify.Public()), classify.NewRoleSet(classify.Public(), family), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.viewer.CanSee(tt.roles); got != tt.want {
				t.Errorf("CanSee = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterPrunesDeniedSubtree(t *testing.T) {
	family := classify.Role{Name: "family"}

	// Restricted parent with a public-marked child inside. The parent
	// restriction must hide the whole subtree from a guest.
	inner := album("open_public", classify.Public(), family)
	inner.Images = append(inner.Images, image("a.jpg", classify.Public(), family))

	restricted := album("trip-family", classify.Public(), family)
	restricted.Albums = append(restricted.Albums, inner)

	root := album("gallery", classify.Public())
	root.Albums = append(root.Albums, restricted)
	root.Images = append(root.Images, image("cover.jpg", classify.Public()))

	got := Filter(root, Guest())
	if got == nil {
		t.Fatal("root with a public image must survive")
	}
	if len(got.Albums) != 0 {
		t.Errorf("restricted subtree leaked to guest: %d albums", len(got.Albums))
	}
	if len(got.Images) != 1 {
		t.Errorf("public image lost: %d images", len(got.Images))
	}

	gotFamily := Filter(root, NewViewer(family))
	if gotFamily == nil || len(gotFamily.Albums) != 1 {
		t.Fatal("family viewer must see the restricted album")
	}
	if len(gotFamily.Albums[0].Albums) != 1 {
		t.Error("family viewer must see the nested album")
	}
}

func TestFilterPublicClaimDoesNotUnlock(t *testing.T) {
	family := classify.Role{Name: "family"}

	restricted := album("family_trip", family)
	restricted.Images = append(restricted.Images, image("a.jpg", family))

	root := album("gallery", classify.Public())
	root.Albums = append(root.Albums, restricted)
	root.Images = append(root.Images, image("open.jpg", classify.Public()))

	got := FilterRoot(root, NewViewer(classify.Public()))
	if got == nil {
		t.Fatal("root must survive")
	}
	if len(got.Albums) != 0 {
		t.Error("a session claiming only the public role must not unlock restricted albums")
	}
	if len(got.Images) != 1 {
		t.Error("public content must stay visible")
	}
}

func TestFilterOmitsEmptiedAlbums(t *testing.T) {
	family := classify.Role{Name: "family"}

	child := album("mixed", classify.Public())
	child.Images = append(child.Images, image("secret.jpg", family))

	root := album("gallery", classify.Public())
	root.Albums = append(root.Albums, child)
	root.Images = append(root.Images, image("open.jpg", classify.Public()))

	got := Filter(root, Guest())
	if got == nil {
		t.Fatal("root must survive")
	}
	// "mixed" itself is visible but ends up empty, so it is dropped.
	if len(got.Albums) != 0 {
		t.Errorf("emptied album must be omitted, got %d albums", len(got.Albums))
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	family := classify.Role{Name: "family"}

	root := album("gallery", classify.Public())
	root.Images = append(root.Images,
		image("open.jpg", classify.Public()),
		image("secret.jpg", family),
	)

	_ = Filter(root, Guest())
	if len(root.Images) != 2 {
		t.Errorf("input tree mutated: %d images left", len(root.Images))
	}
}

func TestFilterRootKeepsEmptyRoot(t *testing.T) {
	family := classify.Role{Name: "family"}

	root := album("gallery", classify.Public())
	root.Images = append(root.Images, image("secret.jpg", family))

	got := FilterRoot(root, Guest())
	if got == nil {
		t.Fatal("root must be kept even when emptied")
	}
	if len(got.Albums) != 0 || len(got.Images) != 0 {
		t.Error("emptied root must expose no content")
	}
}
