package classify

import (
	"strings"
)

// Rules holds the naming convention markers that drive classification.
// The lists come from configuration; Normalize must run once before the
// rules are used.
type Rules struct {
	SkipSuffix   []string `yaml:"skip_suffix" json:"skip_suffix"`
	SkipPrefix   []string `yaml:"skip_prefix" json:"skip_prefix"`
	SkipContains []string `yaml:"skip_contains" json:"skip_contains"`

	RoleSuffix []string `yaml:"role_suffix" json:"role_suffix"`
	RolePrefix []string `yaml:"role_prefix" json:"role_prefix"`

	// Templates with a {X} placeholder, e.g. "custid_{X}_". The matched
	// placeholder text becomes the role identifier.
	ValueBasedRoleSuffix []string `yaml:"value_based_role_suffix" json:"value_based_role_suffix"`
	ValueBasedRolePrefix []string `yaml:"value_based_role_prefix" json:"value_based_role_prefix"`

	FeaturePhotoSuffix []string `yaml:"feature_photo_suffix" json:"feature_photo_suffix"`
	FeaturePhotoPrefix []string `yaml:"feature_photo_prefix" json:"feature_photo_prefix"`

	ImageExtensions []string `yaml:"image_extensions" json:"image_extensions"`
	MovieExtensions []string `yaml:"movie_extensions" json:"movie_extensions"`

	imageExt map[string]struct{}
	movieExt map[string]struct{}
	valueSfx []valueTemplate
	valuePfx []valueTemplate
}

// DefaultRules mirrors the conventions the archive grew around.
func DefaultRules() Rules {
	return Rules{
		SkipSuffix:           []string{"_skip", "_pss", "_noW"},
		SkipPrefix:           []string{"skip_", "pss_", "noW_"},
		SkipContains:         []string{"EosRP", "_thumbnails"},
		RoleSuffix:           []string{"_private", "_public", "-family", " extfamily", "_friends", "_custid"},
		RolePrefix:           []string{"private_", "public_", "family_", "extfamily_", "friends_", "custid_"},
		ValueBasedRoleSuffix: []string{"_custid_{X}", "-custid-{X}", " custid {X}"},
		ValueBasedRolePrefix: []string{"custid_{X}_", "custid-{X}-", "custid {X} "},
		FeaturePhotoSuffix:   []string{"_label", "_feature"},
		FeaturePhotoPrefix:   []string{"label_", "feature_"},
		ImageExtensions:      []string{".jpg", ".jpeg", ".png", ".webp"},
		MovieExtensions:      []string{".mp4", ".mov", ".avi", ".3gp"},
	}
}

// Normalize precompiles extension lookups and value templates.
func (r *Rules) Normalize() error {
	r.imageExt = make(map[string]struct{}, len(r.ImageExtensions))
	for _, e := range r.ImageExtensions {
		r.imageExt[normalizeExt(e)] = struct{}{}
	}
	r.movieExt = make(map[string]struct{}, len(r.MovieExtensions))
	for _, e := range r.MovieExtensions {
		r.movieExt[normalizeExt(e)] = struct{}{}
	}

	r.valueSfx = r.valueSfx[:0]
	for _, t := range r.ValueBasedRoleSuffix {
		vt, err := parseValueTemplate(t)
		if err != nil {
			return err
		}
		r.valueSfx = append(r.valueSfx, vt)
	}
	r.valuePfx = r.valuePfx[:0]
	for _, t := range r.ValueBasedRolePrefix {
		vt, err := parseValueTemplate(t)
		if err != nil {
			return err
		}
		r.valuePfx = append(r.valuePfx, vt)
	}
	return nil
}

// IsMediaFile reports whether the extension is on the allow-list.
func (r *Rules) IsMediaFile(name string) bool {
	ext := extOf(name)
	if _, ok := r.imageExt[ext]; ok {
		return true
	}
	_, ok := r.movieExt[ext]
	return ok
}

func (r *Rules) IsMovieFile(name string) bool {
	_, ok := r.movieExt[extOf(name)]
	return ok
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func extOf(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx:])
}
