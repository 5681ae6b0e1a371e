// Package classify turns file and folder names into classification
// verdicts based on configured naming convention markers. It is a pure
// function of (rules, name); no I/O happens here.
package classify

import (
	"fmt"
	"strings"
)

// Verdict is the outcome of classifying one directory entry name.
type Verdict struct {
	// Skip excludes the node and its whole subtree. Skip wins over every
	// other marker.
	Skip bool
	// Roles holds every matched role marker. Empty match lists collapse
	// to the implicit public role.
	Roles RoleSet
	// IsFeature marks a preferred album cover photo.
	IsFeature bool
}

// Classify matches name against the rules. Matching is case-insensitive
// and runs in a fixed order: a known media extension is stripped first,
// suffix/prefix markers are tested against the stem, contains rules
// against the full name. Skip rules short-circuit.
func Classify(rules *Rules, name string) Verdict {
	stem := name
	if ext := extOf(name); ext != "" {
		if _, ok := rules.imageExt[ext]; ok {
			stem = name[:len(name)-len(ext)]
		} else if _, ok := rules.movieExt[ext]; ok {
			stem = name[:len(name)-len(ext)]
		}
	}

	lowerStem := strings.ToLower(stem)
	lowerName := strings.ToLower(name)

	if matchesSkip(rules, lowerStem, lowerName) {
		return Verdict{Skip: true}
	}

	roles := NewRoleSet()
	for _, marker := range rules.RoleSuffix {
		if strings.HasSuffix(lowerStem, strings.ToLower(marker)) {
			roles.Add(Role{Name: markerRoleName(marker)})
		}
	}
	for _, marker := range rules.RolePrefix {
		if strings.HasPrefix(lowerStem, strings.ToLower(marker)) {
			roles.Add(Role{Name: markerRoleName(marker)})
		}
	}
	for _, vt := range rules.valueSfx {
		if role, ok := vt.matchSuffix(stem, lowerStem); ok {
			roles.Add(role)
		}
	}
	for _, vt := range rules.valuePfx {
		if role, ok := vt.matchAnywhere(stem, lowerStem); ok {
			roles.Add(role)
		}
	}
	if len(roles) == 0 {
		roles.Add(Public())
	}

	feature := false
	for _, marker := range rules.FeaturePhotoSuffix {
		if strings.HasSuffix(lowerStem, strings.ToLower(marker)) {
			feature = true
			break
		}
	}
	if !feature {
		for _, marker := range rules.FeaturePhotoPrefix {
			if strings.HasPrefix(lowerStem, strings.ToLower(marker)) {
				feature = true
				break
			}
		}
	}

	return Verdict{Roles: roles, IsFeature: feature}
}

func matchesSkip(rules *Rules, lowerStem, lowerName string) bool {
	for _, marker := range rules.SkipSuffix {
		if strings.HasSuffix(lowerStem, strings.ToLower(marker)) {
			return true
		}
	}
	for _, marker := range rules.SkipPrefix {
		if strings.HasPrefix(lowerStem, strings.ToLower(marker)) {
			return true
		}
	}
	for _, marker := range rules.SkipContains {
		if strings.Contains(lowerName, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

const valuePlaceholder = "{X}"

// valueTemplate is a compiled value-based role marker, split at the {X}
// placeholder.
type valueTemplate struct {
	role   string
	before string // literal before {X}, lowercased
	after  string // literal after {X}, lowercased
}

func parseValueTemplate(t string) (valueTemplate, error) {
	idx := strings.Index(t, valuePlaceholder)
	if idx < 0 {
		return valueTemplate{}, fmt.Errorf("value role marker %q has no %s placeholder", t, valuePlaceholder)
	}
	before := t[:idx]
	after := t[idx+len(valuePlaceholder):]
	name := markerRoleName(before)
	if name == "" {
		name = markerRoleName(after)
	}
	if name == "" {
		return valueTemplate{}, fmt.Errorf("value role marker %q has no literal part", t)
	}
	return valueTemplate{
		role:   name,
		before: strings.ToLower(before),
		after:  strings.ToLower(after),
	}, nil
}

// matchSuffix requires the rendered marker to close the stem, e.g.
// "beach_custid_42" against "_custid_{X}".
func (vt valueTemplate) matchSuffix(stem, lowerStem string) (Role, bool) {
	idx := strings.LastIndex(lowerStem, vt.before)
	if idx < 0 {
		return Role{}, false
	}
	rest := stem[idx+len(vt.before):]
	lowerRest := lowerStem[idx+len(vt.before):]
	if !strings.HasSuffix(lowerRest, vt.after) {
		return Role{}, false
	}
	value := rest[:len(rest)-len(vt.after)]
	if value == "" {
		return Role{}, false
	}
	return Role{Name: vt.role, Value: value}, true
}

// matchAnywhere accepts the marker embedded mid-name, e.g.
// "report_custid_42_summer" against "custid_{X}_" captures "42".
func (vt valueTemplate) matchAnywhere(stem, lowerStem string) (Role, bool) {
	idx := strings.Index(lowerStem, vt.before)
	if idx < 0 {
		return Role{}, false
	}
	rest := stem[idx+len(vt.before):]
	lowerRest := lowerStem[idx+len(vt.before):]

	var value string
	if vt.after == "" {
		value = rest
	} else {
		end := strings.Index(lowerRest, vt.after)
		if end < 0 {
			return Role{}, false
		}
		value = rest[:end]
	}
	if value == "" {
		return Role{}, false
	}
	return Role{Name: vt.role, Value: value}, true
}

// markerRoleName reduces a marker literal to the role it grants:
// "_private" and "private_" both yield "private".
func markerRoleName(marker string) string {
	return strings.ToLower(strings.Trim(marker, "_- {}"))
}
