package filetype

import "sort"

// Profile bundles a size ceiling with the ordered list of acceptable file
// types for one kind of upload. Profiles are a fixed table; there is no
// runtime reconfiguration.
type Profile struct {
	Name     string      // URL-safe identifier, e.g. "classroom_media"
	Label    string      // display name
	MaxBytes int64       // size ceiling, declared in whole megabytes
	Types    []Signature // acceptable types, in match order
}

// Labels returns the display names of the profile's accepted formats, in
// declaration order. Used to build UNSUPPORTED_TYPE rejection messages.
func (p Profile) Labels() []string {
	labels := make([]string, len(p.Types))
	for i, sig := range p.Types {
		labels[i] = sig.Label
	}
	return labels
}

// profiles is the fixed upload-profile table. Size ceilings and accepted
// formats mirror the platform's upload surfaces: classroom observation media,
// profile photos, guardian verification documents, roster CSV imports, and
// organization branding.
var profiles = map[string]Profile{
	"classroom_media": {
		Name:     "classroom_media",
		Label:    "Classroom media",
		MaxBytes: 25 << 20,
		Types:    []Signature{JPEG, PNG, GIF, WEBP, HEIC, MP4, PDF},
	},
	"avatar_photo": {
		Name:     "avatar_photo",
		Label:    "Avatar photo",
		MaxBytes: 5 << 20,
		Types:    []Signature{JPEG, PNG, WEBP},
	},
	"verification_document": {
		Name:     "verification_document",
		Label:    "Verification document",
		MaxBytes: 10 << 20,
		Types:    []Signature{PDF, JPEG, PNG},
	},
	"tabular_import": {
		Name:     "tabular_import",
		Label:    "Tabular data import",
		MaxBytes: 5 << 20,
		Types:    []Signature{CSV},
	},
	"organization_logo": {
		Name:     "organization_logo",
		Label:    "Organization logo",
		MaxBytes: 2 << 20,
		Types:    []Signature{PNG, JPEG, WEBP},
	},
}

// ByName returns the profile with the given name.
// Returns false if no such profile exists.
func ByName(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}

// All returns every declared profile, sorted by name for consistent ordering.
func All() []Profile {
	result := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
