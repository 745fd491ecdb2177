package v3

// RegistrationIndex is the root document of the v3 registration resource
// (the "{id}/index.json" endpoint): one page per contiguous version range.
type RegistrationIndex struct {
	ID    string             `json:"@id,omitempty"`
	Count int                `json:"count"`
	Items []RegistrationPage `json:"items"`
}

// RegistrationPage is one inlined-or-paged slice of a registration index.
// Large packages split their versions across multiple pages; a page whose
// Items is empty must be fetched separately from ID.
type RegistrationPage struct {
	ID    string             `json:"@id,omitempty"`
	Count int                `json:"count"`
	Lower string             `json:"lower,omitempty"`
	Upper string             `json:"upper,omitempty"`
	Items []RegistrationLeaf `json:"items"`
}

// RegistrationLeaf wraps one version's catalog entry plus its download URL.
type RegistrationLeaf struct {
	ID             string               `json:"@id,omitempty"`
	CatalogEntry   *RegistrationCatalog `json:"catalogEntry,omitempty"`
	PackageContent string               `json:"packageContent,omitempty"`
}

// RegistrationCatalog is the per-version metadata payload: everything the
// registry knows about one (id, version) pair, including its dependency
// groups.
type RegistrationCatalog struct {
	ID                       string            `json:"@id,omitempty"`
	PackageID                string            `json:"id"`
	Version                  string            `json:"version"`
	Title                    string            `json:"title,omitempty"`
	Description              string            `json:"description,omitempty"`
	Summary                  string            `json:"summary,omitempty"`
	Authors                  string            `json:"authors,omitempty"`
	Tags                     []string          `json:"tags,omitempty"`
	IconURL                  string            `json:"iconUrl,omitempty"`
	LicenseURL               string            `json:"licenseUrl,omitempty"`
	LicenseExpression        string            `json:"licenseExpression,omitempty"`
	ProjectURL               string            `json:"projectUrl,omitempty"`
	RequireLicenseAcceptance bool              `json:"requireLicenseAcceptance,omitempty"`
	Listed                   bool              `json:"listed,omitempty"`
	Published                string            `json:"published,omitempty"`
	DependencyGroups         []DependencyGroup `json:"dependencyGroups,omitempty"`
}

// DependencyGroup is the set of dependencies that apply under one target
// framework (or no framework, for an "Any" group).
type DependencyGroup struct {
	TargetFramework string       `json:"targetFramework,omitempty"`
	Dependencies    []Dependency `json:"dependencies,omitempty"`
}

// Dependency is one (id, range) pair within a DependencyGroup. Range is
// the raw NuGet version-range syntax, e.g. "[1.0.0, )".
type Dependency struct {
	ID    string `json:"id"`
	Range string `json:"range,omitempty"`
}
