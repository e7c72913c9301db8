package versioning

// DocumentedVersion is one entry of the published site's version manifest,
// as recorded by the site generator on the publishing branch.
type DocumentedVersion struct {
	Version    string            `json:"version"`
	Title      string            `json:"title,omitempty"`
	Aliases    []string          `json:"aliases,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Commit returns the commit property, or "" when it was never recorded.
func (d DocumentedVersion) Commit() string {
	return d.Properties["commit"]
}

// Date returns the committer-date property, or "" when it was never recorded.
func (d DocumentedVersion) Date() string {
	return d.Properties["date"]
}

// Manifest is the record of which versions already have published
// documentation, keyed by version name. It is loaded once per run and passed
// explicitly; nothing mutates it besides the external generator itself.
type Manifest map[string]DocumentedVersion

// Has reports whether the version has a published entry.
func (m Manifest) Has(version string) bool {
	_, ok := m[version]
	return ok
}

// Versions returns all documented version names in unspecified order.
func (m Manifest) Versions() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}

// Highest returns the highest-ordered documented version name, or def when
// the manifest is empty.
func (m Manifest) Highest(def string) string {
	highest := def
	for name := range m {
		if Compare(name, highest) > 0 {
			highest = name
		}
	}
	return highest
}

// HighestRelease returns the highest-ordered documented version that is not
// a release candidate, or def when there is none.
func (m Manifest) HighestRelease(def string) string {
	highest := def
	for name := range m {
		if IsReleaseCandidate(name) {
			continue
		}
		if Compare(name, highest) > 0 {
			highest = name
		}
	}
	return highest
}
