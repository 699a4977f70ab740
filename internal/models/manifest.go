package models

// Manifest is the derived JSON tree describing the published content
// structure. It is rebuilt in full from the live object listing after
// every publish and fully replaces the prior version in the store.
type Manifest struct {
	RootLabel string         `json:"rootLabel"`
	RootPath  string         `json:"rootPath"`
	Children  []ManifestNode `json:"children"`
}

// ManifestNode is one entry in the manifest tree. Files carry Extension
// (lowercased, may be empty) and no Children; directories the reverse.
type ManifestNode struct {
	Type      string         `json:"type"` // file or directory
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	Extension *string        `json:"extension,omitempty"`
	Children  []ManifestNode `json:"children,omitempty"`
}
