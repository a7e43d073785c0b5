// Package models defines the domain types for asset export.
package models

import "encoding/json"

// AssetType is the saved-object type of a document in the store.
type AssetType string

// Supported asset types.
const (
	Dashboard     AssetType = "dashboard"
	Visualization AssetType = "visualization"
	Search        AssetType = "search"
)

// Valid reports whether t is one of the supported asset types.
func (t AssetType) Valid() bool {
	switch t {
	case Dashboard, Visualization, Search:
		return true
	}
	return false
}

func (t AssetType) String() string { return string(t) }

// Asset identifies a saved object by type and id.
type Asset struct {
	Type AssetType `json:"type"`
	ID   string    `json:"id"`
}

// Envelope is a raw document-store response: metadata fields
// (_index, _type, _id, ...) plus the _source payload.
type Envelope map[string]json.RawMessage

// Payload is the semantic content of an asset with store metadata removed.
type Payload json.RawMessage

// Missing is the sentinel returned when an envelope carries no payload.
var Missing Payload

// Panel is a dashboard-embedded reference to another asset.
// Absent fields in the serialized descriptor are left empty.
type Panel struct {
	ID   string    `json:"id"`
	Type AssetType `json:"type"`
}
