// Package parser extracts payloads and panel references from saved-object documents.
package parser

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/starford/assetexport/internal/apperr"
	"github.com/starford/assetexport/internal/models"
)

// PanelsField is the dashboard payload field holding the serialized panel list.
const PanelsField = "panelsJSON"

const sourceField = "_source"

// DecodeEnvelope decodes a raw document-store response.
func DecodeEnvelope(data []byte) (models.Envelope, error) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	return env, nil
}

// Strip returns the _source payload of env. When env has no payload
// (absent or null) it returns models.Missing and false.
func Strip(env models.Envelope) (models.Payload, bool) {
	raw, ok := env[sourceField]
	if !ok || isNull(raw) {
		return models.Missing, false
	}
	return models.Payload(raw), true
}

// StringField reads key from an object payload as a string.
// It returns false when p is not an object, the key is absent,
// or the value is not a string.
func StringField(p models.Payload, key string) (string, bool) {
	obj, ok := object(json.RawMessage(p))
	if !ok {
		return "", false
	}
	return stringValue(obj, key)
}

// ParsePanels parses a dashboard's serialized panel list into a mapping
// from panel id to panel type. Backslashes are removed before decoding.
// Absent id or type fields map to the empty string; when two entries share
// an id the later one wins.
func ParsePanels(raw string) (map[string]models.AssetType, error) {
	cleaned := strings.ReplaceAll(raw, `\`, "")

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, &apperr.ParseError{Field: PanelsField, Err: err}
	}

	panels := make(map[string]models.AssetType, len(items))
	for _, item := range items {
		p := panelFrom(item)
		panels[p.ID] = p.Type
	}
	return panels, nil
}

func panelFrom(item json.RawMessage) models.Panel {
	obj, ok := object(item)
	if !ok {
		return models.Panel{}
	}
	id, _ := stringValue(obj, "id")
	typ, _ := stringValue(obj, "type")
	return models.Panel{ID: id, Type: models.AssetType(typ)}
}

func object(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if isNull(raw) {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func stringValue(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
