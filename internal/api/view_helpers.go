package api

import "encoding/json"

// MetadataField extracts a string field from metadata JSON.
func MetadataField(metadataJSON, field, fallback string) string {
	if metadataJSON == "" {
		return fallback
	}
	var metadata map[string]any
	if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
		return fallback
	}
	value, ok := metadata[field].(string)
	if !ok || value == "" {
		return fallback
	}
	return value
}

// MetadataTitle extracts the published title from metadata JSON.
func MetadataTitle(metadataJSON string) string {
	return MetadataField(metadataJSON, "title", "Unknown")
}

// MetadataDescription extracts the published description from metadata JSON.
func MetadataDescription(metadataJSON string) string {
	return MetadataField(metadataJSON, "description", "")
}

// MetadataTags extracts the tag list from metadata JSON.
func MetadataTags(metadataJSON string) []string {
	if metadataJSON == "" {
		return nil
	}
	var metadata struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
		return nil
	}
	return metadata.Tags
}
