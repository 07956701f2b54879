package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// Well-known collection keys of UserData.
const (
	KeyJournalEntries      = "journal_entries"
	KeyEmotionEntries      = "emotion_entries"
	KeyFinancialAccounts   = "financial_accounts"
	KeyGoals               = "goals"
	KeyProjects            = "projects"
	KeyProductivityEntries = "productivity_entries"
	KeyVisionBoard         = "vision_board"
	KeyMetadata            = "metadata"
)

const (
	MetaLastSync          = "last_sync"
	MetaDataSchemaVersion = "data_schema_version"

	// SchemaVersion is the current plaintext schema version.
	SchemaVersion = 1
)

// Collections lists the collection keys in display order.
var Collections = []string{
	KeyJournalEntries,
	KeyEmotionEntries,
	KeyFinancialAccounts,
	KeyGoals,
	KeyProjects,
	KeyProductivityEntries,
	KeyVisionBoard,
}

var (
	ErrIncorrectMetadata = errors.New("metadata item must be name=value")
	ErrUnknownCollection = errors.New("unknown collection")
)

// UserData is the decrypted payload: named collections kept as raw JSON so
// keys written by newer clients survive a round trip. The empty object is a
// valid value.
type UserData map[string]json.RawMessage

// Clone returns a shallow copy of d. The raw values are shared, which is
// safe because they are never modified in place.
func (d UserData) Clone() UserData {
	if d == nil {
		return UserData{}
	}
	return maps.Clone(d)
}

// Counts returns the number of entries in each populated collection.
func (d UserData) Counts() map[string]int {
	out := make(map[string]int, len(d))
	for k, v := range d {
		if k == KeyMetadata {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(v, &items); err == nil {
			out[k] = len(items)
		}
	}
	return out
}

// Collection decodes the collection stored under key. A missing key yields
// an empty slice.
func Collection[T any](d UserData, key string) ([]T, error) {
	raw, ok := d[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("collection %s: %w", key, err)
	}
	return items, nil
}

// SetCollection encodes items under key.
func SetCollection[T any](d UserData, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("collection %s: %w", key, err)
	}
	d[key] = b
	return nil
}

// Metadata decodes the metadata object. A missing key yields an empty map.
func (d UserData) Metadata() (map[string]json.RawMessage, error) {
	meta := map[string]json.RawMessage{}
	raw, ok := d[KeyMetadata]
	if !ok || string(raw) == "null" {
		return meta, nil
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	if meta == nil {
		meta = map[string]json.RawMessage{}
	}
	return meta, nil
}

// IsCollection reports whether key names a known collection.
func IsCollection(key string) bool {
	for _, c := range Collections {
		if c == key {
			return true
		}
	}
	return false
}

// MetadataFromString parses "name=value" pairs into a metadata patch. Values
// that are valid JSON are kept as such, anything else is stored as a string.
func MetadataFromString(items []string) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(items))
	for _, item := range items {
		name, value, ok := strings.Cut(item, "=")
		if !ok || name == "" {
			return nil, ErrIncorrectMetadata
		}
		if json.Valid([]byte(value)) {
			out[name] = json.RawMessage(value)
			continue
		}
		b, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		out[name] = b
	}
	return out, nil
}

// Merge overlays partial on current. Top-level keys of partial replace those
// of current; metadata is merged field by field, and its last_sync and
// data_schema_version fields are always refreshed. Neither input is modified.
func Merge(current, partial UserData, now time.Time) (UserData, error) {
	merged := current.Clone()
	for k, v := range partial {
		if k == KeyMetadata {
			continue
		}
		merged[k] = v
	}

	meta, err := current.Metadata()
	if err != nil {
		return nil, err
	}
	patch, err := partial.Metadata()
	if err != nil {
		return nil, err
	}
	maps.Copy(meta, patch)

	lastSync, err := json.Marshal(now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, err
	}
	meta[MetaLastSync] = lastSync
	meta[MetaDataSchemaVersion] = json.RawMessage(fmt.Sprint(SchemaVersion))

	b, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	merged[KeyMetadata] = b
	return merged, nil
}
