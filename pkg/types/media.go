package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MediaItem is one uploaded asset attached to an artwork.
type MediaItem struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	PublicID string `json:"publicId,omitempty"`
}

// MediaList is persisted as a JSON array.
type MediaList []MediaItem

func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (m *MediaList) Scan(value interface{}) error {
	if value == nil {
		*m = MediaList{}
		return nil
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("media list: %w", err)
	}
	if len(raw) == 0 {
		*m = MediaList{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// FirstURL returns the first media url or an empty string.
func (m MediaList) FirstURL() string {
	if len(m) == 0 {
		return ""
	}
	return m[0].URL
}

// Without returns the list minus the item with publicID and whether it was present.
func (m MediaList) Without(publicID string) (MediaList, bool) {
	out := make(MediaList, 0, len(m))
	found := false
	for _, item := range m {
		if item.PublicID == publicID {
			found = true
			continue
		}
		out = append(out, item)
	}
	return out, found
}

// Embedding stores a float vector as a JSON array.
type Embedding []float32

func (e Embedding) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	data, err := json.Marshal([]float32(e))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (e *Embedding) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	var out []float32
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*e = out
	return nil
}

// StringList stores tag lists as a JSON array so both Postgres and SQLite can
// filter on it.
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (s *StringList) Scan(value interface{}) error {
	if value == nil {
		*s = StringList{}
		return nil
	}
	raw, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("string list: %w", err)
	}
	if len(raw) == 0 {
		*s = StringList{}
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*s = out
	return nil
}
