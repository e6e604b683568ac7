package dto

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Text is a IIIF textual property.
//
// Portale Antenati emits plain strings, but the IIIF spec also allows a
// {"@value": ...} object, an array of either, or a language map
// ({"it": ["..."]}). The first value found is kept.
type Text string

// UnmarshalJSON accepts every textual form listed on Text.
func (t *Text) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s, ok := firstText(raw)
	if !ok {
		return fmt.Errorf("unsupported text value %s", data)
	}
	*t = Text(s)
	return nil
}

func (t *Text) String() string {
	if t == nil {
		return ""
	}
	return string(*t)
}

func firstText(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return fmt.Sprint(v), true
	case []any:
		if len(v) == 0 {
			return "", true
		}
		return firstText(v[0])
	case map[string]any:
		if value, ok := v["@value"]; ok {
			return firstText(value)
		}
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if s, ok := firstText(v[key]); ok {
				return s, true
			}
		}
	}
	return "", false
}
