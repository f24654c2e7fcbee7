package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// AuthOptions holds per-tip authentication options. Kinds are open-ended, so
// the map is string keyed and values are restricted to JSON primitives.
type AuthOptions map[string]any

// Validate rejects nested or non-primitive values.
func (o AuthOptions) Validate() error {
	for k, v := range o {
		if k == "" {
			return fmt.Errorf("auth option key is empty")
		}
		switch v.(type) {
		case nil, string, bool, float64, float32, int, int32, int64:
		default:
			return fmt.Errorf("auth option %q has unsupported type %T", k, v)
		}
	}
	return nil
}

// Value stores the options as a JSON object.
func (o AuthOptions) Value() (driver.Value, error) {
	if o == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(o))
}

// Scan reads a JSON object column.
func (o *AuthOptions) Scan(src any) error {
	out := AuthOptions{}
	switch v := src.(type) {
	case nil:
	case []byte:
		if len(v) > 0 {
			if err := json.Unmarshal(v, &out); err != nil {
				return err
			}
		}
	case string:
		if v != "" {
			if err := json.Unmarshal([]byte(v), &out); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("cannot scan %T into AuthOptions", src)
	}
	*o = out
	return nil
}

// Clone returns an independent copy.
func (o AuthOptions) Clone() AuthOptions {
	out := make(AuthOptions, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// StringList is a JSON-encoded list column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *StringList) Scan(src any) error {
	var out []string
	switch v := src.(type) {
	case nil:
	case []byte:
		if len(v) > 0 {
			if err := json.Unmarshal(v, &out); err != nil {
				return err
			}
		}
	case string:
		if v != "" {
			if err := json.Unmarshal([]byte(v), &out); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	if out == nil {
		out = []string{}
	}
	*l = out
	return nil
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}
