package credstore

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/eldermate/internal/common"
)

// PreferenceKind enumerates the closed set of preference value types.
type PreferenceKind int

const (
	PrefString PreferenceKind = iota
	PrefNumber
	PrefBool
)

// Preference is a closed variant holding a string, a number, or a boolean.
// Anything else is rejected at the JSON boundary, keeping the store strongly
// typed end to end.
type Preference struct {
	kind PreferenceKind
	str  string
	num  float64
	b    bool
}

func StringPreference(v string) Preference {
	return Preference{kind: PrefString, str: v}
}

func NumberPreference(v float64) Preference {
	return Preference{kind: PrefNumber, num: v}
}

func BoolPreference(v bool) Preference {
	return Preference{kind: PrefBool, b: v}
}

func (p Preference) Kind() PreferenceKind { return p.kind }

// Value returns the underlying string, float64, or bool.
func (p Preference) Value() any {
	switch p.kind {
	case PrefNumber:
		return p.num
	case PrefBool:
		return p.b
	default:
		return p.str
	}
}

// String renders the value for display.
func (p Preference) String() string {
	switch p.kind {
	case PrefNumber:
		return strconv.FormatFloat(p.num, 'f', -1, 64)
	case PrefBool:
		return strconv.FormatBool(p.b)
	default:
		return p.str
	}
}

func (p Preference) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Value())
}

func (p *Preference) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case string:
		*p = StringPreference(value)
	case float64:
		*p = NumberPreference(value)
	case bool:
		*p = BoolPreference(value)
	default:
		return fmt.Errorf("%w: preference must be a string, number, or boolean", common.ErrorValidation)
	}
	return nil
}

// DefaultPreferences returns the preference set assigned to new users.
func DefaultPreferences() map[string]Preference {
	return map[string]Preference{
		"audio_enabled": BoolPreference(true),
		"font_size":     StringPreference("medium"),
		"theme":         StringPreference("default"),
	}
}
