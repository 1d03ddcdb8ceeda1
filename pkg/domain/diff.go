package domain

import (
	"reflect"
)

// SettingsDiff lists the keys whose values differ between two snapshots.
// Deleted keys are present with a nil value.
type SettingsDiff map[string]any

// Diff calculates the difference between oldSettings and newSettings.
// If oldSettings is nil, the diff holds the entire newSettings (initial load).
func Diff(oldSettings, newSettings *Settings) SettingsDiff {
	diff := make(SettingsDiff)
	if newSettings == nil {
		return diff
	}

	if oldSettings == nil {
		for k, v := range newSettings.values {
			diff[k] = v
		}
		return diff
	}

	for k, v := range newSettings.values {
		oldVal, exists := oldSettings.values[k]
		if !exists || !reflect.DeepEqual(oldVal, v) {
			diff[k] = v
		}
	}

	for k := range oldSettings.values {
		if _, exists := newSettings.values[k]; !exists {
			diff[k] = nil
		}
	}

	return diff
}

// Empty reports whether no key changed.
func (d SettingsDiff) Empty() bool {
	return len(d) == 0
}
