package essence

import "strings"

// Key is a symbolic settings key. Plain strings are accepted wherever a Key
// is, and both normalize to the same logical key.
type Key string

// Settings holds per-content configuration with normalized keys.
type Settings map[string]any

// Options holds caller-supplied render options with normalized keys.
type Options map[string]any

// NormalizeKey maps symbol-style and string keys onto one canonical form.
// Surrounding whitespace and a single leading ':' are removed, so ":key",
// "key" and Key("key") are the same logical key.
func NormalizeKey[K ~string](key K) string {
	s := strings.TrimSpace(string(key))
	return strings.TrimPrefix(s, ":")
}

// NewSettings copies raw into a Settings map with normalized keys. When two
// raw keys normalize to the same key the plain string form wins.
func NewSettings(raw map[string]any) Settings {
	return Settings(normalizeMap(raw))
}

// NewOptions copies raw into an Options map with normalized keys.
func NewOptions(raw map[string]any) Options {
	return Options(normalizeMap(raw))
}

// Get looks key up, tolerating maps that were built without NewSettings.
func (s Settings) Get(key string) (any, bool) {
	return lookup(s, key)
}

// Get looks key up, tolerating maps that were built without NewOptions.
func (o Options) Get(key string) (any, bool) {
	return lookup(o, key)
}

// With returns a copy of o with key set to value.
func (o Options) With(key string, value any) Options {
	out := make(Options, len(o)+1)
	for k, v := range o {
		out[k] = v
	}
	out[NormalizeKey(key)] = value
	return out
}

// ValueFromSettingsOrOptions returns the effective value for key. Options
// take precedence over the content's settings; a key present in options wins
// even when its value is nil. The second return value is false when neither
// source defines the key.
//
// A nil content only consults options.
func ValueFromSettingsOrOptions[K ~string](content *Content, options Options, key K) (any, bool) {
	k := NormalizeKey(key)
	if v, ok := options.Get(k); ok {
		return v, true
	}
	if content == nil {
		return nil, false
	}
	return content.Settings.Get(k)
}

func normalizeMap(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		nk := NormalizeKey(k)
		if _, taken := out[nk]; taken && nk != k {
			continue
		}
		out[nk] = v
	}
	return out
}

func lookup[M ~map[string]any](m M, key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	k := NormalizeKey(key)
	if v, ok := m[k]; ok {
		return v, true
	}
	for raw, v := range m {
		if NormalizeKey(raw) == k {
			return v, true
		}
	}
	return nil, false
}
