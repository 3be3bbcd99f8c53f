package config

// Options is a free-form option bag used by parser config. Accessors are
// tolerant: missing keys or mismatched types return the fallback.
type Options map[string]any

// String returns the string value for key, or fallback when absent or not a
// string.
func (o Options) String(key, fallback string) string {
	if o == nil {
		return fallback
	}
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// Any returns the raw value for key, or nil.
func (o Options) Any(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

// StringMap returns a map[string]string for key. JSON decoding yields
// map[string]any, so non-string values are dropped.
func (o Options) StringMap(key string) map[string]string {
	out := map[string]string{}
	if o == nil {
		return out
	}
	switch m := o[key].(type) {
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	case map[string]any:
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}
