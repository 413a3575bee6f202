package domain

// RawObject is a single entity or event returned by the SOAP service.
// Values are nil, string, int64, float64, bool, time.Time, RawObject or []RawObject.
// It is consumed immediately into a NormalizedRecord.
type RawObject map[string]any

// NormalizedRecord is a flat record keyed by lower-case, underscore-joined field names.
// Values are scalars or nil; timestamps are canonical RFC 3339 strings.
type NormalizedRecord map[string]any

// KeyValue returns the value stored under field and whether it is usable as a key.
// Nil values and empty strings are not usable.
func (r NormalizedRecord) KeyValue(field string) (any, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, false
	}
	if s, isString := v.(string); isString && s == "" {
		return nil, false
	}
	return v, true
}
