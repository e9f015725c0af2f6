package normalize

// Linear is the (multiply, offset) mapping between a UI-displayed numeric
// value and the raw payload value sent to the provider:
//
//	payload = display*Multiply + Offset
type Linear struct {
	Multiply float64
	Offset   float64
}

// LinearFrom builds a Linear from optional config fields. Unset fields mean
// identity; a zero multiplier would make the mapping non-invertible, so it
// is treated as unset.
func LinearFrom(multiply, offset *float64) Linear {
	l := Linear{Multiply: 1}
	if multiply != nil && *multiply != 0 {
		l.Multiply = *multiply
	}
	if offset != nil {
		l.Offset = *offset
	}
	return l
}

// IsIdentity reports whether the transform changes nothing.
func (l Linear) IsIdentity() bool {
	return l.Multiply == 1 && l.Offset == 0
}

// Forward maps a displayed value to the payload value.
func (l Linear) Forward(display float64) float64 {
	return display*l.Multiply + l.Offset
}

// Inverse maps a stored payload value back to its displayed value.
func (l Linear) Inverse(payload float64) float64 {
	return (payload - l.Offset) / l.Multiply
}

// Number coerces the numeric representations a decoded JSON document or a
// config value can carry into a float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
