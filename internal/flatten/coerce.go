package flatten

import "userflat/internal/userrecord/models"

// CoerceString maps the exact literals "true" and "false" to booleans and
// keeps every other string as is.
func CoerceString(s string) models.Value {
	switch s {
	case "true":
		return models.Bool(true)
	case "false":
		return models.Bool(false)
	default:
		return models.String(s)
	}
}

// CoerceTruthy applies CoerceString to string values and returns all other
// kinds unchanged.
func CoerceTruthy(v models.Value) models.Value {
	if s, ok := v.AsString(); ok {
		return CoerceString(s)
	}
	return v
}
