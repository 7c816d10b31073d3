package store

// Pointer-to-driver-value helpers. database/sql does not accept typed
// pointers directly, so nil pointers become SQL NULLs here.

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func nullInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
