package util

// Ptr returns a pointer to v. Handy for nullable columns in overrides:
//
//	f.Have(ctx, "users", factory.Attrs{"Nickname": util.Ptr("ally")})
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns the value p points to, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// DerefOr returns the value p points to, or def when p is nil.
func DerefOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
