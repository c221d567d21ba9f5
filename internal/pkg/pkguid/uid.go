package pkguid

// StringID mints opaque string ids: correlation ids, event ids and API
// tokens.
type StringID interface {
	Generate() string
}

// NumberID mints int64 primary keys.
type NumberID interface {
	Generate() int64
}
