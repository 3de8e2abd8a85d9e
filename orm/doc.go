// Package orm wraps GORM for fixture management. fixkit does not implement
// persistence or mapping itself; this package is the seam through which the
// fixture module reaches the ORM's session, metadata, and query machinery.
//
// DB owns the connection and its pool, Session is the unit-of-work handle a
// scenario runs in (usually a transaction rolled back afterwards), and the
// metadata helpers expose GORM's parsed schema so callers can resolve table
// names, primary keys, and association paths without repeating reflection.
package orm
