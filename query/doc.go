// Package query builds GORM queries from fixture criteria. Criteria are
// flat maps or condition lists whose keys may be plain columns ("email"),
// operator-prefixed values ("gt.3"), or dotted association paths
// ("posts.tags.name") that the builder turns into LEFT JOIN chains by
// walking the model's parsed relationships.
package query
