// Package cache maps request fingerprints to the ordered audio artifacts a
// fully successful synthesis produced. Artifacts live in a content-addressed
// disk store, optionally zstd compressed; the fingerprint index is kept in
// SQLite, fronted by an in-memory LRU and optionally mirrored to S3.
package cache
