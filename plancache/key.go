package plancache

import "github.com/atlassian-forks/mongo/internal/util"

// ShapeKey identifies a normalized query shape compiled under a particular
// catalog epoch. Two keys are equal only if both the shape fingerprint and
// the epoch match: the same query text normalized after an index change
// yields a distinct key, which is how stale plans become unreachable without
// rewriting stored entries.
//
// Shape derivation (predicate structure, requested fields and order,
// collation — everything except literal values) happens upstream; this
// package only fixes equality and hashing.
type ShapeKey struct {
	shape uint64
	epoch uint64
}

// NewShapeKey builds a key from an already-derived shape fingerprint.
func NewShapeKey(shapeFingerprint, epoch uint64) ShapeKey {
	return ShapeKey{shape: shapeFingerprint, epoch: epoch}
}

// KeyFromShape fingerprints normalized shape bytes and tags them with epoch.
// Callers must have stripped literal values before encoding the shape, so
// that queries differing only in literals map to the same key.
func KeyFromShape(shape []byte, epoch uint64) ShapeKey {
	return ShapeKey{shape: util.Sum64(shape), epoch: epoch}
}

// Fingerprint returns the structural shape fingerprint.
func (k ShapeKey) Fingerprint() uint64 { return k.shape }

// Epoch returns the catalog generation the key was derived under.
func (k ShapeKey) Epoch() uint64 { return k.epoch }

// Hash folds shape and epoch so keys for the same shape under different
// epochs still spread across partitions.
func (k ShapeKey) Hash() uint64 { return util.Sum64Pair(k.shape, k.epoch) }
