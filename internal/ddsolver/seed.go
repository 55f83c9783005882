// Public domain.

package ddsolver

import (
	"encoding/binary"
	"hash/fnv"
	"path/filepath"

	"github.com/soniakeys/discount/internal/ddfunc"
)

// SeedFor derives the random seed for fitting kind to the session file
// fn.  Only the base name of fn is used, so moving the data does not
// change results.  Fits seeded this way are repeatable regardless of the
// order or concurrency in which files are processed.
func SeedFor(seed uint64, fn string, kind ddfunc.Kind) uint64 {
	h := fnv.New64a()
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], seed)
	h.Write(b[:])
	h.Write([]byte(filepath.Base(fn)))
	h.Write([]byte{0, byte(kind)})
	return h.Sum64()
}
