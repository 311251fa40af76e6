package driver

import (
	"crypto/sha256"
	"encoding/binary"
)

// Digest is a SHA-256 value used as a cache key.
type Digest [32]byte

// combineDigest: H(content || part1 || part2 ...). Порядок частей фиксирован вызывающим.
func combineDigest(content Digest, parts ...[]byte) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, p := range parts {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(p)))
		_, _ = h.Write(n[:])
		_, _ = h.Write(p)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// resultKey identifies a cached check result: the file content, the path it
// is reported under and every option that changes the diagnostics.
func resultKey(content Digest, path string, opts Options) Digest {
	flags := []byte{0}
	if opts.ReportUnresolved {
		flags[0] = 1
	}
	var limit [8]byte
	binary.BigEndian.PutUint64(limit[:], uint64(int64(opts.MaxDiagnostics)))
	var schema [2]byte
	binary.BigEndian.PutUint16(schema[:], diskCacheSchemaVersion)
	return combineDigest(content, schema[:], []byte(path), flags, limit[:])
}
