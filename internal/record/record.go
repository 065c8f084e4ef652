package record

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"sort"
	"strings"
)

// DefaultHashAlgorithm is used when no algorithm is configured.
const DefaultHashAlgorithm = "sha512"

// InvalidMetaRef is stored when a markup field references a meta value
// that the record does not carry.
const InvalidMetaRef = "!#ERR - S.Key not valid!"

// Record is the flat attribute map of one scraped item.
type Record map[string]string

// Get returns the value stored under k.
func (r Record) Get(k Key) string {
	return r[k.String()]
}

// Set stores v under k.
func (r Record) Set(k Key, v string) {
	r[k.String()] = v
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the attribute names in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Attributes returns only the ordinary attributes of r.
func (r Record) Attributes() map[string]string {
	out := make(map[string]string, len(r))
	for k, v := range r {
		if !IsMetaName(k) {
			out[k] = v
		}
	}
	return out
}

// Canonical serializes r as JSON with keys in sorted order.
func (r Record) Canonical() ([]byte, error) {
	// encoding/json writes map keys sorted
	return json.Marshal(map[string]string(r))
}

// Hasher builds digests for record canonicalization.
type Hasher struct {
	algorithm string
	newHash   func() hash.Hash
}

// NewHasher returns a hasher for the named algorithm.
func NewHasher(algorithm string) (*Hasher, error) {
	algorithm = strings.ToLower(strings.TrimSpace(algorithm))
	if algorithm == "" {
		algorithm = DefaultHashAlgorithm
	}
	var fn func() hash.Hash
	switch algorithm {
	case "sha512":
		fn = sha512.New
	case "sha384":
		fn = sha512.New384
	case "sha256":
		fn = sha256.New
	case "sha1":
		fn = sha1.New
	case "md5":
		fn = md5.New
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
	return &Hasher{algorithm: algorithm, newHash: fn}, nil
}

// Algorithm returns the configured algorithm name.
func (h *Hasher) Algorithm() string { return h.algorithm }

// Digest returns the hex digest of the canonical form of r.
func (h *Hasher) Digest(r Record) (string, error) {
	payload, err := r.Canonical()
	if err != nil {
		return "", fmt.Errorf("canonicalize record: %w", err)
	}
	sum := h.newHash()
	sum.Write(payload)
	return hex.EncodeToString(sum.Sum(nil)), nil
}
