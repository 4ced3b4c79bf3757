// Package logicalid assigns the deterministic identifiers used as document
// keys for synthesized entities.
//
// An identifier is a human-readable prefix (the path segments stripped to
// the document's identifier alphabet) followed by a fixed-length hash suffix
// computed over the full path. The suffix disambiguates prefixes that
// collide after stripping and ties the identifier to the node's complete
// ancestry, so moving a node to a different parent changes its id while
// renaming an unrelated sibling does not.
package logicalid

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	// HashLength is the length of the hex hash suffix.
	HashLength = 8

	// MaxLength bounds the total identifier length. The prefix is truncated
	// to fit; the hash suffix is always kept whole.
	MaxLength = 255

	hashDomain = "strata.logical-id.v1"
)

// ID computes the identifier for a stack-relative path. It is a pure
// function: the same path yields the same identifier in any process, which
// lets foreign stacks compute each other's identifiers without sharing
// allocator state.
func ID(path []string) (string, error) {
	if len(path) == 0 {
		return "", fmt.Errorf("cannot allocate an identifier for an empty path")
	}
	for _, seg := range path {
		if seg == "" {
			return "", fmt.Errorf("cannot allocate an identifier for path with empty segment: %q", strings.Join(path, "/"))
		}
		if strings.ContainsRune(seg, 0) {
			return "", fmt.Errorf("cannot allocate an identifier for path segment containing NUL: %q", strings.Join(path, "/"))
		}
	}

	prefix := readablePrefix(path)
	suffix := hashSuffix(path)
	if max := MaxLength - HashLength; len(prefix) > max {
		prefix = prefix[:max]
	}
	return prefix + suffix, nil
}

// readablePrefix concatenates the path segments, dropping every character
// outside the identifier alphabet.
func readablePrefix(path []string) string {
	var sb strings.Builder
	for _, seg := range path {
		for _, r := range seg {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

// hashSuffix hashes the full path, separating segments with a byte that
// cannot occur in segment text so that ["ab","c"] and ["a","bc"] differ.
func hashSuffix(path []string) string {
	h := sha256.New()
	h.Write([]byte(hashDomain))
	h.Write([]byte{0})
	for _, seg := range path {
		h.Write([]byte(seg))
		h.Write([]byte{0})
	}
	sum := h.Sum(nil)
	return strings.ToUpper(hex.EncodeToString(sum))[:HashLength]
}

// Allocator memoizes identifier allocation for one stack and detects
// collisions among the identifiers it handed out. It is not safe for
// concurrent use; each stack's synthesis pass owns one allocator.
type Allocator struct {
	byPath map[string]string
	byID   map[string]string
}

// NewAllocator returns an empty allocator.
func NewAllocator() *Allocator {
	return &Allocator{
		byPath: make(map[string]string),
		byID:   make(map[string]string),
	}
}

// Allocate returns the identifier for path, allocating and memoizing it on
// first use. Two distinct paths mapping to the same identifier fail with a
// fatal *AllocationError.
func (a *Allocator) Allocate(path []string) (string, error) {
	key := strings.Join(path, "/")
	if id, ok := a.byPath[key]; ok {
		return id, nil
	}

	id, err := ID(path)
	if err != nil {
		return "", err
	}
	if owner, taken := a.byID[id]; taken && owner != key {
		return "", &AllocationError{ID: id, Path: key, ConflictsWith: owner}
	}
	a.byPath[key] = id
	a.byID[id] = key
	return id, nil
}

// AllocationError reports two distinct paths resolving to the same
// identifier. This is an integrity failure, never recovered.
type AllocationError struct {
	ID            string
	Path          string
	ConflictsWith string
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("logical id collision: %q allocated for both %q and %q", e.ID, e.ConflictsWith, e.Path)
}
