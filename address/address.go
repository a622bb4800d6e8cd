// Package address derives canonical storage addresses for subchain records.
//
// Every record lives at an address computed from a fixed seed, an optional
// owner identity and the program ID. Callers never choose an address: they
// name the seed and identity, and the Resolver returns the only address the
// program will accept, together with the bump that produced it.
package address

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/xraph/subchain/id"
)

// Well-known seeds.
const (
	// ConfigSeed addresses the singleton creator configuration.
	ConfigSeed = "config"

	// SubscriptionSeed, combined with the subscriber identity, addresses a
	// subscription record.
	SubscriptionSeed = "SUBSCRIPTION_SEED"
)

// MaxSeedLen is the longest accepted seed, in bytes.
const MaxSeedLen = 32

// Size is the length of an address in bytes.
const Size = 32

const derivationMarker = "ProgramDerivedAddress"

var (
	// ErrSeedTooLong is returned for seeds longer than MaxSeedLen.
	ErrSeedTooLong = errors.New("address: seed too long")

	// ErrNoViableBump is returned when no bump yields a valid address.
	ErrNoViableBump = errors.New("address: unable to find a viable bump")

	// ErrMismatch is returned when a stored bump does not re-derive the stored address.
	ErrMismatch = errors.New("address: derived address mismatch")

	// ErrInvalid is returned when parsing a malformed address string.
	ErrInvalid = errors.New("address: invalid address")
)

// Address is a 32-byte record location.
type Address [Size]byte

// Zero is the empty address.
var Zero Address

// IsZero reports whether a is the empty address.
func (a Address) IsZero() bool { return a == Zero }

// String returns the lowercase hex encoding.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// Parse decodes a hex-encoded address.
func Parse(s string) (Address, error) {
	var a Address
	b, err := hex.DecodeString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q: %w", ErrInvalid, s, err)
	}
	if len(b) != Size {
		return Zero, fmt.Errorf("%w: %q has %d bytes", ErrInvalid, s, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Resolver maps a seed and optional identity to a canonical address.
type Resolver interface {
	// Resolve returns the canonical address and its bump. Pass id.Nil when
	// the record is not owned by an identity.
	Resolve(seed string, owner id.ID) (Address, uint8, error)

	// Verify re-derives the address for a previously resolved bump.
	Verify(seed string, owner id.ID, bump uint8, addr Address) error
}

// SeedResolver derives addresses by hashing the seed, owner identity, bump
// and program ID with SHA-256. The canonical bump is the highest value in
// [255, 0] whose digest has its top bit clear; this keeps the derived address
// space disjoint from any address a caller could produce without the bump.
type SeedResolver struct {
	program id.ID
}

var _ Resolver = (*SeedResolver)(nil)

// NewSeedResolver returns a resolver scoped to one program deployment.
func NewSeedResolver(program id.ID) *SeedResolver {
	return &SeedResolver{program: program}
}

// Program returns the program ID addresses are derived under.
func (r *SeedResolver) Program() id.ID { return r.program }

// Resolve implements Resolver.
func (r *SeedResolver) Resolve(seed string, owner id.ID) (Address, uint8, error) {
	if len(seed) > MaxSeedLen {
		return Zero, 0, fmt.Errorf("%w: %d bytes", ErrSeedTooLong, len(seed))
	}

	for bump := 255; bump >= 0; bump-- {
		digest := r.derive(seed, owner, uint8(bump))
		if viable(digest) {
			return digest, uint8(bump), nil
		}
	}
	return Zero, 0, ErrNoViableBump
}

// Verify implements Resolver.
func (r *SeedResolver) Verify(seed string, owner id.ID, bump uint8, addr Address) error {
	if len(seed) > MaxSeedLen {
		return fmt.Errorf("%w: %d bytes", ErrSeedTooLong, len(seed))
	}

	digest := r.derive(seed, owner, bump)
	if !viable(digest) || digest != addr {
		return fmt.Errorf("%w: seed %q bump %d", ErrMismatch, seed, bump)
	}
	return nil
}

func (r *SeedResolver) derive(seed string, owner id.ID, bump uint8) Address {
	h := sha256.New()
	h.Write([]byte(seed))
	if !owner.IsNil() {
		h.Write([]byte(owner.String()))
	}
	h.Write([]byte{bump})
	h.Write([]byte(r.program.String()))
	h.Write([]byte(derivationMarker))

	var a Address
	copy(a[:], h.Sum(nil))
	return a
}

func viable(a Address) bool {
	return a[Size-1]&0x80 == 0
}
