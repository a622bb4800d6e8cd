// Package codec encodes subchain records in their fixed-width binary
// layouts.
//
// Each layout starts with an 8-byte discriminator, the first eight bytes of
// sha256("account:<Name>"), followed by little-endian fields. Identities
// occupy a 32-byte slot holding the TypeID text, zero padded.
package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/creator"
	"github.com/xraph/subchain/id"
	"github.com/xraph/subchain/subscription"
	"github.com/xraph/subchain/tier"
	"github.com/xraph/subchain/types"
)

// Record names, as hashed into discriminators.
const (
	ConfigName       = "CreatorConfig"
	SubscriptionName = "Subscription"
)

const (
	// DiscriminatorSize is the length of the type tag prefix.
	DiscriminatorSize = 8

	// IdentitySize is the width of an identity slot.
	IdentitySize = 32

	// ConfigSpace is the encoded size of a creator configuration.
	ConfigSpace = DiscriminatorSize + IdentitySize + 3*8 + 1

	// SubscriptionSpace is the encoded size of a subscription.
	SubscriptionSpace = DiscriminatorSize + IdentitySize + 8 + 1 + 8 + 1

	// AccountHeaderSize prefixes an Account envelope with its balance.
	AccountHeaderSize = 8
)

var (
	// ErrShortBuffer is returned when data is smaller than the layout.
	ErrShortBuffer = errors.New("codec: buffer too short")

	// ErrDiscriminator is returned when the type tag does not match.
	ErrDiscriminator = errors.New("codec: discriminator mismatch")

	// ErrIdentityTooLong is returned when an identity does not fit its slot.
	ErrIdentityTooLong = errors.New("codec: identity exceeds slot")
)

var (
	configDisc       = Discriminator(ConfigName)
	subscriptionDisc = Discriminator(SubscriptionName)
)

// Discriminator returns the 8-byte type tag for a record name.
func Discriminator(name string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// EncodeConfig writes c in its 65-byte layout.
func EncodeConfig(c *creator.Config) ([]byte, error) {
	buf := make([]byte, ConfigSpace)
	copy(buf, configDisc[:])
	off := DiscriminatorSize

	if err := putIdentity(buf[off:off+IdentitySize], c.Creator); err != nil {
		return nil, err
	}
	off += IdentitySize

	for _, p := range c.Prices() {
		binary.LittleEndian.PutUint64(buf[off:], p.Uint64())
		off += 8
	}
	buf[off] = c.Bump
	return buf, nil
}

// DecodeConfig reads a creator configuration stored at addr.
func DecodeConfig(addr address.Address, data []byte) (*creator.Config, error) {
	if err := checkHeader(data, ConfigSpace, configDisc, ConfigName); err != nil {
		return nil, err
	}
	off := DiscriminatorSize

	who, err := getIdentity(data[off : off+IdentitySize])
	if err != nil {
		return nil, err
	}
	off += IdentitySize

	c := &creator.Config{Address: addr, Creator: who}
	c.MonthlyPrice = types.Lamports(binary.LittleEndian.Uint64(data[off:]))
	c.QuartalPrice = types.Lamports(binary.LittleEndian.Uint64(data[off+8:]))
	c.AnnualPrice = types.Lamports(binary.LittleEndian.Uint64(data[off+16:]))
	c.Bump = data[off+24]
	return c, nil
}

// EncodeSubscription writes s in its 58-byte layout.
func EncodeSubscription(s *subscription.Subscription) ([]byte, error) {
	if !s.Tier.Valid() {
		return nil, fmt.Errorf("codec: %w", tier.ErrInvalid)
	}

	buf := make([]byte, SubscriptionSpace)
	copy(buf, subscriptionDisc[:])
	off := DiscriminatorSize

	if err := putIdentity(buf[off:off+IdentitySize], s.Subscriber); err != nil {
		return nil, err
	}
	off += IdentitySize

	binary.LittleEndian.PutUint64(buf[off:], uint64(s.PausedAt))
	off += 8
	buf[off] = uint8(s.Tier)
	off++
	binary.LittleEndian.PutUint64(buf[off:], uint64(s.EndTimestamp))
	off += 8
	buf[off] = s.Bump
	return buf, nil
}

// DecodeSubscription reads a subscription stored at addr.
func DecodeSubscription(addr address.Address, data []byte) (*subscription.Subscription, error) {
	if err := checkHeader(data, SubscriptionSpace, subscriptionDisc, SubscriptionName); err != nil {
		return nil, err
	}
	off := DiscriminatorSize

	who, err := getIdentity(data[off : off+IdentitySize])
	if err != nil {
		return nil, err
	}
	off += IdentitySize

	s := &subscription.Subscription{Address: addr, Subscriber: who}
	s.PausedAt = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	t, err := tier.FromTag(data[off])
	if err != nil {
		return nil, fmt.Errorf("codec: %w", err)
	}
	s.Tier = t
	off++
	s.EndTimestamp = int64(binary.LittleEndian.Uint64(data[off:]))
	off += 8
	s.Bump = data[off]
	return s, nil
}

// Account pairs encoded record data with the balance held at its address.
type Account struct {
	Lamports types.Lamports
	Data     []byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (a Account) MarshalBinary() ([]byte, error) {
	buf := make([]byte, AccountHeaderSize+len(a.Data))
	binary.LittleEndian.PutUint64(buf, a.Lamports.Uint64())
	copy(buf[AccountHeaderSize:], a.Data)
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (a *Account) UnmarshalBinary(data []byte) error {
	if len(data) < AccountHeaderSize {
		return fmt.Errorf("%w: account header", ErrShortBuffer)
	}
	a.Lamports = types.Lamports(binary.LittleEndian.Uint64(data))
	a.Data = append([]byte(nil), data[AccountHeaderSize:]...)
	return nil
}

func checkHeader(data []byte, size int, want [DiscriminatorSize]byte, name string) error {
	if len(data) < size {
		return fmt.Errorf("%w: %s needs %d bytes, got %d", ErrShortBuffer, name, size, len(data))
	}
	if !bytes.Equal(data[:DiscriminatorSize], want[:]) {
		return fmt.Errorf("%w: expected %s", ErrDiscriminator, name)
	}
	return nil
}

func putIdentity(dst []byte, who id.ID) error {
	s := who.String()
	if len(s) > IdentitySize {
		return fmt.Errorf("%w: %q", ErrIdentityTooLong, s)
	}
	copy(dst, s)
	return nil
}

func getIdentity(src []byte) (id.ID, error) {
	text := bytes.TrimRight(src, "\x00")
	if len(text) == 0 {
		return id.Nil, nil
	}
	who, err := id.Parse(string(text))
	if err != nil {
		return id.Nil, fmt.Errorf("codec: identity: %w", err)
	}
	return who, nil
}
