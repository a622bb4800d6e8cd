package address_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/xraph/subchain/address"
	"github.com/xraph/subchain/id"
)

func TestResolveDeterministic(t *testing.T) {
	program := id.NewProgramID()
	subscriber := id.NewAccountID()
	r := address.NewSeedResolver(program)

	a1, b1, err := r.Resolve(address.SubscriptionSeed, subscriber)
	if err != nil {
		t.Fatal(err)
	}
	a2, b2, err := r.Resolve(address.SubscriptionSeed, subscriber)
	if err != nil {
		t.Fatal(err)
	}
	if a1 != a2 || b1 != b2 {
		t.Fatalf("resolve not deterministic: %s/%d vs %s/%d", a1, b1, a2, b2)
	}
	if a1.IsZero() {
		t.Fatal("resolved zero address")
	}
	if err := r.Verify(address.SubscriptionSeed, subscriber, b1, a1); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestResolveDistinct(t *testing.T) {
	program := id.NewProgramID()
	r := address.NewSeedResolver(program)

	cfg, _, err := r.Resolve(address.ConfigSeed, id.Nil)
	if err != nil {
		t.Fatal(err)
	}

	seen := map[address.Address]bool{cfg: true}
	for i := 0; i < 20; i++ {
		a, _, err := r.Resolve(address.SubscriptionSeed, id.NewAccountID())
		if err != nil {
			t.Fatal(err)
		}
		if seen[a] {
			t.Fatalf("collision at %s", a)
		}
		seen[a] = true
	}

	other := address.NewSeedResolver(id.NewProgramID())
	otherCfg, _, err := other.Resolve(address.ConfigSeed, id.Nil)
	if err != nil {
		t.Fatal(err)
	}
	if otherCfg == cfg {
		t.Fatal("config address should differ across programs")
	}
}

func TestVerifyMismatch(t *testing.T) {
	r := address.NewSeedResolver(id.NewProgramID())
	subscriber := id.NewAccountID()

	a, bump, err := r.Resolve(address.SubscriptionSeed, subscriber)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Verify(address.SubscriptionSeed, id.NewAccountID(), bump, a); !errors.Is(err, address.ErrMismatch) {
		t.Errorf("wrong owner: got %v, want ErrMismatch", err)
	}
	if err := r.Verify(address.ConfigSeed, subscriber, bump, a); !errors.Is(err, address.ErrMismatch) {
		t.Errorf("wrong seed: got %v, want ErrMismatch", err)
	}
}

func TestSeedTooLong(t *testing.T) {
	r := address.NewSeedResolver(id.NewProgramID())
	long := strings.Repeat("x", address.MaxSeedLen+1)

	if _, _, err := r.Resolve(long, id.Nil); !errors.Is(err, address.ErrSeedTooLong) {
		t.Errorf("got %v, want ErrSeedTooLong", err)
	}
}

func TestParse(t *testing.T) {
	r := address.NewSeedResolver(id.NewProgramID())
	a, _, err := r.Resolve(address.ConfigSeed, id.Nil)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := address.Parse(a.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != a {
		t.Errorf("Parse(String()) = %s, want %s", parsed, a)
	}

	for _, bad := range []string{"", "zz", "abcd"} {
		if _, err := address.Parse(bad); !errors.Is(err, address.ErrInvalid) {
			t.Errorf("Parse(%q): got %v, want ErrInvalid", bad, err)
		}
	}
}
