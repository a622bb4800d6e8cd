package extension

import (
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/xraph/subchain/bank"
	"github.com/xraph/subchain/bank/redisbank"
	"github.com/xraph/subchain/store"
	"github.com/xraph/subchain/store/memory"
	redisstore "github.com/xraph/subchain/store/redis"
)

type sqlLikeStore struct{ store.Store }

func TestPickTransferer(t *testing.T) {
	mr := miniredis.RunT(t)
	rs, err := redisstore.New(redisstore.Config{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatal(err)
	}
	defer rs.Close()

	explicit := bank.NewMemory()

	tests := []struct {
		name     string
		store    store.Store
		given    bank.Transferer
		want     func(bank.Transferer) bool
		fallback bool
		err      error
	}{
		{
			name:  "explicit wins",
			store: sqlLikeStore{},
			given: explicit,
			want:  func(got bank.Transferer) bool { return got == bank.Transferer(explicit) },
		},
		{
			name:  "redis store shares its client",
			store: rs,
			want: func(got bank.Transferer) bool {
				_, ok := got.(*redisbank.Bank)
				return ok
			},
		},
		{
			name:  "memory store falls back",
			store: memory.New(),
			want: func(got bank.Transferer) bool {
				_, ok := got.(*bank.Memory)
				return ok
			},
			fallback: true,
		},
		{
			name:  "persistent store without transferer",
			store: sqlLikeStore{},
			err:   ErrMissingTransferer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback, err := pickTransferer(tt.store, "test", tt.given)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.want(got) {
				t.Errorf("unexpected transferer %T", got)
			}
			if fallback != tt.fallback {
				t.Errorf("fallback = %v, want %v", fallback, tt.fallback)
			}
		})
	}
}
