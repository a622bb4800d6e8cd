// Package subchain provides a single-creator subscription engine for Go
// applications.
//
// One creator publishes three tier prices (monthly, quarterly, annual).
// Subscribers pay the creator directly for a tier and receive a
// time-bounded subscription record which they can pause, resume, extend
// with a further paid period, or cancel. Every record sits at an address
// derived from a fixed seed and its owner's identity, so a caller can only
// ever touch its own subscription.
//
// subchain is designed as a library, not a service. The api package puts
// an HTTP boundary in front of a Program, and the extension package wires
// one into a Forge application.
//
// # Quick Start
//
//	p := subchain.New(memory.New(),
//	    subchain.WithLogger(slog.Default()),
//	    subchain.WithTransferer(bank.NewMemory()),
//	)
//	if err := p.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Stop()
//
//	cfg, err := p.CreateCreatorProfile(ctx, creatorID, 100, 250, 900)
//	sub, err := p.Subscribe(ctx, subscriberID, creatorID, tier.Quartal)
//
// # Lifecycle
//
// A subscription is Active while its end timestamp lies in the future,
// Paused while its pause marker is set, and Expired once the end has
// passed. Pausing records the current time; resuming pushes the end back by
// the time spent paused. Extending appends one period of the chosen tier to
// the current end. Cancelling closes the record in any state and refunds
// its storage deposit, never the price paid.
//
// # Payments
//
// Prices and deposits are Lamports, unsigned integer amounts of the
// native asset. Each operation submits its transfers to a bank.Transferer
// as one batch; when a later write fails the batch is reversed, so the
// records and the balances never disagree.
//
// # TypeID
//
// Callers are identified by TypeIDs:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41  // creator or subscriber
//	prog_01h455vb4pex5vsknk084sn02q  // program deployment
//
// Pin the program ID with WithProgramID in production: addresses derived
// under one program ID are unreachable under another.
package subchain
