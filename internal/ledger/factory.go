package ledger

import (
	"context"
	"log"
)

// Select picks the ledger backend for the configured environment. An absent
// contract address selects the stub; a real backend that fails to initialize
// also downgrades to the stub instead of aborting startup, so non-production
// environments stay usable without a chain. The returned name identifies the
// active backend for health diagnostics.
func Select(ctx context.Context, cfg EthereumConfig) (Ledger, string) {
	if cfg.ContractAddress == "" {
		log.Println("[Ledger] no contract address configured, using stub backend")
		return NewStub(), "stub"
	}

	eth, err := NewEthereum(ctx, cfg)
	if err != nil {
		log.Printf("[Ledger] ethereum backend unavailable (%v), falling back to stub", err)
		return NewStub(), "stub"
	}

	log.Printf("[Ledger] ethereum backend ready, contract %s", cfg.ContractAddress)
	return eth, "ethereum"
}
