package app

import (
	"context"
	"fmt"
	"sync"

	sdkmath "cosmossdk.io/math"
)

// MemAsset is an in-memory fungible balance ledger implementing the premium
// asset interface the ledger-A keepers expect. Approvals are granted to the
// protocol as a whole: the components are the only spenders.
type MemAsset struct {
	mu         sync.Mutex
	balances   map[string]sdkmath.Int
	allowances map[string]sdkmath.Int
}

// NewMemAsset creates an empty asset ledger.
func NewMemAsset() *MemAsset {
	return &MemAsset{
		balances:   make(map[string]sdkmath.Int),
		allowances: make(map[string]sdkmath.Int),
	}
}

// Mint credits account out of thin air. Test and scenario setup only.
func (a *MemAsset) Mint(account string, amount sdkmath.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[account] = a.balance(account).Add(amount)
}

// Approve lets the protocol pull up to amount from owner.
func (a *MemAsset) Approve(owner string, amount sdkmath.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.allowances[owner] = amount
}

// TransferFrom moves amount from payer to to against payer's allowance.
func (a *MemAsset) TransferFrom(_ context.Context, payer, to string, amount sdkmath.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	allowance, ok := a.allowances[payer]
	if !ok || allowance.LT(amount) {
		return fmt.Errorf("insufficient allowance for %s", payer)
	}
	if a.balance(payer).LT(amount) {
		return fmt.Errorf("insufficient balance for %s", payer)
	}
	a.allowances[payer] = allowance.Sub(amount)
	a.balances[payer] = a.balance(payer).Sub(amount)
	a.balances[to] = a.balance(to).Add(amount)
	return nil
}

// Transfer moves amount from from to to.
func (a *MemAsset) Transfer(_ context.Context, from, to string, amount sdkmath.Int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.balance(from).LT(amount) {
		return fmt.Errorf("insufficient balance for %s", from)
	}
	a.balances[from] = a.balance(from).Sub(amount)
	a.balances[to] = a.balance(to).Add(amount)
	return nil
}

// BalanceOf returns account's balance.
func (a *MemAsset) BalanceOf(_ context.Context, account string) sdkmath.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance(account)
}

func (a *MemAsset) balance(account string) sdkmath.Int {
	if b, ok := a.balances[account]; ok {
		return b
	}
	return sdkmath.ZeroInt()
}

// MemNFT is an in-memory non-fungible record book implementing the registry's
// mint interface. Minting an existing token id rebinds it; the registry's
// terms-collision behavior depends on that overwrite surviving, so it is not
// an error here.
type MemNFT struct {
	mu     sync.Mutex
	owners map[string]string
}

// NewMemNFT creates an empty record book.
func NewMemNFT() *MemNFT {
	return &MemNFT{owners: make(map[string]string)}
}

// Mint binds tokenID to owner.
func (n *MemNFT) Mint(_ context.Context, to, tokenID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.owners[tokenID] = to
	return nil
}

// OwnerOf returns the owner of tokenID, empty when never minted.
func (n *MemNFT) OwnerOf(tokenID string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.owners[tokenID]
}
