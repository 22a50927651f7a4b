package nats

import (
	"time"
)

// ResultEvent is published once per finished operation to the subject
// "transfers.{wallet_address}". It is a notification for listeners that are
// connected at the time; nothing is retained.
type ResultEvent struct {
	// Operation identifiers
	Operation string `json:"operation"` // native_transfer, token_transfer, airdrop
	Status    string `json:"status"`    // confirmed or failed

	// Wallet information
	WalletAddress string `json:"wallet_address"`
	Recipient     string `json:"recipient,omitempty"`

	// Transfer details
	Amount    string `json:"amount,omitempty"` // display units as entered
	BaseUnits uint64 `json:"base_units,omitempty"`
	TokenMint string `json:"token_mint,omitempty"`

	// Outcome
	Signature   string `json:"signature,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`
	Category    string `json:"category,omitempty"`
	Reason      string `json:"reason,omitempty"`

	// Metadata
	PublishedAt time.Time `json:"published_at"`
}

// Subject returns the subject an event for wallet is published on.
func Subject(wallet string) string {
	return SubjectPrefix + "." + wallet
}
