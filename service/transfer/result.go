package transfer

import (
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Operation names the pipeline that produced a Result.
type Operation string

const (
	OperationNativeTransfer Operation = "native_transfer"
	OperationTokenTransfer  Operation = "token_transfer"
	OperationAirdrop        Operation = "airdrop"
	OperationSubmit         Operation = "submit"
)

// Status is the outcome of an operation.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// shortLinkLength is how much of the explorer URL is shown in summaries.
const shortLinkLength = 45

// Result is the single outcome of one operation. It is built when the
// operation ends and handed straight to the caller.
type Result struct {
	Operation Operation `json:"operation"`
	Status    Status    `json:"status"`

	Wallet    string `json:"wallet,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Symbol    string `json:"symbol,omitempty"`
	Mint      string `json:"mint,omitempty"`
	BaseUnits uint64 `json:"base_units,omitempty"`

	// Set when Status is confirmed. ExplorerURL is for display only.
	Signature   string `json:"signature,omitempty"`
	ExplorerURL string `json:"explorer_url,omitempty"`

	// Set when Status is failed.
	Category Category `json:"category,omitempty"`
	Reason   string   `json:"reason,omitempty"`

	Message string `json:"message"`
}

// Confirmed reports whether the operation reached the network's confirmed commitment.
func (r Result) Confirmed() bool {
	return r.Status == StatusConfirmed
}

// ShortExplorerURL is a truncated explorer link for one-line summaries.
func (r Result) ShortExplorerURL() string {
	if len(r.ExplorerURL) <= shortLinkLength {
		return r.ExplorerURL
	}
	return r.ExplorerURL[:shortLinkLength] + "..."
}

func confirmed(sig solana.Signature, explorerURL string) Result {
	return Result{
		Status:      StatusConfirmed,
		Signature:   sig.String(),
		ExplorerURL: explorerURL,
	}
}

func failed(err error) Result {
	return Result{
		Status:   StatusFailed,
		Category: Classify(err),
		Reason:   err.Error(),
	}
}

// ExplorerURL builds the block explorer link for a transaction signature.
// Mainnet links carry no cluster parameter.
func ExplorerURL(baseURL, cluster string, sig solana.Signature) string {
	u := strings.TrimRight(baseURL, "/") + "/tx/" + sig.String()
	switch cluster {
	case "", "mainnet", "mainnet-beta":
		return u
	default:
		return u + "?cluster=" + cluster
	}
}

// abbreviate shortens an address for messages, the way the wallet UI shows it.
func abbreviate(address string) string {
	if len(address) <= 20 {
		return address
	}
	return address[:20] + "..."
}
