package solana

import (
	"github.com/gagliardetto/solana-go"
)

// Transaction is an ordered list of instructions plus the account paying fees.
// It carries no blockhash and no signatures; the wallet fills those in at submit time.
type Transaction struct {
	FeePayer     solana.PublicKey
	Instructions []solana.Instruction
}

// NewTransaction creates a transaction paid for by feePayer.
func NewTransaction(feePayer solana.PublicKey, instructions ...solana.Instruction) *Transaction {
	return &Transaction{
		FeePayer:     feePayer,
		Instructions: instructions,
	}
}

// Add appends instructions. They execute in the order they were added.
func (t *Transaction) Add(instructions ...solana.Instruction) *Transaction {
	t.Instructions = append(t.Instructions, instructions...)
	return t
}

// Prepend puts instructions ahead of those already present.
func (t *Transaction) Prepend(instructions ...solana.Instruction) *Transaction {
	t.Instructions = append(append([]solana.Instruction{}, instructions...), t.Instructions...)
	return t
}

// Compile builds the wire transaction against a recent blockhash.
func (t *Transaction) Compile(recentBlockhash solana.Hash) (*solana.Transaction, error) {
	return solana.NewTransaction(
		t.Instructions,
		recentBlockhash,
		solana.TransactionPayer(t.FeePayer),
	)
}

// TokenBalance is the raw balance of a token holding account and the mint's decimals.
type TokenBalance struct {
	Raw      uint64
	Decimals uint8
}
