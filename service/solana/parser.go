package solana

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// System Program instruction types
const (
	SystemProgramTransferInstruction = uint32(2)
)

// Token Program instruction types
const (
	TokenProgramTransferInstruction        = uint8(3)
	TokenProgramTransferCheckedInstruction = uint8(12)
)

// Instruction kinds reported by DescribeInstruction.
const (
	KindNativeTransfer       = "native_transfer"
	KindTokenTransfer        = "token_transfer"
	KindCreateHoldingAccount = "create_token_account"
	KindUnknown              = "unknown"
)

// InstructionSummary is a human-oriented view of one instruction, used for
// approval prompts and dry runs.
type InstructionSummary struct {
	Kind      string `json:"kind"`
	ProgramID string `json:"program_id"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Authority string `json:"authority,omitempty"`
	Mint      string `json:"mint,omitempty"`
	Amount    uint64 `json:"amount,omitempty"`
}

// Describe summarizes every instruction of tx in execution order.
func Describe(tx *Transaction) ([]InstructionSummary, error) {
	out := make([]InstructionSummary, 0, len(tx.Instructions))
	for i, ix := range tx.Instructions {
		s, err := DescribeInstruction(ix)
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", i, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// DescribeInstruction decodes the instructions this service builds.
// Anything else is reported as KindUnknown.
func DescribeInstruction(ix solana.Instruction) (InstructionSummary, error) {
	programID := ix.ProgramID()
	summary := InstructionSummary{Kind: KindUnknown, ProgramID: programID.String()}

	data, err := ix.Data()
	if err != nil {
		return summary, fmt.Errorf("failed to encode instruction data: %w", err)
	}
	accounts := ix.Accounts()

	switch {
	case programID.Equals(solana.SystemProgramID):
		amount, err := parseSystemTransfer(data)
		if err != nil || len(accounts) < 2 {
			return summary, nil
		}
		summary.Kind = KindNativeTransfer
		summary.From = accounts[0].PublicKey.String()
		summary.To = accounts[1].PublicKey.String()
		summary.Amount = amount

	case programID.Equals(solana.TokenProgramID) || programID.Equals(solana.Token2022ProgramID):
		amount, err := parseTokenTransfer(data)
		if err != nil {
			return summary, nil
		}
		switch data[0] {
		case TokenProgramTransferInstruction:
			// Account layout for Transfer: [source, destination, authority]
			if len(accounts) < 3 {
				return summary, nil
			}
			summary.From = accounts[0].PublicKey.String()
			summary.To = accounts[1].PublicKey.String()
			summary.Authority = accounts[2].PublicKey.String()
		case TokenProgramTransferCheckedInstruction:
			// [source, mint, destination, authority]
			if len(accounts) < 4 {
				return summary, nil
			}
			summary.From = accounts[0].PublicKey.String()
			summary.Mint = accounts[1].PublicKey.String()
			summary.To = accounts[2].PublicKey.String()
			summary.Authority = accounts[3].PublicKey.String()
		}
		summary.Kind = KindTokenTransfer
		summary.Amount = amount

	case programID.Equals(solana.SPLAssociatedTokenAccountProgramID):
		// Create accounts: [payer, associated account, wallet, mint, ...]
		if len(accounts) < 4 {
			return summary, nil
		}
		summary.Kind = KindCreateHoldingAccount
		summary.From = accounts[0].PublicKey.String()
		summary.To = accounts[1].PublicKey.String()
		summary.Authority = accounts[2].PublicKey.String()
		summary.Mint = accounts[3].PublicKey.String()
	}

	return summary, nil
}

// parseSystemTransfer extracts lamports from a System Program Transfer instruction.
func parseSystemTransfer(data []byte) (uint64, error) {
	// System Transfer instruction format:
	// [0..4]  = instruction type (u32, should be 2 for Transfer)
	// [4..12] = lamports (u64)
	if len(data) < 12 {
		return 0, fmt.Errorf("instruction data too short: %d bytes", len(data))
	}

	instructionType := binary.LittleEndian.Uint32(data[0:4])
	if instructionType != SystemProgramTransferInstruction {
		return 0, fmt.Errorf("not a transfer instruction: type %d", instructionType)
	}

	return binary.LittleEndian.Uint64(data[4:12]), nil
}

// parseTokenTransfer extracts the amount from Transfer or TransferChecked.
func parseTokenTransfer(data []byte) (uint64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("empty instruction data")
	}

	switch data[0] {
	case TokenProgramTransferInstruction, TokenProgramTransferCheckedInstruction:
		// [0]     = instruction type
		// [1..9]  = amount (u64)
		if len(data) < 9 {
			return 0, fmt.Errorf("transfer instruction data too short")
		}
		return binary.LittleEndian.Uint64(data[1:9]), nil
	default:
		return 0, fmt.Errorf("unknown token instruction type: %d", data[0])
	}
}
