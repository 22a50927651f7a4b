package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/brojonat/solpipe/service/amount"
	solanasvc "github.com/brojonat/solpipe/service/solana"
	"github.com/brojonat/solpipe/service/wallet"
)

// promptApprover shows the transaction on w and asks the owner to confirm it.
// Ctrl-C at the prompt counts as a refusal.
func promptApprover(w io.Writer) wallet.Approver {
	return func(ctx context.Context, req wallet.ApprovalRequest) (bool, error) {
		fmt.Fprint(w, formatApproval(req))

		ok := false
		prompt := &survey.Confirm{
			Message: "Sign and submit this transaction?",
			Default: false,
		}
		if err := survey.AskOne(prompt, &ok); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return false, wallet.ErrUserCancelled
			}
			return false, err
		}
		return ok, nil
	}
}

// formatApproval renders the instructions of a pending transaction in
// execution order.
func formatApproval(req wallet.ApprovalRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Signer:    %s\n", req.Signer)
	fmt.Fprintf(&b, "Fee payer: %s\n", req.FeePayer)
	for i, ix := range req.Instructions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, describeSummary(ix))
	}
	return b.String()
}

func describeSummary(ix solanasvc.InstructionSummary) string {
	switch ix.Kind {
	case solanasvc.KindNativeTransfer:
		sol := amount.FromBaseUnits(ix.Amount, amount.NativeExponent)
		return fmt.Sprintf("transfer %s %s from %s to %s", sol.String(), amount.NativeSymbol, ix.From, ix.To)
	case solanasvc.KindTokenTransfer:
		return fmt.Sprintf("transfer %d base units from %s to %s (authority %s)", ix.Amount, ix.From, ix.To, ix.Authority)
	case solanasvc.KindCreateHoldingAccount:
		return fmt.Sprintf("create token account %s for %s (mint %s)", ix.To, ix.Authority, ix.Mint)
	default:
		return fmt.Sprintf("unknown instruction for program %s", ix.ProgramID)
	}
}
