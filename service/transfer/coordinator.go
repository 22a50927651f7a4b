package transfer

import (
	"context"
	"time"

	solanasvc "github.com/brojonat/solpipe/service/solana"
	"github.com/brojonat/solpipe/service/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ConfirmationLevel is the commitment every operation waits for.
const ConfirmationLevel = rpc.CommitmentConfirmed

// Submit hands tx to the signer and waits once for confirmation.
// A declined signature, a failed submission and a failed or timed out
// confirmation all come back as a failed Result; nothing is retried.
func (s *Service) Submit(ctx context.Context, tx *solanasvc.Transaction, signer wallet.Signer) Result {
	start := time.Now()
	res := s.submit(ctx, tx, signer)
	res.Operation = OperationSubmit
	if signer != nil {
		res.Wallet = signer.PublicKey().String()
	}
	if res.Message == "" {
		res.Message = defaultMessage(res)
	}
	return s.finish(ctx, start, res)
}

func (s *Service) submit(ctx context.Context, tx *solanasvc.Transaction, signer wallet.Signer) Result {
	if signer == nil {
		return failed(ErrWalletNotConnected)
	}

	sig, err := signer.SignAndSubmit(ctx, tx)
	if err != nil {
		return failed(err)
	}

	return s.confirm(ctx, sig)
}

// confirm waits for sig at ConfirmationLevel.
func (s *Service) confirm(ctx context.Context, sig solana.Signature) Result {
	waitCtx := ctx
	if s.opts.ConfirmTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.opts.ConfirmTimeout)
		defer cancel()
	}

	if err := s.client.WaitForConfirmation(waitCtx, sig, ConfirmationLevel); err != nil {
		res := failed(err)
		// The transaction may still land; keep the signature so the user can look it up.
		res.Signature = sig.String()
		return res
	}

	return confirmed(sig, ExplorerURL(s.opts.ExplorerBaseURL, s.opts.Cluster, sig))
}

func defaultMessage(res Result) string {
	if res.Confirmed() {
		return "Transaction confirmed"
	}
	return "Failed to send transaction"
}
