package transfer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brojonat/solpipe/service/amount"
	solanasvc "github.com/brojonat/solpipe/service/solana"
)

// RequestAirdrop asks the cluster faucet for the configured amount of SOL
// and waits for the faucet transaction to confirm. No signer is involved.
func (s *Service) RequestAirdrop(ctx context.Context, address string) Result {
	return s.RequestAirdropLamports(ctx, address, s.opts.AirdropLamports)
}

// RequestAirdropLamports is RequestAirdrop for an explicit amount. Zero uses
// the configured amount.
func (s *Service) RequestAirdropLamports(ctx context.Context, address string, lamports uint64) Result {
	start := time.Now()
	if lamports == 0 {
		lamports = s.opts.AirdropLamports
	}

	res := s.requestAirdrop(ctx, address, lamports)
	res.Operation = OperationAirdrop
	res.Wallet = strings.TrimSpace(address)
	res.Amount = displayAmount(lamports, amount.NativeExponent)
	res.Symbol = amount.NativeSymbol
	res.BaseUnits = lamports
	if res.Confirmed() {
		res.Message = fmt.Sprintf("%s %s has been added to your wallet", res.Amount, res.Symbol)
	} else {
		res.Message = "Failed to airdrop SOL to your wallet"
	}

	return s.finish(ctx, start, res)
}

func (s *Service) requestAirdrop(ctx context.Context, address string, lamports uint64) Result {
	to, err := solanasvc.ParseAddress("wallet", address)
	if err != nil {
		return failed(err)
	}

	if s.metrics != nil {
		s.metrics.RecordAirdropRequested(lamports)
	}

	sig, err := s.client.RequestFaucetFunds(ctx, to, lamports)
	if err != nil {
		return failed(err)
	}

	return s.confirm(ctx, sig)
}
