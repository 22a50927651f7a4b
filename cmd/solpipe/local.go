package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/brojonat/solpipe/service/config"
	solanasvc "github.com/brojonat/solpipe/service/solana"
	"github.com/brojonat/solpipe/service/transfer"
	"github.com/brojonat/solpipe/service/wallet"
	"github.com/urfave/cli/v2"
)

// localEnv is the pipeline wired straight to Solana RPC, signing with the
// user's keypair file.
type localEnv struct {
	svc    *transfer.Service
	client *solanasvc.Client
	logger *slog.Logger
}

func newLocalEnv(c *cli.Context) (*localEnv, error) {
	logger := newLogger(c.String("log-level"))

	cluster := c.String("cluster")
	urls := c.StringSlice("rpc-url")
	if len(urls) == 0 {
		url, ok := config.DefaultRPCURL(cluster)
		if !ok {
			return nil, fmt.Errorf("unknown cluster %q and no --rpc-url given", cluster)
		}
		urls = []string{url}
	}
	rpcURL, err := solanasvc.SelectRandomEndpoint(urls)
	if err != nil {
		return nil, err
	}

	client := solanasvc.NewClient(solanasvc.NewRPCClient(rpcURL), cluster, nil, logger)
	svc := transfer.NewService(client, transfer.Options{
		DefaultTokenMint: c.String("default-token-mint"),
		TokenSymbol:      c.String("token-symbol"),
		Cluster:          cluster,
		ExplorerBaseURL:  c.String("explorer-base-url"),
		ConfirmTimeout:   c.Duration("confirm-timeout"),
	}, nil, nil, logger)

	return &localEnv{svc: svc, client: client, logger: logger}, nil
}

// loadWallet opens the keypair file. Without --yes every transaction is
// shown for approval first.
func (e *localEnv) loadWallet(c *cli.Context) (*wallet.KeypairWallet, error) {
	var approve wallet.Approver = wallet.AutoApprove
	if !c.Bool("yes") {
		approve = promptApprover(c.App.ErrWriter)
	}
	return loadKeypair(c, e.client, approve, e.logger)
}

func loadKeypair(c *cli.Context, network wallet.Submitter, approve wallet.Approver, logger *slog.Logger) (*wallet.KeypairWallet, error) {
	path := c.String("keypair")
	if path == "" {
		return nil, fmt.Errorf("keypair path is required (--keypair or WALLET_KEYPAIR_PATH)")
	}
	return wallet.LoadKeypairWallet(path, network, approve, logger)
}

func newLogger(levelStr string) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
