package main

import (
	"fmt"
	"io"
	"net/http"

	"github.com/brojonat/solpipe/client"
	"github.com/brojonat/solpipe/service/server"
	"github.com/brojonat/solpipe/service/transfer"
	"github.com/urfave/cli/v2"
)

func clientCommands() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "Use a running solpipe server's hot wallet over HTTP",
		Subcommands: []*cli.Command{
			clientSendSOLCommand(),
			clientSendTokenCommand(),
			clientAirdropCommand(),
			clientWalletCommand(),
		},
	}
}

// newHTTPClient waits as long as the server may, plus a margin for the
// request itself. A zero confirm timeout waits until interrupted.
func newHTTPClient(c *cli.Context) *client.Client {
	timeout := server.WriteTimeoutFor(c.Duration("confirm-timeout"))
	return client.NewClient(c.String("server-url"), &http.Client{Timeout: timeout}, newLogger(c.String("log-level"))).
		WithAPIToken(c.String("api-token"))
}

func clientSendSOLCommand() *cli.Command {
	return &cli.Command{
		Name:      "send-sol",
		Usage:     "Send SOL from the server's wallet",
		ArgsUsage: "RECIPIENT AMOUNT",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("recipient and amount are required")
			}
			out, err := newOutput(c)
			if err != nil {
				return err
			}
			res, err := newHTTPClient(c).SendNative(c.Context, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return err
			}
			return out.printResult(fromClientResult(res))
		},
	}
}

func clientSendTokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "send-token",
		Usage:     "Send SPL tokens from the server's wallet",
		ArgsUsage: "RECIPIENT AMOUNT",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mint",
				Usage: "Token mint address (defaults to the server's default token)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("recipient and amount are required")
			}
			out, err := newOutput(c)
			if err != nil {
				return err
			}
			res, err := newHTTPClient(c).SendToken(c.Context, c.Args().Get(0), c.Args().Get(1), c.String("mint"))
			if err != nil {
				return err
			}
			return out.printResult(fromClientResult(res))
		},
	}
}

func clientAirdropCommand() *cli.Command {
	return &cli.Command{
		Name:      "airdrop",
		Usage:     "Ask the server to request faucet SOL",
		ArgsUsage: "[ADDRESS]",
		Action: func(c *cli.Context) error {
			out, err := newOutput(c)
			if err != nil {
				return err
			}
			res, err := newHTTPClient(c).Airdrop(c.Context, c.Args().First())
			if err != nil {
				return err
			}
			return out.printResult(fromClientResult(res))
		},
	}
}

func clientWalletCommand() *cli.Command {
	return &cli.Command{
		Name:  "wallet",
		Usage: "Show the server's hot wallet",
		Action: func(c *cli.Context) error {
			out, err := newOutput(c)
			if err != nil {
				return err
			}
			info, err := newHTTPClient(c).Wallet(c.Context)
			if err != nil {
				return err
			}
			return out.print(info, func(w io.Writer) {
				fmt.Fprintf(w, "Address:       %s\n", info.Address)
				fmt.Fprintf(w, "Cluster:       %s\n", info.Cluster)
				fmt.Fprintf(w, "Default token: %s (%s)\n", info.TokenSymbol, info.DefaultTokenMint)
			})
		},
	}
}

func fromClientResult(r *client.Result) transfer.Result {
	return transfer.Result{
		Operation:   transfer.Operation(r.Operation),
		Status:      transfer.Status(r.Status),
		Wallet:      r.Wallet,
		Recipient:   r.Recipient,
		Amount:      r.Amount,
		Symbol:      r.Symbol,
		Mint:        r.Mint,
		BaseUnits:   r.BaseUnits,
		Signature:   r.Signature,
		ExplorerURL: r.ExplorerURL,
		Category:    transfer.Category(r.Category),
		Reason:      r.Reason,
		Message:     r.Message,
	}
}
