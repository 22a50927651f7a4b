package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func sendCommands() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Send funds from your keypair",
		Subcommands: []*cli.Command{
			sendSOLCommand(),
			sendTokenCommand(),
		},
	}
}

func sendSOLCommand() *cli.Command {
	return &cli.Command{
		Name:      "sol",
		Usage:     "Send SOL to a recipient",
		ArgsUsage: "RECIPIENT AMOUNT",
		Description: `Send native SOL. AMOUNT is in SOL; digits past the ninth decimal place are dropped.

Example:
  solpipe send sol DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK 0.25`,
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("recipient and amount are required")
			}
			out, err := newOutput(c)
			if err != nil {
				return err
			}
			env, err := newLocalEnv(c)
			if err != nil {
				return err
			}
			w, err := env.loadWallet(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			res := env.svc.SendNative(ctx, w, c.Args().Get(0), c.Args().Get(1))
			return out.printResult(res)
		},
	}
}

func sendTokenCommand() *cli.Command {
	return &cli.Command{
		Name:      "token",
		Usage:     "Send SPL tokens to a recipient",
		ArgsUsage: "RECIPIENT AMOUNT",
		Description: `Send SPL tokens. The recipient's token account is created in the same
transaction when it does not exist yet, paid for by you.

Example:
  solpipe send token DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK 2.50
  solpipe send token --mint EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v <recipient> 10`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mint",
				Usage: "Token mint address (defaults to --default-token-mint)",
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
			env, err := newLocalEnv(c)
			if err != nil {
				return err
			}
			w, err := env.loadWallet(c)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			res := env.svc.SendToken(ctx, w, c.Args().Get(0), c.Args().Get(1), c.String("mint"))
			return out.printResult(res)
		},
	}
}

func airdropCommand() *cli.Command {
	return &cli.Command{
		Name:      "airdrop",
		Usage:     "Request faucet SOL (devnet and testnet only)",
		ArgsUsage: "[ADDRESS]",
		Description: `Ask the cluster faucet for SOL. Without ADDRESS the airdrop goes to your keypair.

Example:
  solpipe airdrop
  solpipe airdrop --lamports 500000000 DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK`,
		Flags: []cli.Flag{
			&cli.Uint64Flag{
				Name:  "lamports",
				Usage: "Lamports to request",
				Value: 2_000_000_000,
			},
		},
		Action: func(c *cli.Context) error {
			out, err := newOutput(c)
			if err != nil {
				return err
			}
			env, err := newLocalEnv(c)
			if err != nil {
				return err
			}

			address := c.Args().First()
			if address == "" {
				w, err := loadKeypair(c, env.client, nil, env.logger)
				if err != nil {
					return err
				}
				address = w.PublicKey().String()
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			res := env.svc.RequestAirdropLamports(ctx, address, c.Uint64("lamports"))
			return out.printResult(res)
		},
	}
}

func addressCommand() *cli.Command {
	return &cli.Command{
		Name:  "address",
		Usage: "Print the address of your keypair",
		Action: func(c *cli.Context) error {
			out, err := newOutput(c)
			if err != nil {
				return err
			}
			w, err := loadKeypair(c, nil, nil, newLogger(c.String("log-level")))
			if err != nil {
				return err
			}
			address := w.PublicKey().String()
			return out.print(map[string]string{"address": address}, func(wr io.Writer) {
				fmt.Fprintln(wr, address)
			})
		},
	}
}
