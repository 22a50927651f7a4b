package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	// Version information (set via ldflags during build)
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "solpipe",
		Usage: "Send SOL and SPL tokens and request devnet airdrops",
		Description: `A command-line wallet for the solpipe transfer pipeline.

Local commands (send, airdrop, address) sign with your keypair file and talk
to Solana RPC directly. Every transaction is shown for approval before it is
signed unless --yes is given.

The client subcommands call a running solpipe server, which signs with its own
hot wallet.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Commands: []*cli.Command{
			// Local wallet commands
			sendCommands(),
			airdropCommand(),
			addressCommand(),
			// Client commands (HTTP API)
			clientCommands(),
			// NATS result notifications
			{
				Name:  "nats",
				Usage: "NATS result notification commands",
				Subcommands: []*cli.Command{
					subscribeCommand(),
				},
			},
			// Server utility commands
			{
				Name:  "server",
				Usage: "Server utility commands",
				Subcommands: []*cli.Command{
					healthCommand(),
					versionCommand(),
				},
			},
		},
		// Global flags available to all commands
		Flags: globalFlags(),
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "cluster",
			Usage:   "Solana cluster (devnet, testnet, mainnet)",
			EnvVars: []string{"SOLANA_CLUSTER"},
			Value:   "devnet",
		},
		&cli.StringSliceFlag{
			Name:    "rpc-url",
			Usage:   "Solana RPC endpoint; repeat or comma-separate for several (defaults to the cluster's public endpoint)",
			EnvVars: []string{"SOLANA_RPC_URLS"},
		},
		&cli.StringFlag{
			Name:    "keypair",
			Aliases: []string{"k"},
			Usage:   "Path to a solana-keygen JSON keypair file",
			EnvVars: []string{"WALLET_KEYPAIR_PATH"},
			Value:   defaultKeypairPath(),
		},
		&cli.StringFlag{
			Name:    "explorer-base-url",
			Usage:   "Block explorer used for transaction links",
			EnvVars: []string{"EXPLORER_BASE_URL"},
			Value:   "https://solscan.io",
		},
		&cli.StringFlag{
			Name:    "default-token-mint",
			Usage:   "Token mint used when --mint is not given",
			EnvVars: []string{"DEFAULT_TOKEN_MINT"},
			Value:   "Gh9ZwEmdLJ8DscKNTkTqPbNwLNNBjuSzaG9Vp2KGtKJr",
		},
		&cli.StringFlag{
			Name:    "token-symbol",
			Usage:   "Display symbol of the default token",
			EnvVars: []string{"TOKEN_SYMBOL"},
			Value:   "USDC",
		},
		&cli.DurationFlag{
			Name:    "confirm-timeout",
			Usage:   "How long to wait for confirmation (0 waits until interrupted)",
			EnvVars: []string{"CONFIRM_TIMEOUT"},
			Value:   90 * time.Second,
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Sign without asking for approval",
		},
		&cli.StringFlag{
			Name:    "server-url",
			Usage:   "solpipe server URL",
			EnvVars: []string{"SERVER_URL"},
			Value:   "http://localhost:8080",
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "Bearer token for the solpipe server's transfer and airdrop endpoints",
			EnvVars: []string{"API_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "nats-url",
			Usage:   "NATS server URL",
			EnvVars: []string{"NATS_URL"},
			Value:   "nats://localhost:4222",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{"LOG_LEVEL"},
			Value:   "warn",
		},
		&cli.BoolFlag{
			Name:    "json",
			Aliases: []string{"j"},
			Usage:   "Output in JSON format",
		},
		&cli.StringFlag{
			Name:  "jq",
			Usage: "jq filter applied to the JSON output",
		},
	}
}

func defaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}
