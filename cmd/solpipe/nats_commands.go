package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	natspkg "github.com/brojonat/solpipe/service/nats"
	"github.com/nats-io/nats.go"
	"github.com/urfave/cli/v2"
)

// subscribeCommand prints result events for a wallet as they are published.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Follow transfer results for a wallet",
		ArgsUsage: "[wallet_address]",
		Description: `Subscribe to result events published by the solpipe server.

Events are published to the subject: transfers.{wallet_address}
Without an address every wallet is followed. Events are not retained, so only
results finished while the subscription is open are shown.

Example:
  solpipe nats subscribe DYw8jCTfwHNRJhhmFcbXvVDTqWMEVFBX6ZKUmG5CNSKK --json`,
		Action: func(c *cli.Context) error {
			subject := natspkg.SubjectPrefix + ".>"
			if c.NArg() == 1 {
				subject = natspkg.Subject(c.Args().Get(0))
			}
			return streamResults(c, subject)
		},
	}
}

func streamResults(c *cli.Context, subject string) error {
	natsURL := c.String("nats-url")
	jsonOutput := c.Bool("json")
	w := c.App.Writer

	nc, err := nats.Connect(natsURL, nats.Name("solpipe-cli"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	msgChan := make(chan *nats.Msg, 64)
	sub, err := nc.ChanSubscribe(subject, msgChan)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	defer sub.Unsubscribe()

	if !jsonOutput {
		fmt.Fprintf(w, "📡 Subscribing to: %s\n", subject)
		fmt.Fprintf(w, "   NATS: %s\n", natsURL)
		fmt.Fprintf(w, "\nWaiting for results... (Ctrl-C to exit)\n\n")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	for {
		select {
		case msg := <-msgChan:
			var event natspkg.ResultEvent
			if err := json.Unmarshal(msg.Data, &event); err != nil {
				fmt.Fprintf(c.App.ErrWriter, "Error parsing event: %v\n", err)
				continue
			}
			printEvent(w, &event, jsonOutput)
		case <-sigChan:
			return nil
		case <-c.Context.Done():
			return nil
		}
	}
}

func printEvent(w io.Writer, event *natspkg.ResultEvent, jsonOutput bool) {
	if jsonOutput {
		data, _ := json.Marshal(event)
		fmt.Fprintln(w, string(data))
		return
	}

	if event.Status == "confirmed" {
		fmt.Fprintf(w, "✅ %s confirmed\n", event.Operation)
	} else {
		fmt.Fprintf(w, "❌ %s failed (%s)\n", event.Operation, event.Category)
	}
	fmt.Fprintf(w, "   Wallet: %s\n", event.WalletAddress)
	if event.Recipient != "" {
		fmt.Fprintf(w, "   Recipient: %s\n", event.Recipient)
	}
	if event.Amount != "" {
		fmt.Fprintf(w, "   Amount: %s\n", event.Amount)
	}
	if event.Signature != "" {
		fmt.Fprintf(w, "   Signature: %s\n", event.Signature)
	}
	if event.Reason != "" {
		fmt.Fprintf(w, "   Reason: %s\n", event.Reason)
	}
	fmt.Fprintf(w, "   Published: %s\n\n", event.PublishedAt.Format(time.RFC3339))
}
