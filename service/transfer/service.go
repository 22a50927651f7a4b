package transfer

import (
	"context"
	"log/slog"
	"time"

	"github.com/brojonat/solpipe/service/metrics"
	"github.com/brojonat/solpipe/service/nats"
	solanasvc "github.com/brojonat/solpipe/service/solana"
	"github.com/gagliardetto/solana-go"
)

// Defaults for Options fields left zero.
const (
	DefaultExplorerBaseURL = "https://solscan.io"
	DefaultCluster         = "devnet"
	DefaultTokenSymbol     = "USDC"
	DefaultAirdropLamports = 2 * solana.LAMPORTS_PER_SOL
)

// Options configures a Service.
type Options struct {
	// DefaultTokenMint is used by SendToken when no mint is given.
	DefaultTokenMint string
	// TokenSymbol labels token amounts in result messages.
	TokenSymbol string

	// Cluster and ExplorerBaseURL shape explorer links.
	Cluster         string
	ExplorerBaseURL string

	// AirdropLamports is the fixed faucet request size.
	AirdropLamports uint64

	// ConfirmTimeout bounds the confirmation wait. Zero waits until ctx is done.
	ConfirmTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.TokenSymbol == "" {
		o.TokenSymbol = DefaultTokenSymbol
	}
	if o.Cluster == "" {
		o.Cluster = DefaultCluster
	}
	if o.ExplorerBaseURL == "" {
		o.ExplorerBaseURL = DefaultExplorerBaseURL
	}
	if o.AirdropLamports == 0 {
		o.AirdropLamports = DefaultAirdropLamports
	}
	return o
}

// Service runs transfer and airdrop pipelines. It keeps no per-operation
// state, so overlapping operations proceed independently.
type Service struct {
	client    *solanasvc.Client
	builder   *solanasvc.Builder
	opts      Options
	publisher nats.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewService creates a Service on top of the network query channel.
// publisher and m are optional.
func NewService(client *solanasvc.Client, opts Options, publisher nats.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		client:    client,
		builder:   solanasvc.NewBuilder(client, m, logger),
		opts:      opts.withDefaults(),
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// Options returns the effective options, defaults applied.
func (s *Service) Options() Options {
	return s.opts
}

// finish records, logs and publishes a result. Every pipeline ends here exactly once.
func (s *Service) finish(ctx context.Context, start time.Time, res Result) Result {
	duration := time.Since(start).Seconds()

	if s.metrics != nil {
		s.metrics.RecordSubmission(string(res.Operation), string(res.Status), string(res.Category), duration)
	}

	if res.Confirmed() {
		s.logger.InfoContext(ctx, "operation confirmed",
			"operation", res.Operation,
			"wallet", res.Wallet,
			"signature", res.Signature,
			"duration_seconds", duration,
		)
	} else {
		s.logger.WarnContext(ctx, "operation failed",
			"operation", res.Operation,
			"wallet", res.Wallet,
			"category", res.Category,
			"reason", res.Reason,
			"duration_seconds", duration,
		)
	}

	if s.publisher != nil && res.Wallet != "" {
		if err := s.publisher.PublishResult(ctx, toEvent(res)); err != nil {
			s.logger.WarnContext(ctx, "failed to publish result event",
				"operation", res.Operation,
				"error", err,
			)
		}
	}

	return res
}

func toEvent(res Result) *nats.ResultEvent {
	return &nats.ResultEvent{
		Operation:     string(res.Operation),
		Status:        string(res.Status),
		WalletAddress: res.Wallet,
		Recipient:     res.Recipient,
		Amount:        res.Amount,
		BaseUnits:     res.BaseUnits,
		TokenMint:     res.Mint,
		Signature:     res.Signature,
		ExplorerURL:   res.ExplorerURL,
		Category:      string(res.Category),
		Reason:        res.Reason,
		PublishedAt:   time.Now().UTC(),
	}
}
