package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brojonat/solpipe/service/transfer"
	"github.com/brojonat/solpipe/service/wallet"
)

const maxRequestBodySize = 1 << 20 // 1MB - far more than any transfer request

// nativeTransferRequest is the body of POST /api/v1/transfers/native.
type nativeTransferRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

// tokenTransferRequest is the body of POST /api/v1/transfers/token.
type tokenTransferRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Mint      string `json:"mint"` // optional, defaults to the configured token
}

// airdropRequest is the body of POST /api/v1/airdrop.
type airdropRequest struct {
	Address string `json:"address"` // optional, defaults to the hot wallet
}

// walletResponse is the body of GET /api/v1/wallet.
type walletResponse struct {
	Address          string `json:"address"`
	Cluster          string `json:"cluster"`
	DefaultTokenMint string `json:"default_token_mint"`
	TokenSymbol      string `json:"token_symbol"`
}

// handleSendNative returns a handler that sends SOL from the hot wallet.
// POST /api/v1/transfers/native
func handleSendNative(svc *transfer.Service, signer wallet.Signer, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req nativeTransferRequest
		if !decodeBody(w, r, &req, logger) {
			return
		}

		res := svc.SendNative(r.Context(), signer, req.Recipient, req.Amount)
		writeResult(w, res)
	})
}

// handleSendToken returns a handler that sends SPL tokens from the hot wallet.
// POST /api/v1/transfers/token
func handleSendToken(svc *transfer.Service, signer wallet.Signer, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req tokenTransferRequest
		if !decodeBody(w, r, &req, logger) {
			return
		}

		res := svc.SendToken(r.Context(), signer, req.Recipient, req.Amount, req.Mint)
		writeResult(w, res)
	})
}

// handleAirdrop returns a handler that requests faucet SOL.
// POST /api/v1/airdrop
func handleAirdrop(svc *transfer.Service, signer wallet.Signer, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req airdropRequest
		if !decodeBody(w, r, &req, logger) {
			return
		}

		address := strings.TrimSpace(req.Address)
		if address == "" && signer != nil {
			address = signer.PublicKey().String()
		}

		res := svc.RequestAirdrop(r.Context(), address)
		writeResult(w, res)
	})
}

// handleGetWallet returns a handler describing the hot wallet.
// GET /api/v1/wallet
func handleGetWallet(svc *transfer.Service, signer wallet.Signer) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if signer == nil {
			writeError(w, "no wallet configured", http.StatusNotFound)
			return
		}

		opts := svc.Options()
		writeJSON(w, walletResponse{
			Address:          signer.PublicKey().String(),
			Cluster:          opts.Cluster,
			DefaultTokenMint: opts.DefaultTokenMint,
			TokenSymbol:      opts.TokenSymbol,
		}, http.StatusOK)
	})
}

// decodeBody reads a JSON request body into dst. An empty body leaves dst
// zeroed. On failure it writes the error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}, logger *slog.Logger) bool {
	// Limit request body size to prevent memory exhaustion
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	logger.Debug("failed to decode request", "path", r.URL.Path, "error", err)

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, "request body too large: maximum size is 1MB", http.StatusBadRequest)
		return false
	}
	writeError(w, "invalid request body: must be valid JSON", http.StatusBadRequest)
	return false
}

// statusForResult maps a Result onto an HTTP status. The body always carries
// the full Result, so clients can rely on it rather than the code alone.
func statusForResult(res transfer.Result) int {
	if res.Confirmed() {
		return http.StatusOK
	}
	switch res.Category {
	case transfer.CategoryInput:
		return http.StatusBadRequest
	case transfer.CategoryPrecondition:
		return http.StatusUnprocessableEntity
	case transfer.CategoryCancelled:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

func writeResult(w http.ResponseWriter, res transfer.Result) {
	writeJSON(w, res, statusForResult(res))
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
