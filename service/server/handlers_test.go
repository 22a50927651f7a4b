package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/brojonat/solpipe/service/metrics"
	solanasvc "github.com/brojonat/solpipe/service/solana"
	"github.com/brojonat/solpipe/service/transfer"
	"github.com/brojonat/solpipe/service/wallet"
	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

type testEnv struct {
	rpc     *solanasvc.MockRPCClient
	signer  *wallet.KeypairWallet
	mint    solana.PublicKey
	handler http.Handler
}

func newTestEnv(t *testing.T, withSigner bool) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mock := solanasvc.NewMockRPCClient()
	client := solanasvc.NewClient(mock, "test", nil, logger).WithPollInterval(5 * time.Millisecond)
	mint := solana.NewWallet().PublicKey()

	svc := transfer.NewService(client, transfer.Options{
		Cluster:          "devnet",
		DefaultTokenMint: mint.String(),
	}, nil, nil, logger)

	env := &testEnv{rpc: mock, mint: mint}
	var signer wallet.Signer
	if withSigner {
		env.signer = wallet.NewKeypairWallet(solana.NewWallet().PrivateKey, client, wallet.AutoApprove, logger)
		signer = env.signer
	}

	m := metrics.NewMetrics(prometheus.NewRegistry())
	env.handler = New(":0", svc, signer, m, logger).
		WithAPIToken(testToken).
		WithAllowedOrigins([]string{"https://app.example.com"}).
		Handler()
	return env
}

// do sends an authenticated same-origin request.
func (e *testEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, transfer.Result) {
	t.Helper()
	return e.doWithHeaders(t, method, path, body, map[string]string{
		"Authorization": "Bearer " + testToken,
	})
}

func (e *testEnv) doWithHeaders(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, transfer.Result) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	var res transfer.Result
	if strings.HasPrefix(path, "/api/v1/transfers") || path == "/api/v1/airdrop" {
		_ = json.Unmarshal(rec.Body.Bytes(), &res)
	}
	return rec, res
}

func TestSendNativeEndpoint(t *testing.T) {
	env := newTestEnv(t, true)
	recipient := solana.NewWallet().PublicKey().String()

	rec, res := env.do(t, http.MethodPost, "/api/v1/transfers/native",
		`{"recipient":"`+recipient+`","amount":"1.5"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, transfer.StatusConfirmed, res.Status)
	assert.Equal(t, uint64(1_500_000_000), res.BaseUnits)
	assert.Equal(t, env.signer.PublicKey().String(), res.Wallet)
	assert.Contains(t, res.ExplorerURL, "cluster=devnet")
	assert.Len(t, env.rpc.Sent(), 1)
}

func TestSendTokenEndpoint(t *testing.T) {
	env := newTestEnv(t, true)
	source, err := solanasvc.DeriveHoldingAccount(env.signer.PublicKey(), env.mint)
	require.NoError(t, err)
	env.rpc.AddHolding(source, env.signer.PublicKey(), env.mint, 10_000_000, 6)

	rec, res := env.do(t, http.MethodPost, "/api/v1/transfers/token",
		`{"recipient":"`+solana.NewWallet().PublicKey().String()+`","amount":"2.00"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(2_000_000), res.BaseUnits)
	assert.Equal(t, env.mint.String(), res.Mint)
	require.Len(t, env.rpc.Sent(), 1)
	assert.Len(t, env.rpc.Sent()[0].Message.Instructions, 2)
}

func TestTransferEndpoints_StatusMapping(t *testing.T) {
	recipient := solana.NewWallet().PublicKey().String()

	tests := []struct {
		name         string
		withSigner   bool
		setup        func(env *testEnv)
		path         string
		body         string
		wantStatus   int
		wantCategory transfer.Category
	}{
		{
			name:         "invalid amount",
			withSigner:   true,
			path:         "/api/v1/transfers/native",
			body:         `{"recipient":"` + recipient + `","amount":"abc"}`,
			wantStatus:   http.StatusBadRequest,
			wantCategory: transfer.CategoryInput,
		},
		{
			name:         "missing recipient",
			withSigner:   true,
			path:         "/api/v1/transfers/native",
			body:         `{"amount":"1"}`,
			wantStatus:   http.StatusBadRequest,
			wantCategory: transfer.CategoryInput,
		},
		{
			name:         "sender holds no token",
			withSigner:   true,
			path:         "/api/v1/transfers/token",
			body:         `{"recipient":"` + recipient + `","amount":"1"}`,
			wantStatus:   http.StatusUnprocessableEntity,
			wantCategory: transfer.CategoryPrecondition,
		},
		{
			name:         "no hot wallet",
			withSigner:   false,
			path:         "/api/v1/transfers/native",
			body:         `{"recipient":"` + recipient + `","amount":"1"}`,
			wantStatus:   http.StatusUnprocessableEntity,
			wantCategory: transfer.CategoryPrecondition,
		},
		{
			name:       "submission fails",
			withSigner: true,
			setup: func(env *testEnv) {
				env.rpc.SendErr = assert.AnError
			},
			path:         "/api/v1/transfers/native",
			body:         `{"recipient":"` + recipient + `","amount":"1"}`,
			wantStatus:   http.StatusBadGateway,
			wantCategory: transfer.CategoryNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.withSigner)
			if tt.setup != nil {
				tt.setup(env)
			}

			rec, res := env.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, transfer.StatusFailed, res.Status)
			assert.Equal(t, tt.wantCategory, res.Category)
			assert.NotEmpty(t, res.Reason)
		})
	}
}

func TestStatusForResult_Cancelled(t *testing.T) {
	res := transfer.Result{Status: transfer.StatusFailed, Category: transfer.CategoryCancelled}
	assert.Equal(t, http.StatusConflict, statusForResult(res))
}

func TestAirdropEndpoint(t *testing.T) {
	t.Run("explicit address", func(t *testing.T) {
		env := newTestEnv(t, false)
		addr := solana.NewWallet().PublicKey()

		rec, res := env.do(t, http.MethodPost, "/api/v1/airdrop", `{"address":"`+addr.String()+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "2 SOL has been added to your wallet", res.Message)
		assert.Equal(t, uint64(2_000_000_000), env.rpc.Airdropped(addr))
	})

	t.Run("defaults to hot wallet", func(t *testing.T) {
		env := newTestEnv(t, true)

		rec, _ := env.do(t, http.MethodPost, "/api/v1/airdrop", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, uint64(2_000_000_000), env.rpc.Airdropped(env.signer.PublicKey()))
	})

	t.Run("no address and no wallet", func(t *testing.T) {
		env := newTestEnv(t, false)

		rec, res := env.do(t, http.MethodPost, "/api/v1/airdrop", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, transfer.CategoryInput, res.Category)
	})
}

func TestGetWalletEndpoint(t *testing.T) {
	env := newTestEnv(t, true)
	rec, _ := env.do(t, http.MethodGet, "/api/v1/wallet", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp walletResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, env.signer.PublicKey().String(), resp.Address)
	assert.Equal(t, "devnet", resp.Cluster)
	assert.Equal(t, env.mint.String(), resp.DefaultTokenMint)
	assert.Equal(t, "USDC", resp.TokenSymbol)

	env = newTestEnv(t, false)
	rec, _ = env.do(t, http.MethodGet, "/api/v1/wallet", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestBodyValidation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "extremely large request body",
			body:    `{"recipient":"` + strings.Repeat("A", 2*1024*1024) + `","amount":"1"}`,
			wantErr: "request body too large",
		},
		{
			name:    "malformed JSON",
			body:    `{"recipient":"abc","amount":`,
			wantErr: "invalid request body",
		},
		{
			name:    "wrong types",
			body:    `{"recipient":123,"amount":1}`,
			wantErr: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, true)
			rec, _ := env.do(t, http.MethodPost, "/api/v1/transfers/native", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantErr)
			assert.Empty(t, env.rpc.Sent())
		})
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)

	rec, _ := env.doWithHeaders(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS(t *testing.T) {
	preflight := func(origin string) map[string]string {
		return map[string]string{
			"Origin":                         origin,
			"Access-Control-Request-Method":  "POST",
			"Access-Control-Request-Headers": "authorization,content-type",
		}
	}

	t.Run("preflight from unknown origin is refused", func(t *testing.T) {
		env := newTestEnv(t, true)
		rec, _ := env.doWithHeaders(t, http.MethodOptions, "/api/v1/transfers/native", "", preflight("https://evil.example.com"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("cross-origin transfer is refused even with a token", func(t *testing.T) {
		env := newTestEnv(t, true)
		rec, _ := env.doWithHeaders(t, http.MethodPost, "/api/v1/transfers/native",
			`{"recipient":"`+solana.NewWallet().PublicKey().String()+`","amount":"1"}`,
			map[string]string{"Origin": "https://evil.example.com", "Authorization": "Bearer " + testToken})
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Empty(t, env.rpc.Sent())
	})

	t.Run("preflight from allowed origin", func(t *testing.T) {
		env := newTestEnv(t, true)
		rec, _ := env.doWithHeaders(t, http.MethodOptions, "/api/v1/transfers/native", "", preflight("https://app.example.com"))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	})

	t.Run("GET from unknown origin gets no CORS headers", func(t *testing.T) {
		env := newTestEnv(t, true)
		rec, _ := env.doWithHeaders(t, http.MethodGet, "/api/v1/wallet", "", map[string]string{"Origin": "https://evil.example.com"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard allows any origin", func(t *testing.T) {
		h := corsMiddleware([]string{"*"}, http.NotFoundHandler())
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/airdrop", nil)
		req.Header.Set("Origin", "https://anywhere.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://anywhere.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestAuth(t *testing.T) {
	recipient := solana.NewWallet().PublicKey().String()
	nativeBody := `{"recipient":"` + recipient + `","amount":"1"}`

	tests := []struct {
		name   string
		path   string
		body   string
		header string
	}{
		{name: "native transfer without token", path: "/api/v1/transfers/native", body: nativeBody},
		{name: "native transfer with wrong token", path: "/api/v1/transfers/native", body: nativeBody, header: "Bearer nope"},
		{name: "token transfer without scheme", path: "/api/v1/transfers/token", body: nativeBody, header: testToken},
		{name: "airdrop without token", path: "/api/v1/airdrop", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, true)
			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}

			rec, _ := env.doWithHeaders(t, http.MethodPost, tt.path, tt.body, headers)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
			assert.Empty(t, env.rpc.Sent())
			assert.Zero(t, env.rpc.Calls("RequestAirdrop"))
		})
	}

	t.Run("correct token passes", func(t *testing.T) {
		env := newTestEnv(t, true)
		rec, res := env.do(t, http.MethodPost, "/api/v1/transfers/native", nativeBody)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, transfer.StatusConfirmed, res.Status)
	})

	t.Run("wallet lookup is public", func(t *testing.T) {
		env := newTestEnv(t, true)
		rec, _ := env.doWithHeaders(t, http.MethodGet, "/api/v1/wallet", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("no configured token refuses everything", func(t *testing.T) {
		called := false
		h := requireToken("", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transfers/native", nil)
		req.Header.Set("Authorization", "Bearer ")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, called)
	})
}

func TestWriteTimeoutFor(t *testing.T) {
	assert.Zero(t, WriteTimeoutFor(0), "no confirmation deadline means no write deadline")
	assert.Equal(t, 90*time.Second+writeTimeoutMargin, WriteTimeoutFor(90*time.Second))
	assert.Greater(t, WriteTimeoutFor(10*time.Minute), 10*time.Minute)

	s := New(":0", nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, defaultWriteTimeout, s.writeTimeout)
	assert.Zero(t, s.WithWriteTimeout(0).writeTimeout)
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, true)
	rec, _ := env.do(t, http.MethodGet, "/api/v1/transfers/native", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
