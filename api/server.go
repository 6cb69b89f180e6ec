// Package api serves read-only pool state and quotes over HTTP for
// frontends and scripts.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/michaelpento.lv/defidex/dex"
	"github.com/michaelpento.lv/defidex/types"
	"github.com/michaelpento.lv/defidex/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// PoolReader reads live pool and account state
type PoolReader interface {
	Address() common.Address
	Info(ctx context.Context) (*dex.PoolInfo, error)
	Account(ctx context.Context, who common.Address) (*dex.Account, error)
}

// Quoter computes swap quotes. An empty result means no quote.
type Quoter interface {
	Source() string
	Output(ctx context.Context, sell types.Token, amount string) string
	RequiredInput(ctx context.Context, sell types.Token, amount string) string
}

// PublicConfig is what a frontend needs to talk to the contracts
type PublicConfig struct {
	Network        string `json:"network"`
	ChainID        uint64 `json:"chain_id"`
	BalloonAddress string `json:"balloon_address"`
	DEXAddress     string `json:"dex_address"`
	ProjectID      string `json:"project_id"`
}

// Server provides HTTP API for the DEX
type Server struct {
	pool     PoolReader
	quoter   Quoter
	public   PublicConfig
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	http     *http.Server
}

// NewServer creates a new HTTP server listening on addr
func NewServer(addr string, pool PoolReader, quoter Quoter, public PublicConfig, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	s := &Server{
		pool:     pool,
		quoter:   quoter,
		public:   public,
		gatherer: gatherer,
		logger:   logger,
	}

	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.HandleFunc("/api/v1/config", s.handleConfig).Methods("GET")
	r.HandleFunc("/api/v1/pool", s.handlePool).Methods("GET")
	r.HandleFunc("/api/v1/quote", s.handleQuote).Methods("GET")
	r.HandleFunc("/api/v1/accounts/{address}", s.handleAccount).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")

	return r
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("API listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.public)
}

// poolResponse renders amounts both as ether strings and as wei
type poolResponse struct {
	Address           string `json:"address"`
	EthReserve        string `json:"eth_reserve"`
	TokenReserve      string `json:"token_reserve"`
	TotalLiquidity    string `json:"total_liquidity"`
	EthReserveWei     string `json:"eth_reserve_wei"`
	TokenReserveWei   string `json:"token_reserve_wei"`
	TotalLiquidityWei string `json:"total_liquidity_wei"`
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	info, err := s.pool.Info(r.Context())
	if err != nil {
		s.logger.Error("Failed to read pool", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to read pool")
		return
	}

	writeJSON(w, http.StatusOK, poolResponse{
		Address:           s.pool.Address().Hex(),
		EthReserve:        utils.FormatEther(info.Reserves.Eth),
		TokenReserve:      utils.FormatEther(info.Reserves.Token),
		TotalLiquidity:    utils.FormatEther(info.TotalLiquidity),
		EthReserveWei:     weiString(info.Reserves.Eth),
		TokenReserveWei:   weiString(info.Reserves.Token),
		TotalLiquidityWei: weiString(info.TotalLiquidity),
	})
}

type quoteResponse struct {
	Sell   types.Token `json:"sell"`
	Buy    types.Token `json:"buy"`
	Side   string      `json:"side"`
	Amount string      `json:"amount"`
	Quote  string      `json:"quote"`
	Source string      `json:"source"`
}

// handleQuote quotes the counter-amount. side=sell (default) treats amount
// as the sold quantity, side=buy as the wanted output.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	sell, err := types.ParseToken(query.Get("sell"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount := query.Get("amount")

	resp := quoteResponse{Sell: sell, Buy: sell.Other(), Amount: amount}
	switch side := query.Get("side"); side {
	case "", "sell":
		resp.Side = "sell"
		resp.Source = s.quoter.Source()
		resp.Quote = s.quoter.Output(r.Context(), sell, amount)
	case "buy":
		resp.Side = "buy"
		resp.Source = "local"
		resp.Quote = s.quoter.RequiredInput(r.Context(), sell, amount)
	default:
		writeError(w, http.StatusBadRequest, "side must be sell or buy")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type accountResponse struct {
	Address      string `json:"address"`
	Eth          string `json:"eth"`
	Balloon      string `json:"balloon"`
	Liquidity    string `json:"liquidity"`
	LiquidityWei string `json:"liquidity_wei"`
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["address"]
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "invalid address")
		return
	}

	acct, err := s.pool.Account(r.Context(), common.HexToAddress(raw))
	if err != nil {
		s.logger.Error("Failed to read account", zap.String("address", raw), zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to read account")
		return
	}

	writeJSON(w, http.StatusOK, accountResponse{
		Address:      acct.Address.Hex(),
		Eth:          utils.FormatEther(acct.Eth),
		Balloon:      utils.FormatEther(acct.Balloon),
		Liquidity:    utils.FormatEther(acct.Liquidity),
		LiquidityWei: weiString(acct.Liquidity),
	})
}

func weiString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
