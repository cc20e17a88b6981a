// Package ledger provides the client for the ledger collaborator: portfolios,
// account summary, and stock, option and crypto trading endpoints.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clients/httpjson"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/clientstate"
	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
)

const cryptoAssetsCacheKey = "crypto_assets"

// Requester is the JSON transport the client runs on (injectable for tests)
type Requester interface {
	Get(ctx context.Context, path string, query url.Values, out interface{}) error
	Post(ctx context.Context, path string, body, out interface{}) error
	Patch(ctx context.Context, path string, body, out interface{}) error
	Delete(ctx context.Context, path string, out interface{}) error
}

// CacheRepository is the cache-first store for slow-changing reference data
type CacheRepository interface {
	Store(table, key string, data interface{}, ttl time.Duration) error
	GetIfFresh(table, key string) (json.RawMessage, error)
	Get(table, key string) (json.RawMessage, error)
}

// Client for the ledger API
type Client struct {
	http      Requester
	cacheRepo CacheRepository
	log       zerolog.Logger
}

// NewClient creates a ledger client. cacheRepo is optional; without it the
// crypto asset catalogue is fetched on every call.
func NewClient(opts httpjson.Options, cacheRepo CacheRepository, log zerolog.Logger) *Client {
	l := log.With().Str("client", "ledger").Logger()
	return &Client{
		http:      httpjson.New(opts, l),
		cacheRepo: cacheRepo,
		log:       l,
	}
}

// NewClientWithRequester creates a ledger client over a provided transport (for testing)
func NewClientWithRequester(requester Requester, cacheRepo CacheRepository, log zerolog.Logger) *Client {
	return &Client{
		http:      requester,
		cacheRepo: cacheRepo,
		log:       log.With().Str("client", "ledger").Logger(),
	}
}

var _ domain.LedgerClient = (*Client)(nil)

// ListPortfolios returns the account's portfolios, default first
func (c *Client) ListPortfolios(ctx context.Context, includeStats bool) ([]domain.Portfolio, error) {
	query := url.Values{}
	if includeStats {
		query.Set("include_stats", "true")
	}

	var resp struct {
		Portfolios []domain.Portfolio `json:"portfolios"`
		Count      int                `json:"count"`
	}
	if err := c.http.Get(ctx, "/api/portfolios/", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}

	c.log.Debug().Int("count", len(resp.Portfolios)).Msg("Listed portfolios")
	return resp.Portfolios, nil
}

type createPortfolioBody struct {
	Name         string  `json:"name"`
	InitialCash  float64 `json:"initial_cash"`
	Currency     string  `json:"currency,omitempty"`
	SetAsDefault *bool   `json:"set_as_default,omitempty"`
}

type portfolioEnvelope struct {
	Portfolio *domain.Portfolio `json:"portfolio"`
	Message   string            `json:"message"`
}

// CreatePortfolio opens a new portfolio
func (c *Client) CreatePortfolio(ctx context.Context, req domain.CreatePortfolioRequest) (*domain.Portfolio, error) {
	body := createPortfolioBody{
		Name:         req.Name,
		InitialCash:  req.InitialCash.InexactFloat64(),
		Currency:     req.Currency,
		SetAsDefault: req.SetAsDefault,
	}

	var resp portfolioEnvelope
	if err := c.http.Post(ctx, "/api/portfolios/create/", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}
	if resp.Portfolio == nil {
		return nil, fmt.Errorf("failed to create portfolio: response has no portfolio")
	}

	c.log.Info().Int64("portfolio_id", resp.Portfolio.ID).Str("name", resp.Portfolio.Name).Msg("Portfolio created")
	return resp.Portfolio, nil
}

// RenamePortfolio changes a portfolio's display name
func (c *Client) RenamePortfolio(ctx context.Context, id int64, name string) (*domain.Portfolio, error) {
	var resp portfolioEnvelope
	path := fmt.Sprintf("/api/portfolios/%d/", id)
	if err := c.http.Patch(ctx, path, map[string]string{"name": name}, &resp); err != nil {
		return nil, fmt.Errorf("failed to rename portfolio %d: %w", id, err)
	}
	if resp.Portfolio == nil {
		return nil, fmt.Errorf("failed to rename portfolio %d: response has no portfolio", id)
	}
	return resp.Portfolio, nil
}

// DeletePortfolio removes a portfolio; the result names the promoted default, if any
func (c *Client) DeletePortfolio(ctx context.Context, id int64) (*domain.DeletePortfolioResult, error) {
	var resp domain.DeletePortfolioResult
	path := fmt.Sprintf("/api/portfolios/%d/", id)
	if err := c.http.Delete(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to delete portfolio %d: %w", id, err)
	}
	if resp.PortfolioID == 0 {
		resp.PortfolioID = id
	}
	return &resp, nil
}

// SetDefaultPortfolio marks a portfolio as the account default
func (c *Client) SetDefaultPortfolio(ctx context.Context, id int64) (*domain.Portfolio, error) {
	var resp portfolioEnvelope
	path := fmt.Sprintf("/api/portfolios/%d/set_default/", id)
	if err := c.http.Post(ctx, path, struct{}{}, &resp); err != nil {
		return nil, fmt.Errorf("failed to set default portfolio %d: %w", id, err)
	}
	if resp.Portfolio == nil {
		return nil, fmt.Errorf("failed to set default portfolio %d: response has no portfolio", id)
	}
	return resp.Portfolio, nil
}

// GetSummary returns the account snapshot; a nil id lets the ledger pick the default portfolio
func (c *Client) GetSummary(ctx context.Context, portfolioID *int64) (*domain.Summary, error) {
	query := url.Values{}
	if portfolioID != nil {
		query.Set("portfolio_id", strconv.FormatInt(*portfolioID, 10))
	}

	var summary domain.Summary
	if err := c.http.Get(ctx, "/api/portfolio/summary/", query, &summary); err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	return &summary, nil
}

type stockTradeBody struct {
	Symbol      string   `json:"symbol"`
	Side        string   `json:"side"`
	Quantity    float64  `json:"quantity"`
	Price       *float64 `json:"price,omitempty"`
	PortfolioID *int64   `json:"portfolio_id,omitempty"`
}

// SubmitStockTrade executes an equity trade
func (c *Client) SubmitStockTrade(ctx context.Context, req domain.StockTradeRequest) (*domain.StockTradeResult, error) {
	body := stockTradeBody{
		Symbol:      strings.ToUpper(req.Symbol),
		Side:        string(req.Side),
		Quantity:    req.Quantity.InexactFloat64(),
		PortfolioID: req.PortfolioID,
	}
	if req.Price != nil {
		p := req.Price.InexactFloat64()
		body.Price = &p
	}

	var resp domain.StockTradeResult
	if err := c.http.Post(ctx, "/api/portfolio/trade/", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit stock trade: %w", err)
	}

	c.log.Info().
		Str("symbol", resp.Trade.Symbol).
		Str("side", string(resp.Trade.Side)).
		Str("quantity", resp.Trade.Quantity.String()).
		Str("price", resp.Trade.Price.String()).
		Msg("Stock trade executed")
	return &resp, nil
}

// ListOptionPositions returns option holdings for a portfolio
func (c *Client) ListOptionPositions(ctx context.Context, portfolioID int64) ([]domain.OptionPosition, error) {
	var resp struct {
		Positions []domain.OptionPosition `json:"positions"`
	}
	query := url.Values{"portfolio_id": {strconv.FormatInt(portfolioID, 10)}}
	if err := c.http.Get(ctx, "/api/options/positions/", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to list option positions: %w", err)
	}
	return resp.Positions, nil
}

type optionTradeBody struct {
	PortfolioID int64   `json:"portfolio_id"`
	Symbol      string  `json:"symbol"`
	OptionSide  string  `json:"option_side"`
	OptionStyle string  `json:"option_style"`
	Strike      float64 `json:"strike"`
	Expiry      string  `json:"expiry"`
	Quantity    float64 `json:"quantity"`
	Price       float64 `json:"price"`
	Side        string  `json:"side"`
}

// SubmitOptionTrade executes a priced option trade
func (c *Client) SubmitOptionTrade(ctx context.Context, req domain.OptionTradeRequest) (*domain.OptionTradeResult, error) {
	body := optionTradeBody{
		PortfolioID: req.PortfolioID,
		Symbol:      strings.ToUpper(req.Symbol),
		OptionSide:  string(req.OptionSide),
		OptionStyle: string(req.OptionStyle),
		Strike:      req.Strike.InexactFloat64(),
		Expiry:      req.Expiry,
		Quantity:    req.Quantity.InexactFloat64(),
		Price:       req.Price.InexactFloat64(),
		Side:        string(req.Side),
	}

	var resp domain.OptionTradeResult
	if err := c.http.Post(ctx, "/api/options/trade/", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit option trade: %w", err)
	}

	c.log.Info().
		Str("contract", resp.Contract.ContractSymbol).
		Str("side", string(resp.Trade.Side)).
		Str("quantity", resp.Trade.Quantity.String()).
		Str("price", resp.Trade.Price.String()).
		Msg("Option trade executed")
	return &resp, nil
}

type exerciseBody struct {
	PortfolioID     int64   `json:"portfolio_id"`
	Symbol          string  `json:"symbol"`
	OptionSide      string  `json:"option_side"`
	OptionStyle     string  `json:"option_style"`
	Strike          float64 `json:"strike"`
	Expiry          string  `json:"expiry"`
	Quantity        float64 `json:"quantity"`
	UnderlyingPrice float64 `json:"underlying_price"`
}

// ExerciseOption exercises held contracts at the supplied underlying price
func (c *Client) ExerciseOption(ctx context.Context, req domain.ExerciseRequest) (*domain.ExerciseResult, error) {
	body := exerciseBody{
		PortfolioID:     req.PortfolioID,
		Symbol:          strings.ToUpper(req.Symbol),
		OptionSide:      string(req.OptionSide),
		OptionStyle:     string(req.OptionStyle),
		Strike:          req.Strike.InexactFloat64(),
		Expiry:          req.Expiry,
		Quantity:        req.Quantity.InexactFloat64(),
		UnderlyingPrice: req.UnderlyingPrice.InexactFloat64(),
	}

	var resp domain.ExerciseResult
	if err := c.http.Post(ctx, "/api/options/exercise/", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to exercise option: %w", err)
	}

	c.log.Info().
		Str("contract", resp.Contract.ContractSymbol).
		Str("quantity", resp.Exercise.Quantity.String()).
		Str("cash_delta", resp.Exercise.CashDelta.String()).
		Msg("Option exercised")
	return &resp, nil
}

// ListCryptoAssets returns tradable pairs sorted by symbol. The catalogue is
// served from cache when fresh; if the ledger is unreachable a stale copy is
// better than none.
func (c *Client) ListCryptoAssets(ctx context.Context) ([]domain.CryptoAsset, error) {
	if cached, ok := c.cachedAssets(false); ok {
		c.log.Debug().Int("count", len(cached)).Msg("Crypto assets cache hit")
		return cached, nil
	}

	var resp struct {
		Assets []domain.CryptoAsset `json:"assets"`
	}
	if err := c.http.Get(ctx, "/api/crypto/assets/", nil, &resp); err != nil {
		if stale, ok := c.cachedAssets(true); ok {
			c.log.Warn().Err(err).Int("count", len(stale)).Msg("Ledger failed, using stale crypto assets")
			return stale, nil
		}
		return nil, fmt.Errorf("failed to list crypto assets: %w", err)
	}

	assets := tradableSorted(resp.Assets)

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(clientstate.TableLedgerCache, cryptoAssetsCacheKey, assets, clientstate.TTLCryptoAssets); err != nil {
			c.log.Warn().Err(err).Msg("Failed to cache crypto assets")
		}
	}

	return assets, nil
}

func (c *Client) cachedAssets(allowStale bool) ([]domain.CryptoAsset, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	var (
		raw json.RawMessage
		err error
	)
	if allowStale {
		raw, err = c.cacheRepo.Get(clientstate.TableLedgerCache, cryptoAssetsCacheKey)
	} else {
		raw, err = c.cacheRepo.GetIfFresh(clientstate.TableLedgerCache, cryptoAssetsCacheKey)
	}
	if err != nil || raw == nil {
		return nil, false
	}

	var assets []domain.CryptoAsset
	if err := json.Unmarshal(raw, &assets); err != nil {
		return nil, false
	}
	return assets, true
}

func tradableSorted(all []domain.CryptoAsset) []domain.CryptoAsset {
	out := make([]domain.CryptoAsset, 0, len(all))
	for _, a := range all {
		if a.Tradable {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// ListCryptoPositions returns crypto holdings for a portfolio
func (c *Client) ListCryptoPositions(ctx context.Context, portfolioID int64) ([]domain.CryptoPosition, error) {
	var resp struct {
		Positions []domain.CryptoPosition `json:"positions"`
	}
	query := url.Values{"portfolio_id": {strconv.FormatInt(portfolioID, 10)}}
	if err := c.http.Get(ctx, "/api/crypto/positions/", query, &resp); err != nil {
		return nil, fmt.Errorf("failed to list crypto positions: %w", err)
	}
	return resp.Positions, nil
}

type cryptoTradeBody struct {
	Symbol      string  `json:"symbol"`
	Side        string  `json:"side"`
	Quantity    float64 `json:"quantity"`
	OrderType   string  `json:"order_type"`
	Fees        float64 `json:"fees"`
	PortfolioID *int64  `json:"portfolio_id,omitempty"`
}

// SubmitCryptoTrade executes a market order for a crypto pair
func (c *Client) SubmitCryptoTrade(ctx context.Context, req domain.CryptoTradeRequest) (*domain.CryptoTradeResult, error) {
	body := cryptoTradeBody{
		Symbol:      strings.ToUpper(req.Symbol),
		Side:        string(req.Side),
		Quantity:    req.Quantity.InexactFloat64(),
		OrderType:   "MARKET",
		Fees:        0,
		PortfolioID: req.PortfolioID,
	}

	var resp domain.CryptoTradeResult
	if err := c.http.Post(ctx, "/api/crypto/trade/", body, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit crypto trade: %w", err)
	}

	c.log.Info().
		Str("symbol", resp.Trade.Symbol).
		Str("side", string(resp.Trade.Side)).
		Str("quantity", resp.Trade.Quantity.String()).
		Msg("Crypto trade executed")
	return &resp, nil
}
