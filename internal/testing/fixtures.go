package testing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/domain"
)

// NewPortfolioFixtures returns two portfolios: Main (id 1, default) and Growth (id 2)
func NewPortfolioFixtures() []domain.Portfolio {
	created := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	return []domain.Portfolio{
		{
			ID:          1,
			Name:        "Main",
			Currency:    "USD",
			InitialCash: decimal.NewFromInt(100000),
			CashBalance: decimal.NewFromInt(95000),
			IsDefault:   true,
			IsActive:    true,
			CreatedAt:   created,
			UpdatedAt:   created,
		},
		{
			ID:          2,
			Name:        "Growth",
			Currency:    "USD",
			InitialCash: decimal.NewFromInt(5000),
			CashBalance: decimal.NewFromInt(5000),
			IsActive:    true,
			CreatedAt:   created.Add(time.Hour),
			UpdatedAt:   created.Add(time.Hour),
		},
	}
}

// NewSummaryFixture returns a summary for portfolio 1 holding 37 AAPL priced
// at 190.50 and one MSFT position the ledger could not price
func NewSummaryFixture() *domain.Summary {
	return &domain.Summary{
		Portfolio: domain.PortfolioInfo{
			ID:             1,
			Name:           "Main",
			Currency:       "USD",
			InitialCash:    decimal.NewFromInt(100000),
			CashBalance:    decimal.NewFromInt(95000),
			PositionsValue: decimal.RequireFromString("7048.50"),
			TotalEquity:    decimal.RequireFromString("102048.50"),
		},
		Positions: []domain.StockPosition{
			{
				Symbol:        "AAPL",
				Quantity:      decimal.NewFromInt(37),
				AvgCost:       decimal.NewFromInt(150),
				MarketPrice:   decimal.NewNullDecimal(decimal.RequireFromString("190.50")),
				MarketValue:   decimal.NewNullDecimal(decimal.RequireFromString("7048.50")),
				UnrealizedPnL: decimal.NewNullDecimal(decimal.RequireFromString("1498.50")),
			},
			{
				Symbol:   "MSFT",
				Quantity: decimal.NewFromInt(5),
				AvgCost:  decimal.NewFromInt(400),
				Error:    "No market data",
			},
		},
	}
}

// NewOptionPositionFixtures returns one AAPL 150 call (2 contracts) and one
// exhausted MSFT put
func NewOptionPositionFixtures() []domain.OptionPosition {
	return []domain.OptionPosition{
		{
			ID:               11,
			PortfolioID:      1,
			ContractID:       501,
			UnderlyingSymbol: "AAPL",
			OptionSide:       domain.OptionCall,
			OptionStyle:      domain.StyleAmerican,
			Strike:           decimal.NewFromInt(150),
			Expiry:           "2026-01-16",
			Multiplier:       100,
			Quantity:         decimal.NewFromInt(2),
			AvgCost:          decimal.RequireFromString("4.25"),
		},
		{
			ID:               12,
			PortfolioID:      1,
			ContractID:       502,
			UnderlyingSymbol: "MSFT",
			OptionSide:       domain.OptionPut,
			OptionStyle:      domain.StyleEuropean,
			Strike:           decimal.NewFromInt(400),
			Expiry:           "2026-06-19",
			Multiplier:       100,
			Quantity:         decimal.Zero,
			AvgCost:          decimal.RequireFromString("9.10"),
		},
	}
}

// NewCryptoPositionFixtures returns a fractional BTC/USD holding
func NewCryptoPositionFixtures() []domain.CryptoPosition {
	return []domain.CryptoPosition{
		{
			ID:          21,
			PortfolioID: 1,
			Symbol:      "BTC/USD",
			Quantity:    decimal.RequireFromString("0.75"),
			AvgCost:     decimal.NewFromInt(60000),
			MarketPrice: decimal.NewNullDecimal(decimal.NewFromInt(64000)),
		},
	}
}

// NewCryptoAssetFixtures returns a small tradable catalogue
func NewCryptoAssetFixtures() []domain.CryptoAsset {
	return []domain.CryptoAsset{
		{ID: "a1", Symbol: "BTC/USD", Name: "Bitcoin", Status: "active", Tradable: true},
		{ID: "a2", Symbol: "ETH/USD", Name: "Ethereum", Status: "active", Tradable: true},
	}
}
