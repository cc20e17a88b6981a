// Package domain holds the coordination layer's shared types and the
// collaborator interfaces that keep module packages free of client imports.
package domain

import (
	"fmt"
	"strings"
)

// AssetClass identifies one of the three instrument families
type AssetClass string

const (
	AssetStock  AssetClass = "stock"
	AssetOption AssetClass = "option"
	AssetCrypto AssetClass = "crypto"
)

// AllAssetClasses lists the classes in reconciliation order
var AllAssetClasses = []AssetClass{AssetStock, AssetOption, AssetCrypto}

// ParseAssetClass accepts the lowercase class name used in routes
func ParseAssetClass(s string) (AssetClass, error) {
	switch AssetClass(strings.ToLower(strings.TrimSpace(s))) {
	case AssetStock:
		return AssetStock, nil
	case AssetOption:
		return AssetOption, nil
	case AssetCrypto:
		return AssetCrypto, nil
	}
	return "", fmt.Errorf("unknown asset class %q", s)
}

// Fractional reports whether positions of this class may hold non-integral quantities
func (c AssetClass) Fractional() bool {
	return c == AssetCrypto
}

// TradeSide is the direction of a trade
type TradeSide string

const (
	SideBuy  TradeSide = "BUY"
	SideSell TradeSide = "SELL"
)

// OptionSide is CALL or PUT
type OptionSide string

const (
	OptionCall OptionSide = "CALL"
	OptionPut  OptionSide = "PUT"
)

// ParseOptionSide normalizes user input into an OptionSide
func ParseOptionSide(s string) (OptionSide, error) {
	switch OptionSide(strings.ToUpper(strings.TrimSpace(s))) {
	case OptionCall:
		return OptionCall, nil
	case OptionPut:
		return OptionPut, nil
	}
	return "", fmt.Errorf("option side must be CALL or PUT, got %q", s)
}

// OptionStyle is the exercise style, which also selects the pricing route
type OptionStyle string

const (
	StyleAmerican OptionStyle = "AMERICAN"
	StyleEuropean OptionStyle = "EUROPEAN"
)

// ParseOptionStyle normalizes user input into an OptionStyle
func ParseOptionStyle(s string) (OptionStyle, error) {
	switch OptionStyle(strings.ToUpper(strings.TrimSpace(s))) {
	case StyleAmerican:
		return StyleAmerican, nil
	case StyleEuropean:
		return StyleEuropean, nil
	}
	return "", fmt.Errorf("option style must be AMERICAN or EUROPEAN, got %q", s)
}
