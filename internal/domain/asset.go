package domain

import (
	"fmt"
	"strings"
)

// AssetType categorizes a tracked asset and determines which price
// providers can quote it.
type AssetType string

const (
	AssetTypeCrypto AssetType = "Crypto"
	AssetTypeFiat   AssetType = "Fiat"
	AssetTypeMetal  AssetType = "Metal"
	AssetTypeStock  AssetType = "Stock"
)

// ParseAssetType converts a string to an AssetType.
func ParseAssetType(s string) (AssetType, error) {
	switch AssetType(s) {
	case AssetTypeCrypto, AssetTypeFiat, AssetTypeMetal, AssetTypeStock:
		return AssetType(s), nil
	}
	return "", fmt.Errorf("unknown asset type %q", s)
}

// Asset is a trackable holding: a cryptocurrency, fiat currency,
// precious metal or stock. Identity is (Symbol, Type) only; Name is
// display metadata and never participates in equality.
type Asset struct {
	Symbol string    `json:"symbol" msgpack:"symbol"`
	Name   string    `json:"name" msgpack:"name"`
	Type   AssetType `json:"asset_type" msgpack:"asset_type"`
}

// AssetKey is the identity of an asset, usable as a map key.
type AssetKey struct {
	Symbol string
	Type   AssetType
}

// NewAsset creates an asset with its symbol normalized to uppercase.
func NewAsset(symbol, name string, assetType AssetType) Asset {
	return Asset{
		Symbol: strings.ToUpper(symbol),
		Name:   name,
		Type:   assetType,
	}
}

// NewCrypto creates a cryptocurrency asset.
func NewCrypto(symbol, name string) Asset { return NewAsset(symbol, name, AssetTypeCrypto) }

// NewFiat creates a fiat currency asset.
func NewFiat(symbol, name string) Asset { return NewAsset(symbol, name, AssetTypeFiat) }

// NewMetal creates a precious metal asset.
func NewMetal(symbol, name string) Asset { return NewAsset(symbol, name, AssetTypeMetal) }

// NewStock creates a stock/equity asset.
func NewStock(symbol, name string) Asset { return NewAsset(symbol, name, AssetTypeStock) }

// Key returns the identity key of the asset.
func (a Asset) Key() AssetKey {
	return AssetKey{Symbol: a.Symbol, Type: a.Type}
}

// Same reports whether two assets have the same identity, ignoring Name.
func (a Asset) Same(b Asset) bool {
	return a.Symbol == b.Symbol && a.Type == b.Type
}
