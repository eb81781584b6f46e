package model

import "time"

// FreePackageTag marks the catalog row granted by the one-time free claim.
const FreePackageTag = "free"

// CoinPackage is a purchasable catalog row. The free-tier package is the row
// with a zero price and the free tag.
type CoinPackage struct {
	ID          string
	Name        string
	Tag         string
	PriceAmount int64
	CoinAmount  int64
	CreatedAt   time.Time
}

func (p *CoinPackage) IsFree() bool {
	return p != nil && p.PriceAmount == 0 && p.Tag == FreePackageTag
}
