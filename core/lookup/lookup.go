package lookup

import (
	"time"

	"github.com/shopspring/decimal"

	"trade-quote/core/types"
	"trade-quote/internal/errors"
)

// SellerRegion maps a seller identity to its region
func (t *Tables) SellerRegion(seller string) (types.Region, error) {
	region, ok := t.sellers[normalize(seller)]
	if !ok {
		return "", errors.UnknownDerivedKey("seller region", seller)
	}
	return region, nil
}

// OriginVATRate maps a supplier country to the VAT rate included in its prices
func (t *Tables) OriginVATRate(country string) (decimal.Decimal, error) {
	o, err := t.origin(country)
	if err != nil {
		return decimal.Zero, err
	}
	return o.VATRate, nil
}

func (t *Tables) origin(country string) (Origin, error) {
	o, ok := t.origins[normalize(country)]
	if !ok {
		return Origin{}, errors.UnknownDerivedKey("origin VAT", country)
	}
	return o, nil
}

// InternalMarkup maps a supplier country and seller region to the transfer markup
func (t *Tables) InternalMarkup(country string, region types.Region) (decimal.Decimal, error) {
	rate, ok := t.markups[markupKey{origin: normalize(country), region: region}]
	if !ok {
		return decimal.Zero, errors.UnknownDerivedKey("internal markup", country+"/"+string(region))
	}
	return rate, nil
}

// DestinationVATRate returns the region's VAT rate on a reference date
func (t *Tables) DestinationVATRate(region types.Region, ref time.Time) (decimal.Decimal, error) {
	d, ok := t.destinations[region]
	if !ok {
		return decimal.Zero, errors.UnknownDerivedKey("destination VAT", string(region))
	}
	return d.RateOn(ref), nil
}

// Derive computes all derived variables for one product
func (t *Tables) Derive(seller, country string, ref time.Time) (types.DerivedVariables, error) {
	region, err := t.SellerRegion(seller)
	if err != nil {
		return types.DerivedVariables{}, err
	}
	origin, err := t.origin(country)
	if err != nil {
		return types.DerivedVariables{}, err
	}
	markup, err := t.InternalMarkup(country, region)
	if err != nil {
		return types.DerivedVariables{}, err
	}
	vat, err := t.DestinationVATRate(region, ref)
	if err != nil {
		return types.DerivedVariables{}, err
	}
	return types.DerivedVariables{
		SellerRegion:     region,
		OriginVAT:        origin.VATRate,
		PriceExcludesVAT: origin.PriceExcludesVAT,
		InternalMarkup:   markup,
		DestinationVAT:   vat,
	}, nil
}
