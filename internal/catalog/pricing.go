// Package catalog implements the storefront's read side: discount-aware
// pricing, the search/filter/sort pipeline, pagination and the snapshot
// store that feeds them.
package catalog

import (
	"fmt"
	"math"
	"time"

	"pharmacy/internal/models"
)

// PricingResult is the price state of a product at one evaluation time.
type PricingResult struct {
	ListPrice       float64        `json:"listPrice"`
	FinalPrice      float64        `json:"finalPrice"`
	DiscountPercent int            `json:"discountPercent"`
	IsActiveOffer   bool           `json:"isActiveOffer"`
	Remaining       *time.Duration `json:"remaining,omitempty"`
}

// HasDiscount reports whether the final price differs from the list price.
func (r PricingResult) HasDiscount() bool {
	return r.DiscountPercent > 0
}

// ResolvePrice computes the pricing state of p at now. It never fails: a
// malformed price or discount is treated as zero.
func ResolvePrice(p models.Product, now time.Time) PricingResult {
	price := sanitizePrice(p.Price)
	discount := sanitizeDiscount(p.Discount)

	res := PricingResult{
		ListPrice:       price,
		FinalPrice:      finalPrice(price, discount),
		DiscountPercent: discount,
	}

	if !offerWindowOpen(p, discount, now) {
		return res
	}
	if p.OfferEnd != nil {
		remaining := p.OfferEnd.Sub(now)
		if remaining <= 0 {
			return res
		}
		res.Remaining = &remaining
	}
	res.IsActiveOffer = true
	return res
}

// IsActiveOffer reports whether p is flagged as an offer, discounted, and
// inside its offer window at now.
func IsActiveOffer(p models.Product, now time.Time) bool {
	return ResolvePrice(p, now).IsActiveOffer
}

// FinalPrice returns the discounted price of p.
func FinalPrice(p models.Product) float64 {
	return finalPrice(sanitizePrice(p.Price), sanitizeDiscount(p.Discount))
}

func finalPrice(price float64, discount int) float64 {
	if discount <= 0 {
		return price
	}
	return roundHalfUp(price * (1 - float64(discount)/100))
}

func offerWindowOpen(p models.Product, discount int, now time.Time) bool {
	if !p.IsOffer || discount <= 0 {
		return false
	}
	if p.OfferStart != nil && p.OfferStart.After(now) {
		return false
	}
	if p.OfferEnd != nil && p.OfferEnd.Before(now) {
		return false
	}
	return true
}

func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}

func sanitizePrice(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func sanitizeDiscount(d int) int {
	switch {
	case d < 0:
		return 0
	case d > 100:
		return 100
	}
	return d
}

// Countdown splits the time left on an offer into display units.
type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// NewCountdown converts d into whole days, hours, minutes and seconds.
// Negative durations count as zero.
func NewCountdown(d time.Duration) Countdown {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return Countdown{
		Days:    secs / 86400,
		Hours:   secs / 3600 % 24,
		Minutes: secs / 60 % 60,
		Seconds: secs % 60,
	}
}

// Expired reports whether nothing is left on the clock.
func (c Countdown) Expired() bool {
	return c == Countdown{}
}

func (c Countdown) String() string {
	return fmt.Sprintf("%dd %dh %dm %ds", c.Days, c.Hours, c.Minutes, c.Seconds)
}
