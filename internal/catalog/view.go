package catalog

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"pharmacy/internal/models"
)

const (
	// PlaceholderImage is shown for products without an image.
	PlaceholderImage = "assets/bottle.svg"

	snippetLength = 60
)

// ProductView is the card a listing renders for one product. Every grid
// (shop, offers, recently viewed, product page) uses the same projection.
type ProductView struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	Snippet       string     `json:"snippet"`
	Image         string     `json:"image"`
	ListPrice     float64    `json:"listPrice"`
	FinalPrice    float64    `json:"finalPrice"`
	Discount      int        `json:"discount"`
	HasDiscount   bool       `json:"hasDiscount"`
	IsActiveOffer bool       `json:"isActiveOffer"`
	Countdown     *Countdown `json:"countdown,omitempty"`
	OfferEndsAt   *time.Time `json:"offerEndsAt,omitempty"`
	Stock         int        `json:"stock"`
	InStock       bool       `json:"inStock"`
	Volumes       []string   `json:"volumes"`
	DefaultVolume string     `json:"defaultVolume"`
	Rating        float64    `json:"rating"`
	FullStars     int        `json:"fullStars"`
	HalfStar      bool       `json:"halfStar"`
	ReviewCount   int        `json:"reviewCount"`
}

// NewView projects p and its pricing into a ProductView.
func NewView(p models.Product, pricing PricingResult) ProductView {
	rating := p.Rating
	if math.IsNaN(rating) || rating < 0 {
		rating = 0
	}
	rating = math.Min(rating, 5)

	v := ProductView{
		ID:            p.ID,
		Name:          p.Name,
		Category:      p.Category,
		Snippet:       snippet(p),
		Image:         p.Image,
		ListPrice:     pricing.ListPrice,
		FinalPrice:    pricing.FinalPrice,
		Discount:      pricing.DiscountPercent,
		HasDiscount:   pricing.HasDiscount(),
		IsActiveOffer: pricing.IsActiveOffer,
		Stock:         max(p.Stock, 0),
		InStock:       p.Stock > 0,
		Volumes:       p.Volumes,
		DefaultVolume: DefaultVolume(p),
		Rating:        rating,
		FullStars:     int(math.Floor(rating)),
		HalfStar:      rating-math.Floor(rating) >= 0.5,
		ReviewCount:   max(p.ReviewCount, 0),
	}
	if v.Image == "" {
		v.Image = PlaceholderImage
	}
	if v.Volumes == nil {
		v.Volumes = []string{}
	}
	if pricing.IsActiveOffer && pricing.Remaining != nil {
		c := NewCountdown(*pricing.Remaining)
		v.Countdown = &c
		v.OfferEndsAt = p.OfferEnd
	}
	return v
}

// Views projects products at now.
func Views(products []models.Product, now time.Time) []ProductView {
	out := make([]ProductView, len(products))
	for i, p := range products {
		out[i] = NewView(p, ResolvePrice(p, now))
	}
	return out
}

// DefaultVolume returns the preselected size of p: its defaultVolume, else
// its first volume, else empty.
func DefaultVolume(p models.Product) string {
	if p.DefaultVolume != "" {
		return p.DefaultVolume
	}
	if len(p.Volumes) > 0 {
		return p.Volumes[0]
	}
	return ""
}

func snippet(p models.Product) string {
	text := p.Tagline
	if text == "" {
		text = p.Description
	}
	if text == "" {
		text = p.Name
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) > snippetLength {
		text = string([]rune(text)[:snippetLength])
	}
	return text + "..."
}
