package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/araddon/dateparse"
	"github.com/spf13/cast"
)

// Product represents a product in the pharmacy catalog.
type Product struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(64)"`
	Name          string     `json:"name" validate:"required,min=2,max=200"`
	Tagline       string     `json:"tagline,omitempty" validate:"omitempty,max=300"`
	Description   string     `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category      string     `json:"category,omitempty" gorm:"index" validate:"omitempty,max=100"`
	Price         float64    `json:"price" validate:"gte=0"`
	Discount      int        `json:"discount" validate:"gte=0,lte=100"`
	IsOffer       bool       `json:"isOffer"`
	OfferStart    *time.Time `json:"offerStart,omitempty"`
	OfferEnd      *time.Time `json:"offerEnd,omitempty"`
	Stock         int        `json:"stock" validate:"gte=0"`
	Rating        float64    `json:"rating" validate:"gte=0,lte=5"`
	ReviewCount   int        `json:"reviewCount" validate:"gte=0"`
	Volumes       []string   `json:"volumes,omitempty" gorm:"serializer:json"`
	DefaultVolume string     `json:"defaultVolume,omitempty"`
	Image         string     `json:"image,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`

	// Defaulted lists the fields that could not be decoded and were reset to
	// their neutral value. It is never persisted.
	Defaulted []string `json:"-" gorm:"-"`
}

// UnmarshalJSON decodes a product leniently. The catalog files are edited by
// hand, so numbers may arrive as strings and dates in any common layout. A
// field that cannot be decoded is reset to its zero value and recorded in
// Defaulted instead of failing the whole record.
func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("product: %w", err)
	}

	out := Product{}
	var defaulted []string
	fail := func(field string) { defaulted = append(defaulted, field) }

	str := func(key string) string {
		v, ok := raw[key]
		if !ok || v == nil {
			return ""
		}
		s, err := cast.ToStringE(v)
		if err != nil {
			fail(key)
			return ""
		}
		return s
	}
	num := func(key string) float64 {
		v, ok := raw[key]
		if !ok || v == nil || v == "" {
			return 0
		}
		f, err := cast.ToFloat64E(v)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			fail(key)
			return 0
		}
		return f
	}
	integer := func(key string) int {
		f := num(key)
		return int(math.Round(f))
	}
	date := func(key string) *time.Time {
		v, ok := raw[key]
		if !ok || v == nil || v == "" {
			return nil
		}
		var t time.Time
		var err error
		switch x := v.(type) {
		case float64:
			// epoch milliseconds, as produced by Date.now()
			t = time.UnixMilli(int64(x)).UTC()
		case string:
			t, err = dateparse.ParseAny(x)
		default:
			err = fmt.Errorf("unsupported date %T", v)
		}
		if err != nil {
			fail(key)
			return nil
		}
		return &t
	}

	out.ID = str("id")
	out.Name = str("name")
	out.Tagline = str("tagline")
	out.Description = str("description")
	out.Category = str("category")
	out.Price = num("price")
	out.Discount = integer("discount")
	out.Stock = integer("stock")
	out.Rating = num("rating")
	out.ReviewCount = integer("reviewCount")
	out.DefaultVolume = str("defaultVolume")
	out.Image = str("image")
	out.OfferStart = date("offerStart")
	out.OfferEnd = date("offerEnd")
	if t := date("createdAt"); t != nil {
		out.CreatedAt = *t
	}
	if t := date("updatedAt"); t != nil {
		out.UpdatedAt = *t
	}

	if v, ok := raw["isOffer"]; ok && v != nil {
		b, err := cast.ToBoolE(v)
		if err != nil {
			fail("isOffer")
		}
		out.IsOffer = b
	}
	if v, ok := raw["volumes"]; ok && v != nil {
		vols, err := cast.ToStringSliceE(v)
		if err != nil {
			fail("volumes")
		}
		out.Volumes = vols
	}

	out.Defaulted = defaulted
	*p = out
	return nil
}
