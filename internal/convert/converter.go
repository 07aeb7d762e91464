// Package convert turns foreign-currency invoice amounts into JPY using a
// pluggable rate source with a TTL cache in front of it.
package convert

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
	"github.com/gucchon001/invoice-processing-system-sub000/internal/service"
)

// Source tags recorded on conversion annotations.
const (
	sourceAPI   = "exchange_rate_api"
	sourceCache = "cache"
)

// Converter annotates extraction results with JPY conversion data. The
// pipeline treats every outcome as non-fatal: a failed lookup degrades the
// annotation instead of failing the invoice.
type Converter struct {
	rates  service.RateSource
	cache  *rateCache
	logger *slog.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithCacheTTL overrides the default one-hour rate cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Converter) {
		c.cache.Close()
		c.cache = newRateCache(ttl)
	}
}

// NewConverter creates a converter backed by the given rate source.
func NewConverter(rates service.RateSource, logger *slog.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Converter{
		rates:  rates,
		cache:  newRateCache(0),
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert decides the conversion outcome for one extraction result. The
// currency is expected to be normalized already; unknown codes are passed
// to the rate source as-is.
func (c *Converter) Convert(ctx context.Context, result model.ExtractionResult) model.ConversionAnnotation {
	now := time.Now()

	if result.Currency == "" || result.Currency == "JPY" {
		rate := 1.0
		annotation := model.ConversionAnnotation{
			Status:       model.ConversionNotNeeded,
			ExchangeRate: &rate,
			ConvertedAt:  now,
		}
		if amount, ok := result.AmountInclusiveTax.Coerce(); ok {
			annotation.JPYAmount = &amount
		}
		return annotation
	}

	amount, ok := result.AmountInclusiveTax.Coerce()
	if !ok {
		c.logger.Warn("skipping conversion, no usable amount",
			"currency", result.Currency)
		return model.ConversionAnnotation{
			Status:      model.ConversionSkippedNoAmount,
			ConvertedAt: now,
		}
	}

	rate, source, err := c.lookupRate(ctx, result.Currency, "JPY")
	if err != nil {
		c.logger.Error("exchange rate lookup failed",
			"currency", result.Currency,
			"error", err)
		return c.unavailable(amount, now)
	}
	if rate == nil {
		c.logger.Warn("no exchange rate available",
			"currency", result.Currency)
		return c.unavailable(amount, now)
	}

	jpy := roundTo(amount**rate, 2)
	c.logger.Info("converted amount to JPY",
		"currency", result.Currency,
		"amount", amount,
		"rate", *rate,
		"jpy_amount", jpy,
		"source", source)

	return model.ConversionAnnotation{
		Status:       model.ConversionConverted,
		ExchangeRate: rate,
		JPYAmount:    &jpy,
		Source:       source,
		ConvertedAt:  now,
	}
}

// unavailable builds the degraded annotation for a failed rate lookup.
// The original amount is carried as the JPY amount so downstream stages
// always see a populated value alongside a non-null inclusive amount.
func (c *Converter) unavailable(amount float64, now time.Time) model.ConversionAnnotation {
	return model.ConversionAnnotation{
		Status:      model.ConversionServiceUnavailable,
		JPYAmount:   &amount,
		ConvertedAt: now,
	}
}

// lookupRate consults the cache before the rate source and caches
// successful lookups.
func (c *Converter) lookupRate(ctx context.Context, from, to string) (*float64, string, error) {
	key := from + "/" + to

	if cached, ok := c.cache.get(key); ok {
		return &cached, sourceCache, nil
	}

	rate, err := c.rates.Rate(ctx, from, to)
	if err != nil {
		return nil, "", err
	}
	if rate != nil {
		c.cache.set(key, *rate)
	}
	return rate, sourceAPI, nil
}

// Close releases the cache's background resources.
func (c *Converter) Close() {
	c.cache.Close()
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
