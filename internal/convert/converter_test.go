package convert

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gucchon001/invoice-processing-system-sub000/internal/model"
)

// mockRateSource is a test double for service.RateSource.
type mockRateSource struct {
	rate  *float64
	err   error
	calls int
}

func (m *mockRateSource) Rate(_ context.Context, _, _ string) (*float64, error) {
	m.calls++
	return m.rate, m.err
}

func floatPtr(v float64) *float64 { return &v }

func testConverter(t *testing.T, rates *mockRateSource) *Converter {
	t.Helper()
	c := NewConverter(rates, slog.Default())
	t.Cleanup(c.Close)
	return c
}

func TestConvert_JPYNeedsNoConversion(t *testing.T) {
	rates := &mockRateSource{}
	conv := testConverter(t, rates)

	annotation := conv.Convert(context.Background(), model.ExtractionResult{
		Currency:           "JPY",
		AmountInclusiveTax: "110000",
	})

	assert.Equal(t, model.ConversionNotNeeded, annotation.Status)
	require.NotNil(t, annotation.ExchangeRate)
	assert.Equal(t, 1.0, *annotation.ExchangeRate)
	require.NotNil(t, annotation.JPYAmount)
	assert.Equal(t, 110000.0, *annotation.JPYAmount)
	assert.Zero(t, rates.calls, "JPY invoices must not hit the rate source")
}

func TestConvert_EmptyCurrencyTreatedAsJPY(t *testing.T) {
	conv := testConverter(t, &mockRateSource{})

	annotation := conv.Convert(context.Background(), model.ExtractionResult{
		AmountInclusiveTax: "5000",
	})

	assert.Equal(t, model.ConversionNotNeeded, annotation.Status)
}

func TestConvert_MissingAmountIsSkipped(t *testing.T) {
	rates := &mockRateSource{rate: floatPtr(150)}
	conv := testConverter(t, rates)

	annotation := conv.Convert(context.Background(), model.ExtractionResult{
		Currency: "USD",
	})

	assert.Equal(t, model.ConversionSkippedNoAmount, annotation.Status)
	assert.Nil(t, annotation.JPYAmount)
	assert.Zero(t, rates.calls)
}

func TestConvert_SuccessfulConversion(t *testing.T) {
	rates := &mockRateSource{rate: floatPtr(150.25)}
	conv := testConverter(t, rates)

	annotation := conv.Convert(context.Background(), model.ExtractionResult{
		Currency:           "USD",
		AmountInclusiveTax: "100.10",
	})

	assert.Equal(t, model.ConversionConverted, annotation.Status)
	require.NotNil(t, annotation.ExchangeRate)
	assert.Equal(t, 150.25, *annotation.ExchangeRate)
	require.NotNil(t, annotation.JPYAmount)
	assert.InDelta(t, 15040.03, *annotation.JPYAmount, 0.001, "amount is rounded to 2 decimals")
	assert.Equal(t, "exchange_rate_api", annotation.Source)
	assert.WithinDuration(t, time.Now(), annotation.ConvertedAt, time.Second)
}

func TestConvert_SecondLookupHitsCache(t *testing.T) {
	rates := &mockRateSource{rate: floatPtr(150)}
	conv := testConverter(t, rates)

	result := model.ExtractionResult{Currency: "USD", AmountInclusiveTax: "100"}

	first := conv.Convert(context.Background(), result)
	second := conv.Convert(context.Background(), result)

	assert.Equal(t, "exchange_rate_api", first.Source)
	assert.Equal(t, "cache", second.Source)
	assert.Equal(t, 1, rates.calls)
	assert.Equal(t, *first.JPYAmount, *second.JPYAmount)
}

func TestConvert_NoRateIsServiceUnavailable(t *testing.T) {
	rates := &mockRateSource{}
	conv := testConverter(t, rates)

	annotation := conv.Convert(context.Background(), model.ExtractionResult{
		Currency:           "CHF",
		AmountInclusiveTax: "200",
	})

	assert.Equal(t, model.ConversionServiceUnavailable, annotation.Status)
	assert.Nil(t, annotation.ExchangeRate)
	require.NotNil(t, annotation.JPYAmount, "original amount is preserved on degradation")
	assert.Equal(t, 200.0, *annotation.JPYAmount)
}

func TestConvert_SourceErrorDegrades(t *testing.T) {
	rates := &mockRateSource{err: errors.New("connection refused")}
	conv := testConverter(t, rates)

	annotation := conv.Convert(context.Background(), model.ExtractionResult{
		Currency:           "EUR",
		AmountInclusiveTax: "300",
	})

	assert.Equal(t, model.ConversionServiceUnavailable, annotation.Status)
	assert.Nil(t, annotation.ExchangeRate)
	require.NotNil(t, annotation.JPYAmount)
	assert.Equal(t, 300.0, *annotation.JPYAmount)
}

func TestConvert_ErrorsAreNotCached(t *testing.T) {
	rates := &mockRateSource{err: errors.New("transient")}
	conv := testConverter(t, rates)

	result := model.ExtractionResult{Currency: "EUR", AmountInclusiveTax: "300"}
	conv.Convert(context.Background(), result)

	rates.err = nil
	rates.rate = floatPtr(160)
	annotation := conv.Convert(context.Background(), result)

	assert.Equal(t, model.ConversionConverted, annotation.Status)
	assert.Equal(t, 2, rates.calls)
}

func TestRateCache_Expiry(t *testing.T) {
	cache := newRateCache(10 * time.Millisecond)
	defer cache.Close()

	cache.set("USD/JPY", 150)

	rate, ok := cache.get("USD/JPY")
	require.True(t, ok)
	assert.Equal(t, 150.0, rate)

	time.Sleep(20 * time.Millisecond)

	_, ok = cache.get("USD/JPY")
	assert.False(t, ok, "entry must expire after the TTL")
	assert.Equal(t, 1, cache.size(), "cleanup runs on its own schedule")
}

func TestHTTPRateSource_Rate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/USD", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"JPY":150.5,"EUR":0.92}}`))
	}))
	defer server.Close()

	source := NewHTTPRateSource(server.URL)

	rate, err := source.Rate(context.Background(), "USD", "JPY")
	require.NoError(t, err)
	require.NotNil(t, rate)
	assert.Equal(t, 150.5, *rate)
}

func TestHTTPRateSource_UnknownPair(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"base":"USD","rates":{}}`))
	}))
	defer server.Close()

	source := NewHTTPRateSource(server.URL)

	rate, err := source.Rate(context.Background(), "USD", "JPY")
	require.NoError(t, err)
	assert.Nil(t, rate)
}

func TestHTTPRateSource_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := NewHTTPRateSource(server.URL)

	_, err := source.Rate(context.Background(), "USD", "JPY")
	assert.Error(t, err)
}
