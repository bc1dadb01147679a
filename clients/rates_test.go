package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/config"
)

func newTestRateSource(t *testing.T, handler http.HandlerFunc) RateSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	config.RATE_SOURCE_URL = srv.URL
	return NewRateSource(zap.NewNop())
}

func TestGetRate(t *testing.T) {
	rates := newTestRateSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "XRP", r.URL.Query().Get("source"))
		assert.Equal(t, "EUR", r.URL.Query().Get("destination"))
		fmt.Fprint(w, `{"rate":"0.9","fee":1}`)
	})

	quote, err := rates.GetRate(context.Background(), "XRP", "EUR")
	require.NoError(t, err)
	assert.Equal(t, "0.9", quote.Rate.String())
	assert.EqualValues(t, 1, quote.Fee)
}

func TestGetRateRejectsNonPositiveRate(t *testing.T) {
	rates := newTestRateSource(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rate":"0","fee":1}`)
	})

	_, err := rates.GetRate(context.Background(), "XRP", "EUR")
	assert.Error(t, err)
}

func TestGetRateUpstreamFailure(t *testing.T) {
	rates := newTestRateSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	})

	_, err := rates.GetRate(context.Background(), "XRP", "EUR")
	assert.Error(t, err)
}
