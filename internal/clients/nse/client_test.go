package nse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/nsebhav/internal/models"
)

const sampleCSV = `SYMBOL, SERIES, DATE1, PREV_CLOSE, OPEN_PRICE, HIGH_PRICE, LOW_PRICE, LAST_PRICE, CLOSE_PRICE
INFY, EQ, 03-Jan-2024, 1500.00, 1505.10, 1520.00, 1498.25, 1510.00, 1512.40
`

func TestFetchBhavcopy_BuildsURLAndSendsUserAgent(t *testing.T) {
	var capturedPath, capturedUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		capturedUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	body, err := client.FetchBhavcopy(context.Background(), time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "/products/content/sec_bhavdata_full_03012024.csv", capturedPath)
	assert.NotEmpty(t, capturedUA)
	assert.NotContains(t, capturedUA, "Go-http-client")
	assert.Equal(t, sampleCSV, body)
}

func TestFetchBhavcopy_CustomUserAgent(t *testing.T) {
	var capturedUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUA = r.Header.Get("User-Agent")
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0), WithUserAgent("nsebhav-test/1.0"), WithUserAgent("  "))
	_, err := client.FetchBhavcopy(context.Background(), time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "nsebhav-test/1.0", capturedUA)
}

func TestFetchBhavcopy_NotFoundIsNotPublished(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := client.FetchBhavcopy(context.Background(), time.Date(2024, time.January, 6, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)

	assert.True(t, errors.Is(err, models.ErrNotPublished))

	var netErr *models.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusNotFound, netErr.StatusCode)
}

func TestFetchBhavcopy_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := client.FetchBhavcopy(context.Background(), time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)

	var netErr *models.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusInternalServerError, netErr.StatusCode)
	assert.False(t, errors.Is(err, models.ErrNotPublished))
}

func TestFetchBhavcopy_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRateLimit(0), WithTimeout(100*time.Millisecond))
	_, err := client.FetchBhavcopy(context.Background(), time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)

	var netErr *models.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.StatusCode)
	assert.False(t, errors.Is(err, models.ErrNotPublished))
}

func TestFetchBhavcopy_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.FetchBhavcopy(ctx, time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestBhavcopyURL_TrailingSlash(t *testing.T) {
	client := NewClient(WithBaseURL("https://archives.example.com/"))
	got := client.BhavcopyURL(time.Date(2023, time.December, 29, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "https://archives.example.com/products/content/sec_bhavdata_full_29122023.csv", got)
}
