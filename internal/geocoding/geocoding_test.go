package geocoding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"greenMuensterAPI/internal/logger"
)

func TestLookupFallback(t *testing.T) {
	c, ok := LookupFallback("Hauptbahnhof")
	require.True(t, ok)
	assert.Equal(t, 51.9625, c.Lat)
	assert.Equal(t, 7.6251, c.Lng)

	c, ok = LookupFallback("prinzipalmarkt 12")
	require.True(t, ok)
	assert.Equal(t, 51.9609, c.Lat)

	_, ok = LookupFallback("schloss münster, innenhof")
	assert.True(t, ok)

	_, ok = LookupFallback("Aasee")
	assert.False(t, ok)
}

func TestCityQuery(t *testing.T) {
	assert.Equal(t, "Aasee, Muenster, Germany", CityQuery("Aasee"))
	assert.Equal(t, "Domplatz Muenster", CityQuery("Domplatz Muenster"))
	assert.Equal(t, "Rathaus Münster", CityQuery("Rathaus Münster"))
}

func TestSuggest(t *testing.T) {
	got := Suggest("aasee", 0)
	require.NotEmpty(t, got)
	assert.Equal(t, "Aasee", got[0])
	assert.Contains(t, got, "Aaseeterrassen")

	assert.Len(t, Suggest("a", 3), 3)
	assert.Empty(t, Suggest("   ", 5))
}

func TestNominatimClient_Search(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Aasee, Muenster, Germany", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"51.9550","lon":"7.6110","display_name":"Aasee"}]`))
	}))
	defer srv.Close()

	client, err := NewNominatimClient(srv.URL, srv.Client(), logger.Discard())
	require.NoError(t, err)

	coords, err := client.Search(context.Background(), "Aasee")
	require.NoError(t, err)
	assert.Equal(t, 51.955, coords.Lat)
	assert.Equal(t, 7.611, coords.Lng)

	// second lookup is served from the cache
	_, err = client.Search(context.Background(), "aasee")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNominatimClient_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client, err := NewNominatimClient(srv.URL, srv.Client(), logger.Discard())
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "Nowhere Street 999")
	assert.ErrorIs(t, err, ErrNoResults)
}

func TestNominatimClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, err := NewNominatimClient(srv.URL, srv.Client(), logger.Discard())
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "Aasee")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoResults)
	assert.Contains(t, err.Error(), "503")
}

func TestNominatimClient_RespectsRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat":"51.95","lon":"7.61"}]`))
	}))
	defer srv.Close()

	client, err := NewNominatimClient(srv.URL, srv.Client(), logger.Discard())
	require.NoError(t, err)
	client.SetRateLimit(rate.Every(time.Hour), 1)

	_, err = client.Search(context.Background(), "Aasee")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Search(ctx, "Domplatz")
	assert.Error(t, err)
}
