package snapshots

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

func testSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Ticker:      "KO",
		AnnualData:  []models.AnnualRecord{{Year: 2023, EarningsPerShare: 2.4}},
		Assumptions: models.NewAssumptions(),
		CompanyInfo: &models.CompanyInfo{Symbol: "KO"},
	}
}

func TestCreateRoundTrip(t *testing.T) {
	var gotAuth string
	var gotBody createRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/snapshots", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		created := *gotBody.Snapshot
		created.ID = "snap_abc"
		created.Version = 4
		created.IsCurrent = gotBody.MakeCurrent
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(&created)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithAPIKey("secret"), WithHTTPClient(server.Client()))

	created, err := client.Create(context.Background(), testSnapshot(), true)
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.True(t, gotBody.MakeCurrent, "make_current not forwarded")
	assert.Equal(t, "snap_abc", created.ID)
	assert.Equal(t, 4, created.Version)
	assert.True(t, created.IsCurrent)
}

func TestCreateValidatesLocally(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))

	snap := testSnapshot()
	snap.CompanyInfo = nil
	_, err := client.Create(context.Background(), snap, true)
	assert.ErrorIs(t, err, models.ErrMissingCompanyInfo)
	assert.Zero(t, calls, "invalid snapshot must not reach the backend")
}

func TestGetNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))

	_, err := client.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, interfaces.ErrSnapshotNotFound)

	_, err = client.GetCurrent(context.Background(), "KO")
	assert.ErrorIs(t, err, interfaces.ErrSnapshotNotFound)
}

func TestBackendErrorCarriesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))

	_, err := client.Get(context.Background(), "snap_abc")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.HTTPStatus())
}

func TestListForwardsFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "KO", q.Get("ticker"))
		assert.Equal(t, "true", q.Get("current_only"))
		assert.Equal(t, "5", q.Get("limit"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))

	_, err := client.List(context.Background(), models.SnapshotFilter{Ticker: "KO", CurrentOnly: true, Limit: 5})
	require.NoError(t, err)
}

func TestSetCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/snapshots/snap_abc/current", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))

	require.NoError(t, client.SetCurrent(context.Background(), "snap_abc"))
}

func TestCurrentTickers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["JNJ","KO"]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, WithHTTPClient(server.Client()))

	tickers, err := client.CurrentTickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"JNJ", "KO"}, tickers)
}
