package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

// stubSnapshotStore is a minimal in-memory store for handler tests.
type stubSnapshotStore struct {
	mu        sync.Mutex
	snapshots map[string]*models.Snapshot
	nextID    int
}

func newStubSnapshotStore() *stubSnapshotStore {
	return &stubSnapshotStore{snapshots: make(map[string]*models.Snapshot)}
}

func (s *stubSnapshotStore) Create(ctx context.Context, snapshot *models.Snapshot, makeCurrent bool) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *snapshot
	s.nextID++
	copied.ID = fmt.Sprintf("snap_%d", s.nextID)
	version := 0
	for _, existing := range s.snapshots {
		if existing.Ticker == copied.Ticker && existing.Version > version {
			version = existing.Version
		}
	}
	copied.Version = version + 1
	if makeCurrent {
		for _, existing := range s.snapshots {
			if existing.Ticker == copied.Ticker {
				existing.IsCurrent = false
			}
		}
		copied.IsCurrent = true
	}
	s.snapshots[copied.ID] = &copied
	result := copied
	return &result, nil
}

func (s *stubSnapshotStore) Get(ctx context.Context, id string) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snapshot, ok := s.snapshots[id]; ok {
		copied := *snapshot
		return &copied, nil
	}
	return nil, interfaces.ErrSnapshotNotFound
}

func (s *stubSnapshotStore) Update(ctx context.Context, snapshot *models.Snapshot) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[snapshot.ID]; !ok {
		return nil, interfaces.ErrSnapshotNotFound
	}
	copied := *snapshot
	s.snapshots[snapshot.ID] = &copied
	result := copied
	return &result, nil
}

func (s *stubSnapshotStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snapshots[id]; !ok {
		return interfaces.ErrSnapshotNotFound
	}
	delete(s.snapshots, id)
	return nil
}

func (s *stubSnapshotStore) List(ctx context.Context, filter models.SnapshotFilter) ([]*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := []*models.Snapshot{}
	for _, snapshot := range s.snapshots {
		if filter.Ticker != "" && snapshot.Ticker != filter.Ticker {
			continue
		}
		if filter.CurrentOnly && !snapshot.IsCurrent {
			continue
		}
		copied := *snapshot
		result = append(result, &copied)
	}
	return result, nil
}

func (s *stubSnapshotStore) GetCurrent(ctx context.Context, ticker string) (*models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snapshot := range s.snapshots {
		if snapshot.Ticker == ticker && snapshot.IsCurrent {
			copied := *snapshot
			return &copied, nil
		}
	}
	return nil, interfaces.ErrSnapshotNotFound
}

func (s *stubSnapshotStore) SetCurrent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.snapshots[id]
	if !ok {
		return interfaces.ErrSnapshotNotFound
	}
	for _, snapshot := range s.snapshots {
		if snapshot.Ticker == target.Ticker {
			snapshot.IsCurrent = false
		}
	}
	target.IsCurrent = true
	return nil
}

func (s *stubSnapshotStore) CurrentTickers(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tickers := []string{}
	for _, snapshot := range s.snapshots {
		if snapshot.IsCurrent {
			tickers = append(tickers, snapshot.Ticker)
		}
	}
	return tickers, nil
}

func (s *stubSnapshotStore) Close() error { return nil }

func validSnapshotBody(ticker string, makeCurrent bool) *bytes.Buffer {
	req := createSnapshotRequest{
		Snapshot: &models.Snapshot{
			Ticker:      ticker,
			AnnualData:  []models.AnnualRecord{{Year: 2023, EarningsPerShare: 2.4}},
			Assumptions: models.NewAssumptions(),
			CompanyInfo: &models.CompanyInfo{Symbol: ticker},
		},
		MakeCurrent: makeCurrent,
	}
	body, _ := json.Marshal(req)
	return bytes.NewBuffer(body)
}

func TestSnapshotCreateAndGet(t *testing.T) {
	store := newStubSnapshotStore()
	handler := NewSnapshotHandler(store, arbor.NewLogger())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/snapshots", validSnapshotBody("KO", true))
	handler.CollectionHandler(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	var created models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Version != 1 || !created.IsCurrent {
		t.Errorf("created = %+v", created)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/snapshots/"+created.ID, nil)
	handler.ItemHandler(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Ticker != "KO" {
		t.Errorf("got = %+v", got)
	}
}

func TestSnapshotCreateRejectsInvalid(t *testing.T) {
	handler := NewSnapshotHandler(newStubSnapshotStore(), arbor.NewLogger())

	body, _ := json.Marshal(createSnapshotRequest{
		Snapshot: &models.Snapshot{Ticker: "KO"}, // missing annual data
	})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/snapshots", bytes.NewBuffer(body))
	handler.CollectionHandler(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/api/snapshots", bytes.NewBufferString(`{`))
	handler.CollectionHandler(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d, want 400", w.Code)
	}
}

func TestSnapshotGetNotFound(t *testing.T) {
	handler := NewSnapshotHandler(newStubSnapshotStore(), arbor.NewLogger())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/snapshots/missing", nil)
	handler.ItemHandler(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestSnapshotListFilter(t *testing.T) {
	store := newStubSnapshotStore()
	handler := NewSnapshotHandler(store, arbor.NewLogger())

	for _, ticker := range []string{"KO", "KO", "PEP"} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/snapshots", validSnapshotBody(ticker, true))
		handler.CollectionHandler(w, r)
		if w.Code != http.StatusCreated {
			t.Fatalf("create status = %d", w.Code)
		}
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/snapshots?ticker=KO", nil)
	handler.CollectionHandler(w, r)
	var listed []*models.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 {
		t.Errorf("KO snapshots = %d, want 2", len(listed))
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/snapshots?ticker=KO&current_only=true", nil)
	handler.CollectionHandler(w, r)
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatal(err)
	}
	if len(listed) != 1 {
		t.Errorf("current KO snapshots = %d, want 1", len(listed))
	}
}

func TestSnapshotSetCurrentRoute(t *testing.T) {
	store := newStubSnapshotStore()
	handler := NewSnapshotHandler(store, arbor.NewLogger())

	first, err := store.Create(context.Background(), &models.Snapshot{
		Ticker:      "KO",
		AnnualData:  []models.AnnualRecord{},
		Assumptions: models.NewAssumptions(),
		CompanyInfo: &models.CompanyInfo{Symbol: "KO"},
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Create(context.Background(), &models.Snapshot{
		Ticker:      "KO",
		AnnualData:  []models.AnnualRecord{},
		Assumptions: models.NewAssumptions(),
		CompanyInfo: &models.CompanyInfo{Symbol: "KO"},
	}, true)
	if err != nil {
		t.Fatal(err)
	}
	_ = second

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/snapshots/"+first.ID+"/current", nil)
	handler.ItemHandler(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("set-current status = %d, body %s", w.Code, w.Body.String())
	}

	current, err := store.GetCurrent(context.Background(), "KO")
	if err != nil {
		t.Fatal(err)
	}
	if current.ID != first.ID {
		t.Errorf("current = %s, want %s", current.ID, first.ID)
	}

	// GET on the current route is not allowed.
	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/api/snapshots/"+first.ID+"/current", nil)
	handler.ItemHandler(w, r)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET set-current status = %d, want 405", w.Code)
	}
}

func TestSnapshotDelete(t *testing.T) {
	store := newStubSnapshotStore()
	handler := NewSnapshotHandler(store, arbor.NewLogger())

	created, err := store.Create(context.Background(), &models.Snapshot{
		Ticker:      "KO",
		AnnualData:  []models.AnnualRecord{},
		Assumptions: models.NewAssumptions(),
		CompanyInfo: &models.CompanyInfo{Symbol: "KO"},
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/api/snapshots/"+created.ID, nil)
	handler.ItemHandler(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodDelete, "/api/snapshots/"+created.ID, nil)
	handler.ItemHandler(w, r)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestCurrentTickersRoute(t *testing.T) {
	store := newStubSnapshotStore()
	handler := NewSnapshotHandler(store, arbor.NewLogger())

	if _, err := store.Create(context.Background(), &models.Snapshot{
		Ticker:      "KO",
		AnnualData:  []models.AnnualRecord{},
		Assumptions: models.NewAssumptions(),
		CompanyInfo: &models.CompanyInfo{Symbol: "KO"},
	}, true); err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/snapshots/current-tickers", nil)
	handler.CurrentTickersHandler(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var tickers []string
	if err := json.Unmarshal(w.Body.Bytes(), &tickers); err != nil {
		t.Fatal(err)
	}
	if len(tickers) != 1 || tickers[0] != "KO" {
		t.Errorf("tickers = %v", tickers)
	}
}
