package httpapi

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bookfolio/bookfolio/internal/catalog"
	"github.com/bookfolio/bookfolio/pkg/config"
	"github.com/bookfolio/bookfolio/pkg/observability/logger"
	"github.com/bookfolio/bookfolio/pkg/query"
)

// memoryBookStore backs the handlers with the engine's in-process
// source so the full HTTP path runs without a database.
type memoryBookStore struct {
	books map[int64]catalog.Book
	next  int64
}

func newMemoryBookStore(books ...catalog.Book) *memoryBookStore {
	s := &memoryBookStore{books: make(map[int64]catalog.Book)}
	for _, b := range books {
		s.books[b.ID] = b
		if b.ID >= s.next {
			s.next = b.ID + 1
		}
	}
	return s
}

func (s *memoryBookStore) FindPage(ctx context.Context, p query.Params) (query.Page[catalog.Book], error) {
	items := make([]catalog.Book, 0, len(s.books))
	for _, b := range s.books {
		items = append(items, b)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return query.Run(ctx, catalog.BookFields, query.NewMemorySource(items...), p)
}

func (s *memoryBookStore) FindByID(_ context.Context, id int64) (*catalog.Book, error) {
	b, ok := s.books[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &b, nil
}

func (s *memoryBookStore) Create(_ context.Context, b *catalog.Book) error {
	b.ID = s.next
	s.next++
	s.books[b.ID] = *b
	return nil
}

func (s *memoryBookStore) Update(_ context.Context, b *catalog.Book) error {
	if _, ok := s.books[b.ID]; !ok {
		return sql.ErrNoRows
	}
	s.books[b.ID] = *b
	return nil
}

func (s *memoryBookStore) Delete(_ context.Context, id int64) error {
	if _, ok := s.books[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.books, id)
	return nil
}

func fixtureBooks() []catalog.Book {
	return []catalog.Book{
		{ID: 1, Title: "The Lord of the Rings", OriginalLanguage: "English", PublicationYear: 1954, PageCount: 1178, Available: true},
		{ID: 2, Title: "Dune", OriginalLanguage: "English", PublicationYear: 1965, PageCount: 412, Available: true},
		{ID: 3, Title: "Ringworld", OriginalLanguage: "English", PublicationYear: 1970, PageCount: 342, Available: false},
		{ID: 4, Title: "Solaris", OriginalLanguage: "Polish", PublicationYear: 1961, PageCount: 204, Available: true},
		{ID: 5, Title: "Le Petit Prince", OriginalLanguage: "French", PublicationYear: 1943, PageCount: 96, Available: true},
	}
}

func newTestRouter(store *memoryBookStore, invalidated *int) *gin.Engine {
	engine := NewRouter(RouterOptions{Log: logger.NewNop()})
	Mount(APIGroup(engine, "books"), &Resource[catalog.Book]{
		Name:   "books",
		Lister: store,
		Repo:   store,
		SetID:  func(b *catalog.Book, id int64) { b.ID = id },
		OnWrite: func(context.Context) {
			if invalidated != nil {
				*invalidated++
			}
		},
		Log: logger.NewNop(),
	})
	return engine
}

func doRequest(t *testing.T, engine *gin.Engine, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder) pageBody[catalog.Book] {
	t.Helper()
	var page pageBody[catalog.Book]
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decoding page: %v\nbody: %s", err, rec.Body.String())
	}
	return page
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding error body: %v\nbody: %s", err, rec.Body.String())
	}
	return body
}

func TestList_FiltersSortsAndPages(t *testing.T) {
	engine := newTestRouter(newMemoryBookStore(fixtureBooks()...), nil)

	rec := doRequest(t, engine, http.MethodGet, "/api/v1/books?Title~=ring&sortBy=PageCount&sortDesc=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	page := decodePage(t, rec)
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.Items[0].Title != "The Lord of the Rings" || page.Items[1].Title != "Ringworld" {
		t.Fatalf("unexpected order: %q, %q", page.Items[0].Title, page.Items[1].Title)
	}
	if page.Page != 1 || page.TotalPages != 1 || page.HasNext || page.HasPrevious {
		t.Fatalf("unexpected page metadata: %+v", page)
	}
}

func TestList_Pagination(t *testing.T) {
	engine := newTestRouter(newMemoryBookStore(fixtureBooks()...), nil)

	rec := doRequest(t, engine, http.MethodGet, "/api/v1/books?page=2&pageSize=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	page := decodePage(t, rec)
	if page.Page != 2 || page.TotalPages != 3 {
		t.Fatalf("page metadata = %+v", page)
	}
	if !page.HasPrevious || !page.HasNext {
		t.Fatalf("expected both neighbors on middle page: %+v", page)
	}
	if len(page.Items) != 2 || page.Items[0].ID != 3 {
		t.Fatalf("unexpected slice: %+v", page.Items)
	}
}

func TestList_QueryRejections(t *testing.T) {
	engine := newTestRouter(newMemoryBookStore(fixtureBooks()...), nil)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   string
	}{
		{"malformed key", "/api/v1/books?Title=ring", http.StatusBadRequest, "query.malformed_filter_key"},
		{"unknown field", "/api/v1/books?Publisher==Ace", http.StatusBadRequest, "query.unknown_filter_field"},
		{"bad value", "/api/v1/books?PageCount>=many", http.StatusBadRequest, "query.invalid_filter_value"},
		{"contains on integer", "/api/v1/books?PageCount~=12", http.StatusBadRequest, "query.unsupported_operator"},
		{"unknown sort field", "/api/v1/books?sortBy=Publisher", http.StatusBadRequest, "query.unknown_sort_field"},
		{"zero page", "/api/v1/books?page=0", http.StatusBadRequest, "query.invalid_page_parameters"},
		{"page beyond last", "/api/v1/books?page=99", http.StatusBadRequest, "query.page_out_of_range"},
		{"non-numeric page", "/api/v1/books?page=two", http.StatusBadRequest, "request.invalid_parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, engine, http.MethodGet, tt.target, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if body := decodeError(t, rec); body.Code != tt.wantCode {
				t.Fatalf("code = %q, want %q", body.Code, tt.wantCode)
			}
		})
	}
}

func TestList_EmptyResultIsSuccess(t *testing.T) {
	engine := newTestRouter(newMemoryBookStore(fixtureBooks()...), nil)

	rec := doRequest(t, engine, http.MethodGet, "/api/v1/books?Title~=zzzz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	page := decodePage(t, rec)
	if len(page.Items) != 0 || page.TotalPages != 0 {
		t.Fatalf("expected empty success, got %+v", page)
	}
}

func TestGet(t *testing.T) {
	engine := newTestRouter(newMemoryBookStore(fixtureBooks()...), nil)

	rec := doRequest(t, engine, http.MethodGet, "/api/v1/books/2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var book catalog.Book
	if err := json.Unmarshal(rec.Body.Bytes(), &book); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if book.Title != "Dune" {
		t.Fatalf("title = %q", book.Title)
	}

	rec = doRequest(t, engine, http.MethodGet, "/api/v1/books/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, engine, http.MethodGet, "/api/v1/books/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreate(t *testing.T) {
	store := newMemoryBookStore(fixtureBooks()...)
	invalidated := 0
	engine := newTestRouter(store, &invalidated)

	body, _ := json.Marshal(catalog.Book{Title: "Hyperion", OriginalLanguage: "English", PublicationYear: 1989, PageCount: 482, Available: true})
	rec := doRequest(t, engine, http.MethodPost, "/api/v1/books", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var created catalog.Book
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected assigned id, got %+v", created)
	}
	if invalidated != 1 {
		t.Fatalf("expected one write notification, got %d", invalidated)
	}

	rec = doRequest(t, engine, http.MethodPost, "/api/v1/books", []byte("{not json"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdate_StampsPathID(t *testing.T) {
	store := newMemoryBookStore(fixtureBooks()...)
	invalidated := 0
	engine := newTestRouter(store, &invalidated)

	body, _ := json.Marshal(catalog.Book{Title: "Dune (revised)", OriginalLanguage: "English", PublicationYear: 1965, PageCount: 412, Available: true})
	rec := doRequest(t, engine, http.MethodPut, "/api/v1/books/2", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if got := store.books[2].Title; got != "Dune (revised)" {
		t.Fatalf("stored title = %q", got)
	}
	if invalidated != 1 {
		t.Fatalf("expected one write notification, got %d", invalidated)
	}

	rec = doRequest(t, engine, http.MethodPut, "/api/v1/books/999", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	store := newMemoryBookStore(fixtureBooks()...)
	invalidated := 0
	engine := newTestRouter(store, &invalidated)

	rec := doRequest(t, engine, http.MethodDelete, "/api/v1/books/3", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if _, ok := store.books[3]; ok {
		t.Fatalf("book 3 still present")
	}
	if invalidated != 1 {
		t.Fatalf("expected one write notification, got %d", invalidated)
	}

	rec = doRequest(t, engine, http.MethodDelete, "/api/v1/books/3", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	engine := newTestRouter(newMemoryBookStore(), nil)

	rec := doRequest(t, engine, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRequestID_EchoedAndGenerated(t *testing.T) {
	engine := newTestRouter(newMemoryBookStore(), nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "req-123" {
		t.Fatalf("request id = %q, want req-123", got)
	}

	rec = doRequest(t, engine, http.MethodGet, "/healthz", nil)
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestErrorBodyCarriesRequestID(t *testing.T) {
	engine := newTestRouter(newMemoryBookStore(fixtureBooks()...), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/books?Title=ring", nil)
	req.Header.Set(RequestIDHeader, "req-456")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if body := decodeError(t, rec); body.RequestID != "req-456" {
		t.Fatalf("request id in error body = %q", body.RequestID)
	}
}

func TestRateLimit(t *testing.T) {
	engine := NewRouter(RouterOptions{
		Log: logger.NewNop(),
		RateLimit: config.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 1,
			Burst:             2,
		},
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := doRequest(t, engine, http.MethodGet, "/healthz", nil)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("burst requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("third request should be limited, got %v", codes)
	}
}
