package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DirectorySync/internal/adapter/places"
	"DirectorySync/internal/cache"
	"DirectorySync/internal/config"
	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/mocks"
	"DirectorySync/internal/model"
	"DirectorySync/internal/repository"
	"DirectorySync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testServer struct {
	router     *gin.Engine
	provider   *mocks.MockPlaceProvider
	repo       interfaces.BusinessRepository
	categories interfaces.CategoryRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Business{}, &model.Category{}))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	ctrl := gomock.NewController(t)
	provider := mocks.NewMockPlaceProvider(ctrl)
	provider.EXPECT().Name().Return(places.ProviderName).AnyTimes()

	repo := repository.NewBusinessRepository(db)
	categories := repository.NewCategoryRepository(db)
	enrich := service.NewEnrichmentService(provider, cache.NewMemoryCache(100), time.Minute, nil, log)
	reconciler := service.NewReconciler(repo, &config.SyncConfig{InsertRetries: 2}, log)
	query := service.NewQueryService(repo, categories, provider, enrich, nil,
		&config.QueryConfig{DefaultPageSize: 20, MaxPageSize: 100, AllCap: 500}, log)
	syncSvc := service.NewSyncService(provider, reconciler, categories, log)

	router := NewRouter(&config.ServerConfig{Mode: gin.TestMode},
		NewBusinessHandler(query, enrich, log), NewSyncHandler(syncSvc, log), log)
	return &testServer{router: router, provider: provider, repo: repo, categories: categories}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestListBusinesses_External(t *testing.T) {
	s := newTestServer(t)
	s.provider.EXPECT().Search(gomock.Any(), model.SearchRequest{Query: "leak repair, Austin, TX"}).
		Return([]*model.RawPlace{
			{ExternalID: "e1", Name: "Lone Star Leak Repair", FormattedAddress: "1 Congress Ave, Austin, TX 78701, USA"},
		}, nil)

	w := s.do(t, http.MethodGet, "/api/businesses?q=leak+repair&city=Austin&region=TX", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	var res model.QueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, model.ProvenanceExternal, res.Source)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "e1", res.Items[0].ExternalID)
	assert.Equal(t, "Austin", res.Items[0].City)
}

func TestListBusinesses_BadParams(t *testing.T) {
	s := newTestServer(t)
	for _, target := range []string{
		"/api/businesses?sort=random",
		"/api/businesses?min_rating=7",
		"/api/businesses?region=Texas",
		"/api/businesses?page_size=-3",
		"/api/businesses?price_tier=9",
	} {
		w := s.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestListBusinesses_PageSizeAll(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/api/businesses?page_size=all", "")
	require.Equal(t, http.StatusOK, w.Code)

	var res model.QueryResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 500, res.PageSize)
	assert.Empty(t, res.Items)
}

func TestGetBusiness(t *testing.T) {
	s := newTestServer(t)
	_, err := s.repo.Insert(context.Background(), &model.Business{Slug: "acme", Name: "Acme"})
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/api/businesses/acme", "")
	require.Equal(t, http.StatusOK, w.Code)
	var v model.BusinessView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	assert.Equal(t, "Acme", v.Name)
	assert.Equal(t, model.ProvenanceLocal, v.Provenance)

	w = s.do(t, http.MethodGet, "/api/businesses/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetEnrichment(t *testing.T) {
	s := newTestServer(t)
	s.provider.EXPECT().FetchDetail(gomock.Any(), "ok", gomock.Any()).
		Return(&model.Enrichment{ExternalID: "ok", Phone: "(512) 555-0100"}, nil)
	s.provider.EXPECT().FetchDetail(gomock.Any(), "gone", gomock.Any()).
		Return(nil, &places.Error{Op: "detail", ExternalID: "gone", Err: fmt.Errorf("%w: %w", interfaces.ErrProviderUnavailable, places.ErrNotFound)})
	s.provider.EXPECT().FetchDetail(gomock.Any(), "down", gomock.Any()).
		Return(nil, interfaces.ErrProviderUnavailable)

	w := s.do(t, http.MethodGet, "/api/enrichment/ok", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "555-0100")

	// 第二次命中缓存，不再请求数据源
	w = s.do(t, http.MethodGet, "/api/enrichment/ok", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/enrichment/gone", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, s.do(t, http.MethodGet, "/api/enrichment/down", "").Code)
}

func TestListCategories(t *testing.T) {
	s := newTestServer(t)
	_, err := s.categories.Ensure(context.Background(), "Plumbers")
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "plumbers")
}

func TestSync(t *testing.T) {
	s := newTestServer(t)
	s.provider.EXPECT().Search(gomock.Any(), model.SearchRequest{Query: "cafe"}).
		Return([]*model.RawPlace{
			{ExternalID: "e1", Name: "Cafe One", FormattedAddress: "1 A St, Austin, TX 78701, USA"},
			{ExternalID: "e2", Name: "Cafe Two", FormattedAddress: "2 A St, Austin, TX 78701, USA"},
		}, nil)

	w := s.do(t, http.MethodPost, "/api/sync", `{"term":"cafe"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stats model.SyncStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, model.SyncStats{Saved: 2}, stats)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/sync", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/sync", `{"category_id":42}`).Code)
}
