package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"DirectorySync/internal/adapter"
	"DirectorySync/internal/config"
	"DirectorySync/internal/interfaces"
	"DirectorySync/internal/model"
	"DirectorySync/internal/utils/address"
	"DirectorySync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ProviderName 配置中 provider.name 对应的值
const ProviderName = "places"

const defaultMaxPages = 3

var _ interfaces.PlaceProvider = (*Adapter)(nil)

func init() {
	adapter.Register(ProviderName, NewPlacesAdapter)
}

// Adapter 文本搜索 + 详情接口客户端：分页、限流退避、失败重试、辖区过滤
type Adapter struct {
	cfg            *config.ProviderConfig
	httpClient     *http.Client
	limiter        *rate.Limiter
	logger         *logrus.Logger
	allowedRegions map[string]struct{}
	countryMarkers map[string]struct{}
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
}

// NewPlacesAdapter 工厂函数（注册到 adapter 包）
func NewPlacesAdapter(cfg *config.ProviderConfig, logger *logrus.Logger) interfaces.PlaceProvider {
	return New(cfg, logger)
}

// New 创建客户端
func New(cfg *config.ProviderConfig, logger *logrus.Logger) *Adapter {
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	a := &Adapter{
		cfg:            cfg,
		httpClient:     httpclient.NewHTTPClient(cfg, logger),
		limiter:        rate.NewLimiter(limit, burst),
		logger:         logger,
		allowedRegions: make(map[string]struct{}, len(cfg.AllowedRegions)),
		countryMarkers: make(map[string]struct{}, len(cfg.CountryMarkers)),
		now:            time.Now,
		sleep:          sleepContext,
	}
	for _, r := range cfg.AllowedRegions {
		a.allowedRegions[strings.ToUpper(strings.TrimSpace(r))] = struct{}{}
	}
	for _, m := range cfg.CountryMarkers {
		a.countryMarkers[strings.ToLower(strings.TrimSpace(m))] = struct{}{}
	}
	return a
}

// ========== 实现PlaceProvider接口 ==========

// Name 数据源名称
func (a *Adapter) Name() string {
	return ProviderName
}

// Search 一次逻辑查询：最多 max_pages 页，翻页前等待 page_delay，过滤辖区外结果。
// 首页失败返回错误；后续页失败保留已拿到的结果。
func (a *Adapter) Search(ctx context.Context, req model.SearchRequest) ([]*model.RawPlace, error) {
	maxPages := a.cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	var (
		out     []*model.RawPlace
		seen    = make(map[string]struct{})
		dropped int
		token   string
	)
	for page := 0; page < maxPages; page++ {
		if page > 0 {
			// 续页 token 需要一段时间才生效
			if err := a.sleep(ctx, a.cfg.PageDelay); err != nil {
				break
			}
		}

		places, next, err := a.SearchPage(ctx, req, token)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			a.logger.WithError(err).WithFields(logrus.Fields{
				"query": req.Query,
				"page":  page + 1,
			}).Warn("续页拉取失败，保留已获取结果")
			break
		}

		for _, p := range places {
			if !a.InJurisdiction(p) {
				dropped++
				continue
			}
			if p.ExternalID != "" {
				if _, dup := seen[p.ExternalID]; dup {
					continue
				}
				seen[p.ExternalID] = struct{}{}
			}
			out = append(out, p)
		}

		if next == "" {
			break
		}
		token = next
	}

	a.logger.WithFields(logrus.Fields{
		"query":   req.Query,
		"kept":    len(out),
		"dropped": dropped,
	}).Info("外部搜索完成")
	return out, nil
}

// SearchPage 拉取单页。被限流且重试耗尽时返回空结果、无错误。
func (a *Adapter) SearchPage(ctx context.Context, req model.SearchRequest, pageToken string) ([]*model.RawPlace, string, error) {
	params := url.Values{}
	if pageToken != "" {
		params.Set("pagetoken", pageToken)
	} else {
		params.Set("query", req.Query)
		if req.Location != "" {
			params.Set("location", req.Location)
			if req.Radius > 0 {
				params.Set("radius", strconv.Itoa(req.Radius))
			}
		}
	}

	var resp textSearchResponse
	if err := a.call(ctx, "/textsearch/json", params, &resp); err != nil {
		if errors.Is(err, ErrRateLimited) {
			a.logger.WithField("query", req.Query).Warn("外部数据源持续限流，本次返回空结果")
			return nil, "", nil
		}
		return nil, "", &Error{Op: "search", Query: req.Query, Err: err}
	}

	places := make([]*model.RawPlace, 0, len(resp.Results))
	for i := range resp.Results {
		places = append(places, resp.Results[i].toRawPlace())
	}
	return places, resp.NextPageToken, nil
}

// FetchDetail 拉取单个地点的富化字段
func (a *Adapter) FetchDetail(ctx context.Context, externalID string, fields []string) (*model.Enrichment, error) {
	if externalID == "" {
		return nil, &Error{Op: "detail", Err: ErrBadRequest}
	}
	if len(fields) == 0 {
		fields = a.cfg.DetailFields
	}

	params := url.Values{}
	params.Set("place_id", externalID)
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}

	var resp detailResponse
	if err := a.call(ctx, "/details/json", params, &resp); err != nil {
		if errors.Is(err, ErrRateLimited) {
			err = fmt.Errorf("%w: %w", interfaces.ErrProviderUnavailable, err)
		}
		return nil, &Error{Op: "detail", ExternalID: externalID, Err: err}
	}
	return resp.Result.toEnrichment(externalID, a.now()), nil
}

// InJurisdiction 州代码可识别时按州白名单判断，否则看国家标识
func (a *Adapter) InJurisdiction(p *model.RawPlace) bool {
	if len(a.allowedRegions) == 0 && len(a.countryMarkers) == 0 {
		return true
	}
	comps := address.Parse(p.FormattedAddress)
	if address.IsKnown(comps.Region) {
		_, ok := a.allowedRegions[comps.Region]
		return ok
	}
	if address.IsKnown(comps.Country) {
		_, ok := a.countryMarkers[strings.ToLower(comps.Country)]
		return ok
	}
	return false
}

// call 执行请求：限流按 cooldown 重试 rate_limit_retries 次；
// 网络/解析/5xx 按 retry_delay 重试 retry_count 次后包装为 ErrProviderUnavailable。
func (a *Adapter) call(ctx context.Context, path string, params url.Values, out envelope) error {
	var rateLimited, transient int
	for {
		err := a.doOnce(ctx, path, params, out)
		switch {
		case err == nil:
			return nil

		case errors.Is(err, ErrRateLimited):
			if rateLimited >= a.cfg.RateLimitRetries {
				return err
			}
			rateLimited++
			a.logger.WithFields(logrus.Fields{
				"path":     path,
				"attempt":  rateLimited,
				"cooldown": a.cfg.RateLimitCooldown,
			}).Warn("外部数据源限流，冷却后重试")
			if serr := a.sleep(ctx, a.cfg.RateLimitCooldown); serr != nil {
				return fmt.Errorf("%w: %w", interfaces.ErrProviderUnavailable, serr)
			}

		case ctx.Err() != nil:
			return fmt.Errorf("%w: %w", interfaces.ErrProviderUnavailable, ctx.Err())

		case !retryable(err):
			return fmt.Errorf("%w: %w", interfaces.ErrProviderUnavailable, err)

		default:
			if transient >= a.cfg.RetryCount {
				return fmt.Errorf("%w: %w", interfaces.ErrProviderUnavailable, err)
			}
			transient++
			a.logger.WithError(err).WithFields(logrus.Fields{
				"path":    path,
				"attempt": transient,
			}).Warn("外部请求失败，稍后重试")
			if serr := a.sleep(ctx, a.cfg.RetryDelay); serr != nil {
				return fmt.Errorf("%w: %w", interfaces.ErrProviderUnavailable, serr)
			}
		}
	}
}

func (a *Adapter) doOnce(ctx context.Context, path string, params url.Values, out envelope) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if a.cfg.APIKey != "" {
		query.Set("key", a.cfg.APIKey)
	}
	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrBadRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.WithError(err).Debug("关闭响应体失败")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return ErrBadRequest
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return ErrDenied
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrServer, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrParse, err)
	}

	status, msg := out.apiStatus()
	switch status {
	case statusOK, statusZeroResults:
		return nil
	case statusOverQueryLimit:
		return ErrRateLimited
	case statusRequestDenied:
		return fmt.Errorf("%w: %s", ErrDenied, msg)
	case statusInvalidRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, msg)
	case statusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: status %q %s", ErrServer, status, msg)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
