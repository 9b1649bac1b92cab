package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Provenance 结果条目来源
type Provenance string

const (
	ProvenanceLocal    Provenance = "local"    // 本地库
	ProvenanceExternal Provenance = "external" // 外部数据源
	ProvenanceHybrid   Provenance = "hybrid"   // 本地记录 + 实时富化，或本地与外部合并
)

// SortOrder 排序方式
type SortOrder string

const (
	SortDefault SortOrder = "default" // featured desc, rating desc, rating_count desc
	SortRating  SortOrder = "rating"
	SortReviews SortOrder = "reviews"
	SortName    SortOrder = "name"
	SortNewest  SortOrder = "newest"
)

// ParseSortOrder 解析排序参数，空串为默认排序
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortDefault:
		return SortDefault, true
	case SortRating:
		return SortRating, true
	case SortReviews:
		return SortReviews, true
	case SortName:
		return SortName, true
	case SortNewest:
		return SortNewest, true
	}
	return "", false
}

// BusinessFilter 本地库查询条件
type BusinessFilter struct {
	Term       string           // 名称模糊匹配
	CategoryID *uint64          // 分类
	Region     string           // 州代码
	City       string           // 城市
	MinRating  *decimal.Decimal // 最低评分
	PriceTier  *int             // 价格档位（精确匹配）
}

// PageWindow 偏移分页窗口
type PageWindow struct {
	Offset int
	Limit  int
}

// QueryParams 对外查询参数
type QueryParams struct {
	Term       string
	CategoryID *uint64
	Region     string
	City       string
	MinRating  *float64
	PriceTier  *int
	Sort       SortOrder
	Page       int
	PageSize   int
	All        bool // 请求"全部"，实际取 all_cap 上限
}

// BusinessView 查询结果中的单条商家（本地或外部统一形态）
type BusinessView struct {
	BusinessUUID string          `json:"business_uuid,omitempty"`
	Slug         string          `json:"slug,omitempty"`
	ExternalID   string          `json:"external_id,omitempty"`
	Name         string          `json:"name"`
	Address      string          `json:"address,omitempty"`
	City         string          `json:"city,omitempty"`
	State        string          `json:"state,omitempty"`
	PostalCode   string          `json:"postal_code,omitempty"`
	Latitude     *float64        `json:"latitude,omitempty"`
	Longitude    *float64        `json:"longitude,omitempty"`
	CategoryID   *uint64         `json:"category_id,omitempty"`
	PriceTier    *int            `json:"price_tier,omitempty"`
	Rating       decimal.Decimal `json:"rating"`
	HasRating    bool            `json:"-"`
	RatingCount  int             `json:"rating_count"`
	Photos       []string        `json:"photos"`
	Verified     bool            `json:"verified"`
	Featured     bool            `json:"featured"`
	OpenNow      *bool           `json:"open_now,omitempty"`
	Hours        []string        `json:"hours,omitempty"`
	Website      string          `json:"website,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	CreatedAt    *time.Time      `json:"created_at,omitempty"`
	Provenance   Provenance      `json:"provenance"`
}

// QueryResult 分页结果
type QueryResult struct {
	Items    []*BusinessView `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int64           `json:"total"`
	HasMore  bool            `json:"has_more"`
	Source   Provenance      `json:"source"`
}
