package model

import "time"

// RawPlace 外部数据源返回的原始地点记录（已转换为内部字段名）
type RawPlace struct {
	ExternalID       string
	Name             string
	FormattedAddress string
	Latitude         *float64
	Longitude        *float64
	Rating           *float64
	RatingCount      int
	PriceTier        *int
	Types            []string
	PhotoRefs        []string
	OpenNow          *bool
}

// SearchRequest 外部文本搜索请求
type SearchRequest struct {
	Query    string // 自由文本，如 "leak repair, Austin, TX"
	Location string // 可选位置偏置 "lat,lng"
	Radius   int    // 位置偏置半径（米），Location 为空时忽略
}

// Enrichment 短期富化数据（只缓存，不落库）
type Enrichment struct {
	ExternalID  string    `json:"external_id"`
	Photos      []string  `json:"photos,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	RatingCount *int      `json:"rating_count,omitempty"`
	PriceTier   *int      `json:"price_tier,omitempty"`
	Hours       []string  `json:"hours,omitempty"`
	OpenNow     *bool     `json:"open_now,omitempty"`
	Website     string    `json:"website,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}
