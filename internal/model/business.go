package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 精选阈值：评分 >= 4.5 且评价数 >= 50
var (
	FeaturedMinRating      = decimal.RequireFromString("4.5")
	FeaturedMinRatingCount = 50
)

// Business 商家主表（本地库持久化实体）
type Business struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID"`
	BusinessUUID string          `gorm:"column:business_uuid;type:varchar(64);uniqueIndex;not null;comment:对外唯一ID"`
	ExternalID   *string         `gorm:"column:external_id;type:varchar(255);uniqueIndex;comment:外部数据源ID"`
	Slug         string          `gorm:"column:slug;type:varchar(255);uniqueIndex;not null;comment:URL标识，生成后不可变"`
	Name         string          `gorm:"column:name;type:varchar(255);not null;comment:商家名称"`
	Address      string          `gorm:"column:address;type:varchar(512);comment:完整地址"`
	City         string          `gorm:"column:city;type:varchar(128);index;comment:城市"`
	State        string          `gorm:"column:state;type:varchar(8);index;comment:州代码"`
	PostalCode   string          `gorm:"column:postal_code;type:varchar(16);comment:邮编"`
	Latitude     *float64        `gorm:"column:latitude;type:double precision"`
	Longitude    *float64        `gorm:"column:longitude;type:double precision"`
	CategoryID   *uint64         `gorm:"column:category_id;type:bigint;index;comment:关联分类ID"`
	PriceTier    *int            `gorm:"column:price_tier;type:smallint;comment:价格档位"`
	Rating       decimal.Decimal `gorm:"column:rating;type:numeric(3,2);not null;default:0;comment:平均评分"`
	RatingCount  int             `gorm:"column:rating_count;type:int;not null;default:0;comment:评价数"`
	Photos       datatypes.JSON  `gorm:"column:photos;type:jsonb;comment:图片引用（有序去重）"`
	Verified     bool            `gorm:"column:verified;type:boolean;not null;default:false"`
	Featured     bool            `gorm:"column:featured;type:boolean;not null;default:false;index"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Business) TableName() string { return "businesses" }

// PhotoList 解析图片列表，解析失败返回空
func (b *Business) PhotoList() []string {
	if len(b.Photos) == 0 {
		return nil
	}
	var photos []string
	if err := json.Unmarshal(b.Photos, &photos); err != nil {
		return nil
	}
	return photos
}

// SetPhotos 去重后写入图片列表，保持原有顺序
func (b *Business) SetPhotos(photos []string) {
	deduped := MergePhotos(nil, photos)
	if len(deduped) == 0 {
		b.Photos = datatypes.JSON("[]")
		return
	}
	raw, err := json.Marshal(deduped)
	if err != nil {
		b.Photos = datatypes.JSON("[]")
		return
	}
	b.Photos = raw
}

// ComputeFeatured 写入时根据评分与评价数推导精选标记
func ComputeFeatured(rating decimal.Decimal, ratingCount int) bool {
	return rating.GreaterThanOrEqual(FeaturedMinRating) && ratingCount >= FeaturedMinRatingCount
}

// MergePhotos 在 base 之后追加 extra 中未出现过的图片；base 的顺序不变（下标 0 仍是缩略图）
func MergePhotos(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, p := range list {
			if p == "" {
				continue
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Category 分类
type Category struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Slug      string    `gorm:"column:slug;type:varchar(128);uniqueIndex;not null" json:"slug"`
	Name      string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Category) TableName() string { return "categories" }

// ConstraintViolation 插入时触发唯一约束（不是错误，由调用方决定如何处理）
type ConstraintViolation struct {
	Column string // external_id / slug
}

const (
	ColumnExternalID = "external_id"
	ColumnSlug       = "slug"
)
