package places

import (
	"time"

	"DirectorySync/internal/model"
)

// API 状态码
const (
	statusOK             = "OK"
	statusZeroResults    = "ZERO_RESULTS"
	statusOverQueryLimit = "OVER_QUERY_LIMIT"
	statusRequestDenied  = "REQUEST_DENIED"
	statusInvalidRequest = "INVALID_REQUEST"
	statusNotFound       = "NOT_FOUND"
)

type envelope interface {
	apiStatus() (status, message string)
}

type textSearchResponse struct {
	Status        string     `json:"status"`
	ErrorMessage  string     `json:"error_message"`
	Results       []rawPlace `json:"results"`
	NextPageToken string     `json:"next_page_token"`
}

func (r *textSearchResponse) apiStatus() (string, string) { return r.Status, r.ErrorMessage }

type detailResponse struct {
	Status       string   `json:"status"`
	ErrorMessage string   `json:"error_message"`
	Result       rawPlace `json:"result"`
}

func (r *detailResponse) apiStatus() (string, string) { return r.Status, r.ErrorMessage }

type rawPlace struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	FormattedAddress string   `json:"formatted_address"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	PriceLevel       *int     `json:"price_level"`
	Types            []string `json:"types"`
	Website          string   `json:"website"`
	Phone            string   `json:"formatted_phone_number"`
	Geometry         *struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
	OpeningHours *struct {
		OpenNow     *bool    `json:"open_now"`
		WeekdayText []string `json:"weekday_text"`
	} `json:"opening_hours"`
}

func (p *rawPlace) photoRefs() []string {
	refs := make([]string, 0, len(p.Photos))
	for _, ph := range p.Photos {
		refs = append(refs, ph.PhotoReference)
	}
	return model.MergePhotos(nil, refs)
}

func (p *rawPlace) toRawPlace() *model.RawPlace {
	out := &model.RawPlace{
		ExternalID:       p.PlaceID,
		Name:             p.Name,
		FormattedAddress: p.FormattedAddress,
		Rating:           p.Rating,
		PriceTier:        p.PriceLevel,
		Types:            p.Types,
		PhotoRefs:        p.photoRefs(),
	}
	if p.UserRatingsTotal != nil {
		out.RatingCount = *p.UserRatingsTotal
	}
	if p.Geometry != nil {
		lat, lng := p.Geometry.Location.Lat, p.Geometry.Location.Lng
		out.Latitude, out.Longitude = &lat, &lng
	}
	if p.OpeningHours != nil {
		out.OpenNow = p.OpeningHours.OpenNow
	}
	return out
}

func (p *rawPlace) toEnrichment(externalID string, fetchedAt time.Time) *model.Enrichment {
	e := &model.Enrichment{
		ExternalID:  externalID,
		Photos:      p.photoRefs(),
		Rating:      p.Rating,
		RatingCount: p.UserRatingsTotal,
		PriceTier:   p.PriceLevel,
		Website:     p.Website,
		Phone:       p.Phone,
		FetchedAt:   fetchedAt,
	}
	if p.OpeningHours != nil {
		e.OpenNow = p.OpeningHours.OpenNow
		e.Hours = p.OpeningHours.WeekdayText
	}
	return e
}
