package domain

import "time"

// Kind selects which catalog table a record belongs to.
type Kind string

const (
	KindBook       Kind = "book"
	KindBanner     Kind = "banner"
	KindNewsletter Kind = "news_letter"
)

// Record is a column-keyed row as it travels between the service and the
// store. Values use the store's scalar types (int64, float64, string, bool,
// nil for absent).
type Record map[string]any

type Book struct {
	CatalogNumber int      `json:"CatalogNumber"`
	IsDigital     bool     `json:"IsDigital"`
	ImageURL      string   `json:"ImageURL"`
	Description   string   `json:"Description"`
	Info          string   `json:"Info"`
	UnitPrice     float64  `json:"UnitPrice"`
	DiscountPrice *float64 `json:"DiscountPrice,omitempty"`
	InStock       bool     `json:"InStock"`
	IsCase        bool     `json:"IsCase"`
}

type Banner struct {
	BannerID int    `json:"BannerID"`
	ImageURL string `json:"ImageURL"`
}

type Subscriber struct {
	EmailAddress      string    `json:"EmailAddress"`
	Name              string    `json:"Name,omitempty"`
	RegisterTimestamp time.Time `json:"RegisterTimestamp"`
}
