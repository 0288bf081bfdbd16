// Package schema is the single source of truth for how each entity kind
// maps onto the relational layer: table name, primary-key column, ordered
// column list, and the DDL used when a table is created lazily.
//
// Lookups are pure and the tables are fixed at compile time; adding a kind
// means adding one entry to each map below.
package schema

import "scarletbooks/pkg/domain"

// Table names as they exist in the backing database.
const (
	TableBooks       = "books"
	TableBanners     = "banners"
	TableNewsletters = "news_letters"
)

// Book column names. Column order in bookColumns defines the positional
// decoding of SELECT * rows, so it must match the DDL below.
const (
	ColCatalogNumber = "CatalogNumber"
	ColIsDigital     = "IsDigital"
	ColImageURL      = "ImageURL"
	ColDescription   = "Description"
	ColInfo          = "Info"
	ColUnitPrice     = "UnitPrice"
	ColDiscountPrice = "DiscountPrice"
	ColInStock       = "InStock"
	ColIsCase        = "IsCase"

	ColBannerID = "BannerID"

	ColEmailAddress      = "EmailAddress"
	ColName              = "Name"
	ColRegisterTimestamp = "RegisterTimestamp"
)

var tableByKind = map[domain.Kind]string{
	domain.KindBook:       TableBooks,
	domain.KindBanner:     TableBanners,
	domain.KindNewsletter: TableNewsletters,
}

var primaryKeyByKind = map[domain.Kind]string{
	domain.KindBook:       ColCatalogNumber,
	domain.KindBanner:     ColBannerID,
	domain.KindNewsletter: ColEmailAddress,
}

var columnsByKind = map[domain.Kind][]string{
	domain.KindBook: {
		ColCatalogNumber, ColIsDigital, ColImageURL, ColDescription,
		ColInfo, ColUnitPrice, ColDiscountPrice, ColInStock, ColIsCase,
	},
	domain.KindBanner:     {ColBannerID, ColImageURL},
	domain.KindNewsletter: {ColEmailAddress, ColName, ColRegisterTimestamp},
}

var createStatementByTable = map[string]string{
	TableBooks: `(CatalogNumber INTEGER KEY, IsDigital INTEGER, ImageURL TEXT,
		Description TEXT, Info TEXT, UnitPrice REAL, DiscountPrice REAL,
		InStock INTEGER, IsCase INTEGER)`,
	TableBanners:     `(BannerID INTEGER KEY, ImageURL TEXT)`,
	TableNewsletters: `(EmailAddress TEXT KEY, Name TEXT, RegisterTimestamp TEXT)`,
}

// TableFor returns the table name backing the given kind.
func TableFor(kind domain.Kind) (string, error) {
	table, ok := tableByKind[kind]
	if !ok {
		return "", &UnknownKindError{Kind: kind}
	}
	return table, nil
}

// PrimaryKeyFor returns the column uniquely identifying rows of the kind.
func PrimaryKeyFor(kind domain.Kind) (string, error) {
	col, ok := primaryKeyByKind[kind]
	if !ok {
		return "", &UnknownKindError{Kind: kind}
	}
	return col, nil
}

// ColumnsFor returns the declared column order for the kind. Callers must
// not mutate the returned slice.
func ColumnsFor(kind domain.Kind) ([]string, error) {
	cols, ok := columnsByKind[kind]
	if !ok {
		return nil, &UnknownKindError{Kind: kind}
	}
	return cols, nil
}

// CreateStatementFor returns the DDL column fragment used to create the
// kind's table.
func CreateStatementFor(kind domain.Kind) (string, error) {
	table, err := TableFor(kind)
	if err != nil {
		return "", err
	}
	return createStatementByTable[table], nil
}

// CreateStatements returns the DDL fragment per table name, consumed by the
// relational store for lazy table creation.
func CreateStatements() map[string]string {
	out := make(map[string]string, len(createStatementByTable))
	for table, ddl := range createStatementByTable {
		out[table] = ddl
	}
	return out
}
