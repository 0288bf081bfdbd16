// Package app is the catalog service: it resolves tables and keys through
// the schema registry, applies content normalization, attaches image
// side effects, and delegates persistence to the relational store.
package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"scarletbooks/internal/content"
	"scarletbooks/internal/images"
	"scarletbooks/internal/schema"
	"scarletbooks/internal/store"
	"scarletbooks/pkg/domain"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabasePath string
	ImageDir     string

	// Store overrides the SQLite store when set (tests).
	Store store.Store
}

// App wires the relational store, image store, and content transforms.
type App struct {
	store  store.Store
	images *images.Store
}

// New constructs the application with SQLite-backed record storage and
// filesystem image storage.
func New(cfg Config) (*App, error) {
	imgStore, err := images.NewStore(cfg.ImageDir)
	if err != nil {
		return nil, err
	}
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabasePath == "" {
			return nil, fmt.Errorf("database path required")
		}
		dataStore, err = store.NewGormStore(cfg.DatabasePath, schema.CreateStatements())
		if err != nil {
			return nil, fmt.Errorf("init sqlite store: %w", err)
		}
	}
	return &App{store: dataStore, images: imgStore}, nil
}

// Close releases the backing store handle.
func (a *App) Close() error {
	return a.store.Close()
}

// Insert stores one record of the given kind. When imageData is present the
// bytes are written to the image store under the kind/primary-key filename
// and the record's ImageURL field is set to that filename. When parse is
// set and the kind is book, the Info field is converted to storage form.
func (a *App) Insert(kind domain.Kind, rec domain.Record, imageData []byte, parse bool) (domain.Record, error) {
	table, err := schema.TableFor(kind)
	if err != nil {
		return nil, err
	}
	rec = cloneRecord(rec)

	// Books and banners get a generated product ID when the caller omits
	// one. The newsletter key is the address itself and must always come
	// from the caller so it passes validation.
	if kind == domain.KindBook || kind == domain.KindBanner {
		if pkCol, err := schema.PrimaryKeyFor(kind); err == nil {
			if _, ok := rec[pkCol]; !ok {
				rec[pkCol] = content.GenerateShortID()
			}
		}
	}

	if len(imageData) > 0 {
		fileName, err := a.attachImage(kind, rec, imageData)
		if err != nil {
			return nil, err
		}
		rec[schema.ColImageURL] = fileName
	}

	if parse && kind == domain.KindBook {
		if info, ok := rec[schema.ColInfo].(string); ok {
			rec[schema.ColInfo] = content.ToStorageForm(info)
		}
	}

	return a.store.Insert(table, rec)
}

// Update replaces the record carrying the same primary key: the existing
// row is deleted, then Insert runs with the same arguments. The two steps
// are not atomic; a failure after the delete leaves the entity absent.
// Callers are expected to serialize updates to the same key.
func (a *App) Update(kind domain.Kind, rec domain.Record, imageData []byte, parse bool) (domain.Record, error) {
	table, err := schema.TableFor(kind)
	if err != nil {
		return nil, err
	}
	pkCol, err := schema.PrimaryKeyFor(kind)
	if err != nil {
		return nil, err
	}
	pkVal, ok := rec[pkCol]
	if !ok {
		return nil, fmt.Errorf("record missing primary key %q", pkCol)
	}
	if _, err := a.store.DeleteWhere(table, domain.Record{pkCol: pkVal}); err != nil {
		return nil, err
	}
	return a.Insert(kind, rec, imageData, parse)
}

// Delete removes the record identified by itemID and its image file. The
// image goes first; if the row delete then fails the image is already gone,
// an accepted asymmetry. Returns the number of rows deleted (zero when the
// key was absent, which is not an error).
func (a *App) Delete(kind domain.Kind, itemID string) (int64, error) {
	table, err := schema.TableFor(kind)
	if err != nil {
		return 0, err
	}
	pkCol, err := schema.PrimaryKeyFor(kind)
	if err != nil {
		return 0, err
	}
	a.images.DeleteIfExists(images.FileNameFor(kind, itemID))
	return a.store.DeleteWhere(table, domain.Record{pkCol: coerceID(itemID)})
}

// ListBooks returns every book sorted by catalog number. With parse set the
// Info field is converted back to display form. An empty table yields an
// empty slice, never an error.
func (a *App) ListBooks(parse bool) ([]domain.Book, error) {
	cols, _ := schema.ColumnsFor(domain.KindBook)
	recs, err := a.store.FetchAll(schema.TableBooks, cols)
	if err != nil {
		return nil, err
	}
	books := make([]domain.Book, 0, len(recs))
	for _, rec := range recs {
		book := decodeBook(rec)
		if parse {
			book.Info = content.ToDisplayForm(book.Info)
		}
		books = append(books, book)
	}
	sort.Slice(books, func(i, j int) bool {
		return books[i].CatalogNumber < books[j].CatalogNumber
	})
	return books, nil
}

// ListBanners returns every banner sorted by banner ID.
func (a *App) ListBanners() ([]domain.Banner, error) {
	cols, _ := schema.ColumnsFor(domain.KindBanner)
	recs, err := a.store.FetchAll(schema.TableBanners, cols)
	if err != nil {
		return nil, err
	}
	banners := make([]domain.Banner, 0, len(recs))
	for _, rec := range recs {
		banners = append(banners, domain.Banner{
			BannerID: asInt(rec[schema.ColBannerID]),
			ImageURL: asString(rec[schema.ColImageURL]),
		})
	}
	sort.Slice(banners, func(i, j int) bool {
		return banners[i].BannerID < banners[j].BannerID
	})
	return banners, nil
}

// Subscribe records a newsletter subscription. The address must contain
// exactly one @ with non-empty local and domain parts. Subscribing an
// already-registered address is a silent no-op.
func (a *App) Subscribe(email, name string) error {
	if !validEmail(email) {
		return &InvalidEmailError{Address: email}
	}
	cols, _ := schema.ColumnsFor(domain.KindNewsletter)
	exists, err := a.store.Exists(schema.TableNewsletters, cols,
		domain.Record{schema.ColEmailAddress: email})
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = a.store.Insert(schema.TableNewsletters, domain.Record{
		schema.ColEmailAddress:      email,
		schema.ColName:              name,
		schema.ColRegisterTimestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return err
}

// ListSubscriberEmails returns all subscriber addresses in storage order.
func (a *App) ListSubscriberEmails() ([]string, error) {
	cols, _ := schema.ColumnsFor(domain.KindNewsletter)
	recs, err := a.store.FetchAll(schema.TableNewsletters, cols)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(recs))
	for _, rec := range recs {
		emails = append(emails, asString(rec[schema.ColEmailAddress]))
	}
	return emails, nil
}

// ResetBooks empties the books table and recreates it, used by the seeder
// before a bulk reimport.
func (a *App) ResetBooks() error {
	if err := a.store.DeleteAll(schema.TableBooks); err != nil {
		return err
	}
	return a.store.EnsureTable(schema.TableBooks)
}

// ImagePath resolves a stored image filename to its on-disk path.
func (a *App) ImagePath(fileName string) (string, bool) {
	return a.images.Path(fileName)
}

func (a *App) attachImage(kind domain.Kind, rec domain.Record, data []byte) (string, error) {
	pkCol, err := schema.PrimaryKeyFor(kind)
	if err != nil {
		return "", err
	}
	pkVal, ok := rec[pkCol]
	if !ok {
		return "", fmt.Errorf("record missing primary key %q", pkCol)
	}
	fileName := images.FileNameFor(kind, idString(pkVal))
	if _, err := a.images.Save(data, fileName); err != nil {
		return "", err
	}
	return fileName, nil
}

func validEmail(email string) bool {
	local, dom, ok := strings.Cut(email, "@")
	if !ok || local == "" || dom == "" {
		return false
	}
	return !strings.Contains(dom, "@")
}

func cloneRecord(rec domain.Record) domain.Record {
	clone := make(domain.Record, len(rec))
	for col, v := range rec {
		clone[col] = v
	}
	return clone
}

// coerceID turns a wire item ID into the value used for key comparison:
// integer keys stay integers so SQLite matches typed columns.
func coerceID(itemID string) any {
	if n, err := strconv.ParseInt(itemID, 10, 64); err == nil {
		return n
	}
	return itemID
}

// idString renders a primary-key value the way it appears in filenames.
func idString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}

func decodeBook(rec domain.Record) domain.Book {
	book := domain.Book{
		CatalogNumber: asInt(rec[schema.ColCatalogNumber]),
		IsDigital:     asBool(rec[schema.ColIsDigital]),
		ImageURL:      asString(rec[schema.ColImageURL]),
		Description:   asString(rec[schema.ColDescription]),
		Info:          asString(rec[schema.ColInfo]),
		UnitPrice:     asFloat(rec[schema.ColUnitPrice]),
		InStock:       asBool(rec[schema.ColInStock]),
		IsCase:        asBool(rec[schema.ColIsCase]),
	}
	if v := rec[schema.ColDiscountPrice]; v != nil {
		price := asFloat(v)
		book.DiscountPrice = &price
	}
	return book
}

func asInt(v any) int {
	switch x := v.(type) {
	case int64:
		return int(x)
	case int:
		return x
	case float64:
		return int(x)
	case string:
		n, _ := strconv.Atoi(x)
		return n
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int64:
		return float64(x)
	case int:
		return float64(x)
	case string:
		f, _ := strconv.ParseFloat(x, 64)
		return f
	default:
		return 0
	}
}

func asBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return false
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
