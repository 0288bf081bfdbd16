// The seeder rebuilds the books table from a remote JSON catalog. It is a
// batch job: it empties the table, downloads each book's cover image, and
// reinserts every record through the same app core the server uses.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"scarletbooks/internal/app"
	"scarletbooks/internal/config"
	"scarletbooks/internal/content"
	"scarletbooks/internal/schema"
	"scarletbooks/internal/util"
	"scarletbooks/pkg/domain"
)

type seedCatalog struct {
	Books []domain.Record `json:"books"`
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	util.InitLogger(cfg.LogLevel)
	if cfg.SeedURL == "" {
		log.Fatal("seedURL is required (set in config.yaml or CATALOG_SEED_URL)")
	}

	appCore, err := app.New(app.Config{
		DatabasePath: cfg.DatabasePath,
		ImageDir:     cfg.ImageDir,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	defer appCore.Close()

	catalog, err := fetchCatalog(cfg.SeedURL)
	if err != nil {
		log.Fatalf("failed to fetch catalog: %v", err)
	}
	if err := appCore.ResetBooks(); err != nil {
		log.Fatalf("failed to reset books table: %v", err)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	for i, book := range catalog.Books {
		cleanTextFields(book)
		image := downloadImage(client, book)
		if _, err := appCore.Insert(domain.KindBook, book, image, false); err != nil {
			slog.Error("insert book failed", "index", i, "err", err)
			continue
		}
		slog.Info("inserted book", "progress", fmt.Sprintf("%d/%d", i+1, len(catalog.Books)),
			"catalog_number", book[schema.ColCatalogNumber])
	}
}

func fetchCatalog(url string) (seedCatalog, error) {
	var catalog seedCatalog
	resp, err := http.Get(url)
	if err != nil {
		return catalog, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return catalog, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&catalog); err != nil {
		return catalog, fmt.Errorf("decode catalog: %w", err)
	}
	return catalog, nil
}

// cleanTextFields repairs mojibake in imported free-text columns.
func cleanTextFields(book domain.Record) {
	for _, col := range []string{schema.ColInfo, schema.ColDescription} {
		if text, ok := book[col].(string); ok {
			book[col] = content.FixCharacters(text)
		}
	}
}

// downloadImage fetches the book's remote cover when an ImageURL is set.
// A failed download logs and moves on; the record still gets inserted.
func downloadImage(client *http.Client, book domain.Record) []byte {
	url, ok := book[schema.ColImageURL].(string)
	if !ok || url == "" {
		return nil
	}
	resp, err := client.Get(url)
	if err != nil {
		slog.Warn("image download failed", "url", url, "err", err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Warn("image download failed", "url", url, "status", resp.StatusCode)
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Warn("image read failed", "url", url, "err", err)
		return nil
	}
	return data
}
