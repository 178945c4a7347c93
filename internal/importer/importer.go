package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cartview/internal/domain"
	"github.com/sirupsen/logrus"
)

type CatalogWriter interface {
	Upsert(ctx context.Context, item domain.CatalogItem) (*domain.CatalogItem, error)
}

// CSVImporter reads catalog CSV files (id,title,image,price_cents) and
// inserts/updates catalog items.
type CSVImporter struct {
	reader  *csv.Reader
	catalog CatalogWriter
	log     logrus.FieldLogger
}

func NewCSVImporter(r io.Reader, catalog CatalogWriter, log logrus.FieldLogger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &CSVImporter{
		reader:  csvr,
		catalog: catalog,
		log:     log,
	}
}

// Run parses CSV rows and upserts one catalog item per row. Blank rows are
// skipped; the first invalid row stops the import.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["id"]; !ok {
		return 0, errors.New("missing id column")
	}
	if _, ok := index["price_cents"]; !ok {
		if _, ok := index["price"]; !ok {
			return 0, errors.New("missing price_cents or price column")
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		item, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if item == nil {
			continue
		}
		if _, err := i.catalog.Upsert(ctx, *item); err != nil {
			return imported, fmt.Errorf("upsert item %q: %w", item.ID, err)
		}
		imported++
		i.log.WithField("item_id", item.ID).Debug("catalog item imported")
	}

	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*domain.CatalogItem, error) {
	id := pick(record, index, "id")
	title := pick(record, index, "title")
	image := pick(record, index, "image")
	if id == "" && title == "" && image == "" {
		return nil, nil
	}
	if id == "" {
		return nil, errors.New("missing id")
	}

	cents, err := parsePrice(pick(record, index, "price_cents"), pick(record, index, "price"))
	if err != nil {
		return nil, fmt.Errorf("item %q: %w", id, err)
	}

	return &domain.CatalogItem{
		ID:         id,
		Title:      title,
		Image:      image,
		PriceCents: cents,
	}, nil
}

// parsePrice prefers integer cents and falls back to a decimal amount such as
// "12.99".
func parsePrice(centStr, decimal string) (int64, error) {
	if centStr != "" {
		cents, err := strconv.ParseInt(centStr, 10, 64)
		if err != nil || cents < 0 {
			return 0, fmt.Errorf("invalid price_cents %q", centStr)
		}
		return cents, nil
	}
	if decimal == "" {
		return 0, errors.New("missing price")
	}
	units, frac, _ := strings.Cut(decimal, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid price %q", decimal)
	}
	frac += strings.Repeat("0", 2-len(frac))
	whole, err := strconv.ParseInt(units, 10, 64)
	if err != nil || whole < 0 {
		return 0, fmt.Errorf("invalid price %q", decimal)
	}
	part, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || part < 0 {
		return 0, fmt.Errorf("invalid price %q", decimal)
	}
	return whole*100 + part, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
