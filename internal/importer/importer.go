package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"homegoods/internal/domain"
	"homegoods/internal/money"
	imagerepo "homegoods/internal/repository/image"

	"github.com/google/uuid"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// ImageWriter attaches already hosted images to a product.
type ImageWriter interface {
	Mutate(ctx context.Context, productID string, fn imagerepo.MutateFunc) (domain.ImageSet, error)
}

// CSVImporter reads catalog CSV files and inserts/updates products. Columns:
// key, name, description, price, stock, image_url, image_alt. Rows with an
// empty key add another image to the product above them.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductWriter
	images   ImageWriter
}

func NewCSVImporter(r io.Reader, products ProductWriter, images ImageWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:   csvr,
		products: products,
		images:   images,
	}
}

type csvImage struct {
	URL string
	Alt string
}

type csvRow struct {
	Line   int
	Key    string
	Name   string
	Desc   string
	Price  string
	Stock  string
	Images []csvImage
}

// Run parses CSV rows and upserts products grouped by product key.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"key", "name", "price"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing column %q", required)
		}
	}

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return imported, fmt.Errorf("read row %d: %w", line, err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.Line = line

		if row.Key != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil {
			current.Images = append(current.Images, row.Images...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	price, err := money.Parse(row.Price)
	if err != nil {
		return fmt.Errorf("row %d (%s): %w", row.Line, row.Key, err)
	}
	stock := 0
	if row.Stock != "" {
		stock, err = strconv.Atoi(row.Stock)
		if err != nil {
			return fmt.Errorf("row %d (%s): invalid stock %q", row.Line, row.Key, row.Stock)
		}
	}

	p, err := i.products.Upsert(ctx, domain.Product{
		Key:         row.Key,
		Name:        row.Name,
		Description: row.Desc,
		Price:       price,
		Stock:       stock,
	})
	if err != nil {
		return fmt.Errorf("upsert product %q: %w", row.Key, err)
	}

	if len(row.Images) == 0 || i.images == nil {
		return nil
	}
	_, err = i.images.Mutate(ctx, p.ID, func(set *domain.ImageSet) error {
		known := make(map[string]bool, len(*set))
		for _, img := range *set {
			known[img.URL] = true
		}
		var fresh []domain.ProductImage
		for _, img := range row.Images {
			if known[img.URL] {
				continue
			}
			known[img.URL] = true
			alt := img.Alt
			if alt == "" {
				alt = fmt.Sprintf("%s - Image %d", p.Name, len(*set)+len(fresh)+1)
			}
			fresh = append(fresh, domain.ProductImage{ID: uuid.NewString(), ProductID: p.ID, URL: img.URL, AltText: alt})
		}
		set.Append(fresh...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("attach images to %q: %w", row.Key, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	key := pick(record, index, "key")
	imageURL := pick(record, index, "image_url")
	if key == "" && imageURL == "" {
		return nil
	}

	row := &csvRow{
		Key:   key,
		Name:  pick(record, index, "name"),
		Desc:  pick(record, index, "description"),
		Price: pick(record, index, "price"),
		Stock: pick(record, index, "stock"),
	}
	if imageURL != "" {
		row.Images = []csvImage{{URL: imageURL, Alt: pick(record, index, "image_alt")}}
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

