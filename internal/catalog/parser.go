package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/beeboo/storefront/internal/models"
)

// CatalogFile is a catalog.yaml document used to seed a store.
type CatalogFile struct {
	Categories []CategoryConfig `yaml:"categories"`
	Products   []ProductConfig  `yaml:"products"`
}

type CategoryConfig struct {
	Name    string `yaml:"name"`
	Apparel bool   `yaml:"apparel"`
}

// ProductConfig holds prices as strings so YAML floats never touch money.
type ProductConfig struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Images      []string `yaml:"images"`
	MRP         string   `yaml:"mrp"`
	Price       string   `yaml:"price"`
	Category    string   `yaml:"category"`
	Featured    bool     `yaml:"featured"`
	Stock       int      `yaml:"stock"`
	Sizes       []string `yaml:"sizes"`
}

type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a catalog file. Unknown keys are rejected so typos do not
// silently drop fields.
func (p *Parser) Parse(content []byte) (*CatalogFile, error) {
	var file CatalogFile
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &file, nil
}

func (p *Parser) ParseFromString(content string) (*CatalogFile, error) {
	return p.Parse([]byte(content))
}

// Product converts the entry into a product. categoryID is the resolved
// category id.
func (c ProductConfig) Product(categoryID string) (*models.Product, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(c.Price))
	if err != nil {
		return nil, fmt.Errorf("product %q: invalid price %q", c.Title, c.Price)
	}

	product := &models.Product{
		Title:       c.Title,
		Description: c.Description,
		Images:      append([]string(nil), c.Images...),
		Price:       price,
		Category:    categoryID,
		Featured:    c.Featured,
		Stock:       c.Stock,
		Sizes:       append([]string(nil), c.Sizes...),
	}

	if raw := strings.TrimSpace(c.MRP); raw != "" {
		mrp, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("product %q: invalid mrp %q", c.Title, c.MRP)
		}
		product.MRP = &mrp
	}

	return product, nil
}
