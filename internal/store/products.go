package store

import (
	"errors"
	"fmt"

	"dotysync/internal/models"

	"gorm.io/gorm"
)

// ProductStore persists mirrored catalog items, keyed by SKU.
type ProductStore struct {
	db *gorm.DB
}

func NewProductStore(db *gorm.DB) *ProductStore {
	return &ProductStore{db: db}
}

// FindBySKU returns the product with the given SKU, or nil when absent.
func (s *ProductStore) FindBySKU(sku string) (*models.Product, error) {
	var product models.Product
	err := s.db.Where("sku = ?", sku).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product %s: %w", sku, err)
	}
	return &product, nil
}

func (s *ProductStore) Create(product *models.Product) error {
	if err := s.db.Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product %s: %w", product.SKU, err)
	}
	return nil
}

func (s *ProductStore) Save(product *models.Product) error {
	if err := s.db.Save(product).Error; err != nil {
		return fmt.Errorf("failed to update product %s: %w", product.SKU, err)
	}
	return nil
}

func (s *ProductStore) Get(id string) (*models.Product, error) {
	var product models.Product
	err := s.db.First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *ProductStore) List(limit, offset int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.Order("updated_at DESC").Limit(limit).Offset(offset).Find(&products).Error
	return products, err
}

func (s *ProductStore) Count() (int64, error) {
	var count int64
	err := s.db.Model(&models.Product{}).Count(&count).Error
	return count, err
}
