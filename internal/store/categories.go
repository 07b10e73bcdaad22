package store

import (
	"errors"

	"dotysync/internal/logger"
	"dotysync/internal/models"

	"gorm.io/gorm"
)

// DefaultParentCategory is the bucket newly imported categories are nested
// under.
const DefaultParentCategory = "Recently Stocked"

// CategoryResolver maps remote category names onto local category records,
// creating missing ones on demand. Resolution is best-effort: a failure
// returns an empty id and must never abort a product sync.
type CategoryResolver struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewCategoryResolver(db *gorm.DB, logger *logger.Logger) *CategoryResolver {
	return &CategoryResolver{db: db, logger: logger}
}

// Resolve returns the local id for the named category, creating it under the
// default parent when unseen. An empty id means resolution failed.
func (r *CategoryResolver) Resolve(name string) string {
	if name == "" {
		return ""
	}

	var category models.Category
	err := r.db.Where("name = ?", name).First(&category).Error
	if err == nil {
		return category.ID
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.Error("Category lookup failed for %q: %v", name, err)
		return ""
	}

	parentID := r.ensureParent()

	category = models.Category{Name: name}
	if parentID != "" {
		category.ParentID = &parentID
	}
	if err := r.db.Create(&category).Error; err != nil {
		r.logger.Error("Failed to create category %q: %v", name, err)
		return ""
	}
	return category.ID
}

func (r *CategoryResolver) ensureParent() string {
	var parent models.Category
	err := r.db.Where("name = ?", DefaultParentCategory).First(&parent).Error
	if err == nil {
		return parent.ID
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		r.logger.Error("Parent category lookup failed: %v", err)
		return ""
	}

	parent = models.Category{Name: DefaultParentCategory}
	if err := r.db.Create(&parent).Error; err != nil {
		r.logger.Error("Failed to create parent category: %v", err)
		return ""
	}
	return parent.ID
}
