package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dotysync/internal/logger"
	"dotysync/internal/models"
	"dotysync/internal/services/dotypos"
)

// CatalogClient is the remote API surface the orchestrator drives.
type CatalogClient interface {
	ListProducts(ctx context.Context, page, limit int) (json.RawMessage, error)
	GetProduct(ctx context.Context, externalID string) (map[string]interface{}, error)
	ListCategories(ctx context.Context) (map[string]string, error)
}

// ProductStore is the local upsert target, keyed by SKU.
type ProductStore interface {
	FindBySKU(sku string) (*models.Product, error)
	Create(product *models.Product) error
	Save(product *models.Product) error
}

// CategoryResolver turns a remote category name into a local category id.
// An empty id means the product is synced without a category.
type CategoryResolver interface {
	Resolve(name string) string
}

// ConfigProvider supplies the externally configured product statuses.
type ConfigProvider interface {
	StatusNew() string
	StatusUpdate() string
}

// BatchResult is what one batch reports back to its caller.
type BatchResult struct {
	SyncedCount int      `json:"synced_count"`
	Errors      []string `json:"log_messages"`
	HasMore     bool     `json:"has_more"`
	NextOffset  int      `json:"next_offset"`
}

// FullSyncSummary aggregates a complete multi-batch run.
type FullSyncSummary struct {
	SyncedCount int `json:"synced_count"`
	ErrorCount  int `json:"error_count"`
	Batches     int `json:"batches"`
}

// Orchestrator drives batch pagination and the single-item webhook path.
// It holds no per-run state; the category map is fetched once per operation
// and the client caches it with a TTL, so concurrent webhook calls stay
// independent.
type Orchestrator struct {
	client     CatalogClient
	products   ProductStore
	categories CategoryResolver
	config     ConfigProvider
	publisher  Publisher
	logger     *logger.Logger

	// FullSyncBatchSize is the page size RunFullSync requests.
	FullSyncBatchSize int
	// BatchDelay is the pause between full-sync batches, a courtesy to the
	// remote API.
	BatchDelay time.Duration
}

func NewOrchestrator(client CatalogClient, products ProductStore, categories CategoryResolver, config ConfigProvider, publisher Publisher, logger *logger.Logger) *Orchestrator {
	return &Orchestrator{
		client:            client,
		products:          products,
		categories:        categories,
		config:            config,
		publisher:         publisher,
		logger:            logger,
		FullSyncBatchSize: 100,
		BatchDelay:        time.Second,
	}
}

// RunBatch syncs one page of the remote catalog. Per-item failures never
// abort the batch; items with no identifier are skipped silently.
func (o *Orchestrator) RunBatch(ctx context.Context, offset, limit int) (*BatchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	categoryMap := o.fetchCategoryMap(ctx)

	// The client contract is offset-based, the remote API page-based.
	page := offset/limit + 1

	raw, err := o.client.ListProducts(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	pg, err := dotypos.DecodePage(raw)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Errors: []string{}}
	for _, item := range pg.Items {
		if dotypos.IsDeleted(item) {
			continue
		}
		if err := o.syncItem(item, categoryMap); err != nil {
			if errors.Is(err, dotypos.ErrMissingID) {
				// Malformed catalog entries would spam the log.
				continue
			}
			result.Errors = append(result.Errors, "Error: "+err.Error())
			continue
		}
		result.SyncedCount++
	}

	received := len(pg.Items)
	result.HasMore = received >= limit
	// The envelope counters are authoritative: an exactly-full final page
	// must not loop forever.
	if pg.HasPaging && pg.CurrentPage >= pg.LastPage {
		result.HasMore = false
	}
	result.NextOffset = offset + received

	return result, nil
}

// RunFullSync pages through the whole catalog. Any batch error ends the run;
// the next run restarts from zero, which is safe because upserts are keyed
// by the stable external id.
func (o *Orchestrator) RunFullSync(ctx context.Context, source string) (*FullSyncSummary, error) {
	summary := &FullSyncSummary{}
	offset := 0

	for {
		result, err := o.RunBatch(ctx, offset, o.FullSyncBatchSize)
		if err != nil {
			return summary, err
		}

		summary.SyncedCount += result.SyncedCount
		summary.ErrorCount += len(result.Errors)
		summary.Batches++
		for _, msg := range result.Errors {
			o.logger.Error("Full sync: %s", msg)
		}

		offset = result.NextOffset
		if !result.HasMore {
			break
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		case <-time.After(o.BatchDelay):
		}
	}

	o.publish(ctx, Event{
		Type:        EventSyncCompleted,
		Source:      source,
		SyncedCount: summary.SyncedCount,
		ErrorCount:  summary.ErrorCount,
		Timestamp:   time.Now(),
	})

	return summary, nil
}

// SyncSingleItem fetches one product and runs it through the same pipeline
// as a batch item. Used by the webhook path.
func (o *Orchestrator) SyncSingleItem(ctx context.Context, externalID string) error {
	item, err := o.client.GetProduct(ctx, externalID)
	if err != nil {
		return err
	}

	categoryMap := o.fetchCategoryMap(ctx)

	if err := o.syncItem(item, categoryMap); err != nil {
		return err
	}

	o.publish(ctx, Event{
		Type:        EventProductSynced,
		Source:      models.SyncSourceWebhook,
		ProductID:   externalID,
		SyncedCount: 1,
		Timestamp:   time.Now(),
	})
	return nil
}

func (o *Orchestrator) syncItem(raw map[string]interface{}, categoryMap map[string]string) error {
	product, err := dotypos.Normalize(raw)
	if err != nil {
		return err
	}

	var categoryID string
	if product.CategoryRef != "" {
		if name, ok := categoryMap[product.CategoryRef]; ok && name != "" {
			categoryID = o.categories.Resolve(name)
		}
	}

	return o.upsert(product, categoryID)
}

func (o *Orchestrator) upsert(product *dotypos.CanonicalProduct, categoryID string) error {
	existing, err := o.products.FindBySKU(product.ExternalID)
	if err != nil {
		return err
	}

	stockStatus := models.StockStatusInStock
	if product.Price == 0 {
		// No stock-quantity concept on this API; a zero price is the
		// out-of-stock signal.
		stockStatus = models.StockStatusOutOfStock
	}

	if existing == nil {
		record := &models.Product{
			SKU:         product.ExternalID,
			Name:        product.Name,
			Price:       product.Price,
			Status:      o.config.StatusNew(),
			StockStatus: stockStatus,
		}
		if categoryID != "" {
			record.CategoryID = &categoryID
		}
		return o.products.Create(record)
	}

	existing.Name = product.Name
	existing.Price = product.Price
	existing.Status = o.config.StatusUpdate()
	existing.StockStatus = stockStatus
	if categoryID != "" {
		existing.CategoryID = &categoryID
	}
	return o.products.Save(existing)
}

// fetchCategoryMap loads the remote category mapping for one operation.
// Category assignment is best-effort, so a failed or partial fetch only
// logs; the client caches complete fetches with a TTL.
func (o *Orchestrator) fetchCategoryMap(ctx context.Context) map[string]string {
	categories, err := o.client.ListCategories(ctx)
	if err != nil {
		o.logger.Error("Category fetch incomplete: %v", err)
	}
	if categories == nil {
		categories = map[string]string{}
	}
	return categories
}

func (o *Orchestrator) publish(ctx context.Context, event Event) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, event); err != nil {
		o.logger.Error("Failed to publish %s event: %v", event.Type, err)
	}
}

// Describe renders a one-line summary for audit logs.
func (s *FullSyncSummary) Describe() string {
	return fmt.Sprintf("%d synced, %d errors in %d batches", s.SyncedCount, s.ErrorCount, s.Batches)
}
