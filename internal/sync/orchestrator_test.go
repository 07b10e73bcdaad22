package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"dotysync/internal/logger"
	"dotysync/internal/models"
	"dotysync/internal/services/dotypos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	items      []map[string]interface{}
	categories map[string]string
	envelope   bool
	raw        json.RawMessage
	errOnPage  int
}

func (f *fakeClient) ListProducts(ctx context.Context, page, limit int) (json.RawMessage, error) {
	if f.errOnPage != 0 && page == f.errOnPage {
		return nil, &dotypos.APIError{StatusCode: 502, Body: "bad gateway"}
	}
	if f.raw != nil {
		return f.raw, nil
	}

	start := (page - 1) * limit
	if start > len(f.items) {
		start = len(f.items)
	}
	end := start + limit
	if end > len(f.items) {
		end = len(f.items)
	}
	window := f.items[start:end]

	if f.envelope {
		lastPage := (len(f.items) + limit - 1) / limit
		return json.Marshal(map[string]interface{}{
			"data":        window,
			"currentPage": page,
			"lastPage":    lastPage,
		})
	}
	return json.Marshal(window)
}

func (f *fakeClient) GetProduct(ctx context.Context, externalID string) (map[string]interface{}, error) {
	for _, item := range f.items {
		if dotypos.Stringify(item["id"]) == externalID {
			return item, nil
		}
	}
	return nil, &dotypos.APIError{StatusCode: 404, Body: "not found"}
}

func (f *fakeClient) ListCategories(ctx context.Context) (map[string]string, error) {
	return f.categories, nil
}

type fakeProducts struct {
	bySKU   map[string]models.Product
	creates int
	saves   int
	failSKU string
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{bySKU: map[string]models.Product{}}
}

func (f *fakeProducts) FindBySKU(sku string) (*models.Product, error) {
	if p, ok := f.bySKU[sku]; ok {
		copied := p
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeProducts) Create(product *models.Product) error {
	if product.SKU == f.failSKU {
		return errors.New("constraint violation")
	}
	product.ID = fmt.Sprintf("local-%d", len(f.bySKU)+1)
	f.bySKU[product.SKU] = *product
	f.creates++
	return nil
}

func (f *fakeProducts) Save(product *models.Product) error {
	if product.SKU == f.failSKU {
		return errors.New("constraint violation")
	}
	f.bySKU[product.SKU] = *product
	f.saves++
	return nil
}

type fakeResolver struct {
	ids      map[string]string
	resolves int
}

func (f *fakeResolver) Resolve(name string) string {
	f.resolves++
	return f.ids[name]
}

type fakeConfig struct{}

func (fakeConfig) StatusNew() string    { return "draft" }
func (fakeConfig) StatusUpdate() string { return "publish" }

type fakePublisher struct {
	events []Event
}

func (f *fakePublisher) Publish(ctx context.Context, event Event) error {
	f.events = append(f.events, event)
	return nil
}

func catalogItems(n int) []map[string]interface{} {
	items := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		items[i] = map[string]interface{}{
			"id":           float64(i + 1),
			"name":         fmt.Sprintf("Product %d", i+1),
			"priceWithVat": "10.00",
		}
	}
	return items
}

func newTestOrchestrator(client CatalogClient, products ProductStore, resolver CategoryResolver, publisher Publisher) *Orchestrator {
	if resolver == nil {
		resolver = &fakeResolver{}
	}
	o := NewOrchestrator(client, products, resolver, fakeConfig{}, publisher, logger.New("error"))
	o.BatchDelay = 0
	return o
}

func TestRunBatch_PaginationTermination(t *testing.T) {
	client := &fakeClient{items: catalogItems(45)}
	products := newFakeProducts()
	o := newTestOrchestrator(client, products, nil, nil)

	ctx := context.Background()

	first, err := o.RunBatch(ctx, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, first.SyncedCount)
	assert.True(t, first.HasMore)
	assert.Equal(t, 20, first.NextOffset)

	second, err := o.RunBatch(ctx, 20, 20)
	require.NoError(t, err)
	assert.True(t, second.HasMore)
	assert.Equal(t, 40, second.NextOffset)

	third, err := o.RunBatch(ctx, 40, 20)
	require.NoError(t, err)
	assert.Equal(t, 5, third.SyncedCount)
	assert.False(t, third.HasMore)
	assert.Equal(t, 45, third.NextOffset)

	assert.Len(t, products.bySKU, 45)
}

func TestRunBatch_EnvelopeOverridesHasMore(t *testing.T) {
	// Exactly one full page: counting items alone would loop forever.
	client := &fakeClient{items: catalogItems(20), envelope: true}
	o := newTestOrchestrator(client, newFakeProducts(), nil, nil)

	result, err := o.RunBatch(context.Background(), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, result.SyncedCount)
	assert.False(t, result.HasMore)
	assert.Equal(t, 20, result.NextOffset)
}

func TestRunBatch_SkipsDeletedAndMissingID(t *testing.T) {
	client := &fakeClient{items: []map[string]interface{}{
		{"id": float64(1), "name": "Kept", "priceWithVat": "5"},
		{"id": float64(2), "name": "Gone", "deleted": true},
		{"name": "No identifier"},
	}}
	products := newFakeProducts()
	o := newTestOrchestrator(client, products, nil, nil)

	result, err := o.RunBatch(context.Background(), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SyncedCount)
	// Neither the deleted item nor the id-less one produces a visible error.
	assert.Empty(t, result.Errors)
	assert.Len(t, products.bySKU, 1)
}

func TestRunBatch_PerItemFailureDoesNotAbort(t *testing.T) {
	client := &fakeClient{items: catalogItems(3)}
	products := newFakeProducts()
	products.failSKU = "2"
	o := newTestOrchestrator(client, products, nil, nil)

	result, err := o.RunBatch(context.Background(), 0, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SyncedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "constraint violation")
}

func TestRunBatch_InvalidPayload(t *testing.T) {
	client := &fakeClient{raw: json.RawMessage(`{"message":"maintenance"}`)}
	o := newTestOrchestrator(client, newFakeProducts(), nil, nil)

	_, err := o.RunBatch(context.Background(), 0, 20)
	assert.ErrorIs(t, err, dotypos.ErrInvalidData)
}

func TestRunBatch_RemoteErrorAborts(t *testing.T) {
	client := &fakeClient{items: catalogItems(5), errOnPage: 1}
	o := newTestOrchestrator(client, newFakeProducts(), nil, nil)

	_, err := o.RunBatch(context.Background(), 0, 20)
	var apiErr *dotypos.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestUpsert_Idempotent(t *testing.T) {
	client := &fakeClient{items: []map[string]interface{}{
		{"id": float64(7), "name": "Espresso", "priceWithVat": "2.50"},
	}}
	products := newFakeProducts()
	o := newTestOrchestrator(client, products, nil, nil)

	_, err := o.RunBatch(context.Background(), 0, 20)
	require.NoError(t, err)

	created := products.bySKU["7"]
	assert.Equal(t, "draft", created.Status)
	assert.Equal(t, models.StockStatusInStock, created.StockStatus)

	_, err = o.RunBatch(context.Background(), 0, 20)
	require.NoError(t, err)

	assert.Len(t, products.bySKU, 1)
	assert.Equal(t, 1, products.creates)
	assert.Equal(t, 1, products.saves)

	updated := products.bySKU["7"]
	assert.Equal(t, "publish", updated.Status)
	assert.Equal(t, created.ID, updated.ID)
}

func TestUpsert_ZeroPriceMeansOutOfStock(t *testing.T) {
	client := &fakeClient{items: []map[string]interface{}{
		{"id": float64(1), "name": "Free sample"},
		{"id": float64(2), "name": "Paid", "priceWithVat": "1.00"},
	}}
	products := newFakeProducts()
	o := newTestOrchestrator(client, products, nil, nil)

	_, err := o.RunBatch(context.Background(), 0, 20)
	require.NoError(t, err)

	assert.Equal(t, models.StockStatusOutOfStock, products.bySKU["1"].StockStatus)
	assert.Equal(t, models.StockStatusInStock, products.bySKU["2"].StockStatus)
}

func TestRunBatch_CategoryAssignment(t *testing.T) {
	client := &fakeClient{
		items: []map[string]interface{}{
			{"id": float64(1), "name": "Latte", "_categoryId": float64(10), "priceWithVat": "3"},
			{"id": float64(2), "name": "Unmapped", "_categoryId": float64(99), "priceWithVat": "3"},
		},
		categories: map[string]string{"10": "Coffee"},
	}
	products := newFakeProducts()
	resolver := &fakeResolver{ids: map[string]string{"Coffee": "cat-1"}}
	o := newTestOrchestrator(client, products, resolver, nil)

	_, err := o.RunBatch(context.Background(), 0, 20)
	require.NoError(t, err)

	withCategory := products.bySKU["1"]
	require.NotNil(t, withCategory.CategoryID)
	assert.Equal(t, "cat-1", *withCategory.CategoryID)

	// An id the remote map does not know leaves the product uncategorized.
	assert.Nil(t, products.bySKU["2"].CategoryID)
	assert.Equal(t, 1, resolver.resolves)
}

func TestSyncSingleItem(t *testing.T) {
	client := &fakeClient{items: catalogItems(3)}
	products := newFakeProducts()
	publisher := &fakePublisher{}
	o := newTestOrchestrator(client, products, nil, publisher)

	require.NoError(t, o.SyncSingleItem(context.Background(), "2"))
	assert.Len(t, products.bySKU, 1)
	assert.Contains(t, products.bySKU, "2")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, EventProductSynced, publisher.events[0].Type)
	assert.Equal(t, "2", publisher.events[0].ProductID)

	err := o.SyncSingleItem(context.Background(), "999")
	var apiErr *dotypos.APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestRunFullSync(t *testing.T) {
	client := &fakeClient{items: catalogItems(45)}
	products := newFakeProducts()
	publisher := &fakePublisher{}
	o := newTestOrchestrator(client, products, nil, publisher)
	o.FullSyncBatchSize = 20

	summary, err := o.RunFullSync(context.Background(), models.SyncSourceCron)
	require.NoError(t, err)
	assert.Equal(t, 45, summary.SyncedCount)
	assert.Equal(t, 0, summary.ErrorCount)
	assert.Equal(t, 3, summary.Batches)
	assert.Len(t, products.bySKU, 45)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, EventSyncCompleted, publisher.events[0].Type)
	assert.Equal(t, models.SyncSourceCron, publisher.events[0].Source)
	assert.Equal(t, 45, publisher.events[0].SyncedCount)
}

func TestRunFullSync_BatchErrorEndsRun(t *testing.T) {
	client := &fakeClient{items: catalogItems(45), errOnPage: 2}
	products := newFakeProducts()
	publisher := &fakePublisher{}
	o := newTestOrchestrator(client, products, nil, publisher)
	o.FullSyncBatchSize = 20

	summary, err := o.RunFullSync(context.Background(), models.SyncSourceCron)
	require.Error(t, err)
	assert.Equal(t, 20, summary.SyncedCount)
	assert.Equal(t, 1, summary.Batches)
	// No completion event for an aborted run.
	assert.Empty(t, publisher.events)
}

func TestRunFullSync_Cancellable(t *testing.T) {
	client := &fakeClient{items: catalogItems(45)}
	o := newTestOrchestrator(client, newFakeProducts(), nil, nil)
	o.FullSyncBatchSize = 20
	o.BatchDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := o.RunFullSync(ctx, models.SyncSourceManual)
	assert.ErrorIs(t, err, context.Canceled)
	// The first batch completed before the cancellation was observed.
	assert.Equal(t, 20, summary.SyncedCount)
}
