package catalog

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vitrine-app/vitrine/internal/api"
	"github.com/vitrine-app/vitrine/internal/apitest"
	"github.com/vitrine-app/vitrine/internal/model"
)

func setup(t *testing.T) (*apitest.Server, *Catalog) {
	t.Helper()
	fixture := apitest.NewServer()
	server := httptest.NewServer(fixture.Handler())
	t.Cleanup(server.Close)

	client := api.New(server.URL)
	admin := fixture.SeedUser("Admin", "admin@example.com", "secret", model.RoleAdmin)
	client.SetToken(fixture.Token(admin))

	return fixture, New(client)
}

func TestRefreshReplacesSnapshot(t *testing.T) {
	fixture, c := setup(t)
	ctx := context.Background()

	fixture.SeedProduct(model.ProductDraft{Name: "Mug", Price: 9.90})
	fixture.SeedProduct(model.ProductDraft{Name: "Plate", Price: 4.50})

	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := len(c.Products()); got != 2 {
		t.Errorf("expected 2 products, got %d", got)
	}
	if c.Err() != nil {
		t.Errorf("expected no load error, got %v", c.Err())
	}
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	fixture := apitest.NewServer()
	server := httptest.NewServer(fixture.Handler())

	client := api.New(server.URL)
	c := New(client)
	ctx := context.Background()

	fixture.SeedProduct(model.ProductDraft{Name: "Mug", Price: 9.90})
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Kill the backend; the next refresh must fail but keep the snapshot.
	server.Close()

	if err := c.Refresh(ctx); err == nil {
		t.Fatal("expected refresh error after server close")
	}
	if c.Err() == nil {
		t.Error("expected recorded load error")
	}
	if got := len(c.Products()); got != 1 {
		t.Errorf("previous snapshot should survive a failed refresh, got %d products", got)
	}
}

func TestCreateRefreshesOnce(t *testing.T) {
	fixture, c := setup(t)
	ctx := context.Background()

	c.Refresh(ctx)
	before := fixture.Hits("GET", "/products")

	draft := model.ProductDraft{
		Name: "Mug", Description: "Ceramic mug", Price: 9.90,
		Category: "kitchen", Stock: 10, ImageURL: "https://example.com/mug.jpg",
	}
	if err := c.Create(ctx, draft); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got := fixture.Hits("GET", "/products") - before; got != 1 {
		t.Errorf("expected exactly 1 follow-up list fetch, got %d", got)
	}

	products := c.Products()
	if len(products) != 1 || products[0].Name != "Mug" {
		t.Errorf("new product missing from snapshot: %+v", products)
	}
}

func TestCreateFailureLeavesStateUntouched(t *testing.T) {
	fixture := apitest.NewServer()
	server := httptest.NewServer(fixture.Handler())
	t.Cleanup(server.Close)

	client := api.New(server.URL)
	customer := fixture.SeedUser("Alice", "alice@example.com", "secret", model.RoleCustomer)
	client.SetToken(fixture.Token(customer))
	c := New(client)
	ctx := context.Background()

	c.Refresh(ctx)
	before := fixture.Hits("GET", "/products")

	err := c.Create(ctx, model.ProductDraft{Name: "Mug", Price: 9.90})
	if err == nil {
		t.Fatal("expected create to fail for customer")
	}
	if got := fixture.Hits("GET", "/products") - before; got != 0 {
		t.Errorf("failed create must not refetch, got %d fetches", got)
	}
	if len(c.Products()) != 0 {
		t.Error("snapshot changed after failed create")
	}
}

func TestUpdateAndDeleteRoundTrip(t *testing.T) {
	fixture, c := setup(t)
	ctx := context.Background()

	p := fixture.SeedProduct(model.ProductDraft{Name: "Mug", Price: 9.90})
	c.Refresh(ctx)

	draft := model.ProductDraft{Name: "Big Mug", Price: 12.00}
	if err := c.Update(ctx, p.ID, draft); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if products := c.Products(); products[0].Name != "Big Mug" {
		t.Errorf("snapshot not refreshed after update: %+v", products[0])
	}

	if err := c.Delete(ctx, p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := len(c.Products()); got != 0 {
		t.Errorf("expected empty snapshot after delete, got %d", got)
	}
}

func TestSearch(t *testing.T) {
	fixture, c := setup(t)
	ctx := context.Background()

	fixture.SeedProduct(model.ProductDraft{Name: "Ceramic Mug", Price: 9.90})
	fixture.SeedProduct(model.ProductDraft{Name: "ceramic plate", Price: 4.50})
	fixture.SeedProduct(model.ProductDraft{Name: "Towel", Price: 7.00})
	c.Refresh(ctx)

	if got := len(c.Search("CERA")); got != 2 {
		t.Errorf("prefix search should be case-insensitive, got %d matches", got)
	}
	if got := len(c.Search("mug")); got != 0 {
		t.Errorf("search matches name prefixes only, got %d matches", got)
	}
	if got := len(c.Search("")); got != 3 {
		t.Errorf("empty term should return everything, got %d", got)
	}
}

func TestConcurrentRefreshesCollapse(t *testing.T) {
	var fetches atomic.Int64
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": []}`))
	}))
	t.Cleanup(server.Close)

	c := New(api.New(server.URL))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Refresh(context.Background())
		}()
	}

	// Let all five goroutines pile up behind the in-flight fetch.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := fetches.Load(); got != 1 {
		t.Errorf("expected 1 upstream fetch for 5 concurrent refreshes, got %d", got)
	}
}

func TestSetImage(t *testing.T) {
	fixture, c := setup(t)
	ctx := context.Background()

	p := fixture.SeedProduct(model.ProductDraft{Name: "Mug", Price: 9.90})

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for x := 0; x < 64; x++ {
		for y := 0; y < 64; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, nil)

	if err := c.SetImage(ctx, p.ID, &buf); err != nil {
		t.Fatalf("SetImage: %v", err)
	}
	if len(fixture.Image(p.ID)) == 0 {
		t.Error("expected stored image on the server")
	}
	if products := c.Products(); len(products) == 0 || products[0].ImageURL == "" {
		t.Error("snapshot should carry the new image reference after refresh")
	}
}
