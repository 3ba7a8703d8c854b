package services

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cbadabili/Real-Estate-App-sub000/internal/cache"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/database"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*PropertyService, *int) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// A single connection serializes writers; sqlite locks otherwise.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	db := &database.DB{DB: gdb}
	if err := db.AutoMigrate(&models.User{}, &models.Property{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	queries := 0
	err = gdb.Callback().Query().After("gorm:query").
		Register("test:count_queries", func(*gorm.DB) { queries++ })
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	store := cache.New[[]models.Property](100, time.Minute)
	return NewPropertyService(db, store, time.Minute), &queries
}

func mustCreate(t *testing.T, svc *PropertyService, in *PropertyInput) *models.Property {
	t.Helper()
	p, err := svc.CreateProperty(in)
	if err != nil {
		t.Fatalf("CreateProperty failed: %v", err)
	}
	return p
}

func parseGeom(t *testing.T, geom *string) (lon, lat float64) {
	t.Helper()
	if geom == nil {
		t.Fatal("geom is nil")
	}
	s := strings.TrimPrefix(*geom, "SRID=4326;POINT(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Fields(s)
	if len(parts) != 2 {
		t.Fatalf("malformed geom: %q", *geom)
	}
	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		t.Fatalf("malformed geom longitude: %q", *geom)
	}
	lat, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		t.Fatalf("malformed geom latitude: %q", *geom)
	}
	return lon, lat
}

func TestCreateAndGetProperty(t *testing.T) {
	svc, _ := newTestService(t)

	created := mustCreate(t, svc, &PropertyInput{
		Title:        "Family home in Gaborone",
		Description:  "Three bedroom house near the CBD",
		Price:        "1,250,000.50",
		City:         "Gaborone",
		Latitude:     "-24.6282",
		Longitude:    "25.9231",
		PropertyType: models.PropertyTypeHouse,
		Bedrooms:     3,
		Bathrooms:    "2.5",
		Images:       `["a.jpg","b.jpg"]`,
		Features:     "pool",
	})

	got, err := svc.GetProperty(created.ID)
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected property, got nil")
	}

	if got.PriceAmount != 1250000.50 {
		t.Errorf("PriceAmount = %v, want 1250000.50", got.PriceAmount)
	}
	if got.Lat == nil || *got.Lat != -24.6282 {
		t.Errorf("Lat = %v, want -24.6282", got.Lat)
	}
	if got.Lng == nil || *got.Lng != 25.9231 {
		t.Errorf("Lng = %v, want 25.9231", got.Lng)
	}
	if got.BathroomCount == nil || *got.BathroomCount != 2.5 {
		t.Errorf("BathroomCount = %v, want 2.5", got.BathroomCount)
	}
	if len(got.ImageList) != 2 || got.ImageList[0] != "a.jpg" {
		t.Errorf("ImageList = %v", got.ImageList)
	}
	if len(got.FeatureList) != 1 || got.FeatureList[0] != "pool" {
		t.Errorf("FeatureList = %v", got.FeatureList)
	}
	if got.ListingType != models.ListingTypeOwner || got.Status != models.StatusActive {
		t.Errorf("defaults not applied: %s / %s", got.ListingType, got.Status)
	}

	lon, lat := parseGeom(t, got.Geom)
	if lon != 25.9231 || lat != -24.6282 {
		t.Errorf("geom = (%v, %v), want (25.9231, -24.6282)", lon, lat)
	}
}

func TestCreateWithoutCoordinatesHasNilGeom(t *testing.T) {
	svc, _ := newTestService(t)

	created := mustCreate(t, svc, &PropertyInput{
		Title:        "Plot with no survey",
		PropertyType: models.PropertyTypeLand,
		Latitude:     "",
		Longitude:    "not a number",
	})

	got, err := svc.GetProperty(created.ID)
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if got.Geom != nil {
		t.Errorf("geom should be nil without coordinates, got %q", *got.Geom)
	}
	if got.Lat != nil || got.Lng != nil {
		t.Errorf("coordinates should normalize to nil, got %v / %v", got.Lat, got.Lng)
	}
}

func TestGetPropertiesCacheHit(t *testing.T) {
	svc, queries := newTestService(t)

	mustCreate(t, svc, &PropertyInput{Title: "A", PropertyType: models.PropertyTypeHouse})

	filter := &PropertyFilter{PropertyType: models.PropertyTypeHouse}

	before := *queries
	first, err := svc.GetProperties(filter)
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	afterFirst := *queries
	if afterFirst != before+1 {
		t.Fatalf("expected one storage query, got %d", afterFirst-before)
	}

	second, err := svc.GetProperties(&PropertyFilter{PropertyType: models.PropertyTypeHouse})
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if *queries != afterFirst {
		t.Errorf("cache hit must not query storage, got %d extra", *queries-afterFirst)
	}
	if len(first) != 1 || len(second) != 1 || first[0].ID != second[0].ID {
		t.Errorf("cached result differs from fresh result")
	}
}

func TestCreateInvalidatesCache(t *testing.T) {
	svc, _ := newTestService(t)

	mustCreate(t, svc, &PropertyInput{Title: "First", PropertyType: models.PropertyTypeHouse})

	filter := &PropertyFilter{PropertyType: models.PropertyTypeHouse}
	results, err := svc.GetProperties(filter)
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	mustCreate(t, svc, &PropertyInput{Title: "Second", PropertyType: models.PropertyTypeHouse})

	results, err = svc.GetProperties(filter)
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("stale cache: expected 2 results after create, got %d", len(results))
	}
}

func TestLimitClamp(t *testing.T) {
	svc, _ := newTestService(t)
	for i := 0; i < 3; i++ {
		mustCreate(t, svc, &PropertyInput{Title: fmt.Sprintf("P%d", i)})
	}

	huge := 10000
	f := &PropertyFilter{Limit: &huge}
	if got := f.clampedLimit(); got != 100 {
		t.Errorf("clampedLimit(10000) = %d, want 100", got)
	}

	results, err := svc.GetProperties(f)
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if len(results) > 100 {
		t.Errorf("limit clamp violated: %d rows", len(results))
	}

	negative := -5
	if got := (&PropertyFilter{Limit: &negative}).clampedLimit(); got != 0 {
		t.Errorf("clampedLimit(-5) = %d, want 0", got)
	}
	if got := (&PropertyFilter{}).clampedLimit(); got != defaultLimit {
		t.Errorf("clampedLimit(nil) = %d, want %d", got, defaultLimit)
	}

	badOffset := -3
	if got := (&PropertyFilter{Offset: &badOffset}).clampedOffset(); got != 0 {
		t.Errorf("clampedOffset(-3) = %d, want 0", got)
	}
}

func TestFilterPredicatesAndSort(t *testing.T) {
	svc, _ := newTestService(t)

	mustCreate(t, svc, &PropertyInput{
		Title: "Cheap flat", Price: 500000, City: "Gaborone",
		PropertyType: models.PropertyTypeApartment, Bedrooms: 2,
	})
	mustCreate(t, svc, &PropertyInput{
		Title: "Mid house", Price: 1500000, City: "Francistown",
		PropertyType: models.PropertyTypeHouse, Bedrooms: 3,
	})
	mustCreate(t, svc, &PropertyInput{
		Title: "Luxury villa near Gaborone dam", Price: 4500000, City: "Tlokweng",
		PropertyType: models.PropertyTypeHouse, Bedrooms: 5,
	})

	minPrice := 1000000.0
	results, err := svc.GetProperties(&PropertyFilter{
		MinPrice: &minPrice,
		SortBy:   "price",
	})
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results above 1M, got %d", len(results))
	}
	if results[0].PriceAmount > results[1].PriceAmount {
		t.Errorf("expected ascending price order: %v, %v",
			results[0].PriceAmount, results[1].PriceAmount)
	}

	// "all" is a sentinel for no type filter.
	results, err = svc.GetProperties(&PropertyFilter{PropertyType: "all"})
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf(`propertyType "all" should not filter, got %d`, len(results))
	}

	// Location matches across city, address, title and description.
	results, err = svc.GetProperties(&PropertyFilter{Location: "gaborone"})
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 matches for location=gaborone, got %d", len(results))
	}

	minBeds := 4.0
	results, err = svc.GetProperties(&PropertyFilter{MinBedrooms: &minBeds})
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if len(results) != 1 || results[0].Title != "Luxury villa near Gaborone dam" {
		t.Errorf("bedroom bound not applied: %v", results)
	}
}

func TestRequireValidCoordinates(t *testing.T) {
	svc, _ := newTestService(t)

	mustCreate(t, svc, &PropertyInput{
		Title: "Located", Latitude: "-24.6282", Longitude: "25.9231",
	})
	mustCreate(t, svc, &PropertyInput{Title: "Unlocated"})

	results, err := svc.GetProperties(&PropertyFilter{RequireValidCoordinates: true})
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected only located listings, got %d", len(results))
	}
	if results[0].Lat == nil || results[0].Lng == nil {
		t.Error("returned row has no valid coordinates")
	}
}

func TestUpdatePreservesUntouchedCoordinate(t *testing.T) {
	svc, _ := newTestService(t)

	created := mustCreate(t, svc, &PropertyInput{
		Title: "Movable pin", Latitude: "-24.6282", Longitude: "25.9231",
	})

	updated, err := svc.UpdateProperty(created.ID, map[string]any{"longitude": 26.0})
	if err != nil {
		t.Fatalf("UpdateProperty failed: %v", err)
	}
	if updated == nil {
		t.Fatal("expected updated property")
	}

	if updated.Lat == nil || *updated.Lat != -24.6282 {
		t.Errorf("latitude changed by longitude-only update: %v", updated.Lat)
	}
	if updated.Lng == nil || *updated.Lng != 26.0 {
		t.Errorf("Lng = %v, want 26.0", updated.Lng)
	}

	lon, lat := parseGeom(t, updated.Geom)
	if lon != 26.0 || lat != -24.6282 {
		t.Errorf("geom = (%v, %v), want (26.0, -24.6282)", lon, lat)
	}
}

func TestUpdateNullsGeomWhenCoordinateCleared(t *testing.T) {
	svc, _ := newTestService(t)

	created := mustCreate(t, svc, &PropertyInput{
		Title: "Pin removed", Latitude: "-24.6282", Longitude: "25.9231",
	})

	updated, err := svc.UpdateProperty(created.ID, map[string]any{"latitude": nil})
	if err != nil {
		t.Fatalf("UpdateProperty failed: %v", err)
	}
	if updated.Geom != nil {
		t.Errorf("geom should be nil after clearing latitude, got %q", *updated.Geom)
	}
	if updated.Lng == nil || *updated.Lng != 25.9231 {
		t.Errorf("longitude should survive, got %v", updated.Lng)
	}
}

func TestUpdateWithoutCoordinatesLeavesGeomAlone(t *testing.T) {
	svc, _ := newTestService(t)

	created := mustCreate(t, svc, &PropertyInput{
		Title: "Renamed", Latitude: "-24.6282", Longitude: "25.9231",
	})

	updated, err := svc.UpdateProperty(created.ID, map[string]any{"title": "Renamed twice"})
	if err != nil {
		t.Fatalf("UpdateProperty failed: %v", err)
	}
	if updated.Title != "Renamed twice" {
		t.Errorf("Title = %q", updated.Title)
	}
	lon, lat := parseGeom(t, updated.Geom)
	if lon != 25.9231 || lat != -24.6282 {
		t.Errorf("geom disturbed by non-coordinate update: (%v, %v)", lon, lat)
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	updated, err := svc.UpdateProperty(9999, map[string]any{"title": "nope"})
	if err != nil {
		t.Fatalf("UpdateProperty failed: %v", err)
	}
	if updated != nil {
		t.Error("expected nil for missing property")
	}
}

func TestDeleteProperty(t *testing.T) {
	svc, _ := newTestService(t)

	created := mustCreate(t, svc, &PropertyInput{Title: "Short lived"})

	// Prime the cache so the delete has something to invalidate.
	if _, err := svc.GetProperties(&PropertyFilter{}); err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}

	deleted, err := svc.DeleteProperty(created.ID)
	if err != nil {
		t.Fatalf("DeleteProperty failed: %v", err)
	}
	if !deleted {
		t.Fatal("expected delete to report true")
	}

	deleted, err = svc.DeleteProperty(created.ID)
	if err != nil {
		t.Fatalf("DeleteProperty failed: %v", err)
	}
	if deleted {
		t.Error("second delete should report false")
	}

	results, err := svc.GetProperties(&PropertyFilter{})
	if err != nil {
		t.Fatalf("GetProperties failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("deleted property still served: %d rows", len(results))
	}
}

func TestGetUserProperties(t *testing.T) {
	svc, _ := newTestService(t)

	owner := uint(1)
	other := uint(2)
	mustCreate(t, svc, &PropertyInput{Title: "Mine", OwnerID: &owner})
	mustCreate(t, svc, &PropertyInput{Title: "Mine too", OwnerID: &owner})
	mustCreate(t, svc, &PropertyInput{Title: "Not mine", OwnerID: &other})

	results, err := svc.GetUserProperties(owner)
	if err != nil {
		t.Fatalf("GetUserProperties failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(results))
	}
	for _, p := range results {
		if p.OwnerID == nil || *p.OwnerID != owner {
			t.Errorf("foreign listing returned: %+v", p)
		}
	}
}

func TestIncrementViewsConcurrent(t *testing.T) {
	svc, _ := newTestService(t)

	created := mustCreate(t, svc, &PropertyInput{Title: "Popular"})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := svc.IncrementPropertyViews(created.ID); err != nil {
				t.Errorf("IncrementPropertyViews failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := svc.GetProperty(created.ID)
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if got.Views != 50 {
		t.Errorf("Views = %d, want 50", got.Views)
	}
}

func TestGetPropertyNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.GetProperty(404)
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if got != nil {
		t.Error("expected nil for missing property")
	}
}
