package services

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cbadabili/Real-Estate-App-sub000/internal/cache"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/database"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/models"
	"github.com/cbadabili/Real-Estate-App-sub000/internal/normalize"
	"gorm.io/gorm"
)

const (
	cacheNamespace = "properties"
	defaultLimit   = 20
	// maxLimit caps result materialization regardless of caller input.
	maxLimit = 100
)

type PropertyService struct {
	db       *database.DB
	cache    *cache.Store[[]models.Property]
	cacheTTL time.Duration
}

func NewPropertyService(db *database.DB, store *cache.Store[[]models.Property], cacheTTL time.Duration) *PropertyService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &PropertyService{db: db, cache: store, cacheTTL: cacheTTL}
}

// PropertyFilter is the caller-supplied bundle of optional search constraints.
// Nil pointers and non-finite numbers mean "no bound".
type PropertyFilter struct {
	MinPrice      *float64
	MaxPrice      *float64
	PropertyType  string // "all" is a sentinel for no filter
	MinBedrooms   *float64
	MinBathrooms  *float64
	MinSquareFeet *float64
	MaxSquareFeet *float64
	City          string
	State         string
	ZipCode       string
	Location      string
	ListingType   string
	Status        string
	Limit         *int
	Offset        *int
	SortBy        string // price | date | size | bedrooms
	SortOrder     string // asc | desc

	RequireValidCoordinates bool
}

// predicate is one immutable query condition; the filter compiles to a list
// of these which is folded into a single AND chain before execution.
type predicate struct {
	expr string
	args []any
}

func finiteBound(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func (f *PropertyFilter) clampedLimit() int {
	if f.Limit == nil {
		return defaultLimit
	}
	limit := *f.Limit
	if limit < 0 {
		return 0
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func (f *PropertyFilter) clampedOffset() int {
	if f.Offset == nil || *f.Offset < 0 {
		return 0
	}
	return *f.Offset
}

func (f *PropertyFilter) predicates() []predicate {
	var preds []predicate

	bound := func(expr string, v *float64) {
		if v = finiteBound(v); v != nil {
			preds = append(preds, predicate{expr, []any{*v}})
		}
	}
	bound("price >= ?", f.MinPrice)
	bound("price <= ?", f.MaxPrice)
	bound("bedrooms >= ?", f.MinBedrooms)
	bound("bathrooms >= ?", f.MinBathrooms)
	bound("square_feet >= ?", f.MinSquareFeet)
	bound("square_feet <= ?", f.MaxSquareFeet)

	if f.PropertyType != "" && f.PropertyType != "all" {
		preds = append(preds, predicate{"property_type = ?", []any{f.PropertyType}})
	}

	// Free-text terms match anywhere in the descriptive columns. No
	// relevance ranking; ordering stays whatever the active sort produces.
	for _, term := range []string{f.City, f.Location} {
		if term == "" {
			continue
		}
		like := "%" + strings.ToLower(term) + "%"
		preds = append(preds, predicate{
			"(LOWER(city) LIKE ? OR LOWER(address) LIKE ? OR LOWER(title) LIKE ? OR LOWER(description) LIKE ?)",
			[]any{like, like, like, like},
		})
	}

	equality := func(column, v string) {
		if v != "" {
			preds = append(preds, predicate{column + " = ?", []any{v}})
		}
	}
	equality("state", f.State)
	equality("zip_code", f.ZipCode)
	equality("listing_type", f.ListingType)
	equality("status", f.Status)

	return preds
}

func (f *PropertyFilter) orderClause() string {
	dir := "ASC"
	if strings.EqualFold(f.SortOrder, "desc") {
		dir = "DESC"
	}
	switch f.SortBy {
	case "price":
		return "price " + dir
	case "date":
		return "created_at " + dir
	case "size":
		return "square_feet " + dir
	case "bedrooms":
		return "bedrooms " + dir
	default:
		return "created_at DESC"
	}
}

// cacheParams renders the post-coercion filter state; the derived key is
// therefore identical for logically identical filters.
func (f *PropertyFilter) cacheParams() map[string]any {
	params := map[string]any{}

	putBound := func(name string, v *float64) {
		if v = finiteBound(v); v != nil {
			params[name] = *v
		}
	}
	putBound("minPrice", f.MinPrice)
	putBound("maxPrice", f.MaxPrice)
	putBound("minBedrooms", f.MinBedrooms)
	putBound("minBathrooms", f.MinBathrooms)
	putBound("minSquareFeet", f.MinSquareFeet)
	putBound("maxSquareFeet", f.MaxSquareFeet)

	putString := func(name, v string) {
		if v != "" {
			params[name] = v
		}
	}
	putString("propertyType", f.PropertyType)
	putString("city", f.City)
	putString("state", f.State)
	putString("zipCode", f.ZipCode)
	putString("location", f.Location)
	putString("listingType", f.ListingType)
	putString("status", f.Status)
	putString("sortBy", f.SortBy)
	putString("sortOrder", f.SortOrder)

	params["limit"] = f.clampedLimit()
	params["offset"] = f.clampedOffset()
	if f.RequireValidCoordinates {
		params["requireValidCoordinates"] = true
	}

	return params
}

// GetProperties runs a filtered, sorted, paginated search. Identical filter
// sets are served from the cache; results are normalized before caching so a
// hit returns the exact same shape as a fresh query.
func (s *PropertyService) GetProperties(f *PropertyFilter) ([]models.Property, error) {
	if f == nil {
		f = &PropertyFilter{}
	}

	key := cache.CreateKey(cacheNamespace, f.cacheParams())
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	query := s.db.Model(&models.Property{})
	for _, p := range f.predicates() {
		query = query.Where(p.expr, p.args...)
	}
	query = query.
		Order(f.orderClause()).
		Limit(f.clampedLimit()).
		Offset(f.clampedOffset())

	var properties []models.Property
	if err := query.Find(&properties).Error; err != nil {
		return nil, err
	}

	for i := range properties {
		properties[i].Normalize()
	}

	if f.RequireValidCoordinates {
		valid := make([]models.Property, 0, len(properties))
		for _, p := range properties {
			if p.Lat == nil || p.Lng == nil {
				log.Printf("Dropping property %d from results: no valid coordinates", p.ID)
				continue
			}
			valid = append(valid, p)
		}
		properties = valid
	}

	s.cache.SetTTL(key, properties, s.cacheTTL)
	return properties, nil
}

// GetProperty is a point lookup; cheap enough that caching it is not worth
// the churn. Returns (nil, nil) when no row matches.
func (s *PropertyService) GetProperty(id uint) (*models.Property, error) {
	var property models.Property
	err := s.db.First(&property, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	property.Normalize()
	return &property, nil
}

// PropertyInput carries a new or updated listing as submitted. The loosely
// typed fields tolerate the encodings different producers use (forms send
// strings, seeds send numbers, arrays arrive as JSON).
type PropertyInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Price        any    `json:"price"`
	Address      string `json:"address"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	Latitude     any    `json:"latitude"`
	Longitude    any    `json:"longitude"`
	PropertyType string `json:"propertyType"`
	ListingType  string `json:"listingType"`
	Bedrooms     any    `json:"bedrooms"`
	Bathrooms    any    `json:"bathrooms"`
	SquareFeet   any    `json:"squareFeet"`
	Status       string `json:"status"`
	Images       any    `json:"images"`
	Features     any    `json:"features"`
	OwnerID      *uint  `json:"ownerId"`
	AgentID      *uint  `json:"agentId"`
}

// CreateProperty normalizes the submitted fields, derives the geom value from
// the coordinate pair and inserts everything in one write. The properties
// cache namespace is invalidated so the new listing is immediately visible.
func (s *PropertyService) CreateProperty(in *PropertyInput) (*models.Property, error) {
	lat := normalize.ParseCoordinate(in.Latitude)
	lon := normalize.ParseCoordinate(in.Longitude)

	property := models.Property{
		Title:        in.Title,
		Description:  in.Description,
		Price:        formatPrice(normalize.NormalizeNumeric(in.Price)),
		Address:      in.Address,
		City:         in.City,
		State:        in.State,
		ZipCode:      in.ZipCode,
		Latitude:     normalize.FormatCoordinate(lat),
		Longitude:    normalize.FormatCoordinate(lon),
		Geom:         normalize.BuildGeomValue(lat, lon),
		PropertyType: in.PropertyType,
		ListingType:  stringOr(in.ListingType, models.ListingTypeOwner),
		Bedrooms:     intArg(normalize.Finite(in.Bedrooms)),
		Bathrooms:    normalize.FormatCoordinate(normalize.Finite(in.Bathrooms)),
		SquareFeet:   intArg(normalize.Finite(in.SquareFeet)),
		Status:       stringOr(in.Status, models.StatusActive),
		Images:       mustJSON(normalize.NormalizeStringArray(in.Images)),
		Features:     mustJSON(normalize.NormalizeStringArray(in.Features)),
		OwnerID:      in.OwnerID,
		AgentID:      in.AgentID,
	}

	if err := s.db.Create(&property).Error; err != nil {
		return nil, err
	}

	s.cache.InvalidatePrefix(cacheNamespace)
	property.Normalize()
	return &property, nil
}

// updatableColumns maps accepted update fields to their columns. Anything not
// listed here (id, ownerId, views, timestamps) is ignored.
var updatableColumns = map[string]string{
	"title":        "title",
	"description":  "description",
	"price":        "price",
	"address":      "address",
	"city":         "city",
	"state":        "state",
	"zipCode":      "zip_code",
	"latitude":     "latitude",
	"longitude":    "longitude",
	"propertyType": "property_type",
	"listingType":  "listing_type",
	"bedrooms":     "bedrooms",
	"bathrooms":    "bathrooms",
	"squareFeet":   "square_feet",
	"status":       "status",
	"images":       "images",
	"features":     "features",
	"agentId":      "agent_id",
}

// UpdateProperty applies a partial update. When the update touches latitude
// or longitude the geom column is recomputed in the same UPDATE through a
// conditional expression that keeps any untouched coordinate; otherwise geom
// is left alone. Returns (nil, nil) when no row matched, without invalidating.
func (s *PropertyService) UpdateProperty(id uint, updates map[string]any) (*models.Property, error) {
	cols := map[string]any{}
	for field, raw := range updates {
		col, ok := updatableColumns[field]
		if !ok {
			continue
		}
		switch col {
		case "price":
			cols[col] = formatPrice(normalize.NormalizeNumeric(raw))
		case "bedrooms", "square_feet":
			cols[col] = intArg(normalize.Finite(raw))
		case "bathrooms":
			cols[col] = normalize.FormatCoordinate(normalize.Finite(raw))
		case "images", "features":
			cols[col] = mustJSON(normalize.NormalizeStringArray(raw))
		default:
			cols[col] = raw
		}
	}

	if len(cols) == 0 {
		return s.GetProperty(id)
	}

	latRaw, latTouched := cols["latitude"]
	lonRaw, lonTouched := cols["longitude"]
	if latTouched || lonTouched {
		var lat, lon *float64
		if latTouched {
			lat = normalize.ParseCoordinate(latRaw)
			cols["latitude"] = normalize.FormatCoordinate(lat)
		}
		if lonTouched {
			lon = normalize.ParseCoordinate(lonRaw)
			cols["longitude"] = normalize.FormatCoordinate(lon)
		}
		cols["geom"] = normalize.BuildGeomUpdateExpr(latTouched, lonTouched, lat, lon)
	}

	tx := s.db.Model(&models.Property{}).Where("id = ?", id).Updates(cols)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, nil
	}

	s.cache.InvalidatePrefix(cacheNamespace)
	return s.GetProperty(id)
}

// DeleteProperty hard-deletes a listing. The cache namespace is invalidated
// only when a row was actually removed.
func (s *PropertyService) DeleteProperty(id uint) (bool, error) {
	tx := s.db.Delete(&models.Property{}, id)
	if tx.Error != nil {
		return false, tx.Error
	}
	if tx.RowsAffected == 0 {
		return false, nil
	}
	s.cache.InvalidatePrefix(cacheNamespace)
	return true, nil
}

// GetUserProperties lists a user's own listings, newest first. Not cached.
func (s *PropertyService) GetUserProperties(ownerID uint) ([]models.Property, error) {
	var properties []models.Property
	err := s.db.
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&properties).Error
	if err != nil {
		return nil, err
	}
	for i := range properties {
		properties[i].Normalize()
	}
	return properties, nil
}

// IncrementPropertyViews bumps the view counter in the database, never
// read-modify-write in application code, so concurrent view events cannot
// lose updates.
func (s *PropertyService) IncrementPropertyViews(id uint) error {
	return s.db.Model(&models.Property{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func intArg(v *float64) *int {
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

func mustJSON(values []string) string {
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}
