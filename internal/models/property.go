package models

import (
	"time"

	"github.com/cbadabili/Real-Estate-App-sub000/internal/normalize"
)

// Property types
const (
	PropertyTypeHouse      = "house"
	PropertyTypeApartment  = "apartment"
	PropertyTypeTownhouse  = "townhouse"
	PropertyTypeCondo      = "condo"
	PropertyTypeCommercial = "commercial"
	PropertyTypeFarm       = "farm"
	PropertyTypeLand       = "land"
)

// Listing types
const (
	ListingTypeOwner   = "owner"
	ListingTypeAgent   = "agent"
	ListingTypeRental  = "rental"
	ListingTypeAuction = "auction"
	ListingTypeFSBO    = "fsbo"
	ListingTypeMLS     = "mls"
)

// Listing statuses
const (
	StatusActive    = "active"
	StatusPending   = "pending"
	StatusSold      = "sold"
	StatusWithdrawn = "withdrawn"
)

// Property represents a marketplace listing.
// DB: properties
//
// The stored columns keep whatever encoding history left behind (decimal
// strings, JSON text, bare strings, NULLs); the canonical fields below them
// are derived by Normalize and are the only shape consumers should read.
type Property struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"column:title;size:255;not null" json:"title"`
	Description string `gorm:"column:description;type:text" json:"description"`

	// Stored forms, resolved by Normalize.
	Price     string  `gorm:"column:price;type:decimal(12,2);not null;default:0;index:idx_properties_price" json:"-"`
	Latitude  *string `gorm:"column:latitude;type:decimal(10,7)" json:"-"`
	Longitude *string `gorm:"column:longitude;type:decimal(10,7)" json:"-"`
	Geom      *string `gorm:"column:geom;type:geometry(Point,4326)" json:"-"`
	Bathrooms *string `gorm:"column:bathrooms;type:decimal(3,1)" json:"-"`
	Images    string  `gorm:"column:images;type:text" json:"-"`
	Features  string  `gorm:"column:features;type:text" json:"-"`

	Address      string    `gorm:"column:address;size:255" json:"address"`
	City         string    `gorm:"column:city;size:100;index:idx_properties_city" json:"city"`
	State        string    `gorm:"column:state;size:100" json:"state"`
	ZipCode      string    `gorm:"column:zip_code;size:20" json:"zipCode"`
	PropertyType string    `gorm:"column:property_type;size:50;not null;index:idx_properties_type" json:"propertyType"`
	ListingType  string    `gorm:"column:listing_type;size:20;not null;default:owner" json:"listingType"`
	Bedrooms     *int      `gorm:"column:bedrooms" json:"bedrooms,omitempty"`
	SquareFeet   *int      `gorm:"column:square_feet" json:"squareFeet,omitempty"`
	Status       string    `gorm:"column:status;size:20;not null;default:active;index:idx_properties_status" json:"status"`
	OwnerID      *uint     `gorm:"column:owner_id;index:idx_properties_owner" json:"ownerId,omitempty"`
	AgentID      *uint     `gorm:"column:agent_id" json:"agentId,omitempty"`
	Views        int       `gorm:"column:views;not null;default:0" json:"views"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime;index:idx_properties_created,sort:desc" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`

	// Canonical forms, derived by Normalize; never persisted.
	PriceAmount   float64  `gorm:"-" json:"price"`
	Lat           *float64 `gorm:"-" json:"latitude"`
	Lng           *float64 `gorm:"-" json:"longitude"`
	BathroomCount *float64 `gorm:"-" json:"bathrooms,omitempty"`
	ImageList     []string `gorm:"-" json:"images"`
	FeatureList   []string `gorm:"-" json:"features"`
}

func (Property) TableName() string {
	return "properties"
}

// Normalize resolves the stored representations into their canonical forms.
func (p *Property) Normalize() {
	p.PriceAmount = normalize.NormalizeNumeric(p.Price)
	p.Lat = normalize.ParseCoordinate(p.Latitude)
	p.Lng = normalize.ParseCoordinate(p.Longitude)
	p.BathroomCount = normalize.Finite(p.Bathrooms)
	p.ImageList = normalize.NormalizeStringArray(p.Images)
	p.FeatureList = normalize.NormalizeStringArray(p.Features)
}
