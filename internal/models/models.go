package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ProductColor represents the derived color-temperature bucket of a product
type ProductColor string

const (
	ColorWarm  ProductColor = "warm"
	ColorCool  ProductColor = "cool"
	ColorWhite ProductColor = "white"
)

// ProductIP represents the derived ingress-protection bucket of a product
type ProductIP string

const (
	IP20 ProductIP = "IP20"
	IP44 ProductIP = "IP44"
	IP54 ProductIP = "IP54"
	IP65 ProductIP = "IP65"
	IP68 ProductIP = "IP68"
)

// JSON type for PostgreSQL JSONB (object/map)
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// JSONArray type for PostgreSQL JSONB (array)
type JSONArray []interface{}

func (j JSONArray) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONArray) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONArray, 0)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// Category represents a top-level catalog category (business key: Name)
type Category struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_category_name"`
	Slug      string    `json:"slug" gorm:"not null"`
	IsActive  bool      `json:"isActive" gorm:"default:true"`
	SortOrder int       `json:"sortOrder" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Translations []CategoryTranslation `json:"translations,omitempty" gorm:"foreignKey:CategoryID"`
}

// CategoryTranslation holds per-language labels for a category.
// Slug uniqueness is scoped to (language, category), never global.
type CategoryTranslation struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CategoryID  uuid.UUID `json:"categoryId" gorm:"type:uuid;not null;uniqueIndex:idx_category_translation"`
	Language    string    `json:"language" gorm:"not null;uniqueIndex:idx_category_translation"`
	Name        string    `json:"name" gorm:"not null"`
	Slug        string    `json:"slug" gorm:"not null"`
	Description *string   `json:"description,omitempty"`
	MetaTitle   *string   `json:"metaTitle,omitempty"`
	MetaDesc    *string   `json:"metaDesc,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LightingType represents a lighting-type grouping (business key: Name)
type LightingType struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name      string    `json:"name" gorm:"not null;uniqueIndex:idx_lighting_type_name"`
	Slug      string    `json:"slug" gorm:"not null"`
	IsActive  bool      `json:"isActive" gorm:"default:true"`
	SortOrder int       `json:"sortOrder" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Translations []LightingTypeTranslation `json:"translations,omitempty" gorm:"foreignKey:LightingTypeID"`
}

// LightingTypeTranslation holds per-language labels for a lighting type
type LightingTypeTranslation struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LightingTypeID uuid.UUID `json:"lightingTypeId" gorm:"type:uuid;not null;uniqueIndex:idx_lighting_type_translation"`
	Language       string    `json:"language" gorm:"not null;uniqueIndex:idx_lighting_type_translation"`
	Name           string    `json:"name" gorm:"not null"`
	Slug           string    `json:"slug" gorm:"not null"`
	Description    *string   `json:"description,omitempty"`
	MetaTitle      *string   `json:"metaTitle,omitempty"`
	MetaDesc       *string   `json:"metaDesc,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Product represents an imported catalog product (business key: ProductID)
type Product struct {
	ID             uuid.UUID    `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID      string       `json:"productId" gorm:"not null;uniqueIndex:idx_product_natural_id"`
	Name           string       `json:"name" gorm:"not null"`
	Images         JSONArray    `json:"images" gorm:"type:jsonb"`
	Brand          string       `json:"brand" gorm:"not null;index"`
	Price          float64      `json:"price" gorm:"not null;default:0"`
	PriceIncrease  float64      `json:"priceIncrease" gorm:"not null;default:0"`
	Quantity       int          `json:"quantity" gorm:"not null;default:0"`
	Discount       float64      `json:"discount" gorm:"not null;default:0"`
	CategoryID     uuid.UUID    `json:"categoryId" gorm:"type:uuid;not null;index"`
	LightingTypeID uuid.UUID    `json:"lightingTypeId" gorm:"type:uuid;not null;index"`
	ProductColor   ProductColor `json:"productColor" gorm:"not null;default:'warm'"`
	ProductIP      ProductIP    `json:"productIp" gorm:"column:product_ip;not null;default:'IP20'"`
	HNumber        *int         `json:"hNumber,omitempty" gorm:"column:h_number"`
	IsActive       bool         `json:"isActive" gorm:"default:true"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`

	Category       *Category              `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	LightingType   *LightingType          `json:"lightingType,omitempty" gorm:"foreignKey:LightingTypeID"`
	Specifications []ProductSpecification `json:"specifications,omitempty" gorm:"foreignKey:ProductID;references:ID"`
}

// ProductSpecification holds the normalized specification table of one
// product in one language, keyed by (product, language). Source keys
// that did not map to a canonical field are retained in CustomSpecs.
type ProductSpecification struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_product_spec_language"`
	Language  string    `json:"language" gorm:"not null;uniqueIndex:idx_product_spec_language"`

	Input              string `json:"input"`
	MaximumWattage     string `json:"maximumWattage"`
	BrandOfLed         string `json:"brandOfLed" gorm:"column:brand_of_led"`
	LuminousFlux       string `json:"luminousFlux"`
	MainMaterial       string `json:"mainMaterial"`
	CRI                string `json:"cri" gorm:"column:cri"`
	BeamAngle          string `json:"beamAngle"`
	WorkingTemperature string `json:"workingTemperature"`
	FixtureDimmable    string `json:"fixtureDimmable"`
	Electrical         string `json:"electrical"`
	PowerFactor        string `json:"powerFactor"`
	ColorTemperature   string `json:"colorTemperature"`
	IP                 string `json:"ip" gorm:"column:ip"`
	EnergySaving       string `json:"energySaving"`
	LifeTime           string `json:"lifeTime"`
	Finish             string `json:"finish"`
	LampBase           string `json:"lampBase"`
	Bulb               string `json:"bulb"`

	CustomSpecs JSON      `json:"customSpecs" gorm:"type:jsonb"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Category model
func (Category) TableName() string {
	return "categories"
}

// TableName returns the table name for the CategoryTranslation model
func (CategoryTranslation) TableName() string {
	return "category_translations"
}

// TableName returns the table name for the LightingType model
func (LightingType) TableName() string {
	return "lighting_types"
}

// TableName returns the table name for the LightingTypeTranslation model
func (LightingTypeTranslation) TableName() string {
	return "lighting_type_translations"
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// TableName returns the table name for the ProductSpecification model
func (ProductSpecification) TableName() string {
	return "product_specifications"
}

// RequiredTables lists every table the import engine writes to. The
// pre-run health check aborts if any of these is missing.
func RequiredTables() []string {
	return []string{
		"categories",
		"category_translations",
		"lighting_types",
		"lighting_type_translations",
		"products",
		"product_specifications",
	}
}
