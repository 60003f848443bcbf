package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/autostore-backend/pkg/enums"
)

// Car is a catalog product as served by the remote catalog API.
type Car struct {
	ID           string          `json:"id"`
	Brand        string          `json:"brand"`
	Model        string          `json:"model"`
	Year         int             `json:"year"`
	Price        decimal.Decimal `json:"price"`
	Mileage      int             `json:"mileage"`
	FuelType     string          `json:"fuelType"`
	Transmission string          `json:"transmission"`
	BodyType     string          `json:"bodyType"`
	EngineVolume float64         `json:"engineVolume"`
	Power        int             `json:"power"`
	Color        string          `json:"color"`
	VIN          string          `json:"vin"`
	Status       enums.CarStatus `json:"status"`
	Images       []string        `json:"images"`
	Features     []string        `json:"features"`
	Description  string          `json:"description"`
	IsNew        bool            `json:"isNew"`
	IsHit        bool            `json:"isHit"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// List is one page of cars plus the total matching count.
type List struct {
	Cars  []Car `json:"cars"`
	Count int   `json:"count"`
}

type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

type BrandCount struct {
	Brand        string          `json:"brand"`
	Count        int             `json:"count"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

// Statistics aggregates the whole catalog.
type Statistics struct {
	TotalCars     int             `json:"totalCars"`
	AvailableCars int             `json:"availableCars"`
	AveragePrice  decimal.Decimal `json:"averagePrice"`
	PriceRange    PriceRange      `json:"priceRange"`
	Brands        []BrandCount    `json:"brands"`
}
