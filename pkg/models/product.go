package models

import (
	"time"
)

type Product struct {
	ID         string    `bson:"id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	Price      float64   `bson:"price" json:"price"`
	Category   string    `bson:"category" json:"category"`
	Stock      int       `bson:"stock" json:"stock"`
	TotalUnits int       `bson:"totalUnits" json:"totalUnits"`
	Image      string    `bson:"image" json:"image"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ProductInput is the admin form payload for a new product. Numeric fields
// are coerced, see Number.
type ProductInput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Price      Number `json:"price"`
	Category   string `json:"category"`
	Stock      Number `json:"stock"`
	TotalUnits Number `json:"totalUnits"`
	Image      string `json:"image"`
}

func (in *ProductInput) ToProduct() *Product {
	return &Product{
		ID:         in.ID,
		Name:       in.Name,
		Price:      in.Price.Float(),
		Category:   in.Category,
		Stock:      in.Stock.Int(),
		TotalUnits: in.TotalUnits.Int(),
		Image:      in.Image,
	}
}

// ProductPatch carries the fields of an admin edit. Nil fields are left
// untouched. The id is not patchable.
type ProductPatch struct {
	Name       *string `json:"name,omitempty"`
	Price      *Number `json:"price,omitempty"`
	Category   *string `json:"category,omitempty"`
	Stock      *Number `json:"stock,omitempty"`
	TotalUnits *Number `json:"totalUnits,omitempty"`
	Image      *string `json:"image,omitempty"`
}

// Fields returns the patch as document field -> value, keyed by the stored
// field names.
func (p *ProductPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p == nil {
		return fields
	}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.Price != nil {
		fields["price"] = p.Price.Float()
	}
	if p.Category != nil {
		fields["category"] = *p.Category
	}
	if p.Stock != nil {
		fields["stock"] = p.Stock.Int()
	}
	if p.TotalUnits != nil {
		fields["totalUnits"] = p.TotalUnits.Int()
	}
	if p.Image != nil {
		fields["image"] = *p.Image
	}
	return fields
}

// Apply merges the patch onto prod in place.
func (p *ProductPatch) Apply(prod *Product) {
	if p == nil || prod == nil {
		return
	}
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Price != nil {
		prod.Price = p.Price.Float()
	}
	if p.Category != nil {
		prod.Category = *p.Category
	}
	if p.Stock != nil {
		prod.Stock = p.Stock.Int()
	}
	if p.TotalUnits != nil {
		prod.TotalUnits = p.TotalUnits.Int()
	}
	if p.Image != nil {
		prod.Image = *p.Image
	}
}
