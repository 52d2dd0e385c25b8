package models

import "math"

// Charity is an organization eligible to receive donations.
// Backed by table `charity`. JSON names match the public collection endpoints.
type Charity struct {
	ID            int      `json:"Id" db:"id"`
	Name          string   `json:"Name" db:"name"`
	Address       string   `json:"Address" db:"address"`
	ZipCode       string   `json:"ZipCode" db:"zip_code"`
	Phone         string   `json:"Phone" db:"phone"`
	Email         string   `json:"Email" db:"email"`
	ContactName   string   `json:"ContactName" db:"contact_name"`
	Mission       string   `json:"Mission" db:"mission"`
	Description   string   `json:"Description" db:"description"`
	LinkVolunteer string   `json:"LinkVolunteer" db:"link_volunteer"`
	LinkWebsite   string   `json:"LinkWebsite" db:"link_website"`
	LinkWishlist  string   `json:"LinkWishlist" db:"link_wishlist"`
	Pickup        bool     `json:"Pickup" db:"pickup"`
	Dropoff       bool     `json:"Dropoff" db:"dropoff"`
	Resell        bool     `json:"Resell" db:"resell"`
	Faith         bool     `json:"Faith" db:"faith"`
	GoodItems     bool     `json:"GoodItems" db:"good_items"`
	NewItems      bool     `json:"NewItems" db:"new_items"`
	LogoURL       string   `json:"LogoUrl" db:"logo_url"`
	City          string   `json:"City" db:"city"`
	State         string   `json:"State" db:"state"`
	Lat           *float64 `json:"Lat" db:"lat"`
	Lng           *float64 `json:"Lng" db:"lng"`
}

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location returns the charity's coordinates. ok is false when either value is
// missing, non-finite, or exactly zero; zero is the "no coordinate" sentinel.
func (c Charity) Location() (Coordinates, bool) {
	if c.Lat == nil || c.Lng == nil {
		return Coordinates{}, false
	}
	lat, lng := *c.Lat, *c.Lng
	if lat == 0 || lng == 0 || !finite(lat) || !finite(lng) {
		return Coordinates{}, false
	}
	return Coordinates{Latitude: lat, Longitude: lng}, true
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ItemAcceptance records that a charity accepts a named item type.
// Backed by join `charity_item` x `item`.
type ItemAcceptance struct {
	CharityID   int    `json:"CharityId" db:"charity_id"`
	CharityName string `json:"CharityName" db:"charity_name"`
	ItemID      int    `json:"ItemId" db:"item_id"`
	ItemName    string `json:"ItemName" db:"item_name"`
}

// CategoryMapping maps charity -> category type
// Backed by table `charity_type`
type CategoryMapping struct {
	CharityID int `json:"CharityId" db:"charity_id"`
	TypeID    int `json:"TypeId" db:"type_id"`
}

// Category is a charity category catalog entry
// Backed by table `types`
type Category struct {
	ID   int    `json:"Id" db:"id"`
	Type string `json:"Type" db:"name"`
}

// Item is an item catalog entry
// Backed by table `item`
type Item struct {
	ID   int    `json:"Id" db:"id"`
	Name string `json:"Name" db:"name"`
}
