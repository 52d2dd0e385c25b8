package models

// DeliveryMethod holds the donor's pickup/dropoff choices.
type DeliveryMethod struct {
	Pickup  bool `json:"pickup"`
	Dropoff bool `json:"dropoff"`
}

// Considerations holds donor exclusions. Resell=true means "exclude
// organizations that resell donated items".
type Considerations struct {
	Resell     bool `json:"resell"`
	FaithBased bool `json:"faithBased"`
}

// ItemCondition holds the condition of the items being donated.
type ItemCondition struct {
	New  bool `json:"new"`
	Used bool `json:"used"`
}

// LocationPreference constrains results to a radius around a ZIP code.
type LocationPreference struct {
	ZipCode       string  `json:"zipCode"`
	DistanceMiles float64 `json:"distanceMiles"`
}

// DonorPreferences is everything the donor form collects.
type DonorPreferences struct {
	DeliveryMethod     DeliveryMethod     `json:"deliveryMethod"`
	Considerations     Considerations     `json:"considerations"`
	ItemCondition      ItemCondition      `json:"itemCondition"`
	SelectedItems      []string           `json:"selectedItems"`
	SelectedCategories []string           `json:"selectedCategories"`
	Location           LocationPreference `json:"location"`
}

// Complete reports whether the donor filled in every required section of the
// form. Incomplete preferences are still valid pipeline input.
func (p DonorPreferences) Complete() bool {
	return (p.DeliveryMethod.Pickup || p.DeliveryMethod.Dropoff) &&
		(p.ItemCondition.New || p.ItemCondition.Used) &&
		len(p.SelectedItems) > 0 &&
		len(p.SelectedCategories) > 0
}
