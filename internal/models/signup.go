package models

import "slices"

// NewItemsOnlyLabel is the accepted-item label that marks a charity as taking new items.
const NewItemsOnlyLabel = "New items only"

// User represents an identity-provider subject known to the service
// Backed by table `users`
type User struct {
	Sub           string `json:"sub" db:"id"`
	Admin         bool   `json:"admin" db:"admin"`
	EmailVerified bool   `json:"email_verified" db:"email_verified"`
}

// CharityProfile is the full charity row as seen by its owner and by admins.
type CharityProfile struct {
	Charity
	TaxID          string `json:"TaxId" db:"taxid"`
	LinkDonateCash string `json:"LinkDonateCash" db:"link_donate_cash"`
	Approved       bool   `json:"Approved" db:"approved"`
	Paused         bool   `json:"Paused" db:"paused"`
}

// SignupDraft is a charity profile together with its join-table names.
type SignupDraft struct {
	Charity           CharityProfile `json:"charity"`
	Categories        []string       `json:"categories"`
	AcceptedItemTypes []string       `json:"acceptedItemTypes"`
}

// CharitySignup is the payload of the charity signup form. Both the form field
// names and the column names are accepted; form names win when both are set.
type CharitySignup struct {
	OrganizationName   *string  `json:"organizationName"`
	Name               *string  `json:"name"`
	Address            *string  `json:"address"`
	Zip                *string  `json:"zip"`
	ZipCode            *string  `json:"zip_code"`
	Phone              *string  `json:"phone"`
	Email              *string  `json:"email"`
	ContactName        *string  `json:"contactName"`
	ContactNameColumn  *string  `json:"contact_name"`
	Mission            *string  `json:"mission"`
	Description        *string  `json:"description"`
	CashDonationsURL   *string  `json:"cashDonationsUrl"`
	LinkDonateCash     *string  `json:"link_donate_cash"`
	VolunteerSignupURL *string  `json:"volunteerSignupUrl"`
	LinkVolunteer      *string  `json:"link_volunteer"`
	Website            *string  `json:"website"`
	LinkWebsite        *string  `json:"link_website"`
	AmazonWishlistURL  *string  `json:"amazonWishlistUrl"`
	LinkWishlist       *string  `json:"link_wishlist"`
	LinkLogo           *string  `json:"link_logo"`
	PickupDonations    *bool    `json:"pickupDonations"`
	Pickup             *bool    `json:"pickup"`
	AcceptDropOffs     *bool    `json:"acceptDropOffs"`
	Dropoff            *bool    `json:"dropoff"`
	ResellItems        *bool    `json:"resellItems"`
	Resell             *bool    `json:"resell"`
	FaithBased         *bool    `json:"faithBased"`
	Faith              *bool    `json:"faith"`
	NewItems           *bool    `json:"new_items"`
	TaxID              *string  `json:"taxId"`
	TaxIDColumn        *string  `json:"taxid"`
	LogoURL            *string  `json:"logoUrl"`
	City               *string  `json:"city"`
	State              *string  `json:"state"`
	Paused             *bool    `json:"paused"`
	Categories         []string `json:"categories"`
	AcceptedItemTypes  []string `json:"acceptedItemTypes"`
}

// CharityRecord holds normalized `charity` column values. Nil pointers are
// written as NULL; Approved nil leaves the stored value untouched on update.
type CharityRecord struct {
	Name           *string
	Address        *string
	ZipCode        *string
	Phone          *string
	Email          string
	ContactName    *string
	Mission        *string
	Description    *string
	LinkDonateCash string
	LinkVolunteer  string
	LinkWebsite    string
	LinkWishlist   string
	LinkLogo       string
	Pickup         *bool
	Dropoff        *bool
	Resell         *bool
	Faith          *bool
	NewItems       bool
	TaxID          *string
	LogoURL        string
	City           *string
	State          *string
	Approved       *bool
	Paused         bool
}

// Normalize maps the signup payload onto charity columns.
func (s CharitySignup) Normalize() CharityRecord {
	newItems := s.NewItems != nil && *s.NewItems
	if s.AcceptedItemTypes != nil {
		newItems = slices.Contains(s.AcceptedItemTypes, NewItemsOnlyLabel)
	}
	return CharityRecord{
		Name:           firstString(s.OrganizationName, s.Name),
		Address:        s.Address,
		ZipCode:        firstString(s.Zip, s.ZipCode),
		Phone:          s.Phone,
		Email:          orEmpty(s.Email),
		ContactName:    firstString(s.ContactName, s.ContactNameColumn),
		Mission:        s.Mission,
		Description:    s.Description,
		LinkDonateCash: orEmpty(firstString(s.CashDonationsURL, s.LinkDonateCash)),
		LinkVolunteer:  orEmpty(firstString(s.VolunteerSignupURL, s.LinkVolunteer)),
		LinkWebsite:    orEmpty(firstString(s.Website, s.LinkWebsite)),
		LinkWishlist:   orEmpty(firstString(s.AmazonWishlistURL, s.LinkWishlist)),
		LinkLogo:       orEmpty(s.LinkLogo),
		Pickup:         firstBool(s.PickupDonations, s.Pickup),
		Dropoff:        firstBool(s.AcceptDropOffs, s.Dropoff),
		Resell:         firstBool(s.ResellItems, s.Resell),
		Faith:          firstBool(s.FaithBased, s.Faith),
		NewItems:       newItems,
		TaxID:          firstString(s.TaxID, s.TaxIDColumn),
		LogoURL:        orEmpty(s.LogoURL),
		City:           s.City,
		State:          s.State,
		Paused:         s.Paused != nil && *s.Paused,
	}
}

func firstString(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstBool(vals ...*bool) *bool {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func orEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
