package domain

// Registration is the shop owner's profile captured after OTP verification.
type Registration struct {
	Name              string `json:"name"`
	Age               int    `json:"age"`
	Email             string `json:"email"`
	PhoneNumber       string `json:"phone_number"`
	ShopName          string `json:"shop_name"`
	ShopLicenseNumber string `json:"shop_license_number"`
	ShopOwnerName     string `json:"shop_owner_name"`
	Address           string `json:"address"`
	City              string `json:"city"`
	State             string `json:"state"`
	Pincode           string `json:"pincode"`
}

// PharmacistInfo is the licensed pharmacist attached to the shop.
type PharmacistInfo struct {
	PharmacistName     string `json:"pharmacist_name"`
	LicenseNumber      string `json:"license_number"`
	IssuedYear         int    `json:"issued_year"`
	ExpirationDate     string `json:"expiration_date"`
	IssuedOrganization string `json:"issued_organization"`
}
