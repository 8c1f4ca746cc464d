package onboarding

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"pharmadesk/m/domain"
)

var (
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	otpPattern     = regexp.MustCompile(`^\d{6}$`)
	pincodePattern = regexp.MustCompile(`^\d{6}$`)
	nonDigits      = regexp.MustCompile(`\D`)
)

// RegistrationSteps is the number of field groups in the registration form.
const RegistrationSteps = 3

const firstLicenseYear = 1990

// NormalizePhone keeps only digits and drops a leading 91 country code from
// twelve-digit input.
func NormalizePhone(raw string) string {
	digits := nonDigits.ReplaceAllString(raw, "")
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	return digits
}

// ValidatePhone checks a normalised ten-digit Indian mobile number.
func ValidatePhone(phone string) error {
	if !phonePattern.MatchString(phone) {
		v := &domain.ValidationError{}
		v.Add("phone_number", "Please enter a valid 10-digit mobile number")
		return v
	}
	return nil
}

// FormatPhone renders a number the way it is shown on the OTP screen.
func FormatPhone(phone string) string {
	if len(phone) != 10 {
		return phone
	}
	return fmt.Sprintf("+91 %s %s", phone[:5], phone[5:])
}

func validateOTPFormat(code string) error {
	if !otpPattern.MatchString(code) {
		v := &domain.ValidationError{}
		v.Add("otp", "Please enter complete 6-digit OTP")
		return v
	}
	return nil
}

// ValidateRegistrationStep checks one group of the registration form.
// Step 1 is personal details, 2 the shop, 3 the address.
func ValidateRegistrationStep(reg domain.Registration, step int) error {
	v := &domain.ValidationError{}
	switch step {
	case 1:
		if strings.TrimSpace(reg.Name) == "" {
			v.Add("name", "Name is required")
		}
		if reg.Age < 18 || reg.Age > 100 {
			v.Add("age", "Please enter a valid age (18-100)")
		}
		email := strings.TrimSpace(reg.Email)
		if email == "" {
			v.Add("email", "Email is required")
		} else if !domain.ValidEmail(email) {
			v.Add("email", "Please enter a valid email address")
		}
	case 2:
		if strings.TrimSpace(reg.ShopName) == "" {
			v.Add("shop_name", "Shop name is required")
		}
		if strings.TrimSpace(reg.ShopLicenseNumber) == "" {
			v.Add("shop_license_number", "License number is required")
		}
		if strings.TrimSpace(reg.ShopOwnerName) == "" {
			v.Add("shop_owner_name", "Shop owner name is required")
		}
	case 3:
		if strings.TrimSpace(reg.Address) == "" {
			v.Add("address", "Address is required")
		}
		if strings.TrimSpace(reg.City) == "" {
			v.Add("city", "City is required")
		}
		if strings.TrimSpace(reg.State) == "" {
			v.Add("state", "State is required")
		}
		if !pincodePattern.MatchString(strings.TrimSpace(reg.Pincode)) {
			v.Add("pincode", "Please enter a valid 6-digit pincode")
		}
	default:
		v.Add("step", fmt.Sprintf("step must be between 1 and %d", RegistrationSteps))
	}
	return v.Err()
}

// ValidateRegistration runs every step in order and reports the first
// group that fails.
func ValidateRegistration(reg domain.Registration) error {
	for step := 1; step <= RegistrationSteps; step++ {
		if err := ValidateRegistrationStep(reg, step); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePharmacist checks the licence form against the current date.
func ValidatePharmacist(info domain.PharmacistInfo, now time.Time) error {
	v := &domain.ValidationError{}
	if strings.TrimSpace(info.PharmacistName) == "" {
		v.Add("pharmacist_name", "Pharmacist name is required")
	}
	if strings.TrimSpace(info.LicenseNumber) == "" {
		v.Add("license_number", "License number is required")
	}

	currentYear := now.Year()
	switch {
	case info.IssuedYear == 0:
		v.Add("issued_year", "Issued year is required")
	case info.IssuedYear < firstLicenseYear || info.IssuedYear > currentYear:
		v.Add("issued_year", fmt.Sprintf("Year must be between %d and %d", firstLicenseYear, currentYear))
	}

	if strings.TrimSpace(info.ExpirationDate) == "" {
		v.Add("expiration_date", "Expiration date is required")
	} else if expiry, err := time.ParseInLocation(domain.DateLayout, info.ExpirationDate, now.Location()); err != nil {
		v.Add("expiration_date", "Please enter a valid expiration date")
	} else if !expiry.After(now) {
		v.Add("expiration_date", "License must not be expired")
	}

	if strings.TrimSpace(info.IssuedOrganization) == "" {
		v.Add("issued_organization", "Issuing organization is required")
	}
	return v.Err()
}

// Organizations lists the licensing bodies offered on the pharmacist form.
var Organizations = []string{
	"Pharmacy Council of India (PCI)",
	"State Pharmacy Council - Andhra Pradesh",
	"State Pharmacy Council - Delhi",
	"State Pharmacy Council - Gujarat",
	"State Pharmacy Council - Karnataka",
	"State Pharmacy Council - Maharashtra",
	"State Pharmacy Council - Tamil Nadu",
	"State Pharmacy Council - Uttar Pradesh",
	"State Pharmacy Council - West Bengal",
	"Other",
}
