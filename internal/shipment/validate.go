package shipment

import (
	"regexp"
	"strings"
)

const maxDeclaredAmount = 99999.99

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern    = regexp.MustCompile(`^\+?[0-9 ()./-]{6,20}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)
	codTypePattern  = regexp.MustCompile(`^[A-Za-z0-9]{1,2}$`)
)

// ValidateIntent checks recipient fields, contact formats and declared
// amounts before anything touches an external system.
func ValidateIntent(in *Intent) error {
	if strings.TrimSpace(in.RecipientName) == "" {
		return validationErr("recipientName", "recipient name is required")
	}
	if strings.TrimSpace(in.Address) == "" {
		return validationErr("address", "address is required")
	}
	if strings.TrimSpace(in.ZIPCode) == "" {
		return validationErr("zipCode", "ZIP code is required")
	}
	if strings.TrimSpace(in.City) == "" {
		return validationErr("city", "city is required")
	}
	if in.Email != "" && !emailPattern.MatchString(in.Email) {
		return validationErr("email", "invalid email address")
	}
	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		return validationErr("phone", "invalid phone number")
	}
	if in.ParcelCount <= 0 {
		return validationErr("parcelCount", "at least one parcel is required")
	}
	if in.WeightKg <= 0 {
		return validationErr("weightKg", "weight must be positive")
	}

	if in.Insurance != nil {
		if in.Insurance.Amount <= 0 || in.Insurance.Amount > maxDeclaredAmount {
			return validationErr("insurance.amount", "insured amount must be between 0.01 and 99999.99")
		}
		if !currencyPattern.MatchString(in.Insurance.Currency) {
			return validationErr("insurance.currency", "currency must be a 3-letter ISO code")
		}
	}

	if cod := in.CashOnDelivery; cod != nil {
		if cod.Mandatory && cod.Amount <= 0 {
			return validationErr("cashOnDelivery.amount", "mandatory cash on delivery requires a positive amount")
		}
		if cod.Amount != 0 {
			if cod.Amount < 0 || cod.Amount > maxDeclaredAmount {
				return validationErr("cashOnDelivery.amount", "COD amount must be between 0.01 and 99999.99")
			}
			if !currencyPattern.MatchString(cod.Currency) {
				return validationErr("cashOnDelivery.currency", "currency must be a 3-letter ISO code")
			}
			if !codTypePattern.MatchString(cod.PaymentType) {
				return validationErr("cashOnDelivery.paymentType", "COD payment type must be 1-2 alphanumeric characters")
			}
		}
	}

	return nil
}
