package carrier

// Dimensions describes one parcel in centimeters.
type Dimensions struct {
	LengthCm float64 `json:"lengthCm"`
	WidthCm  float64 `json:"widthCm"`
	HeightCm float64 `json:"heightCm"`
}

// CreateShipmentRequest is the payload submitted to the carrier to open a
// shipment. Field names follow the carrier's wire contract.
type CreateShipmentRequest struct {
	SenderCode       string     `json:"senderCode"`
	DepartureDepot   string     `json:"departureDepot"`
	Reference        string     `json:"reference"`
	NumericReference int64      `json:"numericReference"`
	RecipientName    string     `json:"recipientName"`
	Address          string     `json:"address"`
	ZIPCode          string     `json:"zipCode"`
	City             string     `json:"city"`
	Province         string     `json:"province"`
	Country          string     `json:"country"`
	Email            string     `json:"email,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	ParcelCount      int        `json:"parcelCount"`
	WeightKg         float64    `json:"weightKg"`
	VolumeM3         float64    `json:"volumeM3"`
	Dimensions       Dimensions `json:"dimensions"`
	Network          string     `json:"network,omitempty"`
	Service          string     `json:"service,omitempty"`
	Delivery         string     `json:"delivery,omitempty"`
	PricingCondition string     `json:"pricingCondition,omitempty"`
	InsuranceAmount  float64    `json:"insuranceAmount,omitempty"`
	CODAmount        float64    `json:"codAmount,omitempty"`
	CODCurrency      string     `json:"codCurrency,omitempty"`
	CODPaymentType   string     `json:"codPaymentType,omitempty"`
	Notes            string     `json:"notes,omitempty"`
}

// CreateShipmentResponse carries the identifiers the carrier assigns.
type CreateShipmentResponse struct {
	ShipmentID string `json:"shipmentId"`
	ParcelID   string `json:"parcelId"`
	TrackingID string `json:"trackingId"`
}

// ConfirmRequest confirms a previously created shipment.
type ConfirmRequest struct {
	SenderCode string `json:"senderCode"`
	ShipmentID string `json:"shipmentId"`
	ParcelID   string `json:"parcelId"`
}

// ConfirmResponse reports the carrier-side execution outcome.
type ConfirmResponse struct {
	ExecutionCode        string `json:"executionCode"`
	ExecutionDescription string `json:"executionDescription"`
	ExecutionMessage     string `json:"executionMessage"`
}

// ReprintRequest asks the carrier for the label document of a shipment.
// ForceLabel regenerates the label instead of returning the cached one.
type ReprintRequest struct {
	SenderCode string `json:"senderCode"`
	ShipmentID string `json:"shipmentId"`
	ParcelID   string `json:"parcelId"`
	ForceLabel bool   `json:"forceLabel"`
}

// LabelResponse points at the stored label document.
type LabelResponse struct {
	LabelPath string `json:"labelPath"`
}
