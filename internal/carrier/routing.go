package carrier

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RoutingQuoteRequest asks the carrier how a parcel would be routed.
type RoutingQuoteRequest struct {
	SenderCode         string     `json:"senderCode"`
	DepartureDepot     string     `json:"departureDepot"`
	ParcelCount        int        `json:"parcelCount"`
	WeightKg           float64    `json:"weightKg"`
	VolumeM3           float64    `json:"volumeM3"`
	DestinationZIP     string     `json:"destinationZip"`
	DestinationCountry string     `json:"destinationCountry"`
	Dimensions         Dimensions `json:"dimensions"`
}

// RoutingQuote is the typed view of the carrier's routing response. The
// carrier does not guarantee a stable shape, so deserialization scans the
// whole response tree against a small alias table instead of hard-coding a
// path. The alias tolerance lives only here; everything above this type sees
// plain optional fields.
type RoutingQuote struct {
	Network          string
	Service          string
	Delivery         string
	PricingCondition string
}

// quoteAliases maps each quote attribute to the key spellings observed in the
// carrier's responses, in precedence order. Matching is case-insensitive.
var quoteAliases = map[string][]string{
	"network":          {"network", "networkcode", "routingnetwork"},
	"service":          {"service", "servicecode", "routingservice"},
	"delivery":         {"delivery", "deliverytype", "deliverycode"},
	"pricingCondition": {"pricingcondition", "pricingconditioncode", "condition"},
}

// UnmarshalJSON fills the quote by searching the response tree depth-first
// for each attribute's aliases. The first scalar found wins; absent
// attributes stay empty.
func (q *RoutingQuote) UnmarshalJSON(data []byte) error {
	var tree interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return err
	}
	q.Network = findScalar(tree, quoteAliases["network"])
	q.Service = findScalar(tree, quoteAliases["service"])
	q.Delivery = findScalar(tree, quoteAliases["delivery"])
	q.PricingCondition = findScalar(tree, quoteAliases["pricingCondition"])
	return nil
}

// findScalar searches the tree once per alias so that alias precedence is
// deterministic even though Go map iteration is not.
func findScalar(node interface{}, aliases []string) string {
	for _, alias := range aliases {
		if v, ok := searchKey(node, alias); ok {
			return v
		}
	}
	return ""
}

// searchKey walks objects and arrays depth-first looking for a key matching
// the alias case-insensitively and holding a scalar value.
func searchKey(node interface{}, alias string) (string, bool) {
	switch n := node.(type) {
	case map[string]interface{}:
		for k, v := range n {
			if strings.EqualFold(k, alias) {
				if s, ok := scalarString(v); ok {
					return s, true
				}
			}
		}
		for _, v := range n {
			if s, ok := searchKey(v, alias); ok {
				return s, true
			}
		}
	case []interface{}:
		for _, v := range n {
			if s, ok := searchKey(v, alias); ok {
				return s, true
			}
		}
	}
	return "", false
}

func scalarString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, s != ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	}
	return "", false
}
