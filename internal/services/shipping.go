package services

import (
	"net/url"
	"strings"
)

const (
	ShippingProviderIndiaPost = "indiapost"
	ShippingProviderDelhivery = "delhivery"
	ShippingProviderBlueDart  = "bluedart"
	ShippingProviderDTDC      = "dtdc"
	ShippingProviderOther     = "other"
)

// NormalizeShippingProvider returns a canonical provider key for known carriers.
func NormalizeShippingProvider(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	replacer := strings.NewReplacer(" ", "", "-", "", "_", "", ".", "")
	normalized = replacer.Replace(normalized)

	switch normalized {
	case "indiapost", "speedpost", "indianpost":
		return ShippingProviderIndiaPost
	case "delhivery":
		return ShippingProviderDelhivery
	case "bluedart", "bluedartexpress":
		return ShippingProviderBlueDart
	case "dtdc", "dtdcexpress":
		return ShippingProviderDTDC
	case "other":
		return ShippingProviderOther
	default:
		return ""
	}
}

// CanonicalCarrierName maps a provider key to the display name.
func CanonicalCarrierName(provider string) string {
	switch NormalizeShippingProvider(provider) {
	case ShippingProviderIndiaPost:
		return "India Post"
	case ShippingProviderDelhivery:
		return "Delhivery"
	case ShippingProviderBlueDart:
		return "Blue Dart"
	case ShippingProviderDTDC:
		return "DTDC"
	default:
		return ""
	}
}

// NormalizeCarrierName keeps custom carriers untouched and normalizes known ones.
func NormalizeCarrierName(carrier string) string {
	trimmed := strings.TrimSpace(carrier)
	if trimmed == "" {
		return ""
	}
	if canonical := CanonicalCarrierName(trimmed); canonical != "" {
		return canonical
	}
	return trimmed
}

// ResolveShippingCarrier selects the final carrier from provider + form values.
func ResolveShippingCarrier(provider, carrier, otherCarrier string) string {
	switch key := NormalizeShippingProvider(provider); key {
	case ShippingProviderIndiaPost, ShippingProviderDelhivery, ShippingProviderBlueDart, ShippingProviderDTDC:
		return CanonicalCarrierName(key)
	case ShippingProviderOther:
		return strings.TrimSpace(otherCarrier)
	default:
		return NormalizeCarrierName(carrier)
	}
}

// BuildTrackingURL returns a carrier-specific tracking URL. Unknown carriers return empty.
func BuildTrackingURL(carrier, trackingNumber string) string {
	number := strings.TrimSpace(trackingNumber)
	if number == "" {
		return ""
	}

	escaped := url.QueryEscape(number)
	switch NormalizeShippingProvider(carrier) {
	case ShippingProviderIndiaPost:
		return "https://www.indiapost.gov.in/_layouts/15/dop.portal.tracking/trackconsignment.aspx?consignment=" + escaped
	case ShippingProviderDelhivery:
		return "https://www.delhivery.com/track/package/" + url.PathEscape(number)
	case ShippingProviderBlueDart:
		return "https://www.bluedart.com/trackdartresultthirdparty?trackFor=0&trackNo=" + escaped
	case ShippingProviderDTDC:
		return "https://www.dtdc.in/tracking.asp?strCnno=" + escaped
	default:
		return ""
	}
}
