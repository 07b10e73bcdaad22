package dotypos

import (
	"regexp"
	"strconv"
	"strings"
)

// CanonicalProduct is the normalized form of a remote catalog item. Field
// names in raw payloads vary by API version and casing; normalization maps
// them onto this one shape.
type CanonicalProduct struct {
	ExternalID  string
	Name        string
	Price       float64
	CategoryRef string // remote category id, empty when unassigned
}

// Candidate keys in priority order. The remote API has shipped all of these
// spellings at one point or another.
var (
	idKeys       = []string{"id", "productId", "productid"}
	priceKeys    = []string{"priceWithVat", "priceWithVAT", "pricewithvat"}
	categoryKeys = []string{"_categoryId", "categoryid"}
)

var priceCharset = regexp.MustCompile(`[^0-9.,]`)

// Normalize converts a raw remote item into a CanonicalProduct. Items with
// no resolvable identifier yield ErrMissingID; a malformed price degrades to
// 0 rather than failing.
func Normalize(raw map[string]interface{}) (*CanonicalProduct, error) {
	externalID := firstValue(raw, idKeys)
	if externalID == "" {
		return nil, ErrMissingID
	}

	name := "Unnamed Product"
	if v, ok := raw["name"]; ok {
		if s := Stringify(v); s != "" {
			name = s
		}
	}

	var price float64
	for _, key := range priceKeys {
		if v, ok := raw[key]; ok && v != nil {
			price = ParsePrice(v)
			break
		}
	}

	return &CanonicalProduct{
		ExternalID:  externalID,
		Name:        name,
		Price:       price,
		CategoryRef: firstValue(raw, categoryKeys),
	}, nil
}

// ParsePrice turns a price in any of the observed representations (number,
// "12.50", "€ 12,50") into a float. Anything unparseable becomes 0.
func ParsePrice(v interface{}) float64 {
	clean := priceCharset.ReplaceAllString(Stringify(v), "")
	clean = strings.ReplaceAll(clean, ",", ".")
	price, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return price
}

// IsDeleted reports whether the remote flagged the item as deleted.
func IsDeleted(raw map[string]interface{}) bool {
	v, ok := raw["deleted"]
	if !ok {
		return false
	}
	switch d := v.(type) {
	case bool:
		return d
	case float64:
		return d != 0
	case string:
		return d == "true" || d == "1"
	}
	return false
}

// firstValue returns the first non-empty candidate value, stringified. "0"
// counts as empty: the remote uses it as an absent-id placeholder.
func firstValue(raw map[string]interface{}, keys []string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s := Stringify(v); s != "" && s != "0" {
				return s
			}
		}
	}
	return ""
}

// Stringify renders a decoded JSON scalar as a string. Whole floats (the way
// encoding/json hands back numeric ids) print without a decimal part.
func Stringify(v interface{}) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}
