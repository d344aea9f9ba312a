package domain

import "strings"

// provinceCodes maps upper-cased province and territory names to the
// two-letter codes the climate portal expects in its Prov query parameter.
// Nunavut has carried its own NU code since the 1999 split from the
// Northwest Territories; some older station datasets still file Nunavut
// sites under NT.
var provinceCodes = map[string]string{
	"ALBERTA":                   "AB",
	"BRITISH COLUMBIA":          "BC",
	"MANITOBA":                  "MB",
	"NEW BRUNSWICK":             "NB",
	"NEWFOUNDLAND AND LABRADOR": "NL",
	"NORTHWEST TERRITORIES":     "NT",
	"NOVA SCOTIA":               "NS",
	"NUNAVUT":                   "NU",
	"ONTARIO":                   "ON",
	"PRINCE EDWARD ISLAND":      "PE",
	"QUEBEC":                    "QC",
	"SASKATCHEWAN":              "SK",
	"YUKON":                     "YT",
}

// ProvinceCode returns the two-letter portal code for a province or
// territory name. Matching is case-insensitive.
func ProvinceCode(name string) (string, bool) {
	code, ok := provinceCodes[strings.ToUpper(strings.TrimSpace(name))]
	return code, ok
}
