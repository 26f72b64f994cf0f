package model

// districtNames maps registry district codes to display names.
var districtNames = map[string]string{
	"NL": "Northland",
	"AK": "Auckland",
	"WK": "Waikato",
	"BP": "Bay of Plenty",
	"GS": "Gisborne",
	"TK": "Taranaki/King Country",
	"TP": "Taupo",
	"HB": "Hawke's Bay",
	"MW": "Manawatu/Whanganui",
	"WN": "Wellington",
	"MB": "Marlborough",
	"NT": "Nelson/Tasman",
	"WC": "West Coast",
	"CB": "Canterbury",
	"OT": "Otago",
	"SL": "Southland",
	"NZ": "zzz Management Right",
}

// DistrictName returns the display name for a district code, or the code
// itself when it is not recognised.
func DistrictName(code string) string {
	if name, ok := districtNames[code]; ok {
		return name
	}
	return code
}
