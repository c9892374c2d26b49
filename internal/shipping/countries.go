package shipping

// countryNames maps ISO codes to the full names older zone rows stored.
var countryNames = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"GB": "United Kingdom",
	"DE": "Germany",
	"FR": "France",
	"IT": "Italy",
	"ES": "Spain",
	"NL": "Netherlands",
	"BE": "Belgium",
	"AU": "Australia",
	"NZ": "New Zealand",
	"JP": "Japan",
	"KR": "South Korea",
	"SG": "Singapore",
	"MY": "Malaysia",
	"TH": "Thailand",
	"PH": "Philippines",
	"ID": "Indonesia",
	"IN": "India",
	"CN": "China",
	"HK": "Hong Kong",
	"TW": "Taiwan",
	"VN": "Vietnam",
	"BR": "Brazil",
	"MX": "Mexico",
	"AR": "Argentina",
	"CL": "Chile",
	"ZA": "South Africa",
	"AE": "United Arab Emirates",
	"SA": "Saudi Arabia",
	"IL": "Israel",
	"RU": "Russia",
	"PL": "Poland",
	"SE": "Sweden",
	"NO": "Norway",
	"DK": "Denmark",
	"FI": "Finland",
	"AT": "Austria",
	"CH": "Switzerland",
	"PT": "Portugal",
	"IE": "Ireland",
	"GR": "Greece",
	"CZ": "Czech Republic",
	"HU": "Hungary",
	"RO": "Romania",
	"TR": "Turkey",
}

func countryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}
