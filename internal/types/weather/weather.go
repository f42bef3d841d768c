package weather

type Current struct {
	Temperature int     `json:"temperature"`
	Description string  `json:"description"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Icon        string  `json:"icon"`
}

var descriptions = map[int]string{
	0:  "Clear",
	1:  "Partly Cloudy",
	2:  "Cloudy",
	3:  "Overcast",
	45: "Foggy",
	51: "Light Drizzle",
	61: "Rain",
	71: "Snow",
	80: "Rain Showers",
	95: "Thunderstorm",
}

// Describe turns a WMO weather code into a label and an icon group.
func Describe(code int) (string, string) {
	desc, ok := descriptions[code]
	if !ok {
		desc = "Unknown"
	}

	icon := "rain"
	switch {
	case code < 3:
		icon = "clear"
	case code < 45:
		icon = "clouds"
	}
	return desc, icon
}
