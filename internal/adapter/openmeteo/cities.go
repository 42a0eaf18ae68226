package openmeteo

import (
	"fmt"
	"strings"
)

// City is a fetch target with the coordinates Open-Meteo resolves data for.
type City struct {
	Name string
	Lat  float64
	Lon  float64
}

// DefaultCities is the set of major Polish cities the dashboard tracks.
var DefaultCities = []City{
	{"Warszawa", 52.23, 21.01},
	{"Kraków", 50.06, 19.94},
	{"Łódź", 51.75, 19.46},
	{"Wrocław", 51.11, 17.03},
	{"Poznań", 52.41, 16.92},
	{"Gdańsk", 54.35, 18.65},
	{"Szczecin", 53.43, 14.55},
	{"Bydgoszcz", 53.12, 18.00},
	{"Lublin", 51.25, 22.57},
	{"Białystok", 53.13, 23.16},
	{"Katowice", 50.26, 19.02},
	{"Gdynia", 54.52, 18.53},
	{"Częstochowa", 50.81, 19.12},
	{"Radom", 51.40, 21.15},
	{"Toruń", 53.01, 18.60},
	{"Sosnowiec", 50.28, 19.10},
	{"Kielce", 50.87, 20.63},
	{"Rzeszów", 50.04, 21.99},
	{"Gliwice", 50.29, 18.67},
	{"Zabrze", 50.32, 18.79},
}

// CitiesByName resolves a list of city names against DefaultCities. An empty
// list selects every default city.
func CitiesByName(names []string) ([]City, error) {
	if len(names) == 0 {
		return DefaultCities, nil
	}
	byName := make(map[string]City, len(DefaultCities))
	for _, c := range DefaultCities {
		byName[strings.ToLower(c.Name)] = c
	}
	out := make([]City, 0, len(names))
	for _, name := range names {
		c, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown city %q", name)
		}
		out = append(out, c)
	}
	return out, nil
}
