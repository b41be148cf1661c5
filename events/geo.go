package events

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// TijuanaCenter is used when a hotel is not in the known table.
var TijuanaCenter = Point{Lat: 32.5149, Lon: -117.0382}

var knownHotels = map[string]Point{
	"Grand Hotel Tijuana": {32.5149, -117.0382},
	"Hotel Real del Río":  {32.5283, -117.0187},
	"Hotel Pueblo Amigo":  {32.5208, -117.0278},
	"Hotel Ticuan":        {32.5234, -117.0312},
	"Hotel Lucerna":       {32.5267, -117.0256},
	"Hotel Fiesta Inn":    {32.5212, -117.0298},
	"Hotel Marriott":      {32.5245, -117.0334},
	"Hotel Holiday Inn":   {32.5198, -117.0267},
	"Hotel Best Western":  {32.5221, -117.0289},
	"Hotel Comfort Inn":   {32.5256, -117.0321},
}

const hotelMatchThreshold = 0.85

// HotelCoordinates finds the closest known hotel by Jaro-Winkler similarity
// over accent-folded names. It reports false and TijuanaCenter when nothing
// is similar enough.
func HotelCoordinates(name string) (Point, bool) {
	target := strings.ToLower(NormalizeName(name))
	best, bestScore := Point{}, 0.0
	for known, p := range knownHotels {
		score := matchr.JaroWinkler(target, strings.ToLower(NormalizeName(known)), false)
		if score > bestScore {
			best, bestScore = p, score
		}
	}
	if bestScore < hotelMatchThreshold {
		return TijuanaCenter, false
	}
	return best, true
}

// DistanceKm is the haversine great-circle distance.
func DistanceKm(a, b Point) float64 {
	const earthRadiusKm = 6371.0088
	toRad := func(d float64) float64 { return d * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

var metroAreas = map[string]string{
	"CIUDAD DE MEXICO": "https://www.songkick.com/es/metro-areas/34385-mexico-mexico-city",
	"GUADALAJARA":      "https://www.songkick.com/es/metro-areas/31015-mexico-guadalajara",
	"MONTERREY":        "https://www.songkick.com/es/metro-areas/31051-mexico-monterrey",
	"CANCUN":           "https://www.songkick.com/es/metro-areas/69001-mexico-cancun",
	"TIJUANA":          "https://www.songkick.com/es/metro-areas/31097-mexico-tijuana",
	"ACAPULCO":         "https://www.songkick.com/es/metro-areas/30967-mexico-acapulco",
	"QUERETARO":        "https://www.songkick.com/es/metro-areas/69091-mexico-queretaro",
	"PUEBLA":           "https://www.songkick.com/es/metro-areas/31066-mexico-puebla",
	"SAN LUIS POTOSI":  "https://www.songkick.com/es/metro-areas/69136-mexico-san-luis-potosi",
	"MERIDA":           "https://www.songkick.com/es/metro-areas/31044-mexico-merida",
	"NUEVO LEON":       "https://www.songkick.com/es/metro-areas/171484-mexico-nuevo-leon",
}

// MetroAreaURL returns the listing page for a supported city.
func MetroAreaURL(city string) (string, bool) {
	u, ok := metroAreas[strings.ToUpper(NormalizeName(city))]
	return u, ok
}

// NormalizeName folds accents and collapses whitespace: "Querétaro " → "Queretaro".
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(folded), " ")
}

// ValidateRadius accepts radii between 0.1 and 1000 km.
func ValidateRadius(km float64) error {
	if km < 0.1 || km > 1000 {
		return fmt.Errorf("radius %.2f km outside [0.1, 1000]", km)
	}
	return nil
}
