package geostore

import "math"

const earthRadiusKM = 6371.0088

// HaversineKM returns the great-circle distance between two points in
// kilometers.
func HaversineKM(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}

// toKM converts a value in the given unit to kilometers. Unknown units are
// treated as meters, the store's default unit.
func toKM(v float64, unit string) float64 {
	switch unit {
	case "km":
		return v
	case "mi":
		return v * 1.609344
	case "ft":
		return v * 0.0003048
	default: // "m"
		return v / 1000
	}
}
