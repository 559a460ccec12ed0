package common

import (
	"math"
)

// Earth's radius in kilometers
const earthRadiusKm float64 = 6371.0

// HaversineKm returns the great circle distance, in kilometers, between two
// points on the earth specified as (latitude, longitude) pairs in decimal
// degrees.
func HaversineKm(lat1 float64, lon1 float64, lat2 float64, lon2 float64) float64 {

	rlat1 := lat1 * math.Pi / 180.0
	rlon1 := lon1 * math.Pi / 180.0
	rlat2 := lat2 * math.Pi / 180.0
	rlon2 := lon2 * math.Pi / 180.0

	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1

	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(rlat1)*math.Cos(rlat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
