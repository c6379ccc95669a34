package model

import "fmt"

// FormatDistance renders meters as kilometres with two decimals.
func FormatDistance(meters int) string {
	return fmt.Sprintf("%.2f km", float64(meters)/1000)
}

// FormatDuration renders whole hours and remaining minutes.
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%d hours %d mins", seconds/3600, seconds%3600/60)
}

func FormatTrafficDelay(seconds int) string {
	if seconds <= 0 {
		return "No delay"
	}
	return fmt.Sprintf("%d mins", seconds/60)
}

// Emissions estimates kg CO2 for a trip: fuel burned (km / km-per-litre)
// times the emission factor (kg CO2 per litre).
func Emissions(meters int, fuelEfficiency, emissionFactor float64) float64 {
	km := float64(meters) / 1000
	return km / fuelEfficiency * emissionFactor
}

func FormatEmissions(kg float64) string {
	return fmt.Sprintf("%.2f kg CO2", kg)
}
