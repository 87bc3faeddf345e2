package service

import "time"

// dailyRate is the fraction of the vehicle's list price charged per lease day.
const dailyRate = 0.001

// ComputeCost prices a lease term against the vehicle's list price. The term
// is charged in fractional days, so partial days are billed proportionally.
func ComputeCost(price float64, start, end time.Time) float64 {
	days := end.Sub(start).Hours() / 24
	return price * dailyRate * days
}

// ComputeMonthlyPayment spreads the total cost over the number of calendar
// month boundaries the term crosses. A term inside a single calendar month is
// due as one payment.
func ComputeMonthlyPayment(totalCost float64, start, end time.Time) float64 {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if months <= 0 {
		return totalCost
	}
	return totalCost / float64(months)
}
