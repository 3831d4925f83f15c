package discharge

import "time"

// WindowSample is the slice of a discharge row the estimator reads.
type WindowSample struct {
	Timestamp        time.Time
	BatteryPercent   float64
	TotalOutputPower float64
}

// Estimate is the outcome of one rolling-rate computation. A zero rate means
// "insufficient data", not infinite runtime.
type Estimate struct {
	RatePercentPerHour float64
	AvgPowerWatts      float64
	HoursRemaining     float64
	DaysRemaining      float64
}

// EstimateRate computes the discharge rate over a time-ascending window of
// samples. The rate is the percent drop between the first and last sample
// divided by elapsed hours; a window showing a net charge yields zero rather
// than a negative rate. With fewer than two samples the average power falls
// back to the current output reading.
func EstimateRate(window []WindowSample, currentPercent, currentOutput float64) Estimate {
	est := Estimate{AvgPowerWatts: currentOutput}
	if len(window) < 2 {
		return est
	}

	first := window[0]
	last := window[len(window)-1]
	elapsedHours := last.Timestamp.Sub(first.Timestamp).Hours()
	if elapsedHours <= 0 || first.BatteryPercent <= last.BatteryPercent {
		return est
	}

	est.RatePercentPerHour = (first.BatteryPercent - last.BatteryPercent) / elapsedHours

	var sum float64
	for _, s := range window {
		sum += s.TotalOutputPower
	}
	est.AvgPowerWatts = sum / float64(len(window))

	est.HoursRemaining = currentPercent / est.RatePercentPerHour
	est.DaysRemaining = est.HoursRemaining / 24
	return est
}
