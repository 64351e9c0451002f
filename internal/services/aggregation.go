package services

import (
	"math"
	"time"

	"weather-dashboard/internal/models"
)

// MaxSummaryDays bounds the number of daily summaries an aggregation returns
const MaxSummaryDays = 7

// Aggregation is the result of reducing a forecast to daily summaries
type Aggregation struct {
	Summaries    []models.DailySummary          `json:"summaries"`
	Distribution models.WeatherTypeDistribution `json:"distribution"`
}

type dayBucket struct {
	key     string
	samples []models.WeatherSample
}

// Aggregate groups samples by the short weekday name of their timestamp in
// loc, keeps the first MaxSummaryDays buckets in first-occurrence order and
// reduces each to a DailySummary. Input order is never changed: callers that
// want chronological output must sort first. A nil loc means time.Local.
func Aggregate(samples []models.WeatherSample, loc *time.Location) Aggregation {
	if loc == nil {
		loc = time.Local
	}

	var buckets []*dayBucket
	index := make(map[string]*dayBucket)
	for _, s := range samples {
		key := s.Timestamp.In(loc).Format("Mon")
		b, ok := index[key]
		if !ok {
			b = &dayBucket{key: key}
			index[key] = b
			buckets = append(buckets, b)
		}
		b.samples = append(b.samples, s)
	}

	if len(buckets) > MaxSummaryDays {
		buckets = buckets[:MaxSummaryDays]
	}

	result := Aggregation{
		Summaries:    make([]models.DailySummary, 0, len(buckets)),
		Distribution: make(models.WeatherTypeDistribution),
	}
	for _, b := range buckets {
		summary := summarize(b)
		result.Summaries = append(result.Summaries, summary)
		result.Distribution[summary.WeatherType]++
	}

	return result
}

func summarize(b *dayBucket) models.DailySummary {
	n := len(b.samples)
	if n == 0 {
		return models.DailySummary{Day: b.key}
	}

	var tempSum float64
	var humiditySum int
	types := make([]string, 0, n)
	for _, s := range b.samples {
		tempSum += s.Temperature
		humiditySum += s.Humidity
		types = append(types, s.WeatherType)
	}

	return models.DailySummary{
		Day:         b.key,
		Temperature: roundTo(tempSum/float64(n), 1),
		Humidity:    int(math.Round(float64(humiditySum) / float64(n))),
		WeatherType: DominantType(types),
		SampleCount: n,
	}
}

// DominantType returns the most frequent label. Ties go to the label whose
// first occurrence comes earliest. Empty input yields "".
func DominantType(labels []string) string {
	counts := make(map[string]int, len(labels))
	order := make([]string, 0, len(labels))
	for _, l := range labels {
		if counts[l] == 0 {
			order = append(order, l)
		}
		counts[l]++
	}

	best := ""
	bestCount := 0
	for _, l := range order {
		if counts[l] > bestCount {
			best, bestCount = l, counts[l]
		}
	}
	return best
}

// HumiditySnapshot returns the "Today"/"Yesterday" humidity bars taken from
// the first two summaries. Missing summaries report 0.
func HumiditySnapshot(summaries []models.DailySummary) []models.HumidityReading {
	readings := []models.HumidityReading{
		{Name: "Today"},
		{Name: "Yesterday"},
	}
	for i := range readings {
		if i < len(summaries) {
			readings[i].Humidity = summaries[i].Humidity
		}
	}
	return readings
}

// TemperatureTrend projects summaries onto day/temperature points
func TemperatureTrend(summaries []models.DailySummary) []models.TemperaturePoint {
	points := make([]models.TemperaturePoint, 0, len(summaries))
	for _, s := range summaries {
		points = append(points, models.TemperaturePoint{Label: s.Day, Temperature: s.Temperature})
	}
	return points
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
