package services

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"weather-dashboard/internal/models"
)

// 2024-01-01 is a Monday
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func sampleAt(dayOffset, hour int, temp float64, humidity int, typ string) models.WeatherSample {
	return models.WeatherSample{
		Timestamp:   monday.AddDate(0, 0, dayOffset).Add(time.Duration(hour) * time.Hour),
		Temperature: temp,
		Humidity:    humidity,
		WeatherType: typ,
	}
}

func TestAggregate_Scenario(t *testing.T) {
	samples := []models.WeatherSample{
		sampleAt(0, 0, 20, 50, "Rain"),
		sampleAt(0, 3, 24, 60, "Rain"),
		sampleAt(1, 0, 18, 40, "Clear"),
	}

	got := Aggregate(samples, time.UTC)

	want := []models.DailySummary{
		{Day: "Mon", Temperature: 22.0, Humidity: 55, WeatherType: "Rain", SampleCount: 2},
		{Day: "Tue", Temperature: 18.0, Humidity: 40, WeatherType: "Clear", SampleCount: 1},
	}
	if !reflect.DeepEqual(got.Summaries, want) {
		t.Errorf("Summaries = %+v, want %+v", got.Summaries, want)
	}

	wantDist := models.WeatherTypeDistribution{"Rain": 1, "Clear": 1}
	if !reflect.DeepEqual(got.Distribution, wantDist) {
		t.Errorf("Distribution = %v, want %v", got.Distribution, wantDist)
	}
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil, time.UTC)
	if len(got.Summaries) != 0 {
		t.Errorf("expected no summaries, got %d", len(got.Summaries))
	}
	if got.Distribution == nil || len(got.Distribution) != 0 {
		t.Errorf("expected empty non-nil distribution, got %v", got.Distribution)
	}
}

func TestAggregate_Rounding(t *testing.T) {
	samples := []models.WeatherSample{
		sampleAt(0, 0, 20.0, 50, "Clouds"),
		sampleAt(0, 3, 20.1, 51, "Clouds"),
		sampleAt(0, 6, 20.47, 51, "Clouds"),
	}
	got := Aggregate(samples, time.UTC).Summaries[0]

	// mean 20.19 → 20.2, humidity 50.67 → 51
	if got.Temperature != 20.2 {
		t.Errorf("Temperature = %v, want 20.2", got.Temperature)
	}
	if got.Humidity != 51 {
		t.Errorf("Humidity = %d, want 51", got.Humidity)
	}

	half := Aggregate([]models.WeatherSample{
		sampleAt(0, 0, 10, 50, "Rain"),
		sampleAt(0, 3, 10, 51, "Rain"),
	}, time.UTC).Summaries[0]
	if half.Humidity != 51 {
		t.Errorf("half humidity should round up, got %d", half.Humidity)
	}
}

func TestAggregate_FirstOccurrenceOrder(t *testing.T) {
	// Wednesday arrives before Monday; buckets must keep that order
	samples := []models.WeatherSample{
		sampleAt(2, 0, 10, 10, "Snow"),
		sampleAt(0, 0, 20, 20, "Clear"),
		sampleAt(2, 3, 12, 12, "Snow"),
	}
	got := Aggregate(samples, time.UTC).Summaries
	if len(got) != 2 || got[0].Day != "Wed" || got[1].Day != "Mon" {
		t.Fatalf("unexpected bucket order: %+v", got)
	}
	if got[0].Temperature != 11 {
		t.Errorf("Wed temperature = %v, want 11", got[0].Temperature)
	}
}

func TestAggregate_TruncatesToSevenDays(t *testing.T) {
	var samples []models.WeatherSample
	// 10 consecutive days: Mon..Sun, then Mon, Tue, Wed again
	for d := 0; d < 10; d++ {
		samples = append(samples, sampleAt(d, 12, float64(d), 50, "Clear"))
	}
	got := Aggregate(samples, time.UTC)
	if len(got.Summaries) != MaxSummaryDays {
		t.Fatalf("expected %d summaries, got %d", MaxSummaryDays, len(got.Summaries))
	}
	// Mon bucket holds day 0 and day 7
	if got.Summaries[0].Day != "Mon" || got.Summaries[0].SampleCount != 2 {
		t.Errorf("Mon bucket = %+v, want 2 samples", got.Summaries[0])
	}
	if got.Distribution["Clear"] != MaxSummaryDays {
		t.Errorf("Distribution = %v", got.Distribution)
	}
}

func TestAggregate_UsesLocation(t *testing.T) {
	// 2024-01-01 23:00 UTC is already Tuesday in Lagos (UTC+1)
	lagos := time.FixedZone("WAT", 3600)
	s := models.WeatherSample{
		Timestamp:   time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
		Temperature: 30,
		Humidity:    80,
		WeatherType: "Clouds",
	}
	if got := Aggregate([]models.WeatherSample{s}, lagos).Summaries[0].Day; got != "Tue" {
		t.Errorf("Day = %q, want Tue", got)
	}
	if got := Aggregate([]models.WeatherSample{s}, time.UTC).Summaries[0].Day; got != "Mon" {
		t.Errorf("Day = %q, want Mon", got)
	}
}

func TestDominantType(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   string
	}{
		{name: "empty", labels: nil, want: ""},
		{name: "single", labels: []string{"Rain"}, want: "Rain"},
		{name: "clear majority", labels: []string{"Rain", "Clear", "Clear"}, want: "Clear"},
		{name: "tie goes to first seen", labels: []string{"Clouds", "Rain", "Rain", "Clouds"}, want: "Clouds"},
		{name: "tie first seen later label", labels: []string{"Snow", "Rain", "Clouds", "Rain", "Snow"}, want: "Snow"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DominantType(tt.labels); got != tt.want {
				t.Errorf("DominantType(%v) = %q, want %q", tt.labels, got, tt.want)
			}
		})
	}
}

func TestHumiditySnapshot(t *testing.T) {
	tests := []struct {
		name      string
		summaries []models.DailySummary
		want      []models.HumidityReading
	}{
		{
			name:      "none",
			summaries: nil,
			want:      []models.HumidityReading{{Name: "Today"}, {Name: "Yesterday"}},
		},
		{
			name:      "one",
			summaries: []models.DailySummary{{Humidity: 70}},
			want:      []models.HumidityReading{{Name: "Today", Humidity: 70}, {Name: "Yesterday"}},
		},
		{
			name:      "three",
			summaries: []models.DailySummary{{Humidity: 70}, {Humidity: 65}, {Humidity: 10}},
			want:      []models.HumidityReading{{Name: "Today", Humidity: 70}, {Name: "Yesterday", Humidity: 65}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HumiditySnapshot(tt.summaries); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HumiditySnapshot() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestAggregate_Properties checks the aggregation invariants over random input
func TestAggregate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	types := []string{"Rain", "Clear", "Clouds", "Snow"}

	for iter := 0; iter < 200; iter++ {
		n := 1 + rng.Intn(60)
		samples := make([]models.WeatherSample, 0, n)
		for i := 0; i < n; i++ {
			samples = append(samples, sampleAt(
				rng.Intn(14),
				rng.Intn(24),
				-20+rng.Float64()*60,
				rng.Intn(101),
				types[rng.Intn(len(types))],
			))
		}

		agg := Aggregate(samples, time.UTC)

		var firstKeys []string
		seen := map[string]bool{}
		byKey := map[string][]models.WeatherSample{}
		for _, s := range samples {
			k := s.Timestamp.Format("Mon")
			if !seen[k] {
				seen[k] = true
				firstKeys = append(firstKeys, k)
			}
			byKey[k] = append(byKey[k], s)
		}
		if len(firstKeys) > MaxSummaryDays {
			firstKeys = firstKeys[:MaxSummaryDays]
		}

		if len(agg.Summaries) > MaxSummaryDays || len(agg.Summaries) != len(firstKeys) {
			t.Fatalf("iter %d: %d summaries for %d buckets", iter, len(agg.Summaries), len(firstKeys))
		}

		distTotal := 0
		for _, c := range agg.Distribution {
			distTotal += c
		}
		if distTotal != len(agg.Summaries) {
			t.Fatalf("iter %d: distribution total %d != %d summaries", iter, distTotal, len(agg.Summaries))
		}

		for i, s := range agg.Summaries {
			if s.Day != firstKeys[i] {
				t.Fatalf("iter %d: summary %d day %q, want %q", iter, i, s.Day, firstKeys[i])
			}
			bucket := byKey[s.Day]
			minT, maxT := bucket[0].Temperature, bucket[0].Temperature
			minH, maxH := bucket[0].Humidity, bucket[0].Humidity
			present := false
			for _, b := range bucket {
				if b.Temperature < minT {
					minT = b.Temperature
				}
				if b.Temperature > maxT {
					maxT = b.Temperature
				}
				if b.Humidity < minH {
					minH = b.Humidity
				}
				if b.Humidity > maxH {
					maxH = b.Humidity
				}
				if b.WeatherType == s.WeatherType {
					present = true
				}
			}
			// rounding to one decimal may step at most 0.05 outside the raw range
			if s.Temperature < minT-0.05 || s.Temperature > maxT+0.05 {
				t.Fatalf("iter %d: temp %v outside [%v, %v]", iter, s.Temperature, minT, maxT)
			}
			if s.Humidity < minH || s.Humidity > maxH {
				t.Fatalf("iter %d: humidity %d outside [%d, %d]", iter, s.Humidity, minH, maxH)
			}
			if !present {
				t.Fatalf("iter %d: dominant type %q not in bucket", iter, s.WeatherType)
			}
		}
	}
}
