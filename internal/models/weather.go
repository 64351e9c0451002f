package models

import (
	"time"
)

// WeatherSample is one 3-hourly forecast data point
type WeatherSample struct {
	Timestamp   time.Time `json:"timestamp"`
	TimeText    string    `json:"dt_txt,omitempty"`
	Temperature float64   `json:"temperature"`
	Humidity    int       `json:"humidity"`
	WeatherType string    `json:"weather_type"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
}

// CurrentConditions is a current-weather card for one city
type CurrentConditions struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	Unit        Unit    `json:"unit"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// DailySummary is the reduction of all samples sharing a weekday bucket
type DailySummary struct {
	Day         string  `json:"day"`
	Temperature float64 `json:"temp"`
	Humidity    int     `json:"humidity"`
	WeatherType string  `json:"type"`
	SampleCount int     `json:"sample_count"`
}

// WeatherTypeDistribution counts daily summaries per dominant weather type
type WeatherTypeDistribution map[string]int

// HumidityReading is one bar of the humidity comparison chart
type HumidityReading struct {
	Name     string `json:"name"`
	Humidity int    `json:"humidity"`
}

// TemperaturePoint is one point of a temperature trend line
type TemperaturePoint struct {
	Label       string  `json:"label"`
	Temperature float64 `json:"temp"`
}

// City is a named location with coordinates
type City struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// CalendarEvent is a weather-related calendar entry
type CalendarEvent struct {
	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day"`
}

// TileLayer describes one map tile layer addressed by zoom/x/y
type TileLayer struct {
	Name        string  `json:"name"`
	URLTemplate string  `json:"url_template"`
	Attribution string  `json:"attribution,omitempty"`
	Opacity     float64 `json:"opacity"`
	Subdomains  string  `json:"subdomains,omitempty"`
}

// MapMarker is a labelled map pin
type MapMarker struct {
	City  City   `json:"city"`
	Popup string `json:"popup"`
}

// MapView is everything the map page needs to render
type MapView struct {
	Center  City        `json:"center"`
	Zoom    int         `json:"zoom"`
	Unit    Unit        `json:"unit"`
	Layers  []TileLayer `json:"layers"`
	Markers []MapMarker `json:"markers"`
}
