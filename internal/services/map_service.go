package services

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"weather-dashboard/internal/models"
)

const (
	BaseLayer        = "base"
	TemperatureLayer = "temperature"

	// MaxTileZoom is the deepest zoom level served by either tile source
	MaxTileZoom = 19

	osmTileTemplate = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	osmAttribution  = "© OpenStreetMap contributors"
	osmSubdomains   = "abc"
	overlayOpacity  = 0.8
	defaultMapZoom  = 3
)

// MapCenter is where the map opens
var MapCenter = models.City{Name: "New York", Lat: 40.7128, Lon: -74.006}

// MapService describes the map page layers and resolves individual tiles
type MapService struct {
	owmTileURL string
	apiKey     string
	proxyPath  string
}

// NewMapService creates a map service. owmTileURL is the OpenWeatherMap tile
// root (e.g. https://tile.openweathermap.org/map) and proxyPath the local
// route prefix that serves tiles, so clients never see the API key.
func NewMapService(owmTileURL, apiKey, proxyPath string) *MapService {
	return &MapService{
		owmTileURL: strings.TrimRight(owmTileURL, "/"),
		apiKey:     apiKey,
		proxyPath:  strings.TrimRight(proxyPath, "/"),
	}
}

// Layers returns the base map and temperature overlay centred on New York
func (s *MapService) Layers(unit models.Unit) models.MapView {
	return models.MapView{
		Center: MapCenter,
		Zoom:   defaultMapZoom,
		Unit:   unit,
		Layers: []models.TileLayer{
			{
				Name:        BaseLayer,
				URLTemplate: osmTileTemplate,
				Attribution: osmAttribution,
				Opacity:     1,
				Subdomains:  osmSubdomains,
			},
			{
				Name:        TemperatureLayer,
				URLTemplate: s.proxyPath + "/" + TemperatureLayer + "/{z}/{x}/{y}",
				Opacity:     overlayOpacity,
			},
		},
		Markers: []models.MapMarker{
			{City: MapCenter, Popup: "New York\nCurrent Temp Layer"},
		},
	}
}

// TileURL resolves one tile of a layer to its upstream URL
func (s *MapService) TileURL(layer string, z, x, y int) (string, error) {
	if z < 0 || z > MaxTileZoom {
		return "", &models.ValidationError{Field: "z", Value: strconv.Itoa(z), Message: fmt.Sprintf("zoom must be between 0 and %d", MaxTileZoom)}
	}
	n := 1 << uint(z)
	if x < 0 || x >= n {
		return "", &models.ValidationError{Field: "x", Value: strconv.Itoa(x), Message: fmt.Sprintf("x must be between 0 and %d at zoom %d", n-1, z)}
	}
	if y < 0 || y >= n {
		return "", &models.ValidationError{Field: "y", Value: strconv.Itoa(y), Message: fmt.Sprintf("y must be between 0 and %d at zoom %d", n-1, z)}
	}

	switch layer {
	case BaseLayer:
		sub := string(osmSubdomains[(x+y)%len(osmSubdomains)])
		return expandTile(osmTileTemplate, sub, z, x, y), nil
	case TemperatureLayer:
		u := fmt.Sprintf("%s/temp_new/%d/%d/%d.png", s.owmTileURL, z, x, y)
		return u + "?" + url.Values{"appid": {s.apiKey}}.Encode(), nil
	default:
		return "", &NotFoundError{Resource: "layer", Name: layer}
	}
}

func expandTile(template, sub string, z, x, y int) string {
	r := strings.NewReplacer(
		"{s}", sub,
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	)
	return r.Replace(template)
}
