package handlers

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
)

type object = map[string]interface{}

func queryParam(name, description string, schema object) object {
	return object{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    false,
		"schema":      schema,
	}
}

func pathParam(name, description string) object {
	return object{
		"name":        name,
		"in":          "path",
		"description": description,
		"required":    true,
		"schema":      object{"type": "string"},
	}
}

func jsonBody(properties object) object {
	return object{
		"required": true,
		"content": object{
			"application/json": object{
				"schema": object{"type": "object", "properties": properties},
			},
		},
	}
}

func jsonOK(description string) object {
	return object{
		"200": object{
			"description": description,
			"content":     object{"application/json": object{"schema": object{"type": "object"}}},
		},
		"400": object{"description": "Invalid input", "content": object{"application/json": object{"schema": object{"$ref": "#/components/schemas/ErrorResponse"}}}},
	}
}

func operation(summary, description string, params []object, responses object) object {
	op := object{
		"summary":     summary,
		"description": description,
		"responses":   responses,
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return op
}

var (
	unitSchema = object{"type": "string", "enum": []string{"C", "F"}}
	unitQuery  = queryParam("unit", "Temperature unit, defaults to the saved preference", unitSchema)
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Weather Dashboard API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	settingsOK := jsonOK("Current preferences and recent cities")

	spec := object{
		"openapi": "3.0.0",
		"info": object{
			"title":       "Weather Dashboard API",
			"description": "Forecast overview, statistics, map layers, calendar and persisted dashboard settings backed by OpenWeatherMap",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Weather Dashboard Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": object{
			"/api/overview": object{
				"get": operation("City overview", "Current conditions for the configured cities. Cities the provider cannot answer for are left out.",
					[]object{queryParam("q", "Case-insensitive city name filter", object{"type": "string"}), unitQuery},
					jsonOK("Overview cards")),
			},
			"/api/cities": object{
				"get": operation("Cities", "Cities shown on the overview and the statistics catalog with coordinates.", nil, jsonOK("City lists")),
			},
			"/api/forecast/strip": object{
				"get": operation("Forecast strip", "First 12 three-hourly samples for a city. Empty when the provider fails.",
					[]object{queryParam("city", "City name (default Abuja)", object{"type": "string"}), unitQuery},
					jsonOK("Forecast samples")),
			},
			"/api/forecast/graph": object{
				"get": operation("Forecast graph", "First 10 samples as time label and temperature points.",
					[]object{queryParam("city", "City name (default Abia)", object{"type": "string"}), unitQuery},
					jsonOK("Graph points")),
			},
			"/api/statistics": object{
				"get": operation("City statistics", "Daily summaries, temperature trend, humidity comparison and weather type distribution.",
					[]object{queryParam("city", "Lagos, London or New York", object{"type": "string"}), unitQuery},
					withNotFound(jsonOK("Statistics report"))),
			},
			"/api/map/layers": object{
				"get": operation("Map layers", "Base map and temperature overlay definitions.",
					[]object{unitQuery}, jsonOK("Map view")),
			},
			"/api/map/tiles/{layer}/{z}/{x}/{y}": object{
				"get": operation("Map tile", "Redirects to the upstream tile.",
					[]object{pathParam("layer", "base or temperature"), pathParam("z", "Zoom 0-19"), pathParam("x", "Tile column"), pathParam("y", "Tile row")},
					withNotFound(object{"302": object{"description": "Redirect to the tile image"}})),
			},
			"/api/calendar": object{
				"get": operation("Calendar events", "Weather events overlapping the range.",
					[]object{
						queryParam("start", "Range start (YYYY-MM-DD), default today", object{"type": "string", "format": "date"}),
						queryParam("end", "Range end (YYYY-MM-DD), default one month after start", object{"type": "string", "format": "date"}),
					},
					jsonOK("Events")),
			},
			"/api/settings": object{
				"get": operation("Get settings", "Saved preferences and recent cities.", nil, settingsOK),
				"put": mergeObject(operation("Save settings", "Validates and stores the given preferences. Omitted fields keep their current value.", nil, settingsOK), object{
					"requestBody": jsonBody(object{
						"unit":          unitSchema,
						"city":          object{"type": "string"},
						"theme":         object{"type": "string", "enum": []string{"light", "dark"}},
						"notifications": object{"type": "boolean"},
					}),
				}),
			},
			"/api/settings/unit": object{
				"put": mergeObject(operation("Set unit", "Stores the temperature unit.", nil, settingsOK), object{
					"requestBody": jsonBody(object{"unit": unitSchema}),
				}),
			},
			"/api/settings/unit/toggle": object{
				"post": operation("Toggle unit", "Switches between Celsius and Fahrenheit.", nil, settingsOK),
			},
			"/api/settings/city": object{
				"put": mergeObject(operation("Set city", "Stores the city and records it in the recent cities list.", nil, settingsOK), object{
					"requestBody": jsonBody(object{"city": object{"type": "string"}}),
				}),
			},
			"/api/settings/theme": object{
				"put": mergeObject(operation("Set theme", "Stores the colour scheme.", nil, settingsOK), object{
					"requestBody": jsonBody(object{"theme": object{"type": "string", "enum": []string{"light", "dark"}}}),
				}),
			},
			"/api/settings/notifications": object{
				"put": mergeObject(operation("Set notifications", "Turns notifications on or off.", nil, settingsOK), object{
					"requestBody": jsonBody(object{"enabled": object{"type": "boolean"}}),
				}),
			},
			"/api/settings/reset": object{
				"post": operation("Reset settings", "Restores defaults and clears recent cities.", nil, settingsOK),
			},
			"/api/settings/recent-cities": object{
				"get": operation("Recent cities", "Most recently saved cities, newest first, at most 3.", nil, jsonOK("Recent cities")),
			},
			"/api/live": object{
				"get": operation("Live channel", "Websocket. Send {\"action\":\"select\",\"view\":\"strip|graph|statistics\",\"city\":\"...\"}; receives forecast_strip, forecast_graph, statistics and preferences messages. Only the latest selection per view is answered.",
					nil, object{"101": object{"description": "Switching protocols"}}),
			},
			"/health": object{
				"get": operation("Health check", "Reports degraded when preference storage is unreachable", nil, jsonOK("API is up")),
			},
			"/metrics": object{
				"get": object{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": object{
						"200": object{
							"description": "Prometheus metrics in text format",
							"content": object{
								"text/plain": object{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
		"components": object{
			"schemas": object{
				"ErrorResponse": object{
					"type": "object",
					"properties": object{
						"error":   map[string]string{"type": "string"},
						"message": map[string]string{"type": "string"},
						"code":    map[string]string{"type": "integer"},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}

func withNotFound(responses object) object {
	responses["404"] = object{"description": "Unknown city or layer", "content": object{"application/json": object{"schema": object{"$ref": "#/components/schemas/ErrorResponse"}}}}
	return responses
}

func mergeObject(dst, src object) object {
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// OpenAPIPath serves the OpenAPI document
const OpenAPIPath = "/api/docs/openapi.json"

var swaggerTemplate = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Weather Dashboard API Documentation</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui.css">
    <style>
        body { margin:0; padding:0; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "` + OpenAPIPath + `",
                dom_id: '#swagger-ui',
                deepLinking: true
            });
        };
    </script>
</body>
</html>`))

// SwaggerUI serves the Swagger UI HTML page
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	swaggerTemplate.Execute(w, nil)
}

// RegisterDocsRoutes registers the API documentation routes
func RegisterDocsRoutes(router *mux.Router) {
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc(OpenAPIPath, OpenAPISpec).Methods("GET")
}
