package models

import (
	"strings"
)

// Unit is the temperature unit shown by the dashboard
type Unit string

const (
	Celsius    Unit = "C"
	Fahrenheit Unit = "F"
)

// Theme is the dashboard colour scheme
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultCity is used until the user saves a city of their own
const DefaultCity = "New York"

// Preferences are the user's persisted dashboard settings
type Preferences struct {
	Unit          Unit   `json:"unit"`
	City          string `json:"city"`
	Theme         Theme  `json:"theme"`
	Notifications bool   `json:"notifications"`
}

// DefaultPreferences returns the first-run settings. Every fallback in the
// application reads from here.
func DefaultPreferences() Preferences {
	return Preferences{
		Unit:          Celsius,
		City:          DefaultCity,
		Theme:         ThemeLight,
		Notifications: true,
	}
}

// ParseUnit accepts "C"/"F" in any case, plus the provider spellings
// "metric" and "imperial".
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "celsius", "metric":
		return Celsius, nil
	case "f", "fahrenheit", "imperial":
		return Fahrenheit, nil
	}
	return "", &ValidationError{
		Field:   "unit",
		Value:   s,
		Message: "invalid unit, expected C or F",
	}
}

// ProviderUnits maps the unit to the OpenWeatherMap units parameter
func (u Unit) ProviderUnits() string {
	if u == Fahrenheit {
		return "imperial"
	}
	return "metric"
}

// Symbol returns the display suffix, e.g. "°C"
func (u Unit) Symbol() string {
	return "°" + string(u)
}

// Toggle returns the other unit
func (u Unit) Toggle() Unit {
	if u == Fahrenheit {
		return Celsius
	}
	return Fahrenheit
}

// ParseTheme validates a theme name
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight:
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	}
	return "", &ValidationError{
		Field:   "theme",
		Value:   s,
		Message: "invalid theme, expected light or dark",
	}
}

// NormalizeCity trims the city name and rejects empty input
func NormalizeCity(s string) (string, error) {
	city := strings.TrimSpace(s)
	if city == "" {
		return "", &ValidationError{
			Field:   "city",
			Value:   s,
			Message: "city must not be empty",
		}
	}
	return city, nil
}

// Validate checks every field and returns the normalized copy
func (p Preferences) Validate() (Preferences, error) {
	unit, err := ParseUnit(string(p.Unit))
	if err != nil {
		return Preferences{}, err
	}
	city, err := NormalizeCity(p.City)
	if err != nil {
		return Preferences{}, err
	}
	theme := p.Theme
	if theme == "" {
		theme = ThemeLight
	}
	theme, err = ParseTheme(string(theme))
	if err != nil {
		return Preferences{}, err
	}
	return Preferences{
		Unit:          unit,
		City:          city,
		Theme:         theme,
		Notifications: p.Notifications,
	}, nil
}

// PreferencesUpdate is a partial settings change. Nil fields keep their
// current value.
type PreferencesUpdate struct {
	Unit          *string `json:"unit"`
	City          *string `json:"city"`
	Theme         *string `json:"theme"`
	Notifications *bool   `json:"notifications"`
}

// Apply overlays the set fields onto p. The result is not validated.
func (u PreferencesUpdate) Apply(p Preferences) Preferences {
	if u.Unit != nil {
		p.Unit = Unit(*u.Unit)
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.Theme != nil {
		p.Theme = Theme(*u.Theme)
	}
	if u.Notifications != nil {
		p.Notifications = *u.Notifications
	}
	return p
}

// ValidationError represents a rejected user input.
// Validation errors are permanent.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
