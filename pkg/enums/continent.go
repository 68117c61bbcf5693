package enums

import "fmt"

// Continent maps to the continent enum in Postgres. Values match the
// public-facing registration form.
type Continent string

const (
	ContinentAfrica       Continent = "AFRICA"
	ContinentAsia         Continent = "ASIA"
	ContinentEurope       Continent = "EUROPE"
	ContinentNorthAmerica Continent = "NORTH_AMERICA"
	ContinentSouthAmerica Continent = "SOUTH_AMERICA"
	ContinentOceania      Continent = "OCEANIA"
	ContinentAntarctica   Continent = "ANTARCTICA"
)

var validContinents = []Continent{
	ContinentAfrica,
	ContinentAsia,
	ContinentEurope,
	ContinentNorthAmerica,
	ContinentSouthAmerica,
	ContinentOceania,
	ContinentAntarctica,
}

// Continents returns every continent in a stable order.
func Continents() []Continent {
	out := make([]Continent, len(validContinents))
	copy(out, validContinents)
	return out
}

// IsValid checks whether the given continent matches the canonical enum.
func (c Continent) IsValid() bool {
	for _, candidate := range validContinents {
		if candidate == c {
			return true
		}
	}
	return false
}

// Display returns the human-readable continent name used in notifications.
func (c Continent) Display() string {
	switch c {
	case ContinentNorthAmerica:
		return "North America"
	case ContinentSouthAmerica:
		return "South America"
	case ContinentAfrica:
		return "Africa"
	case ContinentAsia:
		return "Asia"
	case ContinentEurope:
		return "Europe"
	case ContinentOceania:
		return "Oceania"
	case ContinentAntarctica:
		return "Antarctica"
	}
	return string(c)
}

// ParseContinent converts raw strings into Continent.
func ParseContinent(value string) (Continent, error) {
	for _, candidate := range validContinents {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid continent %q", value)
}
