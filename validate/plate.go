package validate

import (
	"regexp"
	"strings"
)

var (
	plateSeparators = regexp.MustCompile(`[-_\s]`)
	platePattern    = regexp.MustCompile(`^[A-Z0-9]{1,12}$`)
)

// NormalizePlate strips dashes, underscores and whitespace and upper-cases the result
func NormalizePlate(plate string) string {
	return strings.ToUpper(plateSeparators.ReplaceAllString(plate, ""))
}

// IsValidPlate reports whether a normalised plate has the accepted shape
func IsValidPlate(plate string) bool {
	return platePattern.MatchString(plate)
}

// LicensePlate normalises plate and rejects it when the result is not 1-12
// letters or digits
func LicensePlate(plate string) (string, error) {
	normalized := NormalizePlate(plate)
	if !IsValidPlate(normalized) {
		return "", &ValidationError{
			Field:  "license plate",
			Value:  plate,
			Reason: "must contain 1 to 12 letters or digits",
		}
	}
	return normalized, nil
}
