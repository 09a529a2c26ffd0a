package enums

import "fmt"

// PointsDirection marks a loyalty history entry as a gain or a loss.
type PointsDirection string

const (
	PointsDirectionGain PointsDirection = "gain"
	PointsDirectionLoss PointsDirection = "loss"
)

var validPointsDirections = []PointsDirection{
	PointsDirectionGain,
	PointsDirectionLoss,
}

// String implements fmt.Stringer.
func (p PointsDirection) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PointsDirection.
func (p PointsDirection) IsValid() bool {
	for _, candidate := range validPointsDirections {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePointsDirection converts raw input into a PointsDirection.
func ParsePointsDirection(value string) (PointsDirection, error) {
	for _, candidate := range validPointsDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid points direction %q", value)
}
