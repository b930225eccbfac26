package quality

import (
	"fmt"

	"github.com/neexbeast/golden-hour/internal/fault"
)

// Level is the four-step afterglow quality scale.
type Level int

const (
	Poor Level = iota
	Moderate
	Good
	Excellent
)

var levelNames = map[Level]string{
	Poor:      "Poor",
	Moderate:  "Moderate",
	Good:      "Good",
	Excellent: "Excellent",
}

var levelDescriptions = map[Level]string{
	Excellent: "Perfect conditions for vibrant afterglow",
	Good:      "Good conditions for afterglow",
	Moderate:  "Moderate conditions for afterglow",
	Poor:      "Poor conditions for afterglow",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Description is the fixed sentence shown for a final quality level.
func (l Level) Description() string {
	return levelDescriptions[l]
}

func (l Level) MarshalText() ([]byte, error) {
	if _, ok := levelNames[l]; !ok {
		return nil, fmt.Errorf("marshaling quality level %d: %w", int(l), fault.ErrInvalidArgument)
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	for lvl, name := range levelNames {
		if name == string(b) {
			*l = lvl
			return nil
		}
	}
	return fmt.Errorf("unknown quality level %q: %w", string(b), fault.ErrInvalidArgument)
}
