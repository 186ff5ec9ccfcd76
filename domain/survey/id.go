package survey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Identifier types used across the survey export tables
type (
	ParticipantID string
	ThoughtID     string
	QuestionID    string
	RunID         string
)

// NewRunID creates a time-ordered run identifier
func NewRunID() RunID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return RunID(id.String())
}

func (id ParticipantID) String() string { return string(id) }
func (id ThoughtID) String() string     { return string(id) }
func (id QuestionID) String() string    { return string(id) }
func (id RunID) String() string         { return string(id) }

// IsEmpty checks if the ID is empty
func (id ParticipantID) IsEmpty() bool { return id == "" }

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("run ID %q is not a UUID: %w", s, err)
	}
	return RunID(s), nil
}
