package mode

// Mode is the active search mode of a request.
type Mode string

// Search mode constants.
const (
	// Document looks up a single document by id.
	Document Mode = "document"
	// Text runs a ranked full-text search.
	Text Mode = "text"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Document || m == Text
}
