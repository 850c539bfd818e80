package crud

// Error codes for crud operations.
const (
	// CodeInvalidID is returned when an entity identifier is missing or not positive.
	CodeInvalidID = "INVALID_ID"

	// CodeInvalidSearchFilter is returned when search input cannot be
	// compiled into a query predicate.
	CodeInvalidSearchFilter = "INVALID_SEARCH_FILTER"

	// CodeObjectNotFound is the default code for single-result query-builder
	// lookups that match nothing.
	CodeObjectNotFound = "OBJECT_NOT_FOUND"
)
