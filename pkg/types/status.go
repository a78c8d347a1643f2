package types

// Status is the top-level "status" field of a Maps web-service response.
type Status string

const (
	StatusOK                    Status = "OK"
	StatusZeroResults           Status = "ZERO_RESULTS"
	StatusNotFound              Status = "NOT_FOUND"
	StatusInvalidRequest        Status = "INVALID_REQUEST"
	StatusMaxElementsExceeded   Status = "MAX_ELEMENTS_EXCEEDED"
	StatusMaxDimensionsExceeded Status = "MAX_DIMENSIONS_EXCEEDED"
	StatusOverQueryLimit        Status = "OVER_QUERY_LIMIT"
	StatusOverDailyLimit        Status = "OVER_DAILY_LIMIT"
	StatusRequestDenied         Status = "REQUEST_DENIED"
	StatusUnknownError          Status = "UNKNOWN_ERROR"
)

// Succeeded reports whether the API answered the query, with or without results.
func (s Status) Succeeded() bool {
	return s == StatusOK || s == StatusZeroResults
}

// Retryable reports whether Google suggests the same request may succeed later.
func (s Status) Retryable() bool {
	return s == StatusUnknownError || s == StatusOverQueryLimit
}
