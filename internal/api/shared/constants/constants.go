package constants

import "time"

const (
	// DEFAULT_INACTIVE_FOR is the inactivity threshold of the abandoned buckets query
	DEFAULT_INACTIVE_FOR = 30 * 24 * time.Hour
	// MIN_INACTIVE_FOR rejects thresholds that would flag every bucket
	MIN_INACTIVE_FOR = time.Hour
	// TIME_FORMAT is the accepted format of from/to query parameters
	TIME_FORMAT = time.RFC3339
	// DATE_FORMAT is accepted as well, meaning midnight UTC
	DATE_FORMAT = "2006-01-02"
)
