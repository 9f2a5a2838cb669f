package domain

import "time"

// FilterByTimeRange returns records within the [since, until] date range.
// Both boundaries are inclusive (until covers the entire end-of-day) and
// interpreted in tz. Empty date strings mean no constraint on that
// boundary.
func FilterByTimeRange(records []UsageRecord, since, until string, tz *time.Location) ([]UsageRecord, error) {
	if since == "" && until == "" {
		return records, nil
	}

	var sinceTime, untilTime time.Time
	if since != "" {
		t, err := time.ParseInLocation("2006-01-02", since, tz)
		if err != nil {
			return nil, err
		}
		sinceTime = t
	}
	if until != "" {
		t, err := time.ParseInLocation("2006-01-02", until, tz)
		if err != nil {
			return nil, err
		}
		untilTime = t.Add(24*time.Hour - time.Nanosecond) // end of day
	}

	filtered := make([]UsageRecord, 0, len(records))
	for _, r := range records {
		local := r.Timestamp.In(tz)
		if !sinceTime.IsZero() && local.Before(sinceTime) {
			continue
		}
		if !untilTime.IsZero() && local.After(untilTime) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}
