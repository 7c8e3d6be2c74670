package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/London")
	if err != nil {
		panic(err)
	}
}

// force the timezone to be UK time regardless of where the server
// is deployed, the NHS datasets and feed date bucketing are all
// interpreted in UK local time
func Now() time.Time {
	return time.Now().In(Location)
}

// StartOfDay truncates t to midnight in the UK timezone.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}
