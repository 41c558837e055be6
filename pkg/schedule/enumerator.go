package schedule

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// OccurrencesInRange enumerates the concrete instants at which cronExpr fires
// within (start, end], in strictly increasing order, capped at maxCount. When
// loc is non-nil the expression is evaluated in that time zone; otherwise the
// instants keep the zone of start.
//
// A malformed expression yields an empty sequence: one bad trigger must not
// abort aggregation across a whole instance.
func OccurrencesInRange(cronExpr string, start, end time.Time, loc *time.Location, maxCount int, logger *slog.Logger) []time.Time {
	spec, err := cron.ParseStandard(cronExpr)
	if err != nil {
		logger.Warn("Skipping unparseable cron expression", "cron", cronExpr, "error", err)

		return nil
	}

	cursor := start
	if loc != nil {
		cursor = cursor.In(loc)
	}

	var occurrences []time.Time

	for {
		next := spec.Next(cursor)
		if next.IsZero() || next.After(end) {
			break
		}

		occurrences = append(occurrences, next)
		if maxCount > 0 && len(occurrences) >= maxCount {
			break
		}

		cursor = next
	}

	return occurrences
}
