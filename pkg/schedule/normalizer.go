// Package schedule normalizes n8n schedule-trigger parameters into canonical
// cron expressions and expands them into concrete occurrences.
package schedule

import (
	"fmt"
	"regexp"
	"strings"
)

// NormalizeResult is the outcome of normalizing one trigger's parameters.
// Errors are informational diagnostics for shapes that could not be
// converted; normalization itself never fails.
type NormalizeResult struct {
	Crons  []string
	Errors []string
}

// shapeKind enumerates the closed set of recognized trigger-rule shapes.
// Detection order is significant: an entry is classified by the first
// detector that matches, so explicit keys win over unit tags.
type shapeKind int

const (
	shapeCronExpression shapeKind = iota
	shapeMinutesKey
	shapeDaysKey
	shapeWeeks
	shapeMonths
	shapeMinutes
	shapeHours
	shapeDays
	shapeDailyAtHour
)

type shapeDetector struct {
	kind    shapeKind
	matches func(e intervalEntry) bool
}

var shapeDetectors = []shapeDetector{
	{shapeCronExpression, func(e intervalEntry) bool {
		return e.discriminator() == "cronExpression" && getString(e.raw, "expression") != ""
	}},
	{shapeMinutesKey, func(e intervalEntry) bool {
		n, ok := getInt(e.raw, "minutesInterval")

		return ok && n > 0
	}},
	{shapeDaysKey, func(e intervalEntry) bool {
		n, ok := getInt(e.raw, "daysInterval")

		return ok && n > 0
	}},
	{shapeWeeks, func(e intervalEntry) bool { return e.discriminator() == "weeks" }},
	{shapeMonths, func(e intervalEntry) bool { return e.discriminator() == "months" }},
	{shapeMinutes, func(e intervalEntry) bool { return e.discriminator() == "minutes" }},
	{shapeHours, func(e intervalEntry) bool { return e.discriminator() == "hours" }},
	{shapeDays, func(e intervalEntry) bool { return e.discriminator() == "days" }},
	{shapeDailyAtHour, func(e intervalEntry) bool {
		_, ok := e.hour()

		return ok
	}},
}

// expressionPrefix strips the "=" escape n8n prepends to literal
// expressions.
var expressionPrefix = regexp.MustCompile(`^=\s*`)

// intervalEntry wraps one interval object together with an optional
// trigger-time override (rule.triggerAt or triggerTimes[0] in legacy
// dialects). The override wins over keys nested in the entry itself.
type intervalEntry struct {
	raw      map[string]any
	override map[string]any
}

// discriminator returns the explicit "field" tag, falling back to the legacy
// "unit" tag.
func (e intervalEntry) discriminator() string {
	if field := getString(e.raw, "field"); field != "" {
		return field
	}

	return getString(e.raw, "unit")
}

func (e intervalEntry) timeValue(flatKey, nestedKey string) (int, bool) {
	if n, ok := getInt(e.override, nestedKey); ok {
		return n, true
	}

	if n, ok := getInt(e.override, flatKey); ok {
		return n, true
	}

	if n, ok := getInt(e.raw, flatKey); ok {
		return n, true
	}

	if n, ok := getInt(getMap(e.raw, "triggerAt"), nestedKey); ok {
		return n, true
	}

	return 0, false
}

func (e intervalEntry) hour() (int, bool) {
	return e.timeValue("triggerAtHour", "hour")
}

func (e intervalEntry) minute() int {
	if n, ok := e.timeValue("triggerAtMinute", "minute"); ok {
		return n
	}

	return 0
}

func (e intervalEntry) hourOrZero() int {
	if n, ok := e.hour(); ok {
		return n
	}

	return 0
}

// intervalValue resolves the numeric recurrence interval from the given keys
// in order, treating zero and negative values as absent.
func (e intervalEntry) intervalValue(keys ...string) (int, bool) {
	for _, key := range keys {
		if n, ok := getInt(e.raw, key); ok && n > 0 {
			return n, true
		}
	}

	return 0, false
}

// weekdays resolves the explicit weekday selection for weekly rules: a
// triggerAtDay list first, then a singular weekday value.
func (e intervalEntry) weekdays() []int {
	if days := intList(getList(e.raw, "triggerAtDay")); len(days) > 0 {
		return days
	}

	if n, ok := getInt(e.raw, "triggerAtDay"); ok {
		return []int{n}
	}

	if n, ok := getInt(e.override, "weekday"); ok {
		return []int{n}
	}

	if n, ok := getInt(e.raw, "weekday"); ok {
		return []int{n}
	}

	return nil
}

// toCron converts a classified entry into a canonical 5-field cron
// expression. The bool result is false for unconvertible entries, never an
// invalid expression.
func (e intervalEntry) toCron() (string, bool) {
	for _, detector := range shapeDetectors {
		if !detector.matches(e) {
			continue
		}

		if cron, ok := e.buildCron(detector.kind); ok {
			return cron, true
		}
	}

	return "", false
}

func (e intervalEntry) buildCron(kind shapeKind) (string, bool) {
	switch kind {
	case shapeCronExpression:
		expr := strings.TrimSpace(getString(e.raw, "expression"))

		return expressionPrefix.ReplaceAllString(expr, ""), true

	case shapeMinutesKey:
		n, _ := getInt(e.raw, "minutesInterval")

		return fmt.Sprintf("*/%d * * * *", n), true

	case shapeDaysKey:
		n, _ := getInt(e.raw, "daysInterval")

		return fmt.Sprintf("%d %d */%d * *", e.minute(), e.hourOrZero(), n), true

	case shapeWeeks:
		if days := e.weekdays(); len(days) > 0 {
			return fmt.Sprintf("%d %d * * %s", e.minute(), e.hourOrZero(), joinInts(days)), true
		}

		if n, ok := e.intervalValue("weeksInterval", "value", "interval"); ok {
			return fmt.Sprintf("%d %d */%d * *", e.minute(), e.hourOrZero(), n), true
		}

		return "", false

	case shapeMonths:
		dayOfMonth, ok := getInt(e.raw, "triggerAtDayOfMonth")
		if !ok {
			dayOfMonth = 1
		}

		n, ok := e.intervalValue("monthsInterval", "value", "interval")
		if !ok {
			n = 1
		}

		return fmt.Sprintf("%d %d %d */%d *", e.minute(), e.hourOrZero(), dayOfMonth, n), true

	case shapeMinutes:
		if n, ok := e.intervalValue("minutesInterval", "interval", "value"); ok {
			return fmt.Sprintf("*/%d * * * *", n), true
		}

		return "", false

	case shapeHours:
		if n, ok := e.intervalValue("hoursInterval", "interval", "value"); ok {
			return fmt.Sprintf("%d */%d * * *", e.minute(), n), true
		}

		return "", false

	case shapeDays:
		if n, ok := e.intervalValue("daysInterval", "value", "interval"); ok {
			return fmt.Sprintf("%d %d */%d * *", e.minute(), e.hourOrZero(), n), true
		}

		return "", false

	case shapeDailyAtHour:
		hour, _ := e.hour()

		return fmt.Sprintf("%d %d * * *", e.minute(), hour), true

	default:
		return "", false
	}
}

// NormalizeRule converts one schedule-trigger parameter map into canonical
// cron expressions. It accepts both the current rule.interval list dialect
// and the legacy parameter conventions of older trigger nodes. Malformed
// shapes degrade to error strings; the function never fails.
func NormalizeRule(parameters map[string]any) NormalizeResult {
	var result NormalizeResult

	rule := getMap(parameters, "rule")
	intervals := getList(rule, "interval")

	if len(intervals) == 0 {
		if crons := legacyCrons(parameters, rule); len(crons) > 0 {
			result.Crons = dedupeStrings(crons)

			return result
		}

		result.Errors = append(result.Errors, "Missing rule.interval")

		return result
	}

	triggerAt := getMap(rule, "triggerAt")

	var crons []string

	for i, raw := range intervals {
		entryMap, ok := raw.(map[string]any)
		if !ok || entryMap == nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Interval %d: invalid", i))

			continue
		}

		entry := intervalEntry{raw: entryMap, override: triggerAt}
		if cron, ok := entry.toCron(); ok {
			crons = append(crons, cron)
		} else {
			result.Errors = append(result.Errors, fmt.Sprintf("Interval %d: unsupported format", i))
		}
	}

	result.Crons = dedupeStrings(crons)

	return result
}

// legacyCrons probes the parameter conventions of older trigger nodes:
// rule-level cron expressions, a rules[] array, a direct interval object
// paired with triggerTimes, bare cronExpression/cron strings, and top-level
// interval/unit pairs.
func legacyCrons(parameters, rule map[string]any) []string {
	var crons []string

	appendCron := func(cron string, ok bool) {
		if ok && cron != "" {
			crons = append(crons, cron)
		}
	}

	if expr := getString(rule, "cronExpression"); expr != "" {
		crons = append(crons, expr)
	}

	if interval := getMap(rule, "interval"); interval != nil {
		entry := intervalEntry{raw: interval, override: getMap(rule, "triggerAt")}
		appendCron(entry.toCron())
	}

	if expr := getString(parameters, "cronExpression"); expr != "" {
		crons = append(crons, expr)
	}

	for _, raw := range getList(parameters, "rules") {
		ruleMap, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		if expr := getString(ruleMap, "cronExpression"); expr != "" {
			crons = append(crons, expr)

			continue
		}

		if interval := getMap(ruleMap, "interval"); interval != nil {
			entry := intervalEntry{raw: interval, override: getMap(ruleMap, "triggerAt")}
			appendCron(entry.toCron())
		}
	}

	triggerTimes := getList(parameters, "triggerTimes")

	var firstTriggerTime map[string]any
	if len(triggerTimes) > 0 {
		firstTriggerTime, _ = triggerTimes[0].(map[string]any)
	}

	if interval := getMap(parameters, "interval"); interval != nil {
		entry := intervalEntry{raw: interval, override: firstTriggerTime}
		appendCron(entry.toCron())
	}

	if expr := getString(parameters, "cron"); expr != "" {
		crons = append(crons, expr)
	}

	// Oldest dialect: interval/unit pair at the top level of the parameters.
	if getString(parameters, "unit") != "" {
		entry := intervalEntry{raw: parameters, override: firstTriggerTime}
		appendCron(entry.toCron())
	}

	return crons
}

func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))

	var out []string

	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
