package service

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"timetable-service/internal/models"
)

// HH:MM, 24-hour, 00:00 through 23:59.
var timeFormatRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

func ValidTimeFormat(t string) bool {
	return timeFormatRe.MatchString(t)
}

// TimeToMinutes converts an HH:MM string to minutes since midnight.
// Returns -1 for malformed input.
func TimeToMinutes(t string) int {
	if !ValidTimeFormat(t) {
		return -1
	}
	parts := strings.SplitN(t, ":", 2)
	hours, _ := strconv.Atoi(parts[0])
	minutes, _ := strconv.Atoi(parts[1])
	return hours*60 + minutes
}

func validDay(day string) bool {
	for _, d := range models.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// ValidateTimeSlot checks a candidate time slot against the fixed day
// enumeration, positive-period rule and HH:MM time range constraints.
func ValidateTimeSlot(day string, period int, startTime, endTime string) error {
	if day == "" || period == 0 || startTime == "" || endTime == "" {
		return fmt.Errorf("%w: day, period, startTime and endTime are required", ErrInvalidInput)
	}
	if !validDay(day) {
		return fmt.Errorf("%w: invalid day, must be one of: %s", ErrInvalidInput, strings.Join(models.DaysOfWeek, ", "))
	}
	if period < 0 {
		return fmt.Errorf("%w: period must be a positive integer", ErrInvalidInput)
	}
	if !ValidTimeFormat(startTime) {
		return fmt.Errorf("%w: invalid startTime format, use HH:MM (24-hour)", ErrInvalidInput)
	}
	if !ValidTimeFormat(endTime) {
		return fmt.Errorf("%w: invalid endTime format, use HH:MM (24-hour)", ErrInvalidInput)
	}
	if TimeToMinutes(endTime) <= TimeToMinutes(startTime) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidInput)
	}
	return nil
}
