package services

import (
	"regexp"
	"strings"
	"time"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func requiredName(field, value string, max int) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", invalid(field, "is required")
	}
	if len([]rune(value)) > max {
		return "", invalid(field, "is too long")
	}
	return value, nil
}

func validColor(field, value, fallback string) (string, error) {
	if value == "" {
		return fallback, nil
	}
	if !colorPattern.MatchString(value) {
		return "", invalid(field, "must be a #RRGGBB color")
	}
	return strings.ToLower(value), nil
}

func validRange(field string, start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return invalid(field, "must not be before the start date")
	}
	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
