package models

import "time"

type RecurrenceFrequency string

const (
	RecurrenceDaily   RecurrenceFrequency = "daily"
	RecurrenceWeekly  RecurrenceFrequency = "weekly"
	RecurrenceMonthly RecurrenceFrequency = "monthly"
	RecurrenceYearly  RecurrenceFrequency = "yearly"
)

// Valid reports whether f is a known recurrence frequency.
func (f RecurrenceFrequency) Valid() bool {
	switch f {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// RecurringTaskPattern describes how a task repeats. Only the pattern is
// stored; instances are not generated.
type RecurringTaskPattern struct {
	ID         uint64              `gorm:"primarykey" json:"id"`
	TaskID     uint64              `gorm:"not null;uniqueIndex" json:"task_id"`
	Frequency  RecurrenceFrequency `gorm:"type:varchar(10);not null" json:"frequency"`
	Interval   int                 `gorm:"column:repeat_interval;not null" json:"interval"`
	Monday     bool                `gorm:"not null" json:"monday"`
	Tuesday    bool                `gorm:"not null" json:"tuesday"`
	Wednesday  bool                `gorm:"not null" json:"wednesday"`
	Thursday   bool                `gorm:"not null" json:"thursday"`
	Friday     bool                `gorm:"not null" json:"friday"`
	Saturday   bool                `gorm:"not null" json:"saturday"`
	Sunday     bool                `gorm:"not null" json:"sunday"`
	DayOfMonth *int                `json:"day_of_month"`
	StartDate  time.Time           `gorm:"not null" json:"start_date"`
	EndDate    *time.Time          `json:"end_date"`
}

// Weekdays returns the selected weekdays in calendar order.
func (p RecurringTaskPattern) Weekdays() []time.Weekday {
	flags := []struct {
		on  bool
		day time.Weekday
	}{
		{p.Monday, time.Monday},
		{p.Tuesday, time.Tuesday},
		{p.Wednesday, time.Wednesday},
		{p.Thursday, time.Thursday},
		{p.Friday, time.Friday},
		{p.Saturday, time.Saturday},
		{p.Sunday, time.Sunday},
	}
	var days []time.Weekday
	for _, f := range flags {
		if f.on {
			days = append(days, f.day)
		}
	}
	return days
}
