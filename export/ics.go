package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"wayfarer/models"
)

var ErrNoStartDate = errors.New("itinerary has no start date")

const (
	dayStartHour = 9
	// floating local time: the calendar shows it in the traveller's zone
	floatingLayout = "20060102T150405"
)

func activityLocation(a models.Activity) string {
	if a.PoiSnapshot == nil {
		return ""
	}
	if a.PoiSnapshot.Address != "" {
		return a.PoiSnapshot.Name + " - " + a.PoiSnapshot.Address
	}
	return a.PoiSnapshot.Name
}

// ICS lays each day's activities end to end from 09:00 on
// startDate + dayIndex - 1, one event per activity.
func ICS(it *models.Itinerary, link string, now time.Time) (string, error) {
	if it.Input.StartDate == "" {
		return "", ErrNoStartDate
	}
	start, err := time.Parse("2006-01-02", it.Input.StartDate)
	if err != nil {
		return "", fmt.Errorf("parse start date: %w", err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//wayfarer//itinerary//EN")
	cal.SetName(it.Title)

	for _, day := range it.Days {
		offset := day.DayIndex - 1
		if offset < 0 {
			offset = 0
		}
		cursor := start.AddDate(0, 0, offset).Add(dayStartHour * time.Hour)
		for i, a := range day.Activities {
			dur := time.Duration(a.DurationMins) * time.Minute
			if dur <= 0 {
				dur = 30 * time.Minute
			}
			end := cursor.Add(dur)

			event := cal.AddEvent(fmt.Sprintf("%s-d%d-a%d@wayfarer", it.ItineraryID, day.DayIndex, i+1))
			event.SetDtStampTime(now)
			event.SetProperty(ics.ComponentPropertyDtStart, cursor.Format(floatingLayout))
			event.SetProperty(ics.ComponentPropertyDtEnd, end.Format(floatingLayout))
			event.SetSummary(a.Title)
			if loc := activityLocation(a); loc != "" {
				event.SetLocation(loc)
			}
			if desc := description(a); desc != "" {
				event.SetDescription(desc)
			}
			if link != "" {
				event.SetURL(link)
			}
			cursor = end
		}
	}
	return cal.Serialize(), nil
}

func description(a models.Activity) string {
	var parts []string
	if a.Description != "" {
		parts = append(parts, a.Description)
	}
	if a.SafetyNote != "" {
		parts = append(parts, "Safety: "+a.SafetyNote)
	}
	if a.BookingRequired != nil && *a.BookingRequired {
		parts = append(parts, "Booking required")
	}
	return strings.Join(parts, "\n")
}
