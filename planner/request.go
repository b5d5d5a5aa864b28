package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/samber/lo"

	"wayfarer/errs"
	"wayfarer/models"
	"wayfarer/prompts"
)

const dateLayout = "2006-01-02"

// Limits bound what a plan request may ask for.
type Limits struct {
	MaxDays   int
	MaxBudget float64
}

func DefaultLimits() Limits {
	return Limits{MaxDays: 30, MaxBudget: 1_000_000}
}

// PlanRequest is the caller's description of the trip to plan.
type PlanRequest struct {
	Destination         string             `json:"destination"`
	Days                int                `json:"days"`
	StartDate           string             `json:"startDate,omitempty"`
	EndDate             string             `json:"endDate,omitempty"`
	Budget              float64            `json:"budget"`
	Preferences         map[string]float64 `json:"preferences,omitempty"`
	SpecialRequirements string             `json:"specialRequirements,omitempty"`
	SessionID           string             `json:"sessionId,omitempty"`
}

func sliderRules() []*validation.KeyRules {
	return lo.Map(prompts.SliderKeys, func(k string, _ int) *validation.KeyRules {
		return validation.Key(k, validation.Min(0.0), validation.Max(100.0)).Optional()
	})
}

func (r PlanRequest) validate(limits Limits) error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Destination, validation.Required, validation.Length(1, 120)),
		validation.Field(&r.Days, validation.Min(1), validation.Max(limits.MaxDays)),
		validation.Field(&r.StartDate, validation.Date(dateLayout)),
		validation.Field(&r.EndDate, validation.Date(dateLayout)),
		validation.Field(&r.Budget, validation.Min(0.0), validation.Max(limits.MaxBudget)),
		validation.Field(&r.Preferences, validation.Map(sliderRules()...)),
		validation.Field(&r.SpecialRequirements, validation.Length(0, 1000)),
	)
}

// Input validates the request and resolves it into the itinerary input
// echoed back on the plan. The day count comes from Days or from the date
// range; when both are given they must agree.
func (r PlanRequest) Input(limits Limits) (models.ItineraryInput, error) {
	r.Destination = strings.TrimSpace(r.Destination)
	r.SpecialRequirements = strings.TrimSpace(r.SpecialRequirements)
	if err := r.validate(limits); err != nil {
		return models.ItineraryInput{}, validationError(err)
	}

	numDays := r.Days
	switch {
	case r.StartDate != "" && r.EndDate != "":
		start, _ := time.Parse(dateLayout, r.StartDate)
		end, _ := time.Parse(dateLayout, r.EndDate)
		if end.Before(start) {
			return models.ItineraryInput{}, fieldError("endDate", "must not be before startDate")
		}
		span := int(end.Sub(start).Hours()/24) + 1
		if span > limits.MaxDays {
			return models.ItineraryInput{}, fieldError("endDate", fmt.Sprintf("trip may span at most %d days", limits.MaxDays))
		}
		if numDays != 0 && numDays != span {
			return models.ItineraryInput{}, fieldError("days", fmt.Sprintf("does not match the %d-day date range", span))
		}
		numDays = span
	case r.EndDate != "":
		return models.ItineraryInput{}, fieldError("startDate", "is required when endDate is given")
	}
	if numDays == 0 {
		return models.ItineraryInput{}, fieldError("days", "provide days or a startDate and endDate")
	}

	return models.ItineraryInput{
		SessionID:           r.SessionID,
		Destination:         r.Destination,
		StartDate:           r.StartDate,
		EndDate:             r.EndDate,
		NumDays:             numDays,
		Budget:              r.Budget,
		Sliders:             r.Preferences,
		SpecialRequirements: r.SpecialRequirements,
	}, nil
}

func fieldError(field, msg string) error {
	return errs.Validation("invalid plan request", map[string]string{field: msg})
}

func validationError(err error) error {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for k, v := range verrs {
			fields[k] = v.Error()
		}
		return errs.Validation("invalid plan request", fields)
	}
	return errs.Validation(err.Error(), nil)
}
