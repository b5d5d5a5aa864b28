package planner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"wayfarer/models"
	"wayfarer/prompts"
)

// interestLevel buckets a slider value for the prompt.
func interestLevel(v float64) string {
	switch {
	case v < 40:
		return "low"
	case v < 70:
		return "moderate"
	default:
		return "high"
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BuildPrompt renders the user message for a plan request.
func BuildPrompt(in models.ItineraryInput) string {
	parts := []string{
		fmt.Sprintf("Plan a %d-day trip to %s with a budget of %s.", in.NumDays, in.Destination, formatNumber(in.Budget)),
	}

	switch {
	case in.StartDate != "" && in.EndDate != "":
		parts = append(parts, fmt.Sprintf("Travel dates: %s to %s", in.StartDate, in.EndDate))
	case in.StartDate != "":
		parts = append(parts, "Starting date: "+in.StartDate)
	}

	active := lo.Filter(prompts.SliderKeys, func(k string, _ int) bool { return in.Sliders[k] > 0 })
	if len(active) > 0 {
		descriptions := lo.Map(active, func(k string, _ int) string {
			v := in.Sliders[k]
			return fmt.Sprintf("%s: %s interest (%s/100)", k, interestLevel(v), formatNumber(v))
		})
		parts = append(parts, "Preferences: "+strings.Join(descriptions, ", "))
	}

	if in.SpecialRequirements != "" {
		parts = append(parts, "Special requirements: "+in.SpecialRequirements)
	}

	parts = append(parts,
		"\nPlease include:",
		"- Realistic timing and duration for each activity",
		"- Specific location coordinates when possible",
		"- Cost estimates for activities and meals",
		"- Safety considerations where relevant",
		"- Local cultural insights and recommendations",
		"- Mix of popular attractions and hidden gems",
		fmt.Sprintf("- Activities distributed across all %d days", in.NumDays),
		"\nUse Google Search to get current information about opening hours, prices, and availability.",
	)
	return strings.Join(parts, " ")
}
