package prompt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"hazardwatch/internal/domain"
)

// Sentinel replaces the context section when no fragment qualifies, so the
// model never sees an ambiguous empty block.
const Sentinel = "no specific real-time context was retrieved"

// UserTextQueryBudget caps how much of the raw user text is carried into
// derived queries such as news search.
const UserTextQueryBudget = 200

// System is the fixed instruction block. Only the context and user sections
// of a prompt vary between calls.
const System = `You are a calm, safety-first disaster management assistant for India. ` +
	`You help people understand current hazard conditions (weather, earthquakes, ` +
	`cyclones, floods, heatwaves, landslides) and give practical, actionable safety ` +
	`guidance. Ground your answer in the real-time context when it is provided and ` +
	`say clearly when information is unavailable or uncertain. Never invent ` +
	`measurements or alerts that are not in the context. Keep advice specific, ` +
	`concise, and suitable for someone who may be in danger.`

var sourceLabels = map[domain.Source]string{
	domain.SourceWeather: "Weather",
	domain.SourceSeismic: "Seismic activity",
	domain.SourceEvents:  "Natural events",
	domain.SourceNews:    "News",
}

// Build assembles a PromptRequest from aggregated context and the user's
// request. It is a pure function: identical inputs (including now) yield
// byte-identical prompt text.
func Build(agg domain.AggregatedContext, userText string, maxOutputTokens int, now time.Time) domain.PromptRequest {
	var b strings.Builder

	fmt.Fprintf(&b, "Current time: %s\n", now.UTC().Format(time.RFC3339))
	b.WriteString(locationLine(agg.Location))
	b.WriteString("\nReal-time context:\n")
	b.WriteString(ContextSection(agg))
	b.WriteString("\nUser request: ")
	b.WriteString(strings.TrimSpace(userText))
	b.WriteString("\n")

	return domain.PromptRequest{
		UserText:        userText,
		MaxOutputTokens: maxOutputTokens,
		Context:         agg,
		System:          System,
		Body:            b.String(),
	}
}

// ContextSection renders the qualifying fragments as a bullet list in fixed
// source order, or the sentinel when none qualify.
func ContextSection(agg domain.AggregatedContext) string {
	var b strings.Builder
	for _, source := range domain.SourceOrder {
		frag, ok := agg.Fragment(source)
		if !ok || frag.Status != domain.FragmentOK || strings.TrimSpace(frag.Summary) == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", sourceLabels[source], strings.TrimSpace(frag.Summary))
	}
	if b.Len() == 0 {
		return Sentinel + "\n"
	}
	return b.String()
}

func locationLine(loc domain.LocationContext) string {
	line := fmt.Sprintf("Location Context: %s (%.4f, %.4f)", loc.ResolvedLabel, loc.Latitude, loc.Longitude)
	if loc.ResolutionStatus == domain.ResolutionFailedUsingDefault {
		line += fmt.Sprintf(" [geocoding of %q failed; using default region]", loc.RawInput)
	}
	return line + "\n"
}

// TruncateUserText bounds raw user text before it is embedded in a derived
// query. The budget counts runes, so multi-byte text is never cut mid-rune.
func TruncateUserText(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= UserTextQueryBudget {
		return s
	}
	return string([]rune(s)[:UserTextQueryBudget])
}
