package analysis

import (
	"fmt"
	"strings"

	"bizinsight/ports"
)

// SystemPrompt sets the assistant role for narrative generation
const SystemPrompt = "You are a business intelligence assistant."

// InsightInput carries the facts the narrative prompt is built from
type InsightInput struct {
	NumericColumn string
	Total         float64
	Average       float64
	// CategoryColumn and TopCategory are set when a category ranking exists
	CategoryColumn string
	TopCategory    string
	// TemporalColumn is set when a time column was found
	TemporalColumn string
}

// BuildPrompt renders the fixed insight template
func BuildPrompt(in InsightInput) string {
	var b strings.Builder
	b.WriteString("You are an expert business analyst. ")
	b.WriteString("Provide a short summary for the uploaded dataset. ")
	fmt.Fprintf(&b, "Key column: `%s`, total: %s, average: %s. ", in.NumericColumn, FormatNumber(in.Total), FormatNumber(in.Average))
	if in.CategoryColumn != "" && in.TopCategory != "" {
		fmt.Fprintf(&b, "Top `%s` by `%s` is `%s`. ", in.CategoryColumn, in.NumericColumn, in.TopCategory)
	}
	if in.TemporalColumn != "" {
		fmt.Fprintf(&b, "There is a time trend for `%s` over `%s`.", in.NumericColumn, in.TemporalColumn)
	}
	return b.String()
}

// BuildMessages wraps a prompt into the two-message exchange sent to the model
func BuildMessages(prompt string) []ports.ChatMessage {
	return []ports.ChatMessage{
		{Role: ports.RoleSystem, Content: SystemPrompt},
		{Role: ports.RoleUser, Content: prompt},
	}
}
