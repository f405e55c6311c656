package llm

import (
	"fmt"
	"strings"

	"tradeops/internal/models"
)

// BuildPrompt renders the analyst prompt for sector, listing each snippet as
// a numbered source.
func BuildPrompt(sector string, snippets []models.Snippet) string {
	var sb strings.Builder

	fmt.Fprintf(&sb,
		"You are an expert market analyst. Produce a structured Markdown report "+
			"about current trade opportunities in the '%s' sector in India. "+
			"Use the following collected information as input and do not hallucinate facts.\n\n",
		sector)

	for i, sn := range snippets {
		fmt.Fprintf(&sb, "Source %d: %s. %s. Link: %s\n\n", i+1, sn.Title, sn.Snippet, sn.Link)
	}

	sb.WriteString("Produce sections: Summary, Key Drivers, Top Opportunities, Risks, " +
		"Suggested Trades (long/short ideas), Data Sources.")

	return sb.String()
}
