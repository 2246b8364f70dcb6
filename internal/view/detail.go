package view

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/pep299/idea-validator/internal/model"
)

// NotFoundMessage is rendered when a detail lookup comes back absent.
const NotFoundMessage = "Cluster not found"

// DetailView renders a single cluster and its idea cards. A nil cluster
// renders the not-found state.
func (p *Printer) DetailView(cluster *model.Cluster) error {
	if cluster == nil {
		_, err := fmt.Fprintln(p.out, NotFoundMessage)
		return err
	}

	if err := p.printf([]color.Attribute{color.Bold}, "%s\n", cluster.Name); err != nil {
		return err
	}
	if cluster.Description != "" {
		if _, err := fmt.Fprintf(p.out, "%s\n", cluster.Description); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(p.out); err != nil {
		return err
	}

	if err := p.printf([]color.Attribute{color.FgMagenta, color.Bold}, "Validation Score  %d/100\n", Round(cluster.TotalValidationScore)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(p.out, "Frequency         %d\n\n", Round(cluster.FrequencyScore)); err != nil {
		return err
	}

	if err := p.printf([]color.Attribute{color.FgGreen, color.Bold}, "Generated Solutions\n"); err != nil {
		return err
	}
	if len(cluster.GeneratedIdeas) == 0 {
		_, err := fmt.Fprintln(p.out, "No ideas generated yet")
		return err
	}
	for i, idea := range cluster.GeneratedIdeas {
		if err := p.ideaCard(i+1, idea); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) ideaCard(number int, idea model.Idea) error {
	if _, err := fmt.Fprintln(p.out); err != nil {
		return err
	}
	if err := p.printf([]color.Attribute{color.FgMagenta}, "[%s]", idea.SolutionType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(p.out, "  MVP Idea #%d\n", number); err != nil {
		return err
	}
	if err := p.printf([]color.Attribute{color.Bold}, "%s\n", idea.Title); err != nil {
		return err
	}
	if idea.Description != "" {
		if _, err := fmt.Fprintf(p.out, "%s\n", idea.Description); err != nil {
			return err
		}
	}

	lines := []string{"  $ " + idea.MonetizationStrategy}
	// Older services omit technical_complexity; skip the line rather than print an empty label.
	if idea.TechnicalComplexity != "" {
		lines = append(lines, "  Tech: "+idea.TechnicalComplexity+" Complexity")
	}
	lines = append(lines, "  Market: "+idea.MarketSizeEstimate)
	for _, line := range lines {
		if _, err := fmt.Fprintln(p.out, line); err != nil {
			return err
		}
	}
	return nil
}
