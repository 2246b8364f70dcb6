package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pep299/idea-validator/internal/model"
)

const descriptionWidth = 60

var listHeader = []string{"ID", "Problem Cluster", "Score", "Intensity", "Engagement"}

// ListView renders one row per cluster in the order given.
func (p *Printer) ListView(clusters model.Clusters) error {
	if err := p.printf([]color.Attribute{color.Bold}, "Opportunity Dashboard\n\n"); err != nil {
		return err
	}
	if len(clusters) == 0 {
		_, err := fmt.Fprintln(p.out, "No clusters found")
		return err
	}

	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	rows := make([][]string, 0, len(clusters))
	for _, c := range clusters {
		rows = append(rows, listRow(c))
	}

	table.Header(listHeader)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("building cluster table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering cluster table: %w", err)
	}
	return nil
}

func listRow(c model.Cluster) []string {
	summary := c.Name
	if d := strings.TrimSpace(c.Description); d != "" {
		summary += "\n" + truncate(d, descriptionWidth)
	}
	return []string{
		strconv.FormatInt(c.ID, 10),
		summary,
		strconv.Itoa(Round(c.TotalValidationScore)),
		strconv.Itoa(Round(c.IntensityScore)) + "%",
		strconv.Itoa(Round(c.EngagementScore)),
	}
}
