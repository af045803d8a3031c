// Package report writes the human-readable summary of a pipeline run.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/genprog/varbuild/internal/overlay"
	"github.com/genprog/varbuild/internal/pipeline"
	"github.com/olekukonko/tablewriter"
)

// Write writes the summary of res to w. With details set, a table of the
// overlaid identities follows the summary.
func Write(w io.Writer, res *pipeline.Result, details bool) error {
	p := &printer{w: w}
	p.summary(res)
	if p.err != nil || !details || len(res.Identities) == 0 {
		return p.err
	}
	return table(w, res)
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *printer) summary(res *pipeline.Result) {
	if res.Succeeded() {
		p.printf("Successfully compiled %s\n", res.Variant)
	} else {
		p.printf("Failed to compile %s (%s)\n", res.Variant, reason(res))
	}
	if res.Harvest != nil {
		p.printf("  harvested %d artifact(s)\n", len(res.Harvest.Copied))
		for _, g := range res.Harvest.Gaps {
			p.printf("  gap: %s\n", g)
		}
	}
	for _, id := range res.Left {
		p.printf("  left in tree: %s\n", id)
	}
	if res.Restore != nil {
		p.printf("\nRESTORATION FAILED: the canonical tree may be inconsistent\n")
		p.printf("  %v\n", res.Restore)
		if res.StagingKept != "" {
			p.printf("  backups kept in %s; repair the tree or run 'varbuild recover'\n", res.StagingKept)
		}
	}
	if res.Cleanup != nil {
		p.printf("  warning: cleanup failed: %v\n", res.Cleanup)
	}
}

func reason(res *pipeline.Result) string {
	switch {
	case res.Fatal != nil:
		return res.Fatal.Error()
	case res.Outcome != nil && !res.Outcome.Success():
		return res.Outcome.String()
	case res.Restore != nil:
		return "restoration failed"
	}
	return "build not run"
}

func table(w io.Writer, res *pipeline.Result) error {
	entries := make(map[string]overlay.Entry, len(res.Entries))
	for _, e := range res.Entries {
		entries[e.Identity.String()] = e
	}
	gaps := map[string]bool{}
	if res.Harvest != nil {
		for _, g := range res.Harvest.Gaps {
			gaps[g.Identity.String()] = true
		}
	}

	t := tablewriter.NewTable(w)
	t.Header("Identity", "Canonical", "Overlaid", "Restored", "Artifact")
	for _, id := range res.Identities {
		e, staged := entries[id.String()]
		row := []string{id.String(), "-", "-", "-", "-"}
		switch {
		case staged:
			row[1] = strconv.FormatBool(e.HadCanonical)
			row[2] = strconv.FormatBool(e.Overlaid)
			if e.HadCanonical {
				row[3] = strconv.FormatBool(e.Restored)
			} else if e.Overlaid {
				row[3] = "left"
			}
		case res.Extension != "":
			row[2] = "extension"
		}
		if res.Harvest != nil {
			if gaps[id.String()] {
				row[4] = "gap"
			} else {
				row[4] = "harvested"
			}
		}
		if err := t.Append(row); err != nil {
			return err
		}
	}
	return t.Render()
}
