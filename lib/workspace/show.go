package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gertd/go-pluralize"
	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/model"
	"github.com/pescuma/tia/lib/reports"
	"github.com/pescuma/tia/lib/utils"
)

type ShowOptions struct {
	// File reads the report from a file instead of the notes of HEAD.
	File string
	// Summary only prints the totals.
	Summary bool
}

// Show prints the report attached to HEAD in plain JSON, whatever its stored format.
func (w *Workspace) Show(ctx context.Context, out io.Writer, opts *ShowOptions) error {
	if opts == nil {
		opts = &ShowOptions{}
	}

	var text string
	var err error
	if opts.File != "" {
		text, err = readFile(opts.File)
	} else {
		text, err = w.storage.ReadNotes(ctx)
	}
	if err != nil {
		return err
	}

	if text == "" {
		w.console.Printf("No test impact data found")
		return nil
	}

	report, err := reports.Decode(text)
	if err != nil {
		return err
	}

	if !opts.Summary {
		data, err := json.MarshalIndent(toJSON(report), "", "  ")
		if err != nil {
			return errors.Wrap(err, "error formatting report")
		}

		_, err = fmt.Fprintln(out, string(data))
		if err != nil {
			return err
		}
	}

	pc := pluralize.NewClient()
	w.console.Printf("%v and %v, stored in %v%v",
		pc.Pluralize("project", len(report.Footprints.Projects()), true),
		pc.Pluralize("test", report.Footprints.TestCount(), true),
		humanize.Bytes(uint64(len(text))),
		utils.IIf(strings.HasPrefix(strings.TrimSpace(text), "{"), "", " (compressed)"))

	return nil
}

func toJSON(report *model.Report) map[string]any {
	result := map[string]any{}
	for project, tests := range report.Footprints.ToSlices() {
		result[project] = tests
	}
	result["digests"] = report.Digests
	return result
}
