package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/mbolis/field-survey/ledger"
	"github.com/mbolis/field-survey/model"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	warning = color.New(color.FgHiYellow, color.Bold)
)

func newTable(header ...any) *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	for i := range header {
		header[i] = bold(header[i])
	}
	tbl.AddRow(header...)
	return tbl
}

func printTemplates(out io.Writer, templates []*model.Template) {
	if len(templates) == 0 {
		_, _ = fmt.Fprintln(out, faint("no templates"))
		return
	}
	tbl := newTable("ID", "NAME", "QUESTIONS")
	for _, t := range templates {
		tbl.AddRow(t.ID, t.Name, len(t.Questions))
	}
	_, _ = fmt.Fprintln(out, tbl)
}

func printDrafts(out io.Writer, drafts []*model.Form) {
	if len(drafts) == 0 {
		_, _ = fmt.Fprintln(out, faint("no drafts"))
		return
	}
	tbl := newTable("UUID", "FORM", "BENEFICIARY", "ANSWERED", "POSITION", "MODIFIED")
	for _, f := range drafts {
		tbl.AddRow(f.UUID, f.Name, beneficiary(f), answered(f), f.Position, f.Modified.Local().Format("2006-01-02 15:04"))
	}
	_, _ = fmt.Fprintln(out, tbl)
}

func printSurveys(out io.Writer, surveys []*model.Form) {
	if len(surveys) == 0 {
		_, _ = fmt.Fprintln(out, faint("no surveys"))
		return
	}
	tbl := newTable("UUID", "FORM", "BENEFICIARY", "STATUS")
	for _, f := range surveys {
		status := yellow("pending")
		if f.Synchronized {
			status = green("synced")
		}
		tbl.AddRow(f.UUID, f.Name, beneficiary(f), status)
	}
	_, _ = fmt.Fprintln(out, tbl)
}

func printReport(out io.Writer, r ledger.Report) {
	if r.Offline {
		return
	}
	_, _ = fmt.Fprintf(out, "sent %d, %s, %s\n",
		r.Attempted,
		green(strconv.Itoa(len(r.Synced))+" synced"),
		yellow(strconv.Itoa(len(r.Failed))+" failed"))
	if r.Err != nil {
		_, _ = warning.Fprintln(out, r.Err)
	}
}

func beneficiary(f *model.Form) string {
	if f.Beneficiary == nil {
		return "-"
	}
	b := f.Beneficiary
	s := strconv.Itoa(b.ID)
	if b.Name != "" {
		s += " " + b.Name
	}
	if b.Specialized {
		s += " *"
	}
	return s
}

func answered(f *model.Form) string {
	n := 0
	for _, q := range f.Questions {
		if f.Answers[q.ID] != "" {
			n++
		}
	}
	return fmt.Sprintf("%d/%d", n, len(f.Questions))
}
