package report

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/frahmantamala/charity-reminder/internal/payment"
)

// PDFRenderer lays the summary out as a single table.
//
// TODO: register a Persian font through config.WithCustomFonts and switch the
// labels to the same Persian text the spreadsheet uses.
type PDFRenderer struct{}

var pdfStatusLabel = map[payment.Status]string{
	payment.StatusApproved: "Approved",
	payment.StatusPending:  "Pending",
	payment.StatusFailed:   "Failed",
	payment.StatusMissing:  "Missing",
}

func (PDFRenderer) Render(s Summary) (*Document, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, fmt.Sprintf("Monthly report %s", s.Period.String()), props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(10,
		text.NewCol(2, "#", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(5, "Donor", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Pledge", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Status", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, r := range s.Rows {
		m.AddRow(8,
			text.NewCol(2, fmt.Sprintf("%d", r.DonorID), props.Text{Size: 9}),
			text.NewCol(5, r.FullName, props.Text{Size: 9}),
			text.NewCol(3, FormatAmount(r.PledgeAmount), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, pdfStatusLabel[r.Status], props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(7),
		text.NewCol(3, "Pledged", props.Text{Size: 9, Top: 3}),
		text.NewCol(2, FormatAmount(s.Totals.Pledged), props.Text{Size: 9, Top: 3, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(7),
		text.NewCol(3, "Collected", props.Text{Size: 9}),
		text.NewCol(2, FormatAmount(s.Totals.Collected), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(7),
		text.NewCol(3, "Approved donors", props.Text{Size: 9}),
		text.NewCol(2, fmt.Sprintf("%d / %d", s.Totals.ByStatus[payment.StatusApproved], s.Totals.Donors), props.Text{Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate pdf report: %w", err)
	}

	return &Document{
		Filename:    baseFilename(s) + ".pdf",
		ContentType: ContentTypePDF,
		Body:        doc.GetBytes(),
	}, nil
}
