package report

import (
	"fmt"
	"strings"

	"github.com/frahmantamala/charity-reminder/internal/payment"
)

// TextRenderer renders a summary as a chat message, one line per donor.
type TextRenderer struct{}

func (TextRenderer) Render(s Summary) (*Document, error) {
	return &Document{
		Filename:    baseFilename(s) + ".txt",
		ContentType: ContentTypeText,
		Body:        []byte(FormatText(s)),
	}, nil
}

func FormatText(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "گزارش %s:\n\n", s.Period.Title())
	if len(s.Rows) == 0 {
		b.WriteString("هیچ اهداکننده تأیید شده‌ای وجود ندارد.\n")
		return b.String()
	}
	for _, r := range s.Rows {
		fmt.Fprintf(&b, "%s | %s | %s\n", StatusLabel(r.Status), r.FullName, FormatAmount(r.PledgeAmount))
	}
	fmt.Fprintf(&b, "\nجمع تعهدات: %s\nجمع دریافتی: %s\nتأیید شده: %d از %d\n",
		FormatAmount(s.Totals.Pledged),
		FormatAmount(s.Totals.Collected),
		s.Totals.ByStatus[payment.StatusApproved],
		s.Totals.Donors)
	return b.String()
}
