package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/frahmantamala/charity-reminder/internal/payment"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeText = "text/plain; charset=utf-8"
)

// Document is a rendered summary ready to be sent or served.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type Renderer interface {
	Render(s Summary) (*Document, error)
}

// StatusLabel is the Persian label shown to the admin for a payment status.
func StatusLabel(s payment.Status) string {
	switch s {
	case payment.StatusApproved:
		return "✅ تأیید شده"
	case payment.StatusPending:
		return "⏳ در انتظار"
	case payment.StatusFailed:
		return "❌ رد شده"
	case payment.StatusMissing:
		return "⚪️ پرداخت نشده"
	default:
		return "نامشخص"
	}
}

// FormatAmount groups digits by thousands: 500000 -> "500,000".
func FormatAmount(d decimal.Decimal) string {
	s := d.StringFixed(0)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

func baseFilename(s Summary) string {
	return fmt.Sprintf("monthly_report_%04d_%02d", s.Period.Year, s.Period.Month)
}
