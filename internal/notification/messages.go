package notification

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
	"github.com/frahmantamala/charity-reminder/internal/donor"
	"github.com/frahmantamala/charity-reminder/internal/payment"
	"github.com/frahmantamala/charity-reminder/internal/report"
)

const (
	approvePrefix = "approve_"
	denyPrefix    = "deny_"
)

// DecisionActions are the approve/deny buttons attached to an admin review.
func DecisionActions(approvalID int64) []Action {
	id := strconv.FormatInt(approvalID, 10)
	return []Action{
		{Text: "تأیید", Data: approvePrefix + id},
		{Text: "رد کردن", Data: denyPrefix + id},
	}
}

// ParseDecision reads callback data produced by DecisionActions.
func ParseDecision(data string) (approvalID int64, approve bool, ok bool) {
	var raw string
	switch {
	case strings.HasPrefix(data, approvePrefix):
		raw, approve = strings.TrimPrefix(data, approvePrefix), true
	case strings.HasPrefix(data, denyPrefix):
		raw = strings.TrimPrefix(data, denyPrefix)
	default:
		return 0, false, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false, false
	}
	return id, approve, true
}

// Catalog renders the Persian texts sent to donors and the admin.
type Catalog struct {
	CardNumber    string
	CardHolder    string
	AdminUsername string
}

func (c Catalog) card() string {
	if c.CardHolder == "" {
		return c.CardNumber
	}
	return c.CardNumber + " - " + c.CardHolder
}

func (c Catalog) contactAdmin() string {
	if c.AdminUsername == "" {
		return "لطفا با ادمین تماس بگیرید."
	}
	return fmt.Sprintf("لطفا با ادمین (@%s) تماس بگیرید.", strings.TrimPrefix(c.AdminUsername, "@"))
}

func (c Catalog) Reminder(d *donor.Donor, period jalali.Period) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s عزیز سلام\n", d.FullName)
	fmt.Fprintf(&b, "موعد پرداخت %s تومان ماه %s فرا رسیده\n", report.FormatAmount(d.PledgeAmount), period.Title())
	if d.DonationLink != "" {
		fmt.Fprintf(&b, "لینک پرداخت:\n%s\n", d.DonationLink)
	}
	if c.CardNumber != "" {
		fmt.Fprintf(&b, "شماره کارت خیریه (با لمس کردن کپی می شود):\n%s\n", c.card())
	}
	b.WriteString("در صورت واریز وجه، رسید آنرا از طریق /upload بفرستید")
	return b.String()
}

func (c Catalog) FollowUp(d *donor.Donor, period jalali.Period, status payment.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s عزیز\n\n", d.FullName)
	if status == payment.StatusFailed {
		fmt.Fprintf(&b, "رسید پرداخت %s تومانی شما برای %s تأیید نشد.\n", report.FormatAmount(d.PledgeAmount), period.Title())
		b.WriteString("لطفا رسید معتبر را دوباره ارسال کنید.\n")
	} else {
		fmt.Fprintf(&b, "متاسفانه پرداخت %s تومانی شما برای %s هنوز ثبت نشده است.\n", report.FormatAmount(d.PledgeAmount), period.Title())
		b.WriteString("لطفا در اسرع وقت درخواست خود را انجام دهید.\n")
	}
	if d.DonationLink != "" {
		fmt.Fprintf(&b, "\nلینک پرداخت: %s", d.DonationLink)
	}
	return b.String()
}

func (Catalog) PINPrompt() string {
	return "سلام\nلطفا کد معرف‌تون رو بفرستید (مثلا 021)"
}

func (Catalog) InvalidPIN() string {
	return "کد شما یافت نشد!\n" +
		"لطفا یک کد معرف معتبر ارسال کنید\n" +
		"(مطمئن شوید کیبورد شما روی زبان انگلیسی است)"
}

func (Catalog) VerificationRequested(fullName string) string {
	return fmt.Sprintf("%s عزیز، درخواست شما برای تأیید به مدیر ارسال شد.\nلطفا منتظر بمانید.", fullName)
}

func (Catalog) AwaitingVerification() string {
	return "حساب شما در انتظار تأیید مدیر است.\nلطفا بعداً دوباره تلاش کنید."
}

func (Catalog) AlreadyVerified(fullName string) string {
	return fmt.Sprintf("%s عزیز، حساب شما قبلا تأیید شده است.\nبرای دیدن دستورات /help را بفرستید.", fullName)
}

func (c Catalog) VerificationApproved(d *donor.Donor) string {
	var b strings.Builder
	b.WriteString("اطلاعات شما با موفقیت ثبت شد\n\n")
	if c.CardNumber != "" {
		fmt.Fprintf(&b, "شماره کارت خیریه (با لمس کردن کپی می شود): %s\n", c.card())
	}
	if d != nil {
		if d.DonationLink != "" {
			fmt.Fprintf(&b, "لینک پرداخت: %s\n", d.DonationLink)
		}
		fmt.Fprintf(&b, "مبلغ تعهد من: %s تومان\n", report.FormatAmount(d.PledgeAmount))
	}
	b.WriteString("آپلود فیش واریزی: /upload\n")
	b.WriteString("سابقه من: /history")
	return b.String()
}

func (c Catalog) VerificationDenied() string {
	return "درخواست تأیید حساب شما رد شد.\n" + c.contactAdmin()
}

func (Catalog) ReceiptReceived(period jalali.Period) string {
	return fmt.Sprintf("رسید شما برای %s با موفقیت ارسال شد.\nانتظار تأیید مدیر...", period.Title())
}

func (Catalog) PaymentApproved(period jalali.Period) string {
	return fmt.Sprintf("پرداخت شما برای %s با موفقیت تأیید شد!\nبرای کمک شما سپاسگزاریم.", period.Title())
}

func (c Catalog) PaymentFailed(period jalali.Period) string {
	return fmt.Sprintf("متأسفانه پرداخت شما برای %s تأیید نشد.\n%s", period.Title(), c.contactAdmin())
}

func (Catalog) AdminVerificationReview(approvalID, donorID, chatID int64, fullName string) Message {
	return Message{
		Text: fmt.Sprintf("درخواست تأیید حساب:\n\nنام: %s\nشناسه اهداکننده: %d\nشناسه گفتگو: %d\nشناسه درخواست: %d",
			fullName, donorID, chatID, approvalID),
		Actions: DecisionActions(approvalID),
	}
}

// AdminPaymentReview shows the receipt with its decision buttons. The receipt
// is forwarded by file id when the transport already has it.
func (Catalog) AdminPaymentReview(approvalID int64, d *donor.Donor, period jalali.Period, fileID string, resubmitted bool) Message {
	title := "پرداخت جدید برای تأیید"
	if resubmitted {
		title = "ارسال مجدد رسید برای تأیید"
	}
	msg := Message{
		Text: fmt.Sprintf("%s:\n\nنام: %s\nمبلغ: %s تومان\nدوره: %s\nشناسه درخواست: %d",
			title, d.FullName, report.FormatAmount(d.PledgeAmount), period.Title(), approvalID),
		Actions: DecisionActions(approvalID),
	}
	if fileID != "" {
		msg.Attachment = &Attachment{Kind: AttachmentPhoto, FileID: fileID}
	}
	return msg
}

func (Catalog) DecisionRecorded(approve bool) string {
	if approve {
		return "پرداخت تأیید شد ✅"
	}
	return "پرداخت رد شد ❌"
}

func (Catalog) VerificationDecisionRecorded(approve bool) string {
	if approve {
		return "حساب کاربر تأیید شد ✅"
	}
	return "درخواست کاربر رد شد ❌"
}

func (c Catalog) Card() string {
	if c.CardNumber == "" {
		return "شماره کارت خیریه تنظیم نشده است."
	}
	return fmt.Sprintf("شماره کارت خیریه (با لمس کردن کپی می شود):\n%s", c.card())
}

func (Catalog) Link(d *donor.Donor) string {
	if d.DonationLink == "" {
		return "لینک پرداختی برای شما ثبت نشده است."
	}
	return fmt.Sprintf("لینک پرداخت شما:\n%s", d.DonationLink)
}

func (Catalog) Amount(d *donor.Donor) string {
	return fmt.Sprintf("مبلغ تعهدی شما: %s تومان", report.FormatAmount(d.PledgeAmount))
}

func (Catalog) UploadPrompt(period jalali.Period) string {
	return fmt.Sprintf("لطفا تصویر رسید پرداخت %s را ارسال کنید.", period.Title())
}

func (Catalog) History(payments []*payment.Payment) string {
	if len(payments) == 0 {
		return "سابقه‌ای برای شما وجود ندارد."
	}
	var b strings.Builder
	b.WriteString("سابقه پرداخت‌های من:\n")
	for _, p := range payments {
		fmt.Fprintf(&b, "\n%s: %s", p.Period.Title(), report.StatusLabel(p.Status))
	}
	return b.String()
}

func (Catalog) Help(admin bool) string {
	var b strings.Builder
	b.WriteString("منوی اصلی:\n\n")
	b.WriteString("/card - شماره کارت خیریه\n")
	b.WriteString("/link - لینک پرداخت\n")
	b.WriteString("/amount - مبلغ تعهدی من\n")
	b.WriteString("/upload - آپلود فیش واریزی\n")
	b.WriteString("/history - سابقه پرداخت‌های من")
	if admin {
		b.WriteString("\n\nدستورات مدیر:\n")
		b.WriteString("/report - گزارش ماه جاری\n")
		b.WriteString("/broadcast <متن> - ارسال پیام به همه\n")
		b.WriteString("/trigger remind|followup|report - اجرای دستی اعلان\n")
		b.WriteString("/reset <شناسه> - بازنشانی حساب اهداکننده")
	}
	return b.String()
}

func (Catalog) BroadcastUsage() string {
	return "استفاده: /broadcast پیام شما"
}

func (Catalog) BroadcastDone(sent, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("پیام شما به %d کاربر ارسال شد.", sent)
	}
	return fmt.Sprintf("پیام شما به %d کاربر ارسال شد و به %d کاربر نرسید.", sent, failed)
}

func (Catalog) TriggerUsage() string {
	return "استفاده: /trigger remind|followup|report"
}

func (Catalog) TriggerDone(kind string) string {
	return fmt.Sprintf("اجرای %s انجام شد.", kind)
}

func (Catalog) ResetUsage() string {
	return "استفاده: /reset شناسه_اهداکننده"
}

func (Catalog) ResetDone(fullName string) string {
	return fmt.Sprintf("حساب %s بازنشانی شد.", fullName)
}

func (Catalog) UnknownCommand() string {
	return "دستور نامعتبر است. برای دیدن دستورات /help را بفرستید."
}

func (Catalog) Apology() string {
	return "متأسفانه خطایی رخ داد. لطفا کمی بعد دوباره تلاش کنید."
}

// Denial turns a rejected request into the reply the requester sees.
func (c Catalog) Denial(err error) string {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		return c.Apology()
	}
	switch appErr.Code {
	case internal.ErrCodeNotVerified:
		return "حساب شما هنوز تأیید نشده است.\nابتدا کد معرف خود را ارسال کنید."
	case internal.ErrCodeDuplicateSubmission:
		return "رسید این ماه قبلا ثبت شده و در انتظار تأیید یا تأیید شده است."
	case internal.ErrCodeAlreadyBound:
		return "این کد به حساب دیگری متصل است.\n" + c.contactAdmin()
	case internal.ErrCodeStaleApproval:
		return "این درخواست قبلا بررسی شده است."
	case internal.ErrCodeApprovalNotFound:
		return "درخواست مورد نظر یافت نشد."
	case internal.ErrCodeDonorNotFound:
		return "کاربری یافت نشد."
	case internal.ErrCodeAdminOnly:
		return "فقط ادمین می‌تواند این دستور را اجرا کند."
	case internal.ErrCodeInvalidCalendarDate:
		return "تاریخ وارد شده معتبر نیست."
	case internal.ErrCodeInvalidTrigger:
		return "گزینه نامعتبر. از remind|followup|report استفاده کنید."
	case internal.ErrCodeValidationFailed, internal.ErrCodeInvalidOutcome:
		return "درخواست نامعتبر است."
	default:
		return c.Apology()
	}
}
