package rest

import (
	"net/http"
	"time"

	"github.com/frahmantamala/charity-reminder/internal"
	"github.com/frahmantamala/charity-reminder/internal/core/clock"
	"github.com/frahmantamala/charity-reminder/internal/core/jalali"
)

type CalendarHandler struct {
	source *clock.Source
}

func NewCalendarHandler(source *clock.Source) *CalendarHandler {
	return &CalendarHandler{source: source}
}

type calendarDay struct {
	Jalali      string `json:"jalali"`
	Gregorian   string `json:"gregorian"`
	MonthName   string `json:"month_name"`
	Period      string `json:"period"`
	DaysInMonth int    `json:"days_in_month"`
}

func newCalendarDay(d jalali.Date) calendarDay {
	gy, gm, gd := d.Gregorian()
	return calendarDay{
		Jalali:      d.String(),
		Gregorian:   time.Date(gy, gm, gd, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
		MonthName:   jalali.MonthName(d.Month()),
		Period:      d.Period().String(),
		DaysInMonth: jalali.DaysInMonth(d.Year(), d.Month()),
	}
}

// Today handles GET /api/v1/calendar/today in the operating timezone.
func (h *CalendarHandler) Today(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newCalendarDay(h.source.Today()))
}

// Convert handles GET /api/v1/calendar/convert?gregorian=YYYY-MM-DD or
// ?jalali=YYYY/MM/DD.
func (h *CalendarHandler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		d   jalali.Date
		err error
	)
	switch {
	case q.Get("jalali") != "":
		d, err = jalali.Parse(q.Get("jalali"))
	case q.Get("gregorian") != "":
		var t time.Time
		t, err = time.Parse("2006-01-02", q.Get("gregorian"))
		if err == nil {
			d, err = jalali.FromGregorian(t.Year(), t.Month(), t.Day())
		}
	default:
		writeAppError(w, internal.NewValidationError("jalali or gregorian is required", internal.ErrCodeValidationFailed))
		return
	}
	if err != nil {
		writeAppError(w, internal.NewInvalidCalendarDateError(err))
		return
	}
	writeJSON(w, http.StatusOK, newCalendarDay(d))
}

func writeAppError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	writeJSON(w, status, body)
}
