package ledger

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UnscheduledLabel is the bucket label used for records without a usable date
// when the UndatedUnscheduled policy is active.
const UnscheduledLabel = "Unscheduled"

var monthOrder = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthLabel formats t as "<FullMonthName> <FourDigitYear>" in loc.
// Month names are always English so labels are stable across locales.
// A zero time yields the empty label.
func MonthLabel(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return fmt.Sprintf("%s %04d", monthOrder[t.Month()-1], t.Year())
}

// MonthIndex returns the zero-based calendar index of an English month name,
// or -1 when the name is not recognised.
func MonthIndex(name string) int {
	for i, m := range monthOrder {
		if m == name {
			return i
		}
	}
	return -1
}

// ParseMonthLabel splits a label produced by MonthLabel back into its year and
// zero-based month index. ok is false when either part is unrecognised.
func ParseMonthLabel(label string) (year, monthIndex int, ok bool) {
	monthName, yearText := splitLabel(label)
	monthIndex = MonthIndex(monthName)
	y, err := strconv.Atoi(yearText)
	if err != nil || monthIndex < 0 {
		return 0, monthIndex, false
	}
	return y, monthIndex, true
}

// CompareMonthLabels orders two month labels by year, then by month index.
//
// Labels with different year text compare numerically; if either year is not
// a number the labels are reported as equal. Labels with the same year text
// compare by month index, unknown month names counting as -1.
func CompareMonthLabels(a, b string) int {
	aMonth, aYear := splitLabel(a)
	bMonth, bYear := splitLabel(b)

	if aYear != bYear {
		ay, errA := strconv.Atoi(aYear)
		by, errB := strconv.Atoi(bYear)
		if errA != nil || errB != nil {
			return 0
		}
		return cmp.Compare(ay, by)
	}
	return cmp.Compare(MonthIndex(aMonth), MonthIndex(bMonth))
}

func splitLabel(label string) (month, year string) {
	parts := strings.Split(label, " ")
	month = parts[0]
	if len(parts) > 1 {
		year = parts[1]
	}
	return month, year
}
