// ABOUTME: Month calendar grid with transaction and deadline bucketing
// ABOUTME: Sunday-start weeks padded with adjacent-month days
package reports

import (
	"time"

	"github.com/harperreed/opsdesk/models"
)

// CalendarCell is one day in the month grid. Days borrowed from the
// previous or next month carry InMonth=false.
type CalendarCell struct {
	Date         time.Time
	InMonth      bool
	Transactions []models.Transaction
	Deadlines    []models.Project
}

// ISODate returns the cell's date as YYYY-MM-DD, the storage format.
func (c CalendarCell) ISODate() string {
	return c.Date.Format("2006-01-02")
}

// MonthGrid builds the calendar for one month: full Sunday-start weeks,
// leading days from the previous month and trailing days from the next,
// so the cell count is always a multiple of seven. Transactions bucket
// by date, projects by deadline.
func MonthGrid(year int, month time.Month, transactions []models.Transaction, projects []models.Project) []CalendarCell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	last := first.AddDate(0, 1, -1)
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	txByDate := map[string][]models.Transaction{}
	for _, t := range transactions {
		txByDate[t.Date] = append(txByDate[t.Date], t)
	}
	deadlineByDate := map[string][]models.Project{}
	for _, p := range projects {
		if p.Deadline != "" {
			deadlineByDate[p.Deadline] = append(deadlineByDate[p.Deadline], p)
		}
	}

	var cells []CalendarCell
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		iso := day.Format("2006-01-02")
		cells = append(cells, CalendarCell{
			Date:         day,
			InMonth:      day.Month() == month,
			Transactions: txByDate[iso],
			Deadlines:    deadlineByDate[iso],
		})
	}
	return cells
}

// UpcomingDeliveries lists active projects with a deadline on or after
// today (ISO comparison), soonest first.
func UpcomingDeliveries(projects []models.Project, today string) []models.Project {
	var upcoming []models.Project
	for _, p := range projects {
		if p.Status != models.ProjectActive || p.Deadline == "" || p.Deadline < today {
			continue
		}
		upcoming = append(upcoming, p)
	}
	for i := 1; i < len(upcoming); i++ {
		for j := i; j > 0 && upcoming[j].Deadline < upcoming[j-1].Deadline; j-- {
			upcoming[j], upcoming[j-1] = upcoming[j-1], upcoming[j]
		}
	}
	return upcoming
}
