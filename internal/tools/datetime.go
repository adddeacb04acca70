package tools

import (
	"context"
	"fmt"
	"strings"
	"time"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (k *Toolkit) datetimeTools() []Tool {
	return []Tool{
		{
			Name: "get_current_datetime",
			Description: "Get the current date and time. Use it whenever the user says today, tomorrow, this week " +
				"or anything else relative to now.",
			Parameters: object(map[string]any{
				"timezone_name": str("IANA timezone, e.g. UTC, America/New_York, Europe/London (default UTC)"),
				"format_type":   enum("Which format primary_output holds (default full)", "full", "date_only", "time_only", "timestamp"),
			}),
			Handler: k.currentDatetime,
		},
		{
			Name:        "calculate_date_offset",
			Description: "Calculate a date relative to a base date, e.g. 3 days from today or 2 weeks ago. A month counts as 30 days.",
			Parameters: object(map[string]any{
				"base_date":     str(`"today" or an ISO date or datetime`),
				"offset_days":   map[string]any{"type": "integer", "description": "Days to add, negative for the past"},
				"offset_weeks":  map[string]any{"type": "integer", "description": "Weeks to add, negative for the past"},
				"offset_months": map[string]any{"type": "integer", "description": "30-day months to add, negative for the past"},
			}, "base_date"),
			Handler: k.calculateDateOffset,
		},
	}
}

// mondayWeekday maps Monday to 0 and Sunday to 6.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DescribeTime renders now in every format the datetime tool reports.
func DescribeTime(now time.Time, zone, formatType string) Result {
	_, week := now.ISOWeek()
	wd := mondayWeekday(now)
	formatted := Result{
		"full":       now.Format("Monday, January 02, 2006 at 03:04 PM MST"),
		"date":       now.Format("January 02, 2006"),
		"date_short": now.Format("01/02/2006"),
		"time_12h":   now.Format("03:04 PM"),
		"time_24h":   now.Format("15:04"),
		"day_name":   now.Weekday().String(),
		"month_name": now.Month().String(),
	}
	timestamp := float64(now.UnixNano()) / 1e9

	var primary any
	switch formatType {
	case "date_only":
		primary = formatted["date"]
	case "time_only":
		primary = formatted["time_12h"]
	case "timestamp":
		primary = timestamp
	default:
		primary = formatted["full"]
	}

	return Succeed(Result{
		"timezone":     zone,
		"timestamp":    timestamp,
		"iso_datetime": now.Format(time.RFC3339),
		"iso_date":     now.Format("2006-01-02"),
		"iso_time":     now.Format("15:04:05"),
		"formatted":    formatted,
		"components": Result{
			"year":         now.Year(),
			"month":        int(now.Month()),
			"day":          now.Day(),
			"hour":         now.Hour(),
			"minute":       now.Minute(),
			"second":       now.Second(),
			"weekday":      wd,
			"weekday_name": now.Weekday().String(),
			"week_number":  week,
			"day_of_year":  now.YearDay(),
		},
		"context": Result{
			"is_weekend":    wd >= 5,
			"is_weekday":    wd < 5,
			"quarter":       (int(now.Month())-1)/3 + 1,
			"days_in_month": daysInMonth(now),
			"is_leap_year":  isLeap(now.Year()),
		},
		"primary_output": primary,
	})
}

func (k *Toolkit) currentDatetime(_ context.Context, args Args) (Result, error) {
	zone := args.String("timezone_name", "UTC")
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return FailWith(fmt.Sprintf("unknown timezone %q", zone), Result{"message": "Failed to get current date/time"}), nil
	}
	return DescribeTime(k.now().In(loc), zone, args.String("format_type", "full")), nil
}

func parseBaseDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "today") || raw == "" {
		return now.UTC(), nil
	}
	if strings.HasSuffix(raw, "Z") && !strings.Contains(raw, "T") {
		raw = strings.TrimSuffix(raw, "Z")
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid base_date %q: expected \"today\" or an ISO date", raw)
}

func (k *Toolkit) calculateDateOffset(_ context.Context, args Args) (Result, error) {
	base, err := parseBaseDate(args.String("base_date", "today"), k.now())
	if err != nil {
		return FailWith(err.Error(), Result{"message": "Failed to calculate date offset"}), nil
	}
	days := args.Int("offset_days", 0)
	weeks := args.Int("offset_weeks", 0)
	months := args.Int("offset_months", 0)
	total := days + weeks*7 + months*30
	out := base.AddDate(0, 0, total)

	return Succeed(Result{
		"base_date":       base.Format("2006-01-02"),
		"calculated_date": out.Format("2006-01-02"),
		"offset_applied": Result{
			"days":       days,
			"weeks":      weeks,
			"months":     months,
			"total_days": total,
		},
		"formatted": Result{
			"full":     out.Format("Monday, January 02, 2006"),
			"short":    out.Format("01/02/2006"),
			"day_name": out.Weekday().String(),
		},
		"components": Result{
			"year":         out.Year(),
			"month":        int(out.Month()),
			"day":          out.Day(),
			"weekday_name": out.Weekday().String(),
		},
	}), nil
}
