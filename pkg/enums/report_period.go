package enums

import "fmt"

// ReportPeriod selects the revenue report bucket size.
type ReportPeriod string

const (
	ReportPeriodDaily   ReportPeriod = "daily"
	ReportPeriodMonthly ReportPeriod = "monthly"
	ReportPeriodYearly  ReportPeriod = "yearly"
)

var validReportPeriods = []ReportPeriod{
	ReportPeriodDaily,
	ReportPeriodMonthly,
	ReportPeriodYearly,
}

// IsValid reports whether the value matches a supported report period.
func (p ReportPeriod) IsValid() bool {
	for _, candidate := range validReportPeriods {
		if candidate == p {
			return true
		}
	}
	return false
}

// BucketLayout returns the time layout orders are truncated with when
// grouped into this period.
func (p ReportPeriod) BucketLayout() string {
	switch p {
	case ReportPeriodMonthly:
		return "2006-01"
	case ReportPeriodYearly:
		return "2006"
	default:
		return "2006-01-02"
	}
}

// ParseReportPeriod converts raw input into ReportPeriod.
func ParseReportPeriod(value string) (ReportPeriod, error) {
	for _, candidate := range validReportPeriods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report period %q", value)
}
