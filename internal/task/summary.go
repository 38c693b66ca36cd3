package task

import "fmt"

// Grade buckets the average ROI of a collection.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// GradeFor returns the highest band whose lower bound avgROI reaches.
func GradeFor(avgROI float64) Grade {
	switch {
	case avgROI >= 100:
		return GradeA
	case avgROI >= 75:
		return GradeB
	case avgROI >= 50:
		return GradeC
	case avgROI >= 25:
		return GradeD
	default:
		return GradeF
	}
}

// Summary aggregates a task collection for the header cards.
type Summary struct {
	Count        int
	TotalRevenue float64
	TotalTime    float64
	Efficiency   float64
	AvgROI       float64
	Grade        Grade
}

// Summarize computes totals over every task, ignoring any active filter.
func Summarize(tasks []Task) Summary {
	s := Summary{Count: len(tasks)}
	var roiSum float64
	for _, t := range tasks {
		s.TotalRevenue += t.Revenue
		s.TotalTime += t.TimeTaken
		roiSum += t.ROI
	}
	if len(tasks) > 0 {
		s.AvgROI = roiSum / float64(len(tasks))
	}
	if s.TotalTime > 0 {
		s.Efficiency = Round2(s.TotalRevenue / s.TotalTime)
	}
	s.Grade = GradeFor(s.AvgROI)
	return s
}

// AvgROIText renders the average ROI with two decimals.
func (s Summary) AvgROIText() string {
	return fmt.Sprintf("%.2f", s.AvgROI)
}

// EfficiencyText renders the revenue per hour across all tasks.
func (s Summary) EfficiencyText() string {
	return fmt.Sprintf("%.2f", s.Efficiency)
}

// TotalRevenueText renders the revenue total as currency.
func (s Summary) TotalRevenueText() string {
	return fmt.Sprintf("$%.2f", s.TotalRevenue)
}
