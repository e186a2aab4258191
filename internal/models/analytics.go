package models

type TimePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type AdminAnalytics struct {
	TimeRange            string          `json:"timeRange"`
	TotalUsers           int             `json:"totalUsers"`
	TotalRecruiters      int             `json:"totalRecruiters"`
	TotalJobs            int             `json:"totalJobs"`
	ActiveJobs           int             `json:"activeJobs"`
	TotalApplications    int             `json:"totalApplications"`
	UserGrowth           []TimePoint     `json:"userGrowth"`
	JobGrowth            []TimePoint     `json:"jobGrowth"`
	ApplicationGrowth    []TimePoint     `json:"applicationGrowth"`
	JobsByType           []CategoryCount `json:"jobsByType"`
	JobsByLocation       []CategoryCount `json:"jobsByLocation"`
	ApplicationsByStatus []CategoryCount `json:"applicationsByStatus"`
}

type JobPerformance struct {
	JobID        string `json:"jobId"`
	Title        string `json:"title"`
	Applications int    `json:"applications"`
	Views        int    `json:"views"`
}

type RecruiterAnalytics struct {
	RecruiterID          string           `json:"recruiterId"`
	TimeRange            string           `json:"timeRange"`
	TotalJobs            int              `json:"totalJobs"`
	ActiveJobs           int              `json:"activeJobs"`
	TotalApplications    int              `json:"totalApplications"`
	TotalViews           int              `json:"totalViews"`
	ApplicationsOverTime []TimePoint      `json:"applicationsOverTime"`
	ApplicationsByStatus []CategoryCount  `json:"applicationsByStatus"`
	TopJobs              []JobPerformance `json:"topJobs"`
}

// TimeRanges accepted by the analytics endpoints.
var TimeRanges = []string{"7d", "30d", "90d", "1y"}

func IsValidTimeRange(r string) bool {
	for _, v := range TimeRanges {
		if v == r {
			return true
		}
	}
	return false
}
