package stats

type UserStats struct {
	TodayStudied      bool `json:"today_studied"`
	DaysThisWeek      int  `json:"days_this_week"`
	DaysThisMonth     int  `json:"days_this_month"`
	DaysThisYear      int  `json:"days_this_year"`
	TotalStudyDays    int  `json:"total_study_days"`
	CurrentStreak     int  `json:"current_streak"`
	LongestStreak     int  `json:"longest_streak"`
	CoursesCompleted  int  `json:"courses_completed"`
	TotalPoints       int  `json:"total_points"`
	Level             int  `json:"level"`
	BadgesCount       int  `json:"badges_count"`
	CertificatesCount int  `json:"certificates_count"`
	Rank              int  `json:"rank"`
}

type DaysStat struct {
	Period      string `json:"period"` // "week", "month", "year", "all_time"
	DaysStudied int    `json:"days_studied" db:"days_studied"`
	TotalDays   int    `json:"total_days"`
}
