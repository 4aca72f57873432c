package api

// DefaultBaseURL is the remote API the access layer was reverse-engineered
// against. It can be overridden in the TOML config, which only matters for
// tests.
const DefaultBaseURL = "https://api.glycodiary.com"

// Path table for remote resources. Auth endpoints live in the auth package.
const (
	PathDiaryEntries = "/api/v2/diary/entries"
	PathStatistics   = "/api/v2/statistics"
	PathFoodSearch   = "/api/v2/food/search"
	PathProfile      = "/api/v2/user/profile"
	PathReports      = "/api/v2/reports"
)
