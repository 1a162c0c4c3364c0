package models

import "time"

// DistributionEntry counts applications currently in a status.
type DistributionEntry struct {
	Status     Status `json:"status"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// FunnelStage is one step of the pipeline funnel.
type FunnelStage struct {
	Stage          string `json:"stage"`
	Count          int    `json:"count"`
	ConversionRate int    `json:"conversion_rate"`
}

// FlowEdge is a weighted status-to-status transition observed in history.
type FlowEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Count  int    `json:"count"`
}

// FlowGraph is the Sankey-ready transition graph across all applications.
type FlowGraph struct {
	Nodes []string   `json:"nodes"`
	Edges []FlowEdge `json:"edges"`
}

// TimeInterval selects the bucket width for time series output.
type TimeInterval string

const (
	IntervalDay   TimeInterval = "day"
	IntervalWeek  TimeInterval = "week"
	IntervalMonth TimeInterval = "month"
)

// TimeWindow describes the contiguous bucketed range a time series covers.
type TimeWindow struct {
	From     time.Time
	To       time.Time
	Interval TimeInterval
}

// TimeBucket is one point of the applications-over-time series.
type TimeBucket struct {
	Date         string `json:"date"`
	Applications int    `json:"applications"`
	Responded    int    `json:"responded"`
}

// TechEntry aggregates one technology token across applications.
type TechEntry struct {
	Tech        string `json:"tech"`
	Count       int    `json:"count"`
	Offers      int    `json:"offers"`
	SuccessRate int    `json:"success_rate"`
}

// IndustrySummary rolls applications up by classified industry.
type IndustrySummary struct {
	Industry     string `json:"industry"`
	Applications int    `json:"applications"`
	Responded    int    `json:"responded"`
	Offers       int    `json:"offers"`
	ResponseRate int    `json:"response_rate"`
	OfferRate    int    `json:"offer_rate"`
}

// PipelineSummary holds the dashboard quick stats.
type PipelineSummary struct {
	TotalApplications  int `json:"total_applications"`
	ResponseRate       int `json:"response_rate"`
	InterviewRate      int `json:"interview_rate"`
	ActiveApplications int `json:"active_applications"`
}

// Coordinates is a geocoded latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// GeoCacheEntry is a persisted geocode lookup result keyed by the normalised
// location text.
type GeoCacheEntry struct {
	Key        string    `db:"key" json:"key"`
	Location   string    `db:"location" json:"location"`
	Lat        float64   `db:"lat" json:"lat"`
	Lon        float64   `db:"lon" json:"lon"`
	ResolvedAt time.Time `db:"resolved_at" json:"resolved_at"`
}

// GeoMarker is one map marker: a resolved location with its applications.
type GeoMarker struct {
	Location    string         `json:"location"`
	Coordinates Coordinates    `json:"coordinates"`
	Count       int            `json:"count"`
	Statuses    map[Status]int `json:"statuses"`
	TopStatus   Status         `json:"top_status"`
}

// SystemMetrics represents system level analytics captured from instrumentation.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
