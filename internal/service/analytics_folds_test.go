package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applyquest/applyquest-api/internal/models"
)

func app(status models.Status) models.Application {
	return models.Application{Status: status}
}

func appWithTech(status models.Status, tech string) models.Application {
	return models.Application{Status: status, TechStack: &tech}
}

func TestStatusDistributionCountsSumToTotal(t *testing.T) {
	apps := []models.Application{
		app(models.StatusApplied), app(models.StatusApplied), app(models.StatusApplied),
		app(models.StatusReplied), app(models.StatusOffer), app(models.StatusGhosted),
	}

	entries := ComputeStatusDistribution(apps)

	total := 0
	for _, entry := range entries {
		total += entry.Count
	}
	assert.Equal(t, len(apps), total)

	require.NotEmpty(t, entries)
	assert.Equal(t, models.StatusApplied, entries[0].Status)
	assert.Equal(t, 3, entries[0].Count)
	assert.Equal(t, 50, entries[0].Percentage)
}

func TestStatusDistributionEmpty(t *testing.T) {
	assert.Empty(t, ComputeStatusDistribution(nil))
}

func TestFunnelConversionAgainstPrecedingStages(t *testing.T) {
	apps := []models.Application{
		app(models.StatusApplied), app(models.StatusApplied), app(models.StatusApplied), app(models.StatusApplied),
		app(models.StatusReplied), app(models.StatusReplied),
		app(models.StatusPhoneScreen),
		app(models.StatusOffer),
	}

	stages := ComputeFunnel(apps)
	require.Len(t, stages, 7)

	assert.Equal(t, "Applied", stages[0].Stage)
	assert.Equal(t, 4, stages[0].Count)
	assert.Equal(t, 50, stages[0].ConversionRate)

	// 2 replied against 4 applied before it.
	assert.Equal(t, 2, stages[1].Count)
	assert.Equal(t, 50, stages[1].ConversionRate)

	// 1 phone screen against 6 before it.
	assert.Equal(t, 1, stages[2].Count)
	assert.Equal(t, 17, stages[2].ConversionRate)
}

func TestFunnelZeroGuard(t *testing.T) {
	stages := ComputeFunnel(nil)
	require.Len(t, stages, 7)
	for _, stage := range stages {
		assert.Zero(t, stage.Count)
		assert.Zero(t, stage.ConversionRate)
	}
}

func transitionTo(appID string, old *models.Status, status models.Status, at time.Time) models.TransitionRecord {
	return models.TransitionRecord{ApplicationID: appID, OldStatus: old, NewStatus: status, ChangedAt: at}
}

func TestFlowAggregatesEdgesAcrossApplications(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	applied := models.StatusApplied
	replied := models.StatusReplied

	var records []models.TransitionRecord
	// Three applications moved Applied -> Replied, one of them on to Offer.
	for i, id := range []string{"a1", "a2", "a3"} {
		records = append(records,
			transitionTo(id, nil, models.StatusApplied, base.Add(time.Duration(i)*time.Minute)),
			transitionTo(id, &applied, models.StatusReplied, base.Add(time.Hour)),
		)
	}
	records = append(records, transitionTo("a1", &replied, models.StatusOffer, base.Add(2*time.Hour)))

	graph := ComputeFlow(records)

	require.Len(t, graph.Edges, 3)
	assert.Equal(t, models.FlowEdge{Source: "Applied", Target: "Applied", Count: 3}, graph.Edges[0])
	assert.Equal(t, models.FlowEdge{Source: "Applied", Target: "Replied", Count: 3}, graph.Edges[1])
	assert.Equal(t, models.FlowEdge{Source: "Replied", Target: "Offer", Count: 1}, graph.Edges[2])
	assert.Equal(t, []string{"Applied", "Replied", "Offer"}, graph.Nodes)
}

func TestFlowCountsCreationAndSameStatusEvents(t *testing.T) {
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	replied := models.StatusReplied

	records := []models.TransitionRecord{
		transitionTo("a1", nil, models.StatusApplied, base),
		transitionTo("a1", &replied, models.StatusReplied, base.Add(time.Hour)),
	}

	graph := ComputeFlow(records)

	require.Len(t, graph.Edges, 2)
	assert.Equal(t, models.FlowEdge{Source: "Applied", Target: "Applied", Count: 1}, graph.Edges[0])
	assert.Equal(t, models.FlowEdge{Source: "Replied", Target: "Replied", Count: 1}, graph.Edges[1])
}

func TestFlowEmptyHistoryYieldsLoneAppliedNode(t *testing.T) {
	graph := ComputeFlow(nil)
	assert.Equal(t, []string{"Applied"}, graph.Nodes)
	assert.Empty(t, graph.Edges)
}

func TestFlowNodeOrderFollowsPipelinePriority(t *testing.T) {
	base := time.Now()
	offer := models.StatusOffer
	applied := models.StatusApplied

	records := []models.TransitionRecord{
		transitionTo("a1", &applied, models.StatusOffer, base),
		transitionTo("a2", &offer, models.StatusRejected, base.Add(time.Minute)),
		transitionTo("a3", &applied, models.StatusReplied, base.Add(2*time.Minute)),
	}

	graph := ComputeFlow(records)
	assert.Equal(t, []string{"Applied", "Replied", "Offer", "Rejected"}, graph.Nodes)
}

func TestTimeSeriesZeroFillsMiddleBucket(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 5, 3, 0, 0, 0, 0, time.UTC)

	apps := []models.Application{
		{Status: models.StatusReplied, CreatedAt: from.Add(2 * time.Hour)},
		{Status: models.StatusApplied, CreatedAt: to.Add(time.Hour)},
	}

	series := ComputeTimeSeries(apps, models.TimeWindow{From: from, To: to.Add(23 * time.Hour), Interval: models.IntervalDay})
	require.Len(t, series, 3)

	assert.Equal(t, models.TimeBucket{Date: "2026-05-01", Applications: 1, Responded: 1}, series[0])
	assert.Equal(t, models.TimeBucket{Date: "2026-05-02", Applications: 0, Responded: 0}, series[1])
	assert.Equal(t, models.TimeBucket{Date: "2026-05-03", Applications: 1, Responded: 0}, series[2])
}

func TestTimeSeriesBucketsByCreationNotAppliedDate(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	apps := []models.Application{{
		Status:      models.StatusApplied,
		CreatedAt:   from.Add(time.Hour),
		AppliedDate: from.AddDate(0, -1, 0),
	}}

	series := ComputeTimeSeries(apps, models.TimeWindow{From: from, To: from, Interval: models.IntervalDay})
	require.Len(t, series, 1)
	assert.Equal(t, 1, series[0].Applications)
}

func TestTimeSeriesGhostedCountsAsNoResponse(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	apps := []models.Application{{Status: models.StatusGhosted, CreatedAt: from}}

	series := ComputeTimeSeries(apps, models.TimeWindow{From: from, To: from, Interval: models.IntervalDay})
	require.Len(t, series, 1)
	assert.Equal(t, 1, series[0].Applications)
	assert.Zero(t, series[0].Responded)
}

func TestTimeSeriesMonthlyBuckets(t *testing.T) {
	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	series := ComputeTimeSeries(nil, models.TimeWindow{From: from, To: to, Interval: models.IntervalMonth})
	require.Len(t, series, 3)
	assert.Equal(t, "2026-01", series[0].Date)
	assert.Equal(t, "2026-03", series[2].Date)
}

func TestTokenizeTechStack(t *testing.T) {
	assert.Equal(t, []string{"React", "Node"}, TokenizeTechStack("React, Node"))
	assert.Equal(t, []string{"React", "TypeScript"}, TokenizeTechStack("React/TypeScript"))
	assert.Equal(t, []string{"Go", "gRPC"}, TokenizeTechStack("Go & gRPC"))
	assert.Empty(t, TokenizeTechStack("a, b"))
}

func TestTechFrequencyCountsAndSuccessRate(t *testing.T) {
	apps := []models.Application{
		appWithTech(models.StatusOffer, "React, Node"),
		appWithTech(models.StatusApplied, "React/TypeScript"),
		appWithTech(models.StatusRejected, "React"),
	}

	entries := ComputeTechFrequency(apps, 12)
	require.NotEmpty(t, entries)

	assert.Equal(t, "React", entries[0].Tech)
	assert.Equal(t, 3, entries[0].Count)
	assert.Equal(t, 1, entries[0].Offers)
	assert.Equal(t, 33, entries[0].SuccessRate)

	// Node and TypeScript tie at one mention each; Node appeared first.
	assert.Equal(t, "Node", entries[1].Tech)
	assert.Equal(t, "TypeScript", entries[2].Tech)
}

func TestTechFrequencyTopKLimit(t *testing.T) {
	apps := []models.Application{
		appWithTech(models.StatusApplied, "Go, Rust, Python, Java"),
	}
	entries := ComputeTechFrequency(apps, 2)
	assert.Len(t, entries, 2)
}

func TestIndustryRollupRatesAndOrdering(t *testing.T) {
	apps := []models.Application{
		{CompanyName: "Solarisbank", Status: models.StatusOffer},
		{CompanyName: "Trade Republic", Status: models.StatusApplied},
		{CompanyName: "Zalando Shop", Status: models.StatusReplied},
	}

	summaries := ComputeIndustryRollup(apps, NewIndustryClassifier())
	require.Len(t, summaries, 2)

	assert.Equal(t, "Fintech", summaries[0].Industry)
	assert.Equal(t, 2, summaries[0].Applications)
	assert.Equal(t, 1, summaries[0].Offers)
	assert.Equal(t, 50, summaries[0].ResponseRate)
	assert.Equal(t, 50, summaries[0].OfferRate)

	assert.Equal(t, "E-Commerce", summaries[1].Industry)
	assert.Equal(t, 100, summaries[1].ResponseRate)
}

func TestSummaryRates(t *testing.T) {
	apps := []models.Application{
		app(models.StatusApplied),
		app(models.StatusPhoneScreen),
		app(models.StatusOffer),
		app(models.StatusGhosted),
	}

	summary := ComputeSummary(apps)
	assert.Equal(t, 4, summary.TotalApplications)
	assert.Equal(t, 50, summary.ResponseRate)
	assert.Equal(t, 50, summary.InterviewRate)
	assert.Equal(t, 2, summary.ActiveApplications)
}
