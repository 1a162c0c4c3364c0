package service

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/applyquest/applyquest-api/internal/models"
)

// roundPercent computes round(part/whole*100) with a zero-guard.
func roundPercent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// ComputeStatusDistribution counts applications by current status. Entries
// appear in pipeline order and zero-count statuses are omitted.
func ComputeStatusDistribution(apps []models.Application) []models.DistributionEntry {
	counts := make(map[models.Status]int)
	var extra []models.Status
	for _, app := range apps {
		if _, known := counts[app.Status]; !known && !statusInPipeline(app.Status) {
			extra = append(extra, app.Status)
		}
		counts[app.Status]++
	}

	total := len(apps)
	entries := make([]models.DistributionEntry, 0, len(counts))
	appendEntry := func(s models.Status) {
		if counts[s] == 0 {
			return
		}
		entries = append(entries, models.DistributionEntry{
			Status:     s,
			Count:      counts[s],
			Percentage: roundPercent(counts[s], total),
		})
	}
	for _, s := range models.PipelineStatuses {
		appendEntry(s)
	}
	for _, s := range extra {
		appendEntry(s)
	}
	return entries
}

func statusInPipeline(s models.Status) bool {
	for _, known := range models.PipelineStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// FunnelStages is the ordered pipeline subset the funnel reports on.
var FunnelStages = []models.Status{
	models.StatusApplied,
	models.StatusReplied,
	models.StatusPhoneScreen,
	models.StatusTechnicalRound1,
	models.StatusTechnicalRound2,
	models.StatusFinalRound,
	models.StatusOffer,
}

// ComputeFunnel builds the stage funnel. Each stage counts applications whose
// current status equals the stage; the conversion rate compares the stage
// count against the running total of all earlier stages, with the first stage
// measured against the full set.
func ComputeFunnel(apps []models.Application) []models.FunnelStage {
	counts := make(map[models.Status]int)
	for _, app := range apps {
		counts[app.Status]++
	}

	stages := make([]models.FunnelStage, 0, len(FunnelStages))
	precedingTotal := 0
	for i, status := range FunnelStages {
		count := counts[status]
		var conversion int
		if i == 0 {
			conversion = roundPercent(count, len(apps))
		} else {
			conversion = roundPercent(count, precedingTotal)
		}
		stages = append(stages, models.FunnelStage{
			Stage:          string(status),
			Count:          count,
			ConversionRate: conversion,
		})
		precedingTotal += count
	}
	return stages
}

// ComputeFlow folds every history record into a Sankey-ready transition
// graph. Records must arrive ordered by change time. A record without an old
// status is the creation event and emits an Applied-to-Applied link; repeated
// same-status changes emit self-edges the same way, since every appended
// record is a discrete event. Nodes render in pipeline priority order with
// ties kept in first-seen order.
func ComputeFlow(records []models.TransitionRecord) models.FlowGraph {
	type edgeKey struct {
		source, target string
	}
	edgeCounts := make(map[edgeKey]int)
	var edgeOrder []edgeKey

	seen := make(map[string]int)
	var nodeOrder []string
	addNode := func(name string) {
		if _, ok := seen[name]; !ok {
			seen[name] = len(nodeOrder)
			nodeOrder = append(nodeOrder, name)
		}
	}

	for _, record := range records {
		source := string(models.StatusApplied)
		if record.OldStatus != nil {
			source = string(*record.OldStatus)
		}
		target := string(record.NewStatus)
		addNode(source)
		addNode(target)
		key := edgeKey{source: source, target: target}
		if _, ok := edgeCounts[key]; !ok {
			edgeOrder = append(edgeOrder, key)
		}
		edgeCounts[key]++
	}

	if len(nodeOrder) == 0 {
		nodeOrder = []string{string(models.StatusApplied)}
	}

	sort.SliceStable(nodeOrder, func(i, j int) bool {
		pi := models.StatusPriority(models.Status(nodeOrder[i]))
		pj := models.StatusPriority(models.Status(nodeOrder[j]))
		if pi != pj {
			return pi < pj
		}
		return seen[nodeOrder[i]] < seen[nodeOrder[j]]
	})

	edges := make([]models.FlowEdge, 0, len(edgeOrder))
	for _, key := range edgeOrder {
		edges = append(edges, models.FlowEdge{
			Source: key.source,
			Target: key.target,
			Count:  edgeCounts[key],
		})
	}
	return models.FlowGraph{Nodes: nodeOrder, Edges: edges}
}

// bucketKey normalises a timestamp to its bucket label.
func bucketKey(t time.Time, interval models.TimeInterval) string {
	switch interval {
	case models.IntervalWeek:
		// Monday of the ISO week.
		shift := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -shift).Format("2006-01-02")
	case models.IntervalMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

func nextBucket(t time.Time, interval models.TimeInterval) time.Time {
	switch interval {
	case models.IntervalWeek:
		return t.AddDate(0, 0, 7)
	case models.IntervalMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func bucketStart(t time.Time, interval models.TimeInterval) time.Time {
	year, month, day := t.Date()
	switch interval {
	case models.IntervalWeek:
		shift := (int(t.Weekday()) + 6) % 7
		return time.Date(year, month, day-shift, 0, 0, 0, 0, t.Location())
	case models.IntervalMonth:
		return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	}
}

// ComputeTimeSeries buckets applications by creation time over the window.
// Every bucket between from and to appears even when empty. Responded counts
// applications whose current status shows the company reacted.
func ComputeTimeSeries(apps []models.Application, window models.TimeWindow) []models.TimeBucket {
	interval := window.Interval
	if interval == "" {
		interval = models.IntervalDay
	}

	applications := make(map[string]int)
	responded := make(map[string]int)
	for _, app := range apps {
		if app.CreatedAt.Before(window.From) || app.CreatedAt.After(window.To) {
			continue
		}
		key := bucketKey(app.CreatedAt, interval)
		applications[key]++
		if hasResponse(app.Status) {
			responded[key]++
		}
	}

	var series []models.TimeBucket
	end := bucketStart(window.To, interval)
	for cursor := bucketStart(window.From, interval); !cursor.After(end); cursor = nextBucket(cursor, interval) {
		key := bucketKey(cursor, interval)
		series = append(series, models.TimeBucket{
			Date:         key,
			Applications: applications[key],
			Responded:    responded[key],
		})
	}
	return series
}

// hasResponse reports whether the status implies the company replied.
// Ghosted means silence, so it counts as no response.
func hasResponse(s models.Status) bool {
	return s != models.StatusApplied && s != models.StatusGhosted
}

// TokenizeTechStack splits a free-text tech stack into normalised tokens.
// Delimiters are commas, slashes, ampersands and plus signs; single-character
// fragments are dropped.
func TokenizeTechStack(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		switch r {
		case ',', '/', '&', '+':
			return true
		}
		return false
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		token := strings.TrimSpace(field)
		if len(token) <= 1 {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// ComputeTechFrequency counts technology mentions across applications and
// returns the topK entries by count, ties resolved by first appearance. Each
// application contributes one count per distinct token.
func ComputeTechFrequency(apps []models.Application, topK int) []models.TechEntry {
	if topK <= 0 {
		topK = 12
	}

	counts := make(map[string]int)
	offers := make(map[string]int)
	firstSeen := make(map[string]int)
	var order []string

	for _, app := range apps {
		if app.TechStack == nil {
			continue
		}
		distinct := make(map[string]bool)
		for _, token := range TokenizeTechStack(*app.TechStack) {
			if distinct[token] {
				continue
			}
			distinct[token] = true
			if _, ok := firstSeen[token]; !ok {
				firstSeen[token] = len(order)
				order = append(order, token)
			}
			counts[token]++
			if app.Status == models.StatusOffer {
				offers[token]++
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})
	if len(order) > topK {
		order = order[:topK]
	}

	entries := make([]models.TechEntry, 0, len(order))
	for _, token := range order {
		entries = append(entries, models.TechEntry{
			Tech:        token,
			Count:       counts[token],
			Offers:      offers[token],
			SuccessRate: roundPercent(offers[token], counts[token]),
		})
	}
	return entries
}

// IndustryClassifier buckets companies into coarse industries by keyword.
type IndustryClassifier struct {
	rules []industryRule
}

type industryRule struct {
	industry string
	keywords []string
}

// NewIndustryClassifier builds the default keyword classifier.
func NewIndustryClassifier() *IndustryClassifier {
	return &IndustryClassifier{rules: []industryRule{
		{industry: "Fintech", keywords: []string{"bank", "finance", "fintech", "pay", "insur", "capital", "trade"}},
		{industry: "E-Commerce", keywords: []string{"shop", "commerce", "retail", "market", "delivery"}},
		{industry: "Automotive", keywords: []string{"auto", "mobility", "car", "motor"}},
		{industry: "Healthcare", keywords: []string{"health", "med", "pharma", "bio", "care"}},
		{industry: "Consulting", keywords: []string{"consult", "agency", "solutions", "services"}},
		{industry: "Media", keywords: []string{"media", "music", "stream", "game", "entertainment"}},
		{industry: "Logistics", keywords: []string{"logist", "transport", "freight", "shipping"}},
	}}
}

// Classify maps a company name to an industry, falling back to Tech.
func (c *IndustryClassifier) Classify(companyName string) string {
	name := strings.ToLower(companyName)
	for _, rule := range c.rules {
		for _, keyword := range rule.keywords {
			if strings.Contains(name, keyword) {
				return rule.industry
			}
		}
	}
	return "Tech"
}

// ComputeIndustryRollup aggregates applications per classified industry,
// ordered by application count with first-seen tiebreak.
func ComputeIndustryRollup(apps []models.Application, classifier *IndustryClassifier) []models.IndustrySummary {
	if classifier == nil {
		classifier = NewIndustryClassifier()
	}

	type rollup struct {
		applications int
		responded    int
		offers       int
	}
	rollups := make(map[string]*rollup)
	firstSeen := make(map[string]int)
	var order []string

	for _, app := range apps {
		industry := classifier.Classify(app.CompanyName)
		agg, ok := rollups[industry]
		if !ok {
			agg = &rollup{}
			rollups[industry] = agg
			firstSeen[industry] = len(order)
			order = append(order, industry)
		}
		agg.applications++
		if hasResponse(app.Status) {
			agg.responded++
		}
		if app.Status == models.StatusOffer {
			agg.offers++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if rollups[order[i]].applications != rollups[order[j]].applications {
			return rollups[order[i]].applications > rollups[order[j]].applications
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})

	summaries := make([]models.IndustrySummary, 0, len(order))
	for _, industry := range order {
		agg := rollups[industry]
		summaries = append(summaries, models.IndustrySummary{
			Industry:     industry,
			Applications: agg.applications,
			Responded:    agg.responded,
			Offers:       agg.offers,
			ResponseRate: roundPercent(agg.responded, agg.applications),
			OfferRate:    roundPercent(agg.offers, agg.applications),
		})
	}
	return summaries
}

// ComputeSummary derives the dashboard quick stats.
func ComputeSummary(apps []models.Application) models.PipelineSummary {
	total := len(apps)
	responded := 0
	interviewed := 0
	active := 0
	for _, app := range apps {
		if hasResponse(app.Status) {
			responded++
		}
		if isInterviewStage(app.Status) || app.Status == models.StatusOffer {
			interviewed++
		}
		if !app.Status.Terminal() {
			active++
		}
	}
	return models.PipelineSummary{
		TotalApplications:  total,
		ResponseRate:       roundPercent(responded, total),
		InterviewRate:      roundPercent(interviewed, total),
		ActiveApplications: active,
	}
}

func isInterviewStage(s models.Status) bool {
	for _, stage := range models.InterviewStatuses {
		if s == stage {
			return true
		}
	}
	return false
}
