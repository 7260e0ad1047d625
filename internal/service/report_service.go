package service

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/facilityworks/helpdesk/internal/domain"
	"github.com/facilityworks/helpdesk/internal/persistence"
	"github.com/facilityworks/helpdesk/internal/policy"
	"github.com/facilityworks/helpdesk/internal/repository"
	apperrors "github.com/facilityworks/helpdesk/pkg/util"
)

// GroupBy selects the report dimension.
type GroupBy string

const (
	GroupByStatus    GroupBy = "status"
	GroupByType      GroupBy = "type"
	GroupByRequester GroupBy = "requester"
)

// DateRange bounds a report by creation timestamp, inclusive on both
// ends.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DayRange builds an inclusive range spanning whole calendar days in UTC.
func DayRange(start, end time.Time) DateRange {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 999999999, time.UTC)
	return DateRange{Start: s, End: e}
}

// RequesterCount is one row of the top-requesters report.
type RequesterCount struct {
	RequesterID string `json:"requester_id"`
	Count       int    `json:"count"`
}

// DashboardSummary is the fixed manager dashboard: live workload
// counts plus tickets resolved today.
type DashboardSummary struct {
	Open          int `json:"open"`
	InProgress    int `json:"in_progress"`
	OnHold        int `json:"on_hold"`
	ResolvedToday int `json:"resolved_today"`
}

const dashboardCacheKey = "helpdesk:dashboard"
const dashboardCacheTTL = 30 * time.Second

// ReportService computes summary statistics over the ticket store.
// Read-only; never mutates anything.
type ReportService struct {
	tickets repository.TicketRepository
	cache   *persistence.Redis
	logger  *zap.Logger
}

// NewReportService constructs the aggregator. The cache is optional;
// without it every dashboard request recounts.
func NewReportService(tickets repository.TicketRepository, cache *persistence.Redis, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{tickets: tickets, cache: cache, logger: logger}
}

// Aggregate groups tickets created inside the range and counts them
// per group key.
func (s *ReportService) Aggregate(ctx context.Context, actor *domain.User, rng DateRange, groupBy GroupBy) (map[string]int, error) {
	if !policy.CanPerform(actor.Role, actor.ID, nil, policy.OpViewReports) {
		return nil, apperrors.NewForbidden("not allowed to view reports")
	}

	tickets, err := s.ticketsInRange(ctx, rng)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for i := range tickets {
		key, ok := groupKey(&tickets[i], groupBy)
		if !ok {
			return nil, apperrors.NewValidationError("unknown grouping", map[string]any{"group_by": groupBy})
		}
		counts[key]++
	}
	return counts, nil
}

// TopRequesters returns the n busiest requesters in the range. Ties
// break toward the smaller requester id so the report is
// deterministic.
func (s *ReportService) TopRequesters(ctx context.Context, actor *domain.User, rng DateRange, n int) ([]RequesterCount, error) {
	counts, err := s.Aggregate(ctx, actor, rng, GroupByRequester)
	if err != nil {
		return nil, err
	}

	rows := make([]RequesterCount, 0, len(counts))
	for requester, count := range counts {
		rows = append(rows, RequesterCount{RequesterID: requester, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].RequesterID < rows[j].RequesterID
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

// Dashboard returns the manager summary, served from cache when fresh.
func (s *ReportService) Dashboard(ctx context.Context, actor *domain.User) (*DashboardSummary, error) {
	if !policy.CanPerform(actor.Role, actor.ID, nil, policy.OpViewDashboard) {
		return nil, apperrors.NewForbidden("not allowed to view the dashboard")
	}

	if cached := s.cachedDashboard(ctx); cached != nil {
		return cached, nil
	}

	tickets, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	summary := &DashboardSummary{}
	for i := range tickets {
		switch tickets[i].Status {
		case domain.TicketStatusOpen:
			summary.Open++
		case domain.TicketStatusInProgress:
			summary.InProgress++
		case domain.TicketStatusOnHold:
			summary.OnHold++
		case domain.TicketStatusResolved:
			if !tickets[i].UpdatedAt.UTC().Before(today) {
				summary.ResolvedToday++
			}
		}
	}

	s.storeDashboard(ctx, summary)
	return summary, nil
}

func (s *ReportService) ticketsInRange(ctx context.Context, rng DateRange) ([]domain.Ticket, error) {
	start := rng.Start
	end := rng.End
	tickets, err := s.tickets.List(ctx, repository.TicketFilter{
		CreatedFrom: &start,
		CreatedTo:   &end,
	})
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return tickets, nil
}

func groupKey(t *domain.Ticket, groupBy GroupBy) (string, bool) {
	switch groupBy {
	case GroupByStatus:
		return string(t.Status), true
	case GroupByType:
		return string(t.Type), true
	case GroupByRequester:
		return t.RequesterID, true
	}
	return "", false
}

func (s *ReportService) cachedDashboard(ctx context.Context) *DashboardSummary {
	if s.cache == nil || s.cache.Client == nil {
		return nil
	}
	raw, err := s.cache.Client.Get(ctx, dashboardCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var summary DashboardSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil
	}
	return &summary
}

func (s *ReportService) storeDashboard(ctx context.Context, summary *DashboardSummary) {
	if s.cache == nil || s.cache.Client == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.cache.Client.Set(ctx, dashboardCacheKey, raw, dashboardCacheTTL).Err(); err != nil {
		s.logger.Debug("dashboard cache write failed", zap.Error(err))
	}
}
