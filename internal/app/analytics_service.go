package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"crm_onboarding_bot/internal/domain/manager"
	"crm_onboarding_bot/internal/domain/operator"
	idb "crm_onboarding_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// StatsCacheTTL matches the inline query cache time, stats older than that are recomputed.
const StatsCacheTTL = 5 * time.Minute

const (
	statsDayLayout        = "2006-01-02"
	statsFetchConcurrency = 8
	registrationBonus     = "-100"
	zeroOrderPrice        = "0.00"
)

// AnalyticsService computes per-manager conversion stats and keeps operator preferences.
type AnalyticsService struct {
	directory manager.Directory
	cache     manager.StatsCache
	operators operator.Repository
	now       func() time.Time
	logger    *logrus.Entry
}

// NewAnalyticsService wires the service. cache may be nil, stats are then computed on every call.
func NewAnalyticsService(directory manager.Directory, cache manager.StatsCache, operators operator.Repository, logger *logrus.Entry) *AnalyticsService {
	return &AnalyticsService{
		directory: directory,
		cache:     cache,
		operators: operators,
		now:       time.Now,
		logger:    logger.WithField("component", "analytics_service"),
	}
}

func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	s.now = now
	return s
}

// Today returns the current day in the form the bonus list endpoint expects.
func (s *AnalyticsService) Today() string {
	return s.now().Format(statsDayLayout)
}

// ManagersStats returns every manager with the stats for day, best performers first.
func (s *AnalyticsService) ManagersStats(ctx context.Context, day string) ([]manager.WithStats, error) {
	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, day)
		if err != nil {
			s.logger.WithError(err).Warn("Stats cache read failed")
		} else if found {
			return cached, nil
		}
	}
	return s.RefreshStats(ctx, day)
}

// RefreshStats recomputes the stats for day and stores them in the cache.
func (s *AnalyticsService) RefreshStats(ctx context.Context, day string) ([]manager.WithStats, error) {
	logCtx := s.logger.WithField("day", day)

	managers, err := s.directory.ListManagers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list managers: %w", err)
	}
	logCtx.WithField("managers", len(managers)).Debug("Computing manager stats")

	result := make([]manager.WithStats, len(managers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statsFetchConcurrency)
	for i, m := range managers {
		i, m := i, m
		g.Go(func() error {
			result[i] = manager.WithStats{ID: m.ID, Name: m.Name}
			bonuses, err := s.directory.ListBonuses(gctx, m.ID, day, day)
			if err != nil {
				logCtx.WithError(err).WithField("manager_id", m.ID).Error("Failed to load bonus list, using zero stats")
				return nil
			}
			result[i].Stats = CalculateOperations(bonuses)
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(result, func(a, b int) bool {
		return score(result[a].Stats) > score(result[b].Stats)
	})

	if s.cache != nil {
		if err := s.cache.Set(ctx, day, result, StatsCacheTTL); err != nil {
			logCtx.WithError(err).Warn("Stats cache write failed")
		}
	}
	return result, nil
}

// WarmUp recomputes today's stats so inline queries hit the cache.
func (s *AnalyticsService) WarmUp(ctx context.Context) error {
	stats, err := s.RefreshStats(ctx, s.Today())
	if err != nil {
		return err
	}
	s.logger.WithField("managers", len(stats)).Info("Manager stats warmed up")
	return nil
}

// SaveDefaultManager stores managerID as the operator's default manager. It reports false
// when the CRM does not know the manager.
func (s *AnalyticsService) SaveDefaultManager(ctx context.Context, operatorTelegramID int64, managerID string) (bool, error) {
	managers, err := s.directory.ListManagers(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list managers: %w", err)
	}

	for _, m := range managers {
		if m.ID != managerID {
			continue
		}
		if _, err := s.operators.SaveDefaultManager(ctx, operatorTelegramID, m.ID, m.Name); err != nil {
			return false, fmt.Errorf("failed to save default manager: %w", err)
		}
		s.logger.WithFields(logrus.Fields{
			"operator_id":  operatorTelegramID,
			"manager_id":   m.ID,
			"manager_name": m.Name,
		}).Info("Default manager saved")
		return true, nil
	}

	s.logger.WithField("manager_id", managerID).Warn("Manager not found")
	return false, nil
}

// DefaultManager returns the name of the operator's default manager, "" when none is set.
func (s *AnalyticsService) DefaultManager(ctx context.Context, operatorTelegramID int64) (string, error) {
	op, err := s.operators.GetByTelegramID(ctx, operatorTelegramID)
	if err != nil {
		if errors.Is(err, idb.ErrOperatorNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get operator: %w", err)
	}
	if !op.DefaultManagerName.Valid {
		return "", nil
	}
	return op.DefaultManagerName.String, nil
}

// FilterManagers keeps the managers whose name contains query, ignoring case.
func FilterManagers(list []manager.WithStats, query string) []manager.WithStats {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return list
	}
	filtered := make([]manager.WithStats, 0, len(list))
	for _, m := range list {
		if strings.Contains(strings.ToLower(m.Name), q) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// CalculateOperations counts registrations and bonus usages in a manager's ledger.
//
// Operations are ordered by date, then by numeric id. A "-100" write-off with a zero order
// price followed by any accrual is a registration. Any other zero-price write-off followed by
// an accrual with a positive order price is a usage. Both pairs consume the next operation.
// A lone accrual with a positive order price is a usage too.
func CalculateOperations(bonuses []manager.Bonus) manager.OperationsStats {
	sorted := make([]manager.Bonus, len(bonuses))
	copy(sorted, bonuses)
	sort.SliceStable(sorted, func(a, b int) bool {
		if !sorted[a].Date.Equal(sorted[b].Date) {
			return sorted[a].Date.Before(sorted[b].Date)
		}
		return bonusID(sorted[a]) < bonusID(sorted[b])
	})

	var stats manager.OperationsStats
	for i := 0; i < len(sorted); i++ {
		current := sorted[i]
		value := number(current.Value)
		price := number(current.OrderPrice)

		if i+1 < len(sorted) {
			next := sorted[i+1]
			nextValue := number(next.Value)

			if current.Value == registrationBonus && current.OrderPrice == zeroOrderPrice && nextValue > 0 {
				stats.Registrations++
				stats.TotalOperations++
				i++
				continue
			}
			if value < 0 && current.OrderPrice == zeroOrderPrice && nextValue > 0 && number(next.OrderPrice) > 0 {
				stats.Usages++
				stats.TotalOperations++
				i++
				continue
			}
		}

		if value > 0 && price > 0 {
			stats.Usages++
			stats.TotalOperations++
		}
	}
	return stats
}

func score(s manager.OperationsStats) int {
	return s.Registrations + s.Usages
}

// number parses a CRM decimal string. Unparsable values compare false with everything.
func number(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func bonusID(b manager.Bonus) int64 {
	id, err := strconv.ParseInt(b.ID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
