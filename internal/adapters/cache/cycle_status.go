package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-comment-automation-service/internal/ports"
)

const cycleStatusKey = "automation:reconcile:last_cycle"

// CycleStatusStore persists the most recent reconcile report so any API
// instance can serve the status endpoint.
type CycleStatusStore struct {
	client *redis.Client
}

func NewCycleStatusStore(client *redis.Client) *CycleStatusStore {
	return &CycleStatusStore{client: client}
}

func (s *CycleStatusStore) SetLastCycle(ctx context.Context, report domain.CycleReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode cycle report: %w", err)
	}
	if err := s.client.Set(ctx, cycleStatusKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("store cycle report: %w", err)
	}
	return nil
}

func (s *CycleStatusStore) GetLastCycle(ctx context.Context) (domain.CycleReport, bool, error) {
	raw, err := s.client.Get(ctx, cycleStatusKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.CycleReport{}, false, nil
		}
		return domain.CycleReport{}, false, fmt.Errorf("load cycle report: %w", err)
	}
	var report domain.CycleReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return domain.CycleReport{}, false, fmt.Errorf("decode cycle report: %w", err)
	}
	return report, true, nil
}

var _ ports.CycleStatusStore = (*CycleStatusStore)(nil)
