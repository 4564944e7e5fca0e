package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// HealthChecker verifies broker connectivity through the admin API.
type HealthChecker struct {
	brokers string
	timeout time.Duration
}

// NewHealthChecker creates a new Kafka health checker.
func NewHealthChecker(brokers string) *HealthChecker {
	return &HealthChecker{
		brokers: brokers,
		timeout: 5 * time.Second,
	}
}

// Check asks the cluster for its broker list; any answer means healthy.
func (h *HealthChecker) Check(ctx context.Context) error {
	if h.brokers == "" {
		return fmt.Errorf("kafka brokers not configured")
	}

	client, err := kgo.NewClient(kgo.SeedBrokers(strings.Split(h.brokers, ",")...))
	if err != nil {
		return fmt.Errorf("create kafka client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	adm := kadm.NewClient(client)
	if _, err := adm.ListBrokers(ctx); err != nil {
		return fmt.Errorf("list kafka brokers: %w", err)
	}
	return nil
}

// Name returns the check name for health reporting.
func (h *HealthChecker) Name() string {
	return "kafka"
}
