package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/internal/adapter/queue"
	"github.com/seu-repo/sigec-route/internal/domain"
	"github.com/seu-repo/sigec-route/internal/service/catalog"
)

type publishOptions struct {
	stationsFile string
	provider     string
	url          string
	interval     time.Duration
	count        int
	seed         int64
}

func newPublishCmd() *cobra.Command {
	opts := publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish random charger status changes to the station status feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPublish(ctx, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.stationsFile, "stations", "data/stations.json", "Station catalog used to pick chargers")
	f.StringVar(&opts.provider, "provider", "nats", "Broker provider (nats or rabbitmq)")
	f.StringVar(&opts.url, "url", "nats://localhost:4222", "Broker URL")
	f.DurationVar(&opts.interval, "interval", 2*time.Second, "Delay between updates")
	f.IntVar(&opts.count, "count", 0, "Number of updates to send (0 runs until interrupted)")
	f.Int64Var(&opts.seed, "seed", 0, "Random seed (0 uses the current time)")
	return cmd
}

func runPublish(ctx context.Context, opts publishOptions) error {
	if opts.provider == "memory" {
		return fmt.Errorf("the memory queue is in-process only; use nats or rabbitmq")
	}

	data, err := os.ReadFile(opts.stationsFile)
	if err != nil {
		return fmt.Errorf("failed to read stations file: %w", err)
	}
	stations, err := catalog.ParseCatalog(data)
	if err != nil {
		return fmt.Errorf("failed to parse stations file: %w", err)
	}
	if len(stations) == 0 {
		return fmt.Errorf("no stations in %s", opts.stationsFile)
	}

	mq, err := queue.New(queue.Config{Provider: opts.provider, URL: opts.url, Name: "sigec-route-simulator"}, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer mq.Close()

	seed := opts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	logger.Info("Publishing station status updates",
		zap.String("provider", opts.provider),
		zap.Int("stations", len(stations)),
		zap.Duration("interval", opts.interval),
	)

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	sent := 0
	for opts.count == 0 || sent < opts.count {
		update, ok := randomUpdate(rng, stations, time.Now().UTC())
		if ok {
			payload, _ := json.Marshal(update)
			if err := mq.Publish(queue.SubjectStationStatus, payload); err != nil {
				return fmt.Errorf("failed to publish update: %w", err)
			}
			sent++
			logger.Debug("Status update sent",
				zap.String("station_id", update.StationID),
				zap.String("charger_id", update.ChargerID),
				zap.String("status", string(update.Status)),
			)
		}

		select {
		case <-ctx.Done():
			logger.Info("Publisher stopped", zap.Int("sent", sent))
			return nil
		case <-ticker.C:
		}
	}

	logger.Info("Publisher finished", zap.Int("sent", sent))
	return nil
}

var simulatedStatuses = []domain.ChargerStatus{
	domain.ChargerStatusAvailable,
	domain.ChargerStatusAvailable,
	domain.ChargerStatusOccupied,
	domain.ChargerStatusOccupied,
	domain.ChargerStatusMaintenance,
}

// randomUpdate picks a charger and a new status for it. Wait times move with
// the status so occupied stations look busier. ok is false when the chosen
// station has no chargers.
func randomUpdate(rng *rand.Rand, stations []domain.Station, now time.Time) (domain.ChargerStatusUpdate, bool) {
	st := stations[rng.Intn(len(stations))]
	if len(st.Chargers) == 0 {
		return domain.ChargerStatusUpdate{}, false
	}
	ch := st.Chargers[rng.Intn(len(st.Chargers))]
	status := simulatedStatuses[rng.Intn(len(simulatedStatuses))]

	wait := float64(rng.Intn(5))
	if status == domain.ChargerStatusOccupied {
		wait = float64(10 + rng.Intn(20))
	}

	return domain.ChargerStatusUpdate{
		StationID:      st.ID,
		ChargerID:      ch.ID,
		Status:         status,
		AvgWaitMinutes: &wait,
		ObservedAt:     now,
	}, true
}
