package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/hostel-meals/utils"
)

// SweepMetrics counts what the sweeper has done since it started.
type SweepMetrics struct {
	Runs     int64
	Purged   int64
	Failures int64
}

// PurchaseSweeper periodically removes expired staged purchases from the
// SQL store. The Redis store expires keys on its own and needs no sweeper.
type PurchaseSweeper struct {
	Store    *SQLPurchaseStore
	Interval time.Duration
	Now      Clock

	metrics SweepMetrics
	mutex   sync.Mutex
	stop    chan struct{}
	done    chan struct{}
}

// NewPurchaseSweeper membuat sweeper dengan interval default 5 menit
func NewPurchaseSweeper(store *SQLPurchaseStore) *PurchaseSweeper {
	return &PurchaseSweeper{
		Store:    store,
		Interval: 5 * time.Minute,
	}
}

func (ps *PurchaseSweeper) Start() {
	ps.stop = make(chan struct{})
	ps.done = make(chan struct{})
	go ps.loop()
	utils.InfoLogger.WithField("interval", ps.Interval).Info("Purchase sweeper started")
}

// Stop blocks until the running sweep (if any) has finished.
func (ps *PurchaseSweeper) Stop() {
	if ps.stop == nil {
		return
	}
	close(ps.stop)
	<-ps.done
	ps.stop = nil
}

func (ps *PurchaseSweeper) loop() {
	defer close(ps.done)
	ticker := time.NewTicker(ps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ps.Sweep(context.Background())
		case <-ps.stop:
			return
		}
	}
}

// Sweep runs one purge pass and returns how many rows were removed.
func (ps *PurchaseSweeper) Sweep(ctx context.Context) int64 {
	n, err := ps.Store.PurgeExpired(ctx, ps.Now.now())

	ps.mutex.Lock()
	ps.metrics.Runs++
	if err != nil {
		ps.metrics.Failures++
	} else {
		ps.metrics.Purged += n
	}
	ps.mutex.Unlock()

	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Failed to purge expired purchases")
		return 0
	}
	if n > 0 {
		utils.InfoLogger.WithFields(logrus.Fields{"purged": n}).Info("Expired purchases removed")
	}
	return n
}

func (ps *PurchaseSweeper) Metrics() SweepMetrics {
	ps.mutex.Lock()
	defer ps.mutex.Unlock()
	return ps.metrics
}
