// internal/chaos/experiments.go
package chaos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"booknest/internal/result"
)

// Experiments is the default game day, ordered so that the stock race runs
// last and leaves nothing for the others to sell.
func (sb *Sandbox) Experiments() []Experiment {
	return []Experiment{
		sb.OrderStoreFailure(3),
		sb.BookStoreLatency(250*time.Millisecond, 100*time.Millisecond, 2*time.Second),
		sb.PurchaseRace(100),
	}
}

// PurchaseRace fires concurrent single-copy orders at one listing.
func (sb *Sandbox) PurchaseRace(concurrency int) Experiment {
	return Experiment{
		Name:        "concurrent-purchase-race",
		Hypothesis:  "Concurrent orders never reserve more copies than are in stock",
		SteadyState: []Probe{sb.stockConsistency(), sb.reservationLeak()},
		Method: []Action{{
			Target: "purchase-service",
			Execute: func(ctx context.Context) error {
				var wg sync.WaitGroup
				var placed, unexpected atomic.Int64
				for range concurrency {
					wg.Add(1)
					go func() {
						defer wg.Done()
						err := sb.buyOne(ctx)
						switch {
						case err == nil:
							placed.Add(1)
						case !errors.Is(err, result.ErrInsufficientStock):
							unexpected.Add(1)
						}
					}()
				}
				wg.Wait()

				if int(placed.Load()) > sb.Stock {
					return fmt.Errorf("placed %d orders against %d copies", placed.Load(), sb.Stock)
				}
				if n := unexpected.Load(); n > 0 {
					return fmt.Errorf("%d orders failed for a reason other than stock", n)
				}
				return nil
			},
		}},
	}
}

// BookStoreLatency slows the book store and expects reads to come back
// within budget once the latency is removed.
func (sb *Sandbox) BookStoreLatency(latency, budget, duration time.Duration) Experiment {
	return Experiment{
		Name:       "book-store-latency",
		Hypothesis: "Book reads recover once store latency is removed",
		SteadyState: []Probe{{
			Name: "read_latency_ms",
			Query: func(ctx context.Context) (float64, error) {
				start := time.Now()
				if _, err := sb.Books.GetBook(ctx, sb.BookID); err != nil {
					return 0, err
				}
				return float64(time.Since(start).Milliseconds()), nil
			},
			Threshold: Threshold{Operator: "<", Value: float64(budget.Milliseconds())},
		}},
		Method: []Action{{
			Target:  "book-store",
			Execute: func(context.Context) error { sb.BookFaults.SetLatency(latency); return nil },
		}},
		Rollback: []Action{{
			Target:  "book-store",
			Execute: func(context.Context) error { sb.BookFaults.Reset(); return nil },
		}},
		Duration: duration,
		Interval: duration / 5,
	}
}

// OrderStoreFailure makes order writes fail after the copies were reserved
// and expects every reservation to be released.
func (sb *Sandbox) OrderStoreFailure(attempts int) Experiment {
	return Experiment{
		Name:        "order-store-failure",
		Hypothesis:  "A failed order write releases the copies it reserved",
		SteadyState: []Probe{sb.stockConsistency(), sb.reservationLeak()},
		Method: []Action{{
			Target: "order-store",
			Execute: func(ctx context.Context) error {
				sb.OrderFaults.FailNext(attempts)
				for range attempts {
					if err := sb.buyOne(ctx); err == nil {
						return errors.New("order succeeded while the store was failing")
					}
				}
				return nil
			},
		}},
		Rollback: []Action{{
			Target:  "order-store",
			Execute: func(context.Context) error { sb.OrderFaults.Reset(); return nil },
		}},
	}
}
