package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"locktrack/pkg/lockclient"
)

// Load generator: hammers the tracker with interval inserts across a
// set of resources, deliberately producing overlaps and a slice of
// invalid requests, then verifies the query surface against what was
// accepted.

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8080", "locktrack base URL")
		resources = flag.Int("resources", 10, "number of distinct resources")
		locks     = flag.Int("locks", 500, "number of lock inserts")
		clients   = flag.Int("clients", 20, "number of concurrent clients")
		span      = flag.Int64("span", 100000, "time span locks are drawn from")
		badRate   = flag.Float64("badrate", 0.05, "probability of sending an inverted interval")
		timeout   = flag.Duration("timeout", 60*time.Second, "overall deadline")
	)
	flag.Parse()

	rand.Seed(time.Now().UnixNano())

	c := lockclient.New(*baseURL, &http.Client{Timeout: 10 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var (
		addOK      int64
		addInvalid int64
		errCount   int64
	)

	jobs := make(chan int, *locks)
	for i := 0; i < *locks; i++ {
		jobs <- i
	}
	close(jobs)

	start := time.Now()
	wg := sync.WaitGroup{}

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				if ctx.Err() != nil {
					return
				}
				resource := fmt.Sprintf("R%d", n%*resources)

				maxLen := *span / 10
				if maxLen <= 0 {
					maxLen = 1
				}
				s := rand.Int63n(*span)
				e := s + 1 + rand.Int63n(maxLen)
				if rand.Float64() < *badRate {
					s, e = e, s // inverted, server must reject
				}

				_, err := c.AddLock(ctx, resource, s, e)
				switch {
				case err == nil:
					atomic.AddInt64(&addOK, 1)
				case isInvalid(err):
					atomic.AddInt64(&addInvalid, 1)
				default:
					atomic.AddInt64(&errCount, 1)
				}
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Query pass: every resource answers status and collision scans.
	var (
		locked    int64
		free      int64
		pairTotal int64
	)
	for r := 0; r < *resources; r++ {
		resource := fmt.Sprintf("R%d", r)

		for p := 0; p < 20; p++ {
			st, err := c.Status(ctx, resource, rand.Int63n(*span))
			if err != nil {
				atomic.AddInt64(&errCount, 1)
				continue
			}
			if st == "LOCKED" {
				locked++
			} else {
				free++
			}
		}

		pairs, err := c.Collisions(ctx, resource)
		if err != nil {
			atomic.AddInt64(&errCount, 1)
			continue
		}
		pairTotal += int64(len(pairs))

		first, err := c.FirstCollision(ctx, resource)
		if err != nil {
			atomic.AddInt64(&errCount, 1)
			continue
		}
		if len(first) > 1 {
			fmt.Printf("BUG: first collision returned %d pairs for %s\n", len(first), resource)
		}
		if len(pairs) > 0 && len(first) == 0 {
			fmt.Printf("BUG: %s has %d pairs but no first collision\n", resource, len(pairs))
		}
	}

	fmt.Println("=== locktrack Load Report ===")
	fmt.Printf("duration: %s, clients: %d, resources: %d\n", elapsed, *clients, *resources)
	fmt.Printf("add_success:    %d\n", addOK)
	fmt.Printf("add_invalid:    %d\n", addInvalid)
	fmt.Printf("status_locked:  %d\n", locked)
	fmt.Printf("status_free:    %d\n", free)
	fmt.Printf("collision_pairs: %d\n", pairTotal)
	fmt.Printf("errors:         %d\n", errCount)
}

func isInvalid(err error) bool {
	var ie *lockclient.InvalidInputError
	return errors.As(err, &ie)
}
