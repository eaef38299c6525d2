package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

func main() {
	baseURL := "http://localhost:8080/api/v1/attendance/grid"

	numRequests := 500
	employeesPerGrid := 50
	concurrency := 20

	ids := make([]string, employeesPerGrid)
	for i := range ids {
		ids[i] = fmt.Sprintf("load-test-emp-%d", i)
	}
	query := url.Values{
		"year":       {"2025"},
		"month":      {"6"},
		"employeeId": {strings.Join(ids, ",")},
	}
	target := baseURL + "?" + query.Encode()

	fmt.Printf("Starting load test: %d month grids of %d employees against %s with concurrency %d\n",
		numRequests, employeesPerGrid, baseURL, concurrency)

	client := &http.Client{Timeout: 30 * time.Second}
	var successCount, failCount int64

	var g errgroup.Group
	g.SetLimit(concurrency)

	startTime := time.Now()
	for i := 0; i < numRequests; i++ {
		g.Go(func() error {
			resp, err := client.Get(target)
			if err != nil {
				atomic.AddInt64(&failCount, 1)
				return nil
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				atomic.AddInt64(&successCount, 1)
			} else {
				atomic.AddInt64(&failCount, 1)
			}
			return nil
		})
	}
	_ = g.Wait()
	duration := time.Since(startTime)

	cells := numRequests * employeesPerGrid * 30
	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", numRequests)
	fmt.Printf("Successful:     %d\n", successCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(numRequests)/duration.Seconds())
	fmt.Printf("Cells/Sec:      %.2f\n", float64(cells)/duration.Seconds())
}
