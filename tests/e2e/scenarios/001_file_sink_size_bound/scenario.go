package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"usage-ingestion/internal/models"
	"usage-ingestion/internal/publishers"

	"github.com/goccy/go-json"
)

// ### Start - fixed configs (no change)
// These values must match configs/configs.yml of this scenario.
const (
	totalReports = 400
	limitInBytes = 16384
	compression  = publishers.CompressionGzip
)

var operations = []string{
	"query GetUser { user { id name } }",
	"query ListPosts { posts { id title author { name } } }",
	"mutation Like { like(id: 1) { id likes } }",
	"subscription OnComment { comment { id body } }",
}

// ### End - fixed configs

type ingestResponse struct {
	ID         string `json:"id"`
	Operations struct {
		Accepted int `json:"accepted"`
		Rejected int `json:"rejected"`
	} `json:"operations"`
}

// main runs the e2e scenario: 001_file_sink_size_bound
//
// Start the server with CONFIG_PATH pointing at this scenario's configs.yml,
// then run this program from the project root. It posts a mix of current and
// legacy usage reports, waits for the buffer to drain and reads every batch the
// file sink wrote.
//
// Expected results:
//   - every request answers 200 with one rejected operation per report
//   - no batch file exceeds limit_in_bytes
//   - the operations found in batch files equal the accepted total
//   - every operation key resolves inside its own report
func main() {
	baseURL := "http://localhost:8080"
	token := "e2e-token"
	parallel := 4
	storageDir := ".tmp/file-storage"
	drainWait := 5 * time.Second

	batchDir := filepath.Join(storageDir, "usage-batches")
	if err := os.RemoveAll(batchDir); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to clean %s: %v\n", batchDir, err)
		os.Exit(1)
	}

	var accepted, rejected, failed int64
	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < parallel; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				resp, err := send(baseURL, token, i)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					fmt.Fprintf(os.Stderr, "report %d failed: %v\n", i, err)
					continue
				}
				atomic.AddInt64(&accepted, int64(resp.Operations.Accepted))
				atomic.AddInt64(&rejected, int64(resp.Operations.Rejected))
			}
		}()
	}
	for i := 0; i < totalReports; i++ {
		work <- i
	}
	close(work)
	wg.Wait()

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "ERROR: %d requests failed\n", failed)
		os.Exit(1)
	}

	fmt.Printf("Waiting %s for the buffer to drain...\n", drainWait)
	time.Sleep(drainWait)

	files, err := filepath.Glob(filepath.Join(batchDir, "*.json.gz"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	published := 0
	largest := 0
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		largest = max(largest, len(data))
		if len(data) > limitInBytes {
			fmt.Fprintf(os.Stderr, "ERROR: %s is %d bytes, above the %d limit\n", file, len(data), limitInBytes)
			os.Exit(1)
		}

		raw, err := publishers.Decompress(data, compression)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %v\n", file, err)
			os.Exit(1)
		}
		var batch []models.Report
		if err := json.Unmarshal(raw, &batch); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s: %v\n", file, err)
			os.Exit(1)
		}
		for _, report := range batch {
			for _, op := range report.Operations {
				if _, ok := report.Map[op.OperationMapKey]; !ok {
					fmt.Fprintf(os.Stderr, "ERROR: %s: report %s has dangling key %s\n", file, report.ID, op.OperationMapKey)
					os.Exit(1)
				}
			}
			published += report.Size
		}
	}

	fmt.Println("=== Statistics ===")
	fmt.Printf("Reports sent: %d\n", totalReports)
	fmt.Printf("Operations accepted: %d\n", accepted)
	fmt.Printf("Operations rejected: %d\n", rejected)
	fmt.Printf("Batch files: %d (largest %d bytes)\n", len(files), largest)
	fmt.Printf("Operations published: %d\n", published)

	if int64(published) != accepted {
		fmt.Fprintf(os.Stderr, "ERROR: published %d operations, accepted %d\n", published, accepted)
		os.Exit(1)
	}
	if rejected != totalReports {
		fmt.Fprintf(os.Stderr, "ERROR: expected %d rejected operations, got %d\n", totalReports, rejected)
		os.Exit(1)
	}
	fmt.Println("Scenario completed successfully")
}

// reportJSON builds report i. Even reports use the current shape, odd ones the
// legacy array shape. Each report carries one operation with an unknown key.
func reportJSON(i int) []byte {
	ts := time.Date(2025, 12, 28, 18, 0, 0, 0, time.UTC).UnixMilli() + int64(i)
	opsPerReport := 20 + i%30

	if i%2 == 1 {
		items := make([]map[string]any, 0, opsPerReport+1)
		for j := 0; j < opsPerReport; j++ {
			op := operations[j%len(operations)]
			items = append(items, map[string]any{
				"operation": op,
				"fields":    []string{"Query.user", "User.id"},
				"timestamp": ts + int64(j),
				"execution": map[string]any{"ok": j%5 != 0, "duration": 1_000_000 + j, "errorsTotal": 0},
			})
		}
		// missing operation text: rejected
		items = append(items, map[string]any{
			"fields":    []string{"Query.user"},
			"timestamp": ts,
			"execution": map[string]any{"ok": true, "duration": 1, "errorsTotal": 0},
		})
		data, _ := json.Marshal(items)
		return data
	}

	mapping := map[string]any{}
	ops := make([]map[string]any, 0, opsPerReport+1)
	for j, op := range operations {
		mapping[fmt.Sprintf("client-%d", j)] = map[string]any{
			"operation": op,
			"fields":    []string{"Query.user", "User.id"},
		}
	}
	for j := 0; j < opsPerReport; j++ {
		ops = append(ops, map[string]any{
			"operationMapKey": fmt.Sprintf("client-%d", j%len(operations)),
			"timestamp":       ts + int64(j),
			"execution":       map[string]any{"ok": true, "duration": 2_000_000, "errorsTotal": 0},
		})
	}
	ops = append(ops, map[string]any{
		"operationMapKey": "client-unknown",
		"timestamp":       ts,
		"execution":       map[string]any{"ok": true, "duration": 1, "errorsTotal": 0},
	})
	data, _ := json.Marshal(map[string]any{
		"size":       len(ops),
		"map":        mapping,
		"operations": ops,
	})
	return data
}

func send(baseURL, token string, i int) (*ingestResponse, error) {
	req, err := http.NewRequest(http.MethodPost, baseURL+"/usage", bytes.NewReader(reportJSON(i)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-token", token)
	req.Header.Set("graphql-client-name", "e2e")
	req.Header.Set("graphql-client-version", strings.Repeat("1", 1+i%3))

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	var out ingestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &out, nil
}
