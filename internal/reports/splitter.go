package reports

import (
	"fmt"
	"maps"
	"slices"

	"usage-ingestion/internal/buffers"
	"usage-ingestion/internal/models"
)

// SplitReport spreads the operation map keys of report over at most n
// sub-reports. Every operation travels with the map record it references, so
// the union of the sub-reports equals the original. A report that cannot be
// split is returned as the only element.
func SplitReport(report *models.Report, n int) []*models.Report {
	if report == nil {
		return nil
	}
	keys := slices.Sorted(maps.Keys(report.Map))
	if n <= 1 || len(keys) <= 1 {
		return []*models.Report{report}
	}
	n = min(n, len(keys))

	chunks := make([]*models.Report, n)
	chunkOf := make(map[string]int, len(keys))
	offset := 0
	for i := range chunks {
		chunk := models.NewReport(fmt.Sprintf("%s--chunk-%d", report.ID, i), report.Target)
		size := buffers.CalculateChunkSize(len(keys), n, i)
		for _, key := range keys[offset : offset+size] {
			chunk.Map[key] = report.Map[key]
			chunkOf[key] = i
		}
		offset += size
		chunks[i] = chunk
	}

	// Operations with a dangling key stay in the first chunk rather than being dropped.
	for _, op := range report.Operations {
		idx := chunkOf[op.OperationMapKey]
		chunks[idx].Operations = append(chunks[idx].Operations, op)
	}
	for _, op := range report.SubscriptionOperations {
		idx := chunkOf[op.OperationMapKey]
		chunks[idx].SubscriptionOperations = append(chunks[idx].SubscriptionOperations, op)
	}
	for _, chunk := range chunks {
		chunk.RecomputeSize()
	}
	return chunks
}
