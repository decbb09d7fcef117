package reports

import (
	"fmt"
	"maps"
	"slices"
	"testing"

	"usage-ingestion/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildReport(keys, opsPerKey, subsPerKey int) *models.Report {
	report := models.NewReport("report-1", "org/project/target")
	for k := 0; k < keys; k++ {
		key := fmt.Sprintf("key-%02d", k)
		report.Map[key] = models.OperationMapRecord{
			Operation: fmt.Sprintf("query Q%d { field%d }", k, k),
			Fields:    []string{fmt.Sprintf("Query.field%d", k)},
		}
		for o := 0; o < opsPerKey; o++ {
			report.Operations = append(report.Operations, models.RawOperation{
				OperationMapKey: key,
				Timestamp:       int64(1_700_000_000_000 + k*100 + o),
				Execution:       models.Execution{Ok: true, Duration: int64(o)},
			})
		}
		for s := 0; s < subsPerKey; s++ {
			report.SubscriptionOperations = append(report.SubscriptionOperations, models.RawSubscriptionOperation{
				OperationMapKey: key,
				Timestamp:       int64(1_700_000_000_000 + k*100 + s),
			})
		}
	}
	report.RecomputeSize()
	return report
}

func TestSplitReport_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, n := range []int{2, 3, 4, 7, 10, 50} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			report := buildReport(10, 3, 1)
			chunks := SplitReport(report, n)
			require.Len(t, chunks, min(n, 10))

			var keys []string
			var ops []models.RawOperation
			var subs []models.RawSubscriptionOperation
			totalSize := 0
			for i, chunk := range chunks {
				assert.Equal(t, fmt.Sprintf("report-1--chunk-%d", i), chunk.ID)
				assert.Equal(t, report.Target, chunk.Target)
				assert.NotEmpty(t, chunk.Map)
				assert.Equal(t, len(chunk.Operations)+len(chunk.SubscriptionOperations), chunk.Size)
				for _, op := range chunk.Operations {
					assert.Contains(t, chunk.Map, op.OperationMapKey)
				}
				for _, op := range chunk.SubscriptionOperations {
					assert.Contains(t, chunk.Map, op.OperationMapKey)
				}
				keys = append(keys, slices.Collect(maps.Keys(chunk.Map))...)
				ops = append(ops, chunk.Operations...)
				subs = append(subs, chunk.SubscriptionOperations...)
				totalSize += chunk.Size
			}

			assert.ElementsMatch(t, slices.Collect(maps.Keys(report.Map)), keys)
			assert.ElementsMatch(t, report.Operations, ops)
			assert.ElementsMatch(t, report.SubscriptionOperations, subs)
			assert.Equal(t, report.Size, totalSize)
		})
	}
}

func TestSplitReport_BalancesKeys(t *testing.T) {
	t.Parallel()

	chunks := SplitReport(buildReport(10, 1, 0), 3)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Map, 3)
	assert.Len(t, chunks[1].Map, 3)
	assert.Len(t, chunks[2].Map, 4)
}

func TestSplitReport_Unsplittable(t *testing.T) {
	t.Parallel()

	single := buildReport(1, 5, 0)
	assert.Equal(t, []*models.Report{single}, SplitReport(single, 4))

	many := buildReport(4, 1, 0)
	assert.Equal(t, []*models.Report{many}, SplitReport(many, 1))
	assert.Equal(t, []*models.Report{many}, SplitReport(many, 0))

	assert.Nil(t, SplitReport(nil, 3))
}

func TestSplitReport_KeepsDanglingOperations(t *testing.T) {
	t.Parallel()

	report := buildReport(2, 1, 0)
	report.Operations = append(report.Operations, models.RawOperation{OperationMapKey: "missing"})
	report.RecomputeSize()

	chunks := SplitReport(report, 2)
	require.Len(t, chunks, 2)
	assert.Equal(t, 3, chunks[0].Size+chunks[1].Size)
}
