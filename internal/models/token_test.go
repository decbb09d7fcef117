package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenInfo_ExpiresAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		retention int
		timestamp int64
		want      int64
	}{
		{name: "no retention", retention: 0, timestamp: 1_000, want: 0},
		{name: "negative retention", retention: -1, timestamp: 1_000, want: 0},
		{name: "one day", retention: 1, timestamp: 1_000, want: 1_000 + 86_400_000},
		{name: "thirty days", retention: 30, timestamp: 1_700_000_000_000, want: 1_700_000_000_000 + 30*86_400_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := TokenInfo{Target: "t", RetentionDays: tt.retention}
			assert.Equal(t, tt.want, info.ExpiresAt(tt.timestamp))
		})
	}
}

func TestReport_RecomputeSize(t *testing.T) {
	t.Parallel()

	r := NewReport("r1", "target")
	assert.NotNil(t, r.Map)
	assert.Equal(t, 0, r.RecomputeSize())

	r.Operations = []RawOperation{{OperationMapKey: "a"}, {OperationMapKey: "b"}}
	r.SubscriptionOperations = []RawSubscriptionOperation{{OperationMapKey: "c"}}
	assert.Equal(t, 3, r.RecomputeSize())
	assert.Equal(t, 3, r.Size)
}
