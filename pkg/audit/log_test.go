package audit_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/audit"
	"github.com/atomledger/provenance-engine/pkg/hashing"
)

func TestAppend_ChainsFromGenesis(t *testing.T) {
	log := audit.NewMemoryAuditLog()

	first, err := log.Append(audit.Event{EventId: "evt-1", TraceId: "trace-1", EventType: audit.EventRunStarted, CreatedAt: time.Unix(0, 0).UTC()})
	require.NoError(t, err)
	require.Equal(t, uint64(0), first.Idx)
	require.Equal(t, hashing.GenesisHash, first.PreviousHash)
	require.NotEmpty(t, first.EventHash)

	second, err := log.Append(audit.Event{EventId: "evt-2", TraceId: "trace-1", EventType: audit.EventRunCompleted, CreatedAt: time.Unix(1, 0).UTC()})
	require.NoError(t, err)
	require.Equal(t, uint64(1), second.Idx)
	require.Equal(t, first.EventHash, second.PreviousHash)
}

func TestVerifyAuditChain_DetectsTamper(t *testing.T) {
	log := audit.NewMemoryAuditLog()
	_, _ = log.Append(audit.Event{EventId: "evt-1", TraceId: "trace-2", EventType: audit.EventRunStarted, CreatedAt: time.Unix(0, 0).UTC()})
	_, _ = log.Append(audit.Event{EventId: "evt-2", TraceId: "trace-2", EventType: audit.EventRunCompleted, CreatedAt: time.Unix(1, 0).UTC()})

	events, err := log.Query("trace-2")
	require.NoError(t, err)

	result := audit.VerifyAuditChain(events)
	require.True(t, result.Valid)

	events[0].Payload = map[string]interface{}{"tampered": true}
	result = audit.VerifyAuditChain(events)
	require.False(t, result.Valid)
	require.Equal(t, int64(0), result.FirstInvalidIndex)
}

func TestListTraceIds_Distinct(t *testing.T) {
	log := audit.NewMemoryAuditLog()
	_, _ = log.Append(audit.Event{EventId: "evt-1", TraceId: "trace-a", EventType: audit.EventRunStarted, CreatedAt: time.Unix(0, 0).UTC()})
	_, _ = log.Append(audit.Event{EventId: "evt-2", TraceId: "trace-b", EventType: audit.EventRunStarted, CreatedAt: time.Unix(0, 0).UTC()})
	_, _ = log.Append(audit.Event{EventId: "evt-3", TraceId: "trace-a", EventType: audit.EventRunCompleted, CreatedAt: time.Unix(1, 0).UTC()})

	ids, err := log.ListTraceIds()
	require.NoError(t, err)
	require.Equal(t, []string{"trace-a", "trace-b"}, ids)
}
