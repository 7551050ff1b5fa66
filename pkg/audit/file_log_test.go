package audit_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atomledger/provenance-engine/pkg/audit"
)

func TestFileAuditLog_AppendAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	log, err := audit.NewFileAuditLog(path)
	require.NoError(t, err)

	_, err = log.Append(audit.Event{EventId: "evt-1", TraceId: "trace-1", EventType: audit.EventRunStarted, CreatedAt: time.Unix(0, 0).UTC()})
	require.NoError(t, err)
	_, err = log.Append(audit.Event{EventId: "evt-2", TraceId: "trace-1", EventType: audit.EventRunCompleted, CreatedAt: time.Unix(1, 0).UTC()})
	require.NoError(t, err)

	events, err := log.Query("trace-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	result := audit.VerifyAuditChain(events)
	require.True(t, result.Valid)
}

func TestFileAuditLog_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")

	first, err := audit.NewFileAuditLog(path)
	require.NoError(t, err)
	_, err = first.Append(audit.Event{EventId: "evt-1", TraceId: "trace-1", EventType: audit.EventRunStarted, CreatedAt: time.Unix(0, 0).UTC()})
	require.NoError(t, err)

	reopened, err := audit.NewFileAuditLog(path)
	require.NoError(t, err)

	events, err := reopened.Query("trace-1")
	require.NoError(t, err)
	require.Len(t, events, 1)

	second, err := reopened.Append(audit.Event{EventId: "evt-2", TraceId: "trace-1", EventType: audit.EventRunCompleted, CreatedAt: time.Unix(1, 0).UTC()})
	require.NoError(t, err)
	require.Equal(t, uint64(1), second.Idx)
	require.Equal(t, events[0].EventHash, second.PreviousHash)
}
