package interaction

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/atomledger/provenance-engine/pkg/domain"
)

// redisTransitionScript applies an interaction transition atomically:
// checks the idempotency key first (returns the recorded result if seen),
// otherwise compares the stored current state with the before-state the
// event was validated against and, only if they are equal, writes the new
// state and increments the transition index — all server-side, so two
// racing callers cannot both succeed from the same before-state; the
// caller whose before-state is stale gets Conflict.
//
// KEYS[1] = interaction state hash key ("interaction:<id>")
// KEYS[2] = idempotency record key ("interaction:<id>:applied:<key>")
// ARGV[1] = next state (resolved client-side from the domain's transition
//           table, since Lua has no access to Go's state machine)
// ARGV[2] = the before-state ARGV[1] was resolved from
var redisTransitionScript = redis.NewScript(`
local stateKey = KEYS[1]
local idempKey = KEYS[2]
local nextState = ARGV[1]
local expectedState = ARGV[2]

local applied = redis.call("GET", idempKey)
if applied then
    return {"AlreadyApplied", applied}
end

local current = redis.call("HGET", stateKey, "state")
if not current then
    return {"NotFound", ""}
end
if current ~= expectedState then
    return {"Conflict", ""}
end

local idx = tonumber(redis.call("HGET", stateKey, "transition_index")) or 0
idx = idx + 1

redis.call("HSET", stateKey, "state", nextState, "transition_index", idx)
local result = current .. "|" .. nextState .. "|" .. tostring(idx)
redis.call("SET", idempKey, result)

return {"Applied", result}
`)

// RedisCoordinator implements Coordinator with a CAS Lua script executed
// server-side, for deployments sharing an interaction's state across
// multiple processes (spec.md §4.8).
type RedisCoordinator struct {
	client *redis.Client
}

func NewRedisCoordinator(client *redis.Client) *RedisCoordinator {
	return &RedisCoordinator{client: client}
}

// Seed writes an interaction's initial state; analogous to
// MemoryCoordinator.Register.
func (c *RedisCoordinator) Seed(ctx context.Context, ia domain.Interaction) error {
	key := stateKey(ia.InteractionId)
	return c.client.HSet(ctx, key, "state", string(ia.State), "transition_index", 0).Err()
}

func (c *RedisCoordinator) ApplyTransition(ctx context.Context, interactionId domain.InteractionId, event domain.InteractionEvent, idempotencyKey string) (TransitionResult, error) {
	sKey := stateKey(interactionId)

	current, err := c.client.HGet(ctx, sKey, "state").Result()
	if err == redis.Nil {
		return TransitionResult{Outcome: OutcomeNotFound}, nil
	}
	if err != nil {
		return TransitionResult{Outcome: OutcomeBackendError, Error: err.Error()}, fmt.Errorf("interaction: read state: %w", err)
	}

	next, ok := domain.CanTransition(domain.InteractionState(current), event)
	if !ok {
		return TransitionResult{Outcome: OutcomeInvalidTransition, BeforeState: domain.InteractionState(current), AfterState: domain.InteractionState(current)}, nil
	}

	res, err := redisTransitionScript.Run(ctx, c.client,
		[]string{sKey, idempKey(interactionId, idempotencyKey)},
		string(next), current,
	).Result()
	if err != nil {
		return TransitionResult{Outcome: OutcomeBackendError, Error: err.Error()}, fmt.Errorf("interaction: transition script: %w", err)
	}

	fields, ok := res.([]interface{})
	if !ok || len(fields) != 2 {
		return TransitionResult{Outcome: OutcomeBackendError, Error: "malformed script response"}, fmt.Errorf("interaction: malformed script response")
	}
	outcome, _ := fields[0].(string)
	payload, _ := fields[1].(string)

	before, after, idx := parseTransitionPayload(payload)
	return TransitionResult{
		Outcome:         Outcome(outcome),
		BeforeState:     before,
		AfterState:      after,
		TransitionIndex: idx,
	}, nil
}

func stateKey(id domain.InteractionId) string {
	return fmt.Sprintf("interaction:%s", id.Value())
}

func idempKey(id domain.InteractionId, key string) string {
	return fmt.Sprintf("interaction:%s:applied:%s", id.Value(), key)
}

func parseTransitionPayload(payload string) (before, after domain.InteractionState, idx uint64) {
	parts := splitPipe(payload)
	if len(parts) != 3 {
		return "", "", 0
	}
	var i uint64
	_, _ = fmt.Sscanf(parts[2], "%d", &i)
	return domain.InteractionState(parts[0]), domain.InteractionState(parts[1]), i
}

func splitPipe(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '|' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
