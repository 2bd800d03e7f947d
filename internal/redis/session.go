package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"ridepay/internal/domain"
)

const sessionKeyPrefix = "tap:session:"

// claimScript deletes the session key only if it still holds the expected payload.
var claimScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionStore holds open distance-based tap sessions, one per passenger.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore creates a new SessionStore. Sessions expire after ttl.
func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Get returns the open session for a passenger, or nil if there is none.
func (s *SessionStore) Get(ctx context.Context, passengerID string) (*domain.TapSession, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+passengerID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var session domain.TapSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Open stores session if the passenger has none open.
// Returns false if another session already exists.
func (s *SessionStore) Open(ctx context.Context, session *domain.TapSession) (bool, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return false, err
	}
	return s.client.SetNX(ctx, sessionKeyPrefix+session.PassengerID, data, s.ttl).Result()
}

// Claim removes session if it is still the stored one.
// Exactly one caller can claim a given session.
func (s *SessionStore) Claim(ctx context.Context, session *domain.TapSession) (bool, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return false, err
	}

	n, err := claimScript.Run(ctx, s.client, []string{sessionKeyPrefix + session.PassengerID}, string(data)).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
