package redis

import (
	"context"
	"encoding/json"

	"weekly-challenge/internal/domain"

	"github.com/redis/go-redis/v9"
)

// LeaderboardStore keeps entries in a hash and best scores in a sorted set:
//
//	HSET challenge:{id}:leaderboard {userID} {entry json}
//	ZADD challenge:{id}:ranking     {bestScore} {userID}
type LeaderboardStore struct {
	client *redis.Client
}

func NewLeaderboardStore(client *redis.Client) *LeaderboardStore {
	return &LeaderboardStore{client: client}
}

func (s *LeaderboardStore) Get(ctx context.Context, challengeID, userID string) (domain.LeaderboardEntry, error) {
	raw, err := s.client.HGet(ctx, s.entriesKey(challengeID), userID).Bytes()
	if isNil(err) {
		return domain.LeaderboardEntry{}, domain.ErrEntryNotFound
	}
	if err != nil {
		return domain.LeaderboardEntry{}, err
	}
	var entry domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return domain.LeaderboardEntry{}, err
	}
	return entry, nil
}

func (s *LeaderboardStore) Put(ctx context.Context, entry domain.LeaderboardEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.entriesKey(entry.ChallengeID), entry.UserID, payload)
		pipe.ZAdd(ctx, s.rankingKey(entry.ChallengeID), redis.Z{
			Score:  float64(entry.BestScore),
			Member: entry.UserID,
		})
		return nil
	})
	return err
}

// List returns entries in best-score order; ties are settled by the caller.
func (s *LeaderboardStore) List(ctx context.Context, challengeID string) ([]domain.LeaderboardEntry, error) {
	users, err := s.client.ZRevRange(ctx, s.rankingKey(challengeID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return []domain.LeaderboardEntry{}, nil
	}
	values, err := s.client.HMGet(ctx, s.entriesKey(challengeID), users...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.LeaderboardEntry, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var entry domain.LeaderboardEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *LeaderboardStore) entriesKey(challengeID string) string {
	return "challenge:" + challengeID + ":leaderboard"
}

func (s *LeaderboardStore) rankingKey(challengeID string) string {
	return "challenge:" + challengeID + ":ranking"
}
