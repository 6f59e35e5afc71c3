package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// AISession is one sender's running conversation with the AI commands.
// LastMsgID is the ID of the bot's own last AI reply; a bare reply quoting
// that message continues the conversation without a command prefix.
type AISession struct {
	History     string `json:"history"`
	Persona     string `json:"persona"`
	LastMsgID   string `json:"last_msg_id"`
	LastUpdated int64  `json:"last_updated"`
}

// Sessions is the conversation-memory surface the AI handlers use. Tests
// swap in a map-backed fake.
type Sessions interface {
	Load(ctx context.Context, sender string) (AISession, bool)
	Save(ctx context.Context, sender string, sess AISession)
}

const (
	sessionWindow = 30 * time.Minute
	historyClamp  = 2000
)

// SessionStore keeps AI sessions in Redis, keyed per sender. A nil store
// (Redis not configured) degrades to stateless AI replies.
type SessionStore struct {
	rdb *redis.Client
}

func connectSessions(ctx context.Context, url string) (*SessionStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &SessionStore{rdb: rdb}, nil
}

func sessionKey(sender string) string { return "ai_session:" + sender }

// Load returns the sender's session when it exists and is still inside the
// conversation window.
func (s *SessionStore) Load(ctx context.Context, sender string) (AISession, bool) {
	if s == nil || s.rdb == nil {
		return AISession{}, false
	}
	val, err := s.rdb.Get(ctx, sessionKey(sender)).Result()
	if err != nil {
		return AISession{}, false
	}
	var sess AISession
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return AISession{}, false
	}
	if time.Now().Unix()-sess.LastUpdated >= int64(sessionWindow.Seconds()) {
		return AISession{}, false
	}
	return sess, true
}

// Save stores the session, clamping history so prompts stay bounded.
func (s *SessionStore) Save(ctx context.Context, sender string, sess AISession) {
	if s == nil || s.rdb == nil {
		return
	}
	if len(sess.History) > historyClamp {
		sess.History = sess.History[len(sess.History)-historyClamp:]
	}
	sess.LastUpdated = time.Now().Unix()
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, sessionKey(sender), data, sessionWindow).Err(); err != nil {
		logf("⚠️ [Redis] session save failed: %v", err)
	}
}
