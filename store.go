package main

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BotData is the process-wide configuration persisted across restarts.
type BotData struct {
	ID           string `bson:"_id" json:"id"`
	Prefix       string `bson:"prefix" json:"prefix"`
	AlwaysOnline bool   `bson:"always_online" json:"always_online"`
	AutoRead     bool   `bson:"auto_read" json:"auto_read"`
	AutoReact    bool   `bson:"auto_react" json:"auto_react"`
}

// GroupSettings is the per-group state: who may run commands here.
type GroupSettings struct {
	ChatID string `bson:"chat_id" json:"chat_id"`
	Mode   string `bson:"mode" json:"mode"` // public | admin | private
}

// Store keeps BotData and GroupSettings in MongoDB with an in-memory cache
// in front. All methods are safe without a Mongo connection (coll == nil):
// they just work on the cache.
type Store struct {
	coll *mongo.Collection

	mu     sync.RWMutex
	data   BotData
	groups map[string]GroupSettings
}

func newStore(coll *mongo.Collection, defaultPrefix string) *Store {
	return &Store{
		coll:   coll,
		data:   BotData{ID: "bot_config", Prefix: defaultPrefix},
		groups: make(map[string]GroupSettings),
	}
}

func connectStore(ctx context.Context, uri, defaultPrefix string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		return nil, err
	}
	s := newStore(cli.Database("waguard").Collection("settings"), defaultPrefix)
	s.load(ctx)
	return s, nil
}

func (s *Store) load(ctx context.Context) {
	if s.coll == nil {
		return
	}
	var loaded BotData
	err := s.coll.FindOne(ctx, bson.M{"_id": "bot_config"}).Decode(&loaded)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		logf("ℹ️ [Store] no saved bot data, using defaults")
		return
	}
	s.data = loaded
	logf("✅ [Store] bot data loaded from MongoDB")
}

func (s *Store) Data() BotData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Store) Update(fn func(*BotData)) {
	s.mu.Lock()
	fn(&s.data)
	s.mu.Unlock()
	s.save()
}

func (s *Store) save() {
	if s.coll == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	opts := options.Replace().SetUpsert(true)
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": "bot_config"}, data, opts); err != nil {
		logf("⚠️ [Store] save failed: %v", err)
	}
}

// GroupSettings returns a copy of the settings for a chat, fetching from
// Mongo on first access and defaulting to public mode. Mutations go through
// SetGroupMode or SaveGroupSettings so they happen under the store lock.
func (s *Store) GroupSettings(chatID string) GroupSettings {
	s.mu.RLock()
	g, ok := s.groups[chatID]
	s.mu.RUnlock()
	if ok {
		return g
	}

	g = GroupSettings{ChatID: chatID, Mode: "public"}
	if s.coll != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		res := s.coll.FindOne(ctx, bson.M{"chat_id": chatID})
		if res.Err() == nil {
			res.Decode(&g)
		}
	}
	s.mu.Lock()
	// Another goroutine may have cached the chat while we were fetching.
	if cached, ok := s.groups[chatID]; ok {
		s.mu.Unlock()
		return cached
	}
	s.groups[chatID] = g
	s.mu.Unlock()
	return g
}

// SetGroupMode switches one group's command mode.
func (s *Store) SetGroupMode(chatID, mode string) {
	g := s.GroupSettings(chatID)
	g.Mode = mode
	s.SaveGroupSettings(g)
}

func (s *Store) SaveGroupSettings(g GroupSettings) {
	s.mu.Lock()
	s.groups[g.ChatID] = g
	s.mu.Unlock()
	if s.coll == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Update().SetUpsert(true)
	if _, err := s.coll.UpdateOne(ctx, bson.M{"chat_id": g.ChatID}, bson.M{"$set": g}, opts); err != nil {
		logf("⚠️ [Store] group save failed: %v", err)
	}
}

// StartAutoSave flushes bot data every 30 seconds in the background.
func (s *Store) StartAutoSave() {
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			s.save()
		}
	}()
}
