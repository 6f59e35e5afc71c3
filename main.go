package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
)

// Device sessions are tagged by push name so several bots can share one
// session database.
const botTag = "WA_GUARD_BOT"

type app struct {
	bot       *Bot
	client    *whatsmeow.Client
	container *sqlstore.Container
	cfg       Config
}

func main() {
	logf("🚀 [System] Guard Bot starting...")
	cfg := loadConfig()

	dbType, dbURL := "postgres", cfg.DatabaseURL
	if dbURL == "" {
		dbType, dbURL = "sqlite3", "file:waguard.db?_foreign_keys=on"
	}

	ctx := context.Background()
	container, err := sqlstore.New(ctx, dbType, dbURL, waLog.Stdout("Database", "INFO", true))
	if err != nil {
		logf("❌ [System] session store: %v", err)
		os.Exit(1)
	}

	a := &app{container: container, cfg: cfg}
	a.client = newClient(ctx, container)
	a.bot = newBot(newWASocket(a.client), cfg)

	if cfg.MongoURI != "" {
		store, err := connectStore(ctx, cfg.MongoURI, cfg.Prefix)
		if err != nil {
			logf("⚠️ [Mongo] unavailable, settings will not persist: %v", err)
		} else {
			a.bot.Store = store
			store.StartAutoSave()
		}
	}
	if cfg.RedisURL != "" {
		sessions, err := connectSessions(ctx, cfg.RedisURL)
		if err != nil {
			logf("⚠️ [Redis] unavailable, AI sessions disabled: %v", err)
		} else {
			a.bot.AI = sessions
		}
	}

	a.client.AddEventHandler(a.handleEvent)
	if a.client.Store.ID != nil {
		logf("✅ [Status] Logged in as %s", a.client.Store.ID.User)
		if err := a.client.Connect(); err != nil {
			logf("❌ [System] connect: %v", err)
		}
	} else {
		logf("ℹ️ [Auth] No session. Pair via the web dashboard.")
	}

	go a.serveDashboard()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	a.client.Disconnect()
}

// newClient finds the device tagged as ours or prepares a fresh one.
func newClient(ctx context.Context, container *sqlstore.Container) *whatsmeow.Client {
	var device *store.Device
	devices, err := container.GetAllDevices(ctx)
	if err != nil {
		logf("⚠️ [Auth] device list: %v", err)
	}
	for _, dev := range devices {
		if dev.PushName == botTag {
			device = dev
			break
		}
	}
	if device == nil {
		device = container.NewDevice()
		device.PushName = botTag
	}
	return whatsmeow.NewClient(device, waLog.Stdout("Client", "INFO", true))
}

func (a *app) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		go a.onMessage(v)
	case *events.Connected:
		a.onConnected()
	}
}

// onConnected reapplies the persisted always-online flag; presence does not
// survive a reconnect.
func (a *app) onConnected() {
	b := a.bot
	if b.Store == nil || !b.Store.Data().AlwaysOnline {
		return
	}
	if err := b.Sock.Presence(context.Background(), true); err != nil {
		logf("⚠️ [Presence] %v", err)
	}
}

func (a *app) onMessage(v *events.Message) {
	ctx := context.Background()
	b := a.bot
	if b.Store != nil {
		data := b.Store.Data()
		if data.AutoRead {
			if err := b.Sock.MarkRead(ctx, v); err != nil {
				logf("⚠️ [AutoRead] %v", err)
			}
		}
		if data.AutoReact && !v.Info.IsFromMe {
			b.react(ctx, v, "❤️")
		}
	}
	b.Dispatch(ctx, v)
}

// serveDashboard exposes the pairing endpoint. POST /api/pair wipes the
// tagged device, re-pairs with the given number and returns the code.
func (a *app) serveDashboard() {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()
	r.StaticFile("/", "./web/index.html")
	r.POST("/api/pair", a.handlePairAPI)
	if err := r.Run(":" + a.cfg.Port); err != nil {
		logf("❌ [Web] %v", err)
	}
}

func (a *app) handlePairAPI(c *gin.Context) {
	var req struct {
		Number string `json:"number"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request"})
		return
	}
	num := strings.ReplaceAll(req.Number, "+", "")
	ctx := c.Request.Context()

	logf("🧹 [Auth] wiping %s sessions for re-pair with %s", botTag, num)
	devices, _ := a.container.GetAllDevices(ctx)
	for _, dev := range devices {
		if dev.PushName == botTag {
			a.container.DeleteDevice(ctx, dev)
		}
	}

	device := a.container.NewDevice()
	device.PushName = botTag

	if a.client.IsConnected() {
		a.client.Disconnect()
	}
	a.client = whatsmeow.NewClient(device, waLog.Stdout("Client", "INFO", true))
	a.client.AddEventHandler(a.handleEvent)
	a.bot.Sock = newWASocket(a.client)
	if err := a.client.Connect(); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}

	time.Sleep(10 * time.Second)
	code, err := a.client.PairPhone(ctx, num, true, whatsmeow.PairClientChrome, "Chrome (Linux)")
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": code})
}
