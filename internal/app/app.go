package app

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nmehta/talkiee/internal/coach"
	"github.com/nmehta/talkiee/internal/eventlog"
	"github.com/nmehta/talkiee/internal/history"
	"github.com/nmehta/talkiee/internal/httpapi"
	"github.com/nmehta/talkiee/internal/llm"
	"github.com/nmehta/talkiee/internal/stt"
	"github.com/nmehta/talkiee/internal/tts"
)

type App struct {
	cfg        Config
	logger     *log.Logger
	db         *pgxpool.Pool
	events     *eventlog.Logger
	store      *history.Store
	coach      *coach.Coach
	sttClient  stt.Client
	ttsClient  tts.Client
	httpClient *http.Client
}

func New(cfg Config, logger *log.Logger) (*App, error) {
	// The event log is optional; without DATABASE_URL everything runs
	// with a nil pool and events are silently skipped.
	var db *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		db = pool
	}

	// Shared HTTP client with connection pooling for the generation,
	// recognition and synthesis services. Keeps TCP connections alive to
	// reduce latency for repeated calls.
	httpClient := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   5 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}

	grok := llm.NewGrokClient(llm.GrokConfig{
		APIKey:     cfg.XAIAPIKey,
		Model:      cfg.XAIModel,
		BaseURL:    cfg.XAIBaseURL,
		HTTPClient: httpClient,
	})
	gen := llm.NewGenerator(grok, llm.GeneratorConfig{}, logger)

	var sttClient stt.Client
	if cfg.STTBaseURL != "" {
		sttClient = stt.NewHTTPClient(stt.HTTPConfig{
			BaseURL:    cfg.STTBaseURL,
			HTTPClient: httpClient,
		})
	}

	var ttsClient tts.Client
	if cfg.ElevenLabsAPIKey != "" {
		ttsClient = tts.NewElevenLabsClient(tts.ElevenLabsConfig{
			APIKey:     cfg.ElevenLabsAPIKey,
			VoiceID:    cfg.TTSVoiceID,
			HTTPClient: httpClient,
		})
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		db:         db,
		events:     eventlog.New(db),
		store:      history.NewStore(cfg.HistoryPath),
		coach:      coach.New(gen),
		sttClient:  sttClient,
		ttsClient:  ttsClient,
		httpClient: httpClient,
	}, nil
}

func (a *App) Router() http.Handler {
	routerCfg := httpapi.RouterConfig{
		AccessCode:   a.cfg.AccessCode,
		JWTSecret:    a.cfg.JWTSecret,
		JWTExpiry:    a.cfg.JWTExpiry,
		ChunkSeconds: a.cfg.ChunkSeconds,
		Language:     a.cfg.Language,
	}
	return httpapi.NewRouter(routerCfg, a.logger, httpapi.Deps{
		Coach:  a.coach,
		STT:    a.sttClient,
		Store:  a.store,
		Events: a.events,
	})
}

// Coach exposes the shared coach for CLI front ends.
func (a *App) Coach() *coach.Coach { return a.coach }

// STT exposes the recognition client; nil when STT_BASE_URL is unset.
func (a *App) STT() stt.Client { return a.sttClient }

// TTS exposes the synthesis client; nil when ELEVENLABS_API_KEY is unset.
func (a *App) TTS() tts.Client { return a.ttsClient }

// Store exposes the history store.
func (a *App) Store() *history.Store { return a.store }

// Events exposes the event logger; safe to use with no database.
func (a *App) Events() *eventlog.Logger { return a.events }

func (a *App) Close() error {
	if a.db != nil {
		a.db.Close()
	}
	return nil
}
