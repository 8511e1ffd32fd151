package bootstrap

import (
	"context"
	"time"

	"e261-voice-be/internal/config"
	"e261-voice-be/internal/controller"
	"e261-voice-be/internal/events"
	"e261-voice-be/internal/handler"
	"e261-voice-be/internal/pkg/logger"
	"e261-voice-be/internal/pkg/mailer"
	"e261-voice-be/internal/repository/contract"
	"e261-voice-be/internal/repository/implementation"
	"e261-voice-be/internal/repository/memory"
	"e261-voice-be/internal/service"
	"e261-voice-be/internal/websocket"
	"e261-voice-be/pkg/audiocache"
	"e261-voice-be/pkg/compensation"
	"e261-voice-be/pkg/conversation"
	"e261-voice-be/pkg/crm/zoho"
	"e261-voice-be/pkg/intake"
	"e261-voice-be/pkg/llm/factory"
	pktNats "e261-voice-be/pkg/nats"
	"e261-voice-be/pkg/voice"
	"e261-voice-be/pkg/voice/elevenlabs"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// claimTopic is the in-process topic submitted claims are published on.
const claimTopic = "claims.submitted"

type Container struct {
	// Controllers
	ConversationController controller.IConversationController
	ClaimController        controller.IClaimController
	VoiceController        controller.IVoiceController
	DocumentController     controller.IDocumentController
	HealthController       controller.IHealthController
	AdminController        controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService     service.IConsumerService
	NotificationService *service.NotificationService
	VoiceService        service.IVoiceService

	// Intro relay
	IntroHandler *handler.IntroHandler
	WebSocketHub *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires every component. db may be nil, in which case claims
// are not archived. Optional backends (Redis, NATS, Zoho, the LLM) that are
// not configured or not reachable are logged and left out.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) *Container {
	c := &Container{Logger: sysLogger}

	// 1. Dialogue script
	script := intake.DefaultScript()
	if path := cfg.Conversation.ScriptPath; path != "" {
		loaded, err := intake.LoadScript(path)
		if err != nil {
			sysLogger.Error("BOOT", "Failed to load intake script, using built-in script", map[string]interface{}{"path": path, "error": err.Error()})
		} else {
			script = loaded
		}
	}
	scripts := intake.NewScriptHolder(script)
	if path := cfg.Conversation.ScriptPath; path != "" {
		if err := intake.WatchScript(ctx, path, scripts, sysLogger); err != nil {
			sysLogger.Warn("BOOT", "Script hot reload disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	// 2. Conversation backend
	airports := compensation.DefaultDirectory()
	interpreterOpts := []intake.Option{intake.WithLogger(sysLogger), intake.WithAirports(airports)}
	llmEnabled := false
	if cfg.Ai.LLMProvider != "" {
		llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.LLMBaseURL, cfg.Ai.LLMAPIKey)
		if err != nil {
			sysLogger.Error("BOOT", "Failed to initialize LLM provider, using rules only", map[string]interface{}{"error": err.Error()})
		} else {
			interpreterOpts = append(interpreterOpts, intake.WithLLM(intake.NewLLMExtractor(llmProvider, sysLogger)))
			llmEnabled = true
			sysLogger.Info("BOOT", "LLM extraction enabled", map[string]interface{}{"provider": cfg.Ai.LLMProvider, "model": cfg.Ai.LLMModel})
		}
	}

	sessionRepo := memory.NewSessionRepository(cfg.Conversation.SessionTTL)
	manager := conversation.NewManager(
		sessionRepo,
		intake.NewInterpreter(scripts, interpreterOpts...),
		conversation.WithUpstreamTimeout(cfg.Conversation.UpstreamTimeout),
		conversation.WithLogger(sysLogger),
	)

	// 3. Infrastructure
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			sysLogger.Warn("BOOT", "Failed to parse Redis URL, using it as address", map[string]interface{}{"error": err.Error()})
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			sysLogger.Warn("BOOT", "Redis unreachable, using in-process caches only", map[string]interface{}{"error": err.Error()})
			rdb.Close()
			rdb = nil
		}
		cancel()
	}
	if rdb != nil {
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			sysLogger.Warn("BOOT", "Failed to connect NATS publisher", map[string]interface{}{"error": err.Error()})
		} else {
			c.closers = append(c.closers, natsPub.Close)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn("BOOT", "Failed to connect NATS subscriber", map[string]interface{}{"error": err.Error()})
			natsSub = nil
		} else {
			c.closers = append(c.closers, natsSub.Close)
		}
	}

	// 4. Voice
	var audioCache audiocache.Cache = audiocache.NewMemory(cfg.Voice.CacheTTL)
	if rdb != nil {
		audioCache = audiocache.Layered{Local: audiocache.NewMemory(cfg.Voice.CacheTTL), Shared: audiocache.NewRedis(rdb, cfg.Voice.CacheTTL)}
	}
	speech := elevenlabs.New(elevenlabs.Config{
		APIKey:   cfg.Voice.ElevenLabsAPIKey,
		VoiceID:  cfg.Voice.ElevenLabsVoiceID,
		STTModel: cfg.Voice.STTModel,
		BaseURL:  cfg.Voice.ElevenLabsBaseURL,
		Timeout:  cfg.Voice.Timeout,
	})
	transcoder := voice.NewTranscoder(cfg.Voice.FFmpegPath)
	if transcoder == nil {
		sysLogger.Warn("BOOT", "ffmpeg not found, recordings are sent untranscoded", nil)
	}
	voiceService := service.NewVoiceService(speech, transcoder, audioCache, scripts, sysLogger)

	// 5. CRM
	zohoCfg := zoho.Config{
		ClientID:     cfg.Zoho.ClientID,
		ClientSecret: cfg.Zoho.ClientSecret,
		RefreshToken: cfg.Zoho.RefreshToken,
		AccountsURL:  cfg.Zoho.AccountsURL,
		APIBase:      cfg.Zoho.APIBase,
		Timeout:      cfg.Conversation.UpstreamTimeout,
	}
	var crm service.LeadClient
	if zohoCfg.Enabled() {
		crm = zoho.New(ctx, zohoCfg)
	} else {
		sysLogger.Info("BOOT", "Zoho CRM not configured, claims are accepted in test mode", nil)
	}

	// 6. Claim archive
	var claimRepo contract.ClaimSubmissionRepository
	if db != nil {
		claimRepo = implementation.NewClaimSubmissionRepository(db)
	}

	// 7. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
		sysLogger,
	)

	// 8. Services
	documentService := service.NewDocumentService(cfg.App.UploadDir, manager, sysLogger)
	publisherService := service.NewPublisherService(claimTopic, pubSub)
	claimService := service.NewClaimService(manager, documentService, crm, publisherService, claimRepo, airports, sysLogger)
	conversationService := service.NewConversationService(manager, voiceService, cfg.App.FrontendURL, sysLogger)

	c.NotificationService = service.NewNotificationService(natsSub, emailService, sysLogger)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		claimTopic,
		claimRepo,
		events.NewNatsPublisher(natsPub, sysLogger),
		c.NotificationService,
		sysLogger,
	)
	c.VoiceService = voiceService

	systemService := service.NewSystemService(cfg, claimService, voiceService, scripts, service.SystemProbes{
		NatsConnected: natsPub.Connected,
		LiveSessions:  sessionRepo.Count,
		LLMEnabled:    llmEnabled,
	}, logReader(sysLogger))

	// 9. Intro relay
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c.WebSocketHub = websocket.NewHub(rdb, wsLogger)
	go c.WebSocketHub.Run(ctx)
	c.IntroHandler = handler.NewIntroHandler(c.WebSocketHub, cfg.Intro, cfg.Auth.JWTSecret, wsLogger)

	// 10. Controllers
	c.ConversationController = controller.NewConversationController(conversationService)
	c.ClaimController = controller.NewClaimController(claimService)
	c.VoiceController = controller.NewVoiceController(voiceService)
	c.DocumentController = controller.NewDocumentController(documentService)
	c.HealthController = controller.NewHealthController(systemService)
	c.AdminController = controller.NewAdminController(systemService, claimService, voiceService, cfg.Auth.JWTSecret)

	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.Logger.Sync()
}

func logReader(l logger.ILogger) logger.LogReader {
	if r, ok := l.(logger.LogReader); ok {
		return r
	}
	return nil
}
