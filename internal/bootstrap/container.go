package bootstrap

import (
	"context"
	"log"

	"ai-facilityops-be/internal/config"
	"ai-facilityops-be/internal/controller"
	"ai-facilityops-be/internal/pkg/logger"
	"ai-facilityops-be/internal/repository/implementation"
	"ai-facilityops-be/internal/repository/memory"
	"ai-facilityops-be/internal/repository/unitofwork"
	"ai-facilityops-be/internal/service"
	"ai-facilityops-be/pkg/embedding"
	"ai-facilityops-be/pkg/llm/factory"
	"ai-facilityops-be/pkg/search"
	"ai-facilityops-be/pkg/turn"
	"ai-facilityops-be/pkg/workflow"

	pktNats "ai-facilityops-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	ChatController    controller.IChatController
	MetricsController controller.IMetricsController

	// Background Services (Exposed for main.go to run)
	PersistenceConsumer service.IPersistenceConsumer
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLogger := logger.NewIsolatedLogger(cfg.App.PipelineLogPath)

	// 2. Event Bus (in-process, background persistence)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, cfg.Ai.OllamaBaseURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Infrastructure
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	cursorRepo := memory.NewCursorRepository()

	// 5. Retrieval index
	documentRepo := implementation.NewTaskDocumentRepository(db)
	index := search.NewVectorIndex(
		embeddingProvider,
		documentRepo,
		rdb,
		cfg.Ai.EmbeddingCacheTTL,
		cfg.Ai.EmbeddingModel,
		pipelineLogger,
	)

	// 6. Workflow engine
	catalog := service.NewCatalogService(uowFactory, embeddingProvider, natsPub, sysLogger)
	engine := workflow.NewEngine(
		workflow.NewSchedulerWorkflow(catalog, pipelineLogger),
		workflow.NewUpdateTaskWorkflow(catalog, pipelineLogger),
		workflow.NewHelpWorkflow(),
	)

	// 7. Turn graph + stream manager
	classifier := turn.NewLLMClassifier(llmProvider)
	graph := turn.NewGraph(
		turn.NewUnderstandingStage(classifier, natsPub, pipelineLogger),
		turn.NewRetrievalStage(index, cfg.Turn.PageSize, pipelineLogger),
		turn.NewWorkflowStage(engine, natsPub, pipelineLogger),
		turn.NewReplyStage(llmProvider, cfg.Ai.LLMProvider, pipelineLogger),
	)
	recorder := service.NewRecorderService(pubSub, sysLogger)
	streamManager := turn.NewStreamManager(graph, recorder, pipelineLogger)

	// 8. Services
	userContextService := service.NewUserContextService(uowFactory)
	historyService := service.NewHistoryService(uowFactory)
	workflowStateService := service.NewWorkflowStateService(uowFactory)
	metricsService := service.NewMetricsService(uowFactory)
	authService := service.NewAuthService(uowFactory, &cfg.Auth)

	chatService := service.NewChatService(
		userContextService,
		historyService,
		workflowStateService,
		cursorRepo,
		streamManager,
		&cfg.Turn,
		sysLogger,
	)

	persistenceConsumer := service.NewPersistenceConsumer(
		pubSub,
		historyService,
		workflowStateService,
		metricsService,
		sysLogger,
	)

	// 9. Controllers
	return &Container{
		AuthController:      controller.NewAuthController(authService),
		ChatController:      controller.NewChatController(chatService, sysLogger),
		MetricsController:   controller.NewMetricsController(metricsService),
		PersistenceConsumer: persistenceConsumer,
	}
}
