package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexatlas/statute-crag/internal/config"
	"github.com/lexatlas/statute-crag/internal/core/ports"
	"github.com/lexatlas/statute-crag/internal/core/usecase"
	"github.com/lexatlas/statute-crag/internal/infrastructure/catalog"
	"github.com/lexatlas/statute-crag/internal/infrastructure/chunking"
	"github.com/lexatlas/statute-crag/internal/infrastructure/extractor"
	"github.com/lexatlas/statute-crag/internal/infrastructure/extractor/pdftext"
	"github.com/lexatlas/statute-crag/internal/infrastructure/extractor/plaintext"
	"github.com/lexatlas/statute-crag/internal/infrastructure/llm/ollama"
	natsqueue "github.com/lexatlas/statute-crag/internal/infrastructure/queue/nats"
	"github.com/lexatlas/statute-crag/internal/infrastructure/repository/postgres"
	"github.com/lexatlas/statute-crag/internal/infrastructure/resilience"
	"github.com/lexatlas/statute-crag/internal/infrastructure/segmentation"
	"github.com/lexatlas/statute-crag/internal/infrastructure/storage/localfs"
	"github.com/lexatlas/statute-crag/internal/infrastructure/vector/qdrant"
	"github.com/lexatlas/statute-crag/internal/observability/logging"
)

type App struct {
	Config config.Config
	Log    *slog.Logger

	Queue     *natsqueue.Queue
	Repo      ports.StatuteRepository
	IngestUC  ports.StatuteIngestor
	ProcessUC ports.DocumentProcessor
	AskUC     ports.QuestionService
	SearchUC  ports.SearchService

	closeFn func()
}

func New(ctx context.Context, service string, cfg config.Config) (*App, error) {
	log := logging.NewJSONLogger(service, cfg.LogLevel)
	slog.SetDefault(log)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewStatuteRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultPolicy()),
		Logger:             log,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	oracle := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, ollama.Options{
		RequestsPerMinute: cfg.OracleRateRPM,
		MaxAnswerTokens:   cfg.OracleMaxTokens,
		Resilience:        resilience.DefaultPolicy(),
	})
	embedder := ollama.NewEmbedder(oracle)
	grader := ollama.NewGrader(oracle, cfg.GradePreviewChars)
	generator := ollama.NewGenerator(oracle)
	validator := ollama.NewValidator(oracle)

	index := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	statuteCatalog := catalog.New()
	if cfg.CatalogOverrides != "" {
		if err := statuteCatalog.LoadOverrides(cfg.CatalogOverrides); err != nil {
			return nil, fmt.Errorf("load catalog overrides: %w", err)
		}
	}

	segmenter := segmentation.New(segmentation.Config{
		MaxOrderKey:               float64(cfg.SegmentMaxProvisionNumber),
		FallbackCharsPerProvision: cfg.SegmentFallbackChars,
	})
	chunker := chunking.NewBuilder(cfg.ChunkTokenBudget, cfg.ChunkTokenOverlap)
	textExtractor := extractor.NewRouter(
		pdftext.NewExtractor(storage),
		plaintext.NewExtractor(storage),
	)

	gateway := usecase.NewRetrievalGateway(embedder, index, cfg.RetrievalTopK, cfg.RetrievalMinTopScore, log)

	ingestUC := usecase.NewIngestStatuteUseCase(repo, storage, queue)
	processUC := usecase.NewProcessStatuteUseCase(repo, textExtractor, statuteCatalog, segmenter, chunker, embedder, index, log)
	askUC := usecase.NewAskUseCase(gateway, grader, generator, validator, cfg.PipelineConfidenceThreshold, cfg.GradeConcurrency, log)
	searchUC := usecase.NewSearchUseCase(gateway)

	return &App{
		Config: cfg,
		Log:    log,

		Queue:     queue,
		Repo:      repo,
		IngestUC:  ingestUC,
		ProcessUC: processUC,
		AskUC:     askUC,
		SearchUC:  searchUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
