package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/xavierca1/lead-sync/internal/entity"
	"github.com/xavierca1/lead-sync/internal/infra/cache"
	"github.com/xavierca1/lead-sync/internal/infra/database"
	"github.com/xavierca1/lead-sync/internal/infra/http/handlers"
	"github.com/xavierca1/lead-sync/internal/infra/http/middleware"
	"github.com/xavierca1/lead-sync/internal/infra/integration/highlevel"
	"github.com/xavierca1/lead-sync/internal/infra/mail"
	"github.com/xavierca1/lead-sync/internal/infra/queue"
	"github.com/xavierca1/lead-sync/internal/infra/ratelimit"
	"github.com/xavierca1/lead-sync/internal/usecase"
)

func main() {
	godotenv.Load()

	apiToken := os.Getenv("HL_API_TOKEN")
	locationID := os.Getenv("HL_LOCATION_ID")
	if apiToken == "" || locationID == "" {
		log.Fatal("❌ HL_API_TOKEN e HL_LOCATION_ID devem estar configurados")
	}

	// 1. Cliente do CRM + cache de metadados
	hlClient := highlevel.NewClient(apiToken, locationID, os.Getenv("HL_BASE_URL"))
	pipelineCache := cache.NewPipelineCache(hlClient, locationID, cache.DefaultTTL)
	pipelineCache.OnEvent = middleware.RecordCacheEvent

	// 2. Rate Limiter: Redis quando tem réplicas, memória quando é instância única
	salt := envOr("RATE_SALT", "lead-sync")
	var limiter ratelimit.Limiter
	var redisClient *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Fatalf("❌ REDIS_URL inválida: %s", err)
		}
		redisClient = redis.NewClient(opts)
		limiter = ratelimit.NewRedisLimiter(redisClient, salt)
		log.Println("🔗 Rate limit via Redis")
	} else {
		limiter = ratelimit.NewMemoryLimiter(salt)
		log.Println("🔗 Rate limit em memória (instância única)")
	}

	// 3. Banco (opcional): só pra trilha de auditoria
	var db *sql.DB
	var syncEventRepo entity.SyncEventRepositoryInterface
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		var err error
		db, err = database.NewDBConnection(dsn)
		if err != nil {
			log.Fatalf("❌ Falha ao conectar no Postgres: %s", err)
		}
		defer db.Close()
		syncEventRepo = database.NewSyncEventRepository(db)
	} else {
		log.Println("⚠️ DATABASE_URL ausente, rodando sem trilha de auditoria")
	}

	// 4. RabbitMQ (opcional): fan-out de eventos + worker de alerta
	var rabbitConn *amqp.Connection
	var producer usecase.QueueProducerInterface
	if host := os.Getenv("RABBITMQ_HOST"); host != "" {
		rabbitMQ, err := queue.NewRabbitMQ(
			envOr("RABBITMQ_USER", "guest"),
			envOr("RABBITMQ_PASS", "guest"),
			host,
			envOr("RABBITMQ_PORT", "5672"),
		)
		if err != nil {
			log.Fatalf("❌ Falha ao conectar no RabbitMQ: %s", err)
		}
		defer rabbitMQ.Conn.Close()
		defer rabbitMQ.Ch.Close()
		rabbitConn = rabbitMQ.Conn
		producer = queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch)

		// Worker de alerta (email pro time de vendas quando cria contato)
		var alerts queue.AlertSender
		if mailHost := os.Getenv("MAIL_HOST"); mailHost != "" {
			alerts = mail.NewEmailSender(
				mailHost, 587,
				os.Getenv("MAIL_USER"), os.Getenv("MAIL_PASS"),
				envOr("MAIL_FROM", "leads@example.com"),
				envOr("MAIL_TO", "vendas@example.com"),
			)
		}
		worker := queue.NewWorker(rabbitMQ.Ch, alerts)
		go worker.Start(queue.QueueName)
	} else {
		log.Println("⚠️ RABBITMQ_HOST ausente, rodando sem fila de eventos")
	}

	// 5. UseCase
	syncLeadUC := usecase.NewSyncLeadUseCase(hlClient, pipelineCache, syncEventRepo, producer)

	// 6. Handlers
	leadHandler := handlers.NewLeadHandler(syncLeadUC, limiter)
	adminHandler := handlers.NewAdminHandler(pipelineCache, os.Getenv("ADMIN_TOKEN"))
	healthHandler := handlers.NewHealthHandler(db, rabbitConn, redisClient)

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		// Só os domínios de marketing conhecidos, e só POST/OPTIONS.
		AllowedOrigins: corsOrigins(),
		AllowedMethods: []string{"POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Post("/api/v1/landing_leads", leadHandler.Handle)
	r.Post("/api/v1/admin/cache/clear", adminHandler.ClearCache)
	r.Post("/api/v1/admin/cache/pipelines/{name}/stages/clear", adminHandler.ClearPipelineStages)
	r.Get("/healthz", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	port := ":" + envOr("PORT", "8080")
	log.Printf("🔥 Lead Sync rodando na porta %s", port)
	http.ListenAndServe(port, r)
}

func corsOrigins() []string {
	raw := envOr("CORS_ORIGINS", "https://example.com")
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
