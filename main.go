package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"quel-shorts-studio/modules/common/cache"
	"quel-shorts-studio/modules/common/config"
	"quel-shorts-studio/modules/common/database"
	"quel-shorts-studio/modules/common/gemini"
	redisutil "quel-shorts-studio/modules/common/redis"
	"quel-shorts-studio/modules/dashboard"
	"quel-shorts-studio/modules/generator"
	"quel-shorts-studio/modules/pipeline"
	"quel-shorts-studio/modules/preview"
	"quel-shorts-studio/modules/realtime"
)

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(assets *cache.AssetCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "quel-shorts-studio",
			"cache":   assets.Stats(),
		})
	}
}

// newAssetStore - Redis 설정 시 memory → redis 2단 캐시
func newAssetStore(ctx context.Context, cfg *config.Config) cache.Store {
	memory := cache.NewMemoryStore()
	rdb, err := redisutil.Connect(ctx, cfg)
	if err != nil {
		if !errors.Is(err, redisutil.ErrDisabled) {
			log.Printf("⚠️  Redis unavailable, falling back to memory: %v", err)
		}
		log.Printf("ℹ️  Asset cache: memory only")
		return memory
	}
	log.Printf("✅ Asset cache: memory + redis (%s)", cfg.GetRedisAddr())
	return cache.NewTieredStore(memory, cache.NewRedisStore(rdb, cfg.AssetCachePrefix))
}

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("❌ Failed to create Gemini client: %v", err)
	}

	assets := cache.New(newAssetStore(ctx, cfg))
	gen := generator.NewService(client.Models, assets, generator.OptionsFromConfig(cfg))

	var store *dashboard.Store
	if db := database.NewClient(cfg); db != nil {
		store = dashboard.NewStore(db)
	} else {
		store = dashboard.NewStore(nil)
	}

	orch := pipeline.NewOrchestrator(gen, store, pipeline.OptionsFromConfig(cfg))

	hub := realtime.NewHub(store, cfg.PreviewDwell)
	orch.Subscribe(hub)
	store.OnChange(hub.PostsChanged)

	// 정리 루틴 시작
	hub.StartCleanupRoutine(ctx)

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck(assets)).Methods("GET")
	r.HandleFunc("/health", healthCheck(assets)).Methods("GET")
	hub.RegisterRoutes(r)
	pipeline.NewHandler(orch).RegisterRoutes(r)
	preview.NewPreviewHandler(store, cfg.PreviewDwell, dashboard.ErrPostNotFound).RegisterRoutes(r)
	dashboard.NewHandler(store).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("🚀 Quel Shorts Studio starting on port %s", cfg.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost:%s/ws", cfg.Port)
	log.Printf("🎬 Pipeline: http://localhost:%s/api/pipeline/runs", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("📊 Metrics: http://localhost:%s/metrics", cfg.Port)

	// 서버 시작
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
