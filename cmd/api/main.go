// cmd/api/main.go
// Main entry point: bootstraps all modules and starts the server.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartsync/heartsync-backend/internal/ads"
	"github.com/heartsync/heartsync-backend/internal/auth"
	"github.com/heartsync/heartsync-backend/internal/chat"
	"github.com/heartsync/heartsync-backend/internal/common/database"
	"github.com/heartsync/heartsync-backend/internal/config"
	"github.com/heartsync/heartsync-backend/internal/matching"
	"github.com/heartsync/heartsync-backend/internal/notify"
	"github.com/heartsync/heartsync-backend/internal/profile"
	"github.com/heartsync/heartsync-backend/internal/realtime"
)

var startTime = time.Now()

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🚀 Starting HeartSync Dating API")
	log.Println("========================================")

	// 1. Load environment variables
	log.Println("📁 Step 1: Loading .env file...")
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found (%v), using environment variables", err)
	} else {
		log.Println("✅ .env file loaded")
	}

	// 2. Load and validate configuration
	log.Println("\n📋 Step 2: Loading configuration...")
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed: ", err)
	}
	log.Println("✅ Configuration loaded and valid")

	// 3. Connect to PostgreSQL
	log.Println("\n🗄️  Step 3: Connecting to PostgreSQL...")
	db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL: ", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL")

	// 4. Connect to Redis (optional, stats cache only)
	log.Println("\n📮 Step 4: Connecting to Redis...")
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable (%v), stats served uncached", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("✅ Connected to Redis")
		}
	} else {
		log.Println("⚠️  Redis URL not configured, stats served uncached")
	}

	// 5. Run database migrations
	log.Println("\n🔨 Step 5: Running database migrations...")
	if err := runMigrations(db); err != nil {
		log.Fatal("❌ Failed to run migrations: ", err)
	}
	log.Println("✅ Database migrations completed")

	// 6. Auth module
	log.Println("\n🔐 Step 6: Initializing auth module...")
	authRepo := auth.NewPostgresRepository(db)
	authService := auth.NewService(authRepo, cfg)
	authHandler := auth.NewHandler(authService)
	authMiddleware := auth.NewMiddleware(cfg)
	log.Println("✅ Auth module initialized")

	// 7. Profile module
	log.Println("\n👤 Step 7: Initializing profile module...")
	uploadService, err := profile.NewUploadService(cfg)
	if err != nil {
		log.Printf("⚠️  S3 unavailable (%v), falling back to local uploads", err)
		uploadService = profile.NewLocalUploadService(cfg.LocalUploadDir, cfg.BaseURL+"/uploads")
	}
	profileRepo := profile.NewPostgresRepository(db)
	profileService := profile.NewService(profileRepo, uploadService, cfg)
	profileHandler := profile.NewHandler(profileService)
	log.Println("✅ Profile module initialized")

	// 8. Notification module
	log.Println("\n🔔 Step 8: Initializing notify module...")
	notifyService := notify.NewServiceFromConfig(db, cfg)
	log.Println("✅ Notify module initialized")

	// 9. Chat module (publisher wired after the hub exists)
	log.Println("\n💬 Step 9: Initializing chat module...")
	chatRepo := chat.NewPostgresRepository(db)

	// 10. Realtime hub, authorized by the chat service
	log.Println("\n🔌 Step 10: Starting realtime hub...")
	var hub *realtime.Hub
	chatService := chat.NewService(chatRepo, publisherFunc(func(roomID, event string, payload interface{}) {
		if hub != nil {
			hub.Publish(roomID, event, payload)
		}
	}))
	hub = realtime.NewHub(chatService)
	go hub.Run()
	realtimeHandler := realtime.NewHandler(hub)
	chatHandler := chat.NewHandler(chatService)
	log.Println("✅ Realtime hub running")

	// 11. Matching module, the core
	log.Println("\n💘 Step 11: Initializing matching module...")
	var statsCache matching.StatsCache
	if redisClient != nil {
		statsCache = matching.NewRedisStatsCache(redisClient, cfg.StatsCacheTTL)
	}
	matchingRepo := matching.NewPostgresRepository(db)
	matchingService := matching.NewService(
		matchingRepo, cfg.Matching, chatService, hub, notifyService, statsCache)
	matchingHandler := matching.NewHandler(matchingService, cfg.Matching)
	log.Println("✅ Matching module initialized")

	// 12. Ads module
	log.Println("\n📣 Step 12: Initializing ads module...")
	adsRepo := ads.NewPostgresRepository(db)
	adsService := ads.NewService(adsRepo, cfg.Matching)
	adsHandler := ads.NewHandler(adsService)
	log.Println("✅ Ads module initialized")

	// 13. Routes
	log.Println("\n🛣️  Step 13: Setting up routes...")
	router := mux.NewRouter()

	if !cfg.UseS3 {
		router.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/",
				http.FileServer(http.Dir(cfg.LocalUploadDir))))
	}

	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	auth.RegisterRoutes(router, authHandler)
	profile.RegisterRoutes(router, profileHandler, authMiddleware)
	matching.RegisterRoutes(router, matchingHandler, authMiddleware)
	chat.RegisterRoutes(router, chatHandler, authMiddleware)
	realtime.RegisterRoutes(router, realtimeHandler, authMiddleware)
	router.PathPrefix("/ads").Handler(
		http.StripPrefix("/ads", ads.NewRouter(adsHandler, authMiddleware.Authenticate)))

	router.Use(loggingMiddleware)
	router.Use(corsMiddleware)
	log.Println("✅ Routes registered")

	// 14. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Println("\n========================================")
		log.Printf("🚀 Server listening on http://localhost%s", srv.Addr)
		log.Printf("🌍 Environment: %s", cfg.Environment)
		log.Println("========================================")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Failed to start server: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n⚠️  Shutdown signal received...")

	hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("❌ Server forced to shutdown: ", err)
	}

	log.Println("✅ Server exited gracefully")
}

// publisherFunc lets the chat service publish through a hub that is
// constructed after it (the hub needs the chat service as authorizer).
type publisherFunc func(roomID, event string, payload interface{})

func (f publisherFunc) Publish(roomID, event string, payload interface{}) {
	f(roomID, event, payload)
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(startTime).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// loggingMiddleware logs all requests with their duration and status.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		log.Printf("← %s %s [%d] %v", r.Method, r.RequestURI, wrapped.statusCode, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func corsMiddleware(next http.Handler) http.Handler {
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

// runMigrations creates the schema if it does not exist yet.
func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id TEXT PRIMARY KEY,
            name VARCHAR(100) NOT NULL,
            surname VARCHAR(100) NOT NULL DEFAULT '',
            email VARCHAR(255) UNIQUE NOT NULL,
            phone VARCHAR(20),
            password_hash VARCHAR(255),
            age INTEGER NOT NULL,
            country VARCHAR(100) NOT NULL DEFAULT '',
            gender VARCHAR(10) NOT NULL DEFAULT '',
            interests TEXT[] NOT NULL DEFAULT '{}',
            photos TEXT[] NOT NULL DEFAULT '{}',
            bio TEXT NOT NULL DEFAULT '',
            international_mode BOOLEAN NOT NULL DEFAULT FALSE,
            min_age_preference INTEGER NOT NULL DEFAULT 18,
            max_age_preference INTEGER NOT NULL DEFAULT 100,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            last_active_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,

		`CREATE TABLE IF NOT EXISTS likes (
            liker_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            target_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (liker_id, target_id)
        )`,

		`CREATE TABLE IF NOT EXISTS dislikes (
            actor_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            target_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (actor_id, target_id)
        )`,

		`CREATE TABLE IF NOT EXISTS matches (
            id TEXT PRIMARY KEY,
            user1_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            user2_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            user1_name VARCHAR(201) NOT NULL DEFAULT '',
            user2_name VARCHAR(201) NOT NULL DEFAULT '',
            shared_interests TEXT[] NOT NULL DEFAULT '{}',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE (user1_id, user2_id),
            CHECK (user1_id < user2_id)
        )`,

		`CREATE TABLE IF NOT EXISTS chats (
            id TEXT PRIMARY KEY,
            match_id TEXT NOT NULL UNIQUE REFERENCES matches(id) ON DELETE CASCADE,
            user1_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            user2_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,

		`CREATE TABLE IF NOT EXISTS messages (
            id TEXT PRIMARY KEY,
            chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
            sender_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            content TEXT NOT NULL DEFAULT '',
            image_url TEXT,
            read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,

		`CREATE TABLE IF NOT EXISTS reactions (
            message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            emoji VARCHAR(16) NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY (message_id, user_id)
        )`,

		`CREATE TABLE IF NOT EXISTS ads (
            id TEXT PRIMARY KEY,
            owner_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            title VARCHAR(200) NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            image_url TEXT,
            target_interests TEXT[] NOT NULL DEFAULT '{}',
            archived BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,

		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_likes_target ON likes(target_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_user1 ON matches(user1_id)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_user2 ON matches(user2_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user1 ON chats(user1_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chats_user2 ON chats(user2_id)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages(chat_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_ads_interests ON ads USING GIN (target_interests)`,
		`CREATE INDEX IF NOT EXISTS idx_users_interests ON users USING GIN (interests)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
