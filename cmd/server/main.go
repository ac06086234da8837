package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/iit2022231-sys/My-Email-Tracker/internal/ai"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/api"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/campaign"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/compose"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/config"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/mailer"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/notify"
	"github.com/iit2022231-sys/My-Email-Tracker/internal/resume"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from stale processes occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.LoadFromEnv("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := checkPortAvailable(cfg.Server.Host, cfg.Server.Port); err != nil {
		log.Fatalf("Pre-flight check FAILED: %v", err)
	}

	// Campaign history persists to a local JSON file.
	store, err := campaign.NewFileStore(cfg.Storage.CampaignsPath)
	if err != nil {
		log.Fatalf("Failed to initialize campaign storage: %v", err)
	}
	campaignLog, err := campaign.NewLog(store)
	if err != nil {
		log.Fatalf("Failed to load campaign history: %v", err)
	}
	log.Printf("Campaign history loaded: %d records from %s", campaignLog.Len(), cfg.Storage.CampaignsPath)

	// Resume storage needs Postgres; the rest of the app runs without it.
	var resumeStore *resume.Store
	if cfg.Database.URL != "" {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			log.Printf("Warning: failed to open database: %v", err)
		} else {
			pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = db.PingContext(pingCtx)
			cancel()
			if err != nil {
				log.Printf("Warning: database unreachable, resume storage disabled: %v", err)
				db.Close()
			} else {
				resumeStore = resume.NewStore(db)
				log.Println("Resume storage connected")
			}
		}
	} else {
		log.Println("Resume storage not configured (set DATABASE_URL to enable)")
	}

	// Redis-backed send throttling is optional.
	var throttler mailer.Throttler
	if cfg.Throttle.Enabled && cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Printf("Warning: Redis connection failed, send throttling disabled: %v", err)
			redisClient.Close()
		} else {
			throttler = mailer.NewRedisThrottler(redisClient, cfg.Throttle.PerMinute, cfg.Throttle.PerDay)
			log.Printf("Send throttling enabled: %d/min, %d/day", cfg.Throttle.PerMinute, cfg.Throttle.PerDay)
		}
	}

	runtime := config.NewRuntime(cfg)
	creds := runtime.Credentials()

	generator := ai.NewClient(creds.GeminiAPIKey, cfg.OpenAI.APIKey)

	var sender mailer.Sender
	if cfg.SES.AccessKey != "" && cfg.SES.SecretKey != "" {
		sesSender, err := mailer.NewSESSender(cfg.SES.AccessKey, cfg.SES.SecretKey, cfg.SES.Region, cfg.SES.From)
		if err != nil {
			log.Printf("Warning: SES init failed, falling back to SMTP: %v", err)
		} else {
			sender = sesSender
			log.Println("Delivery: AWS SES")
		}
	}
	if sender == nil {
		smtpSender := mailer.NewSMTPSender(creds.SMTPServer, creds.SMTPPort, creds.EmailUser, creds.EmailPassword)
		if throttler != nil {
			smtpSender.WithThrottler(throttler)
		}
		sender = smtpSender
		log.Printf("Delivery: SMTP via %s:%s", creds.SMTPServer, creds.SMTPPort)
	}

	sessionCfg := compose.Config{
		Log:       campaignLog,
		Notifier:  notify.New(),
		Generator: generator,
		Sender:    sender,
	}
	if resumeStore != nil {
		sessionCfg.Resumes = resumeStore
	}
	session := compose.NewSession(sessionCfg)

	handlers := api.NewHandlers(session, resumeStore, campaignLog, runtime, cfg.OpenAI.APIKey, throttler)
	server := api.NewServer(handlers)

	// Setup graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
