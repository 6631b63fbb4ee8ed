package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"chatline/auth"
	"chatline/db"
	"chatline/messages"
	"chatline/relay"
	"chatline/users"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func rateLimitErrorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again in "+time.Until(info.ResetTime).String())
}

func allowedOrigins() []string {
	if raw := os.Getenv("CHAT_ALLOWED_ORIGINS"); raw != "" {
		origins := strings.Split(raw, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		return origins
	}
	return []string{"http://localhost:3000", "http://localhost:5173"}
}

func registerRoutes(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.String(200, "Hello World!")
	})
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.GET("/users", users.HandleListUsers)
	r.POST("/users", users.HandleCreateUser)
	r.PUT("/users/:id/status", users.HandleUpdateStatus)
	r.POST("/users/:id/messages", relay.HandlePostMessage)
	r.GET("/users/:id/messages", messages.HandleGetMessages)

	// gin's router cannot mix a static /users/login with the :id
	// wildcard, so login dispatches off the param instead.
	r.POST("/users/:id", func(c *gin.Context) {
		if c.Param("id") == "login" {
			auth.HandleLogin(c)
			return
		}
		c.JSON(404, gin.H{"error": "Not found"})
	})

	r.GET("/ws", relay.HandleSocket)
}

func main() {
	_ = godotenv.Load()

	dbName := os.Getenv("CHAT_DB_FILE")
	if dbName == "" {
		log.Fatal("CHAT_DB_FILE is required")
	}
	port := os.Getenv("CHAT_PORT")
	if port == "" {
		port = "3000"
	}

	var err error
	db.ChatDB, err = db.InitDB(dbName)
	if err != nil {
		log.Fatal("Error opening chat database:", err)
	}
	defer db.CloseDB(db.ChatDB)
	if err := db.EnsureSchema(db.ChatDB); err != nil {
		log.Fatal("Error ensuring chat schema:", err)
	}

	r := gin.Default()

	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{Rate: time.Second, Limit: 100})
	r.Use(ratelimit.RateLimiter(store, &ratelimit.Options{ErrorHandler: rateLimitErrorHandler, KeyFunc: keyFunc}))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins()
	r.Use(cors.New(corsConfig))

	registerRoutes(r)

	server := &http.Server{Addr: ":" + port, Handler: r}

	go func() {
		log.Printf("Starting chat server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down chat server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("chat server forced shutdown: %v", err)
	}
}
