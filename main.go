package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"travelbuddy-server/config"
	"travelbuddy-server/handlers"
	"travelbuddy-server/middleware"
	"travelbuddy-server/realtime"
	"travelbuddy-server/services"
	"travelbuddy-server/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongo, err := store.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongo.Close(ctx); err != nil {
			log.Printf("Failed to disconnect from MongoDB: %v", err)
		}
	}()

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// Redis only backs caches and geo lookups, both of which degrade to
		// document store paths, so startup continues without it.
		log.Printf("Redis unavailable at %s: %v", cfg.RedisAddr, err)
	} else {
		log.Println("Connected to Redis")
	}
	defer redisClient.Close()

	hub := realtime.NewHub()

	tokenService := services.NewTokenService(cfg.JWTSecret)
	notificationService := services.NewNotificationService(mongo.Notifications, hub)
	userService := services.NewUserService(mongo.Users, notificationService, tokenService, redisClient)
	geoService := services.NewGeoService(mongo.Users, redisClient)
	activityService := services.NewActivityService(mongo.Activities, mongo.Users, notificationService)
	chatService := services.NewChatService(mongo.Chats, mongo.Activities, mongo.Users)

	authHandler := handlers.NewAuthHandler(userService)
	oauthHandler := handlers.NewOAuthHandler(userService, cfg.GoogleClientID, cfg.GoogleClientSecret,
		"http://localhost:"+cfg.Port+"/auth/google/callback", cfg.FrontendURL)
	userHandler := handlers.NewUserHandler(userService, geoService)
	activityHandler := handlers.NewActivityHandler(activityService)
	chatHandler := handlers.NewChatHandler(chatService, hub)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	r := mux.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.ErrorMiddleware())

	// Auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")
	authRouter.HandleFunc("/google", oauthHandler.GoogleLogin).Methods("GET")
	authRouter.HandleFunc("/google/callback", oauthHandler.GoogleCallback).Methods("GET")

	// User routes
	userRouter := r.PathPrefix("/users").Subrouter()
	userRouter.Use(middleware.JWTMiddleware(tokenService))
	userRouter.HandleFunc("/profile", userHandler.GetProfile).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/profile", userHandler.UpdateProfile).Methods("PUT", "OPTIONS")
	userRouter.HandleFunc("/search", userHandler.Search).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/nearby", userHandler.Nearby).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/ping", userHandler.PingLocation).Methods("POST", "OPTIONS")
	userRouter.HandleFunc("/recommendations", userHandler.Recommendations).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/last-active", userHandler.LastActive).Methods("PUT", "OPTIONS")
	userRouter.HandleFunc("/{id}", userHandler.GetUser).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/{id}/follow", userHandler.Follow).Methods("POST", "OPTIONS")
	userRouter.HandleFunc("/{id}/follow", userHandler.Unfollow).Methods("DELETE", "OPTIONS")
	userRouter.HandleFunc("/{id}/followers", userHandler.Followers).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/{id}/following", userHandler.Following).Methods("GET", "OPTIONS")
	userRouter.HandleFunc("/{id}/activities", activityHandler.UserActivities).Methods("GET", "OPTIONS")

	// Activity routes
	activityRouter := r.PathPrefix("/activities").Subrouter()
	activityRouter.Use(middleware.JWTMiddleware(tokenService))
	activityRouter.HandleFunc("", activityHandler.Create).Methods("POST", "OPTIONS")
	activityRouter.HandleFunc("", activityHandler.List).Methods("GET", "OPTIONS")
	activityRouter.HandleFunc("/search", activityHandler.Search).Methods("GET", "OPTIONS")
	activityRouter.HandleFunc("/categories", activityHandler.Categories).Methods("GET", "OPTIONS")
	activityRouter.HandleFunc("/mine", activityHandler.MyActivities).Methods("GET", "OPTIONS")
	activityRouter.HandleFunc("/{id}", activityHandler.Get).Methods("GET", "OPTIONS")
	activityRouter.HandleFunc("/{id}", activityHandler.Update).Methods("PUT", "OPTIONS")
	activityRouter.HandleFunc("/{id}", activityHandler.Delete).Methods("DELETE", "OPTIONS")
	activityRouter.HandleFunc("/{id}/join", activityHandler.Join).Methods("POST", "OPTIONS")
	activityRouter.HandleFunc("/{id}/leave", activityHandler.Leave).Methods("POST", "OPTIONS")
	activityRouter.HandleFunc("/{id}/participants/{userId}", activityHandler.RemoveParticipant).Methods("DELETE", "OPTIONS")
	activityRouter.HandleFunc("/{id}/chat", chatHandler.History).Methods("GET", "OPTIONS")
	activityRouter.HandleFunc("/{id}/chat", chatHandler.Post).Methods("POST", "OPTIONS")

	// Notification routes
	notificationRouter := r.PathPrefix("/notifications").Subrouter()
	notificationRouter.Use(middleware.JWTMiddleware(tokenService))
	notificationRouter.HandleFunc("", notificationHandler.List).Methods("GET", "OPTIONS")
	notificationRouter.HandleFunc("/unread-count", notificationHandler.UnreadCount).Methods("GET", "OPTIONS")
	notificationRouter.HandleFunc("/read-all", notificationHandler.MarkAllRead).Methods("PUT", "OPTIONS")
	notificationRouter.HandleFunc("/{id}/read", notificationHandler.MarkRead).Methods("PUT", "OPTIONS")

	// The socket authenticates with the same bearer token, passed as a query
	// parameter on the dial.
	r.HandleFunc("/ws", realtime.ServeWS(hub, tokenService)).Methods("GET")

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
