package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"chatgo/internal/ai"
	"chatgo/internal/config"
	"chatgo/internal/handlers/apiserver"
	appKafka "chatgo/internal/kafka"
	kafkahandlers "chatgo/internal/kafka/handlers"
	"chatgo/internal/logger"
	"chatgo/internal/middleware"
	appRedis "chatgo/internal/redis"
	"chatgo/internal/services"
	"chatgo/internal/storage"
)

func main() {
	// 1. 加载配置和日志
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法加载配置: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Env)
	log.Info().Msg("API 服务器配置加载成功")

	// 2. 初始化数据库连接
	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("无法初始化数据库")
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.Fatal().Err(err).Msg("数据库表迁移失败")
	}
	if err := storage.SeedChannels(db); err != nil {
		log.Fatal().Err(err).Msg("种子频道创建失败")
	}
	log.Info().Msg("数据库初始化完成")

	// 3. 初始化 Redis 和 Token 黑名单
	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatal().Err(err).Msg("无法连接到 Redis")
	}
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	log.Info().Str("addr", cfg.Redis.Addr).Msg("成功连接到 Redis")

	// 4. 初始化 Repositories
	userRepo := storage.NewGormUserRepository(db)
	friendReqRepo := storage.NewGormFriendRequestRepository(db)
	friendshipRepo := storage.NewGormFriendshipRepository(db)
	channelRepo := storage.NewGormChannelRepository(db)
	messageRepo := storage.NewGormMessageRepository(db)

	// 5. 初始化 Kafka 生产者
	producer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatal().Err(err).Msg("无法创建 Kafka 生产者")
	}
	defer producer.Close()

	// 6. 初始化 Services
	authService := services.NewAuthService(db, userRepo, channelRepo, cfg)
	userService := services.NewUserService(userRepo, friendshipRepo, friendReqRepo)
	friendService := services.NewFriendService(db, userRepo, friendReqRepo, friendshipRepo, producer, cfg.Kafka)
	channelService := services.NewChannelService(channelRepo, messageRepo, friendshipRepo, userRepo)
	messageService := services.NewMessageService(messageRepo, channelRepo, channelService, producer, cfg.Kafka)

	// 7. 初始化 Handlers
	authHandler := apiserver.NewAuthHandler(authService, tokenBlacklist)
	userHandler := apiserver.NewUserHandler(userService)
	friendReqHandler := apiserver.NewFriendRequestHandler(friendService)
	channelHandler := apiserver.NewChannelHandler(channelService)
	messageHandler := apiserver.NewMessageHandler(messageService)

	// 8. 设置 HTTP 路由
	r := mux.NewRouter()

	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	authMW := middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, tokenBlacklist)
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	apiRouter.HandleFunc("/auth/logout", authHandler.Logout).Methods(http.MethodPost)

	apiRouter.HandleFunc("/users/me", userHandler.GetMe).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/search", userHandler.SearchUsers).Methods(http.MethodGet)

	apiRouter.HandleFunc("/friends", friendReqHandler.ListFriends).Methods(http.MethodGet)
	friendRequestRouter := apiRouter.PathPrefix("/friend-requests").Subrouter()
	friendRequestRouter.HandleFunc("", friendReqHandler.SendFriendRequest).Methods(http.MethodPost)
	friendRequestRouter.HandleFunc("/pending", friendReqHandler.ListPendingRequests).Methods(http.MethodGet)
	friendRequestRouter.HandleFunc("/{requestID}/accept", friendReqHandler.AcceptFriendRequest).Methods(http.MethodPost)

	apiRouter.HandleFunc("/channels", channelHandler.ListChannels).Methods(http.MethodGet)
	apiRouter.HandleFunc("/channels/dm", channelHandler.CreateDMChannel).Methods(http.MethodPost)
	apiRouter.HandleFunc("/channels/{channelID}/messages", messageHandler.GetChannelMessages).Methods(http.MethodGet)
	apiRouter.HandleFunc("/messages", messageHandler.SendMessage).Methods(http.MethodPost)

	// 9. 启动 AI 回复消费者
	assistant := ai.NewGeminiAssistant(cfg.AI)
	aiConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatal().Err(err).Msg("无法创建 AI 请求 Kafka 消费者")
	}
	defer aiConsumer.Close()

	consumerCtx, cancelConsumers := context.WithCancel(context.Background())
	defer cancelConsumers()

	aiLogic := kafkahandlers.NewAIReplyConsumerLogic(assistant, messageRepo)
	go func() {
		topics := []string{cfg.Kafka.AIRequestsTopic}
		err := aiConsumer.Consume(consumerCtx, topics, cfg.Kafka.ConsumerGroup, aiLogic.HandleAIRequest)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("AI 请求消费者异常退出")
		}
	}()

	// 10. CORS 和 HTTP 服务器
	corsOptions := []handlers.CORSOption{
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	}
	if cfg.APIServer.CORS.AllowCredentials {
		corsOptions = append(corsOptions, handlers.AllowCredentials())
	}
	corsHandler := handlers.CORS(corsOptions...)(r)

	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	srv := &http.Server{
		Addr:           serverAddr,
		Handler:        corsHandler,
		ReadTimeout:    cfg.APIServer.ReadTimeout,
		WriteTimeout:   cfg.APIServer.WriteTimeout,
		IdleTimeout:    time.Second * 60,
		MaxHeaderBytes: cfg.APIServer.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("API 服务器启动")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API 服务器启动失败")
		}
	}()

	// 11. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("收到关闭信号，正在关闭服务器...")

	cancelConsumers()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("服务器关闭时出错")
	}
	log.Info().Msg("服务器已退出")
}
