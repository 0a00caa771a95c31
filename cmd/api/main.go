package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payments-system/application"
	"payments-system/infrastructure/database_mgo"
	"payments-system/infrastructure/firebase"
	"payments-system/infrastructure/kafka"
	"payments-system/infrastructure/mqtt"
	"payments-system/presenters"
	"payments-system/utils/configs"
	"payments-system/utils/gpooling"
	logger2 "payments-system/utils/logger"
	"payments-system/utils/mongoindex"
	"payments-system/utils/telegram"

	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic(err)
	}
	lg, _ := logger2.NewLogger(config.ENV)

	pool_go_routine, _ := gpooling.NewPooling(config.MaxPoolSize)
	defer pool_go_routine.Release()

	db := database_mgo.NewMongoDBconnection(config.MongoURI)

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := mongoindex.EnsurePaymentIndexes(indexCtx, db.Database(config.DatabaseName)); err != nil {
		lg.With(zap.Error(err)).Warn("index creation failed, continuing")
	}
	cancel()

	kafkaStorage, err := kafka.NewConnection(context.Background(), config.KafkaConfig.Zookeepers, config.KafkaConfig.Brokers)
	if err != nil {
		lg.With(zap.Error(err)).Fatal("kafka connection failed")
	}
	events := kafka.NewEventStream(kafkaStorage, config.KafkaConfig.TransactionsTopic, lg)

	mqttClient, err := mqtt.Connection(config.MQTTUri.Uri, config.MQTTUri.Username, config.MQTTUri.Password)
	if err != nil {
		lg.With(zap.Error(err)).Fatal("mqtt connection failed")
	}
	mqttRepo := mqtt.NewMQTTRepositoryImpl(mqttClient, config.MQTTUri.Prefix, lg)

	registry := application.NewRegistry(
		config,
		lg,
		pool_go_routine,
		db,
		events,
		mqttRepo,
		firebase.NewRepoImpl(config.FirebaseKey, lg),
		telegram.NewNotifier(config.Telegram.BotToken, config.Telegram.OpsChannelId),
	)

	handler := presenters.NewHandler(registry, lg)
	server := &http.Server{
		Addr:    ":" + config.Port,
		Handler: presenters.NewRouter(handler),
	}

	go func() {
		lg.With(zap.String("port", config.Port)).Info("payments api listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.With(zap.Error(err)).Fatal("http server failed")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	lg.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		lg.With(zap.Error(err)).Error("shutdown error")
	}
}
