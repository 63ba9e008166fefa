package main

import (
	"net/http"
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"melodex/auth"
	appConfig "melodex/config"
	"melodex/database"
	"melodex/graph"
	"melodex/handlers"
	"melodex/sentry"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warnf("Error loading .env file: %v", err)
	}
	appConfig.NewConfig()
	log.SetFormatter(&formatter.Formatter{
		TimestampFormat: time.RFC3339,
		HideKeys:        true,
	})
	sentry.Init()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	db, err := database.New(appConfig.Config.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	authenticator := auth.NewAuthenticator(db)

	router := gin.Default()
	router.Use(sentry.GetSentryGin())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "melodex"})
	})

	manager := handlers.NewManager(db, authenticator, handlers.Options{
		ContributorsGroup:  appConfig.Config.Auth.ContributorsGroup,
		ArtistCreateLimit:  appConfig.Config.Throttle.ArtistCreateLimit,
		ArtistCreateWindow: time.Duration(appConfig.Config.Throttle.ArtistCreateWindowMinutes) * time.Minute,
		DefaultPerSecond:   appConfig.Config.Throttle.DefaultPerSecond,
	})
	manager.Register(router)

	graphHandler, err := graph.New(db, authenticator)
	if err != nil {
		return err
	}
	graphHandler.Register(router)

	port := appConfig.Config.Server.Port
	if port == "" {
		port = "8080"
	}
	log.Infof("Starting server on :%s", port)
	return http.ListenAndServe(":"+port, router)
}
