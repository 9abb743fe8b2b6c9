package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/rishikanthc/zendown/internal/auth"
	"github.com/rishikanthc/zendown/internal/config"
	"github.com/rishikanthc/zendown/internal/database"
	"github.com/rishikanthc/zendown/internal/logging"
	"github.com/rishikanthc/zendown/internal/notes"
	"github.com/rishikanthc/zendown/internal/server"
	"github.com/rishikanthc/zendown/internal/similarity"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "zendown-api",
		Short: "Zendown notes backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("similarity-url", defaults.GetString("similarity.url"), "Similarity index base URL")
	cmd.PersistentFlags().String("cookie-name", defaults.GetString("auth.cookie_name"), "Session cookie name")
	cmd.PersistentFlags().String("admin-username", "", "Admin account username (overrides env)")
	cmd.PersistentFlags().String("admin-password", "", "Admin account password (overrides env)")
	cmd.PersistentFlags().String("allowed-origins", defaults.GetString("cors.allowed_origins"), "Comma-separated CORS origins")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "similarity.url", "similarity-url")
	bindFlag(cmd, "auth.cookie_name", "cookie-name")
	bindFlag(cmd, "auth.admin_username", "admin-username")
	bindFlag(cmd, "auth.admin_password", "admin-password")
	bindFlag(cmd, "cors.allowed_origins", "allowed-origins")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	authService, err := auth.NewService(auth.ServiceConfig{Database: db})
	if err != nil {
		return err
	}
	if err := authService.EnsureAdmin(ctx, appConfig.AdminUsername, appConfig.AdminPassword); err != nil {
		return err
	}

	indexClient, err := similarity.NewClient(similarity.ClientConfig{
		BaseURL: appConfig.SimilarityURL,
		APIKey:  appConfig.SimilarityAPIKey,
	})
	if err != nil {
		return err
	}
	notifier := similarity.NewNotifier(indexClient, logger)

	repository, err := notes.NewRepository(db)
	if err != nil {
		return err
	}

	notesService, err := notes.NewService(notes.ServiceConfig{
		Repository: repository,
		Clock:      time.Now,
		IDProvider: notes.NewRandomIDProvider(),
		Searcher:   indexClient,
		Notifier:   notifier,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		NotesService:   notesService,
		AuthService:    authService,
		CookieName:     appConfig.CookieName,
		AllowedOrigins: appConfig.AllowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		notifier.Wait()
		return shutdownErr
	case err := <-errCh:
		return err
	}
}
