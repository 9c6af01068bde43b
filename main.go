package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/BlackMission/fccauth/internal/auth"
	"github.com/BlackMission/fccauth/internal/config"
	"github.com/BlackMission/fccauth/internal/logging"
	"github.com/BlackMission/fccauth/internal/providers/freeconferencecall"
	"github.com/BlackMission/fccauth/internal/redirect"
	"github.com/BlackMission/fccauth/internal/server"
	"github.com/BlackMission/fccauth/internal/session"
	"github.com/BlackMission/fccauth/internal/state"
)

func main() {
	var configPath, envFile string

	rootCmd := &cobra.Command{
		Use:          "fccauth",
		Short:        "Sign users in with their FreeConferenceCall account",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return run(cmd.Context(), cfg)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "path to a .env file loaded before reading the environment")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadEnvFile loads path into the environment without overriding variables
// already set. A missing default file is not an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil || (!explicit && errors.Is(err, os.ErrNotExist)) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer closer.Close()

	stateSvc := state.NewService([]byte(cfg.Secrets.StateSigningKey))
	stateSvc.SetExpiry(cfg.Auth.StateTTL)

	sessionKey, err := cfg.SessionKey()
	if err != nil {
		return err
	}
	sessions, err := session.NewCodec(sessionKey)
	if err != nil {
		return fmt.Errorf("failed to create session codec: %w", err)
	}
	sessions.SetExpiry(cfg.Auth.SessionTTL)

	returns, err := redirect.NewAllowlist(cfg.Server.ReturnOrigins)
	if err != nil {
		return err
	}

	fcc := cfg.FreeConferenceCall
	h, err := freeconferencecall.NewHandler(freeconferencecall.Options{
		ClientID:     fcc.ClientID,
		ClientSecret: fcc.ClientSecret,
		CallbackPath: fcc.CallbackPath,
		PublicOrigin: cfg.Server.BaseURL,
		Scope:        fcc.Scopes,
		Endpoints: freeconferencecall.Endpoints{
			AuthorizeURL: fcc.AuthorizeURL,
			TokenURL:     fcc.TokenURL,
			ProfileURL:   fcc.ProfileURL,
		},
		StateCodec:                 stateSvc,
		SignInAsAuthenticationType: session.AuthenticationType,
		SignIn:                     sessions.SignIn,
		CorrelationTTL:             cfg.Auth.CorrelationTTL,
	}, &http.Client{Timeout: fcc.Timeout}, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s handler: %w", freeconferencecall.AuthenticationType, err)
	}

	providers := auth.NewRegistry()
	if err := providers.Register(h); err != nil {
		return err
	}
	logger.WithField("provider", h.Name()).Infof("registered provider, callback %s", h.CallbackPath())

	srv := server.New(server.Config{
		Host:    cfg.Server.Host,
		Port:    cfg.Server.Port,
		BaseURL: cfg.Server.BaseURL,
	}, server.Deps{
		Providers: providers,
		Sessions:  sessions,
		Returns:   returns,
		Logger:    logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server stopped")
		return err
	}
	logger.Info("server stopped")
	return nil
}
