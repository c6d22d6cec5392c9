package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pfrederiksen/garage-status/internal/bot"
	"github.com/pfrederiksen/garage-status/internal/cache"
	"github.com/pfrederiksen/garage-status/internal/command"
	"github.com/pfrederiksen/garage-status/internal/config"
	"github.com/pfrederiksen/garage-status/internal/logger"
	"github.com/pfrederiksen/garage-status/internal/metrics"
	"github.com/pfrederiksen/garage-status/internal/notifier"
	"github.com/pfrederiksen/garage-status/internal/scraper"
	"github.com/pfrederiksen/garage-status/internal/telegram"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Notifier names accepted by "post --to"
const (
	NotifyDryRun   = "dry-run"
	NotifyTelegram = "telegram"
	NotifyTwitter  = "twitter"
)

// app carries the settings shared by every subcommand
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	log        *logger.Logger
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:   "garage-status",
		Short: "Show how full the UCF parking garages are",
		Long: `A CLI tool that fetches the UCF garage count page and prints
a fixed-width saturation report for every garage.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		RunE:              a.runReport,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (YAML, JSON or TOML)")
	flags.String("url", scraper.GarageCountURL, "Garage count page URL")
	flags.Duration("http-timeout", scraper.Timeout, "HTTP timeout for the garage count page")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")

	a.bind(flags, config.KeyURL, "url")
	a.bind(flags, config.KeyHTTPTimeout, "http-timeout")
	a.bind(flags, config.KeyLogLevel, "log-level")

	cmd.AddCommand(a.newPostCmd(), a.newBotCmd())

	return cmd
}

func (a *app) bind(flags *pflag.FlagSet, key, name string) {
	if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", name, err))
	}
}

// load reads the config file and environment, then sets up logging
func (a *app) load(cmd *cobra.Command, args []string) error {
	if err := config.ReadFile(a.v, a.configPath); err != nil {
		return err
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg

	a.log = logger.New(logger.ParseLevel(cfg.LogLevel), cmd.ErrOrStderr())
	logger.SetDefault(a.log)

	return nil
}

// garageCommand wires scraper → cache → garage command
func (a *app) garageCommand() *command.Garage {
	sc := scraper.New(
		scraper.WithURL(a.cfg.URL),
		scraper.WithTimeout(a.cfg.HTTPTimeout),
	)
	ctl := cache.New(sc, cache.WithLogger(a.log))
	return command.NewGarage(ctl)
}

// runReport prints the report once
func (a *app) runReport(cmd *cobra.Command, args []string) error {
	a.log.Debug("Fetching garage counts", logger.Fields{"url": a.cfg.URL})

	report := a.garageCommand().Report(cmd.Context())
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), report); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func (a *app) newPostCmd() *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Send the garage report through a notifier",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.notifier(cmd, to)
			if err != nil {
				return err
			}

			report := a.garageCommand().Report(cmd.Context())
			if err := n.Notify(report); err != nil {
				return fmt.Errorf("posting report: %w", err)
			}

			a.log.Info("Posted garage report", logger.Fields{"notifier": to})
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", NotifyDryRun, "Notifier: dry-run, telegram or twitter")
	cmd.Flags().String("chat-id", "", "Telegram chat ID for --to telegram")
	a.bind(cmd.Flags(), config.KeyTelegramChatID, "chat-id")

	return cmd
}

// notifier builds the notifier named by name
func (a *app) notifier(cmd *cobra.Command, name string) (notifier.Notifier, error) {
	switch name {
	case NotifyDryRun:
		return notifier.NewDryRunNotifier(cmd.OutOrStdout()), nil
	case NotifyTelegram:
		client, err := telegram.NewClient(a.cfg.Telegram.BotToken)
		if err != nil {
			return nil, fmt.Errorf("initializing Telegram client: %w", err)
		}
		return notifier.NewTelegramNotifier(client, a.cfg.Telegram.ChatID)
	case NotifyTwitter:
		return notifier.NewTwitterNotifier(notifier.TwitterCredentials{
			APIKey:       a.cfg.Twitter.APIKey,
			APISecret:    a.cfg.Twitter.APISecret,
			AccessToken:  a.cfg.Twitter.AccessToken,
			AccessSecret: a.cfg.Twitter.AccessSecret,
		})
	default:
		return nil, fmt.Errorf("invalid notifier: %s (must be '%s', '%s' or '%s')", name, NotifyDryRun, NotifyTelegram, NotifyTwitter)
	}
}

func (a *app) newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Serve the garage command to Telegram chats",
		RunE:  a.runBot,
	}

	flags := cmd.Flags()
	flags.String("bot-token", "", "Telegram bot token (or env: GARAGE_TELEGRAM_BOT_TOKEN)")
	flags.Int("poll-timeout", 30, "Long polling timeout in seconds")
	flags.Duration("loop-duration", 5*time.Hour+50*time.Minute, "Maximum duration for the polling loop")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")

	a.bind(flags, config.KeyTelegramToken, "bot-token")
	a.bind(flags, config.KeyTelegramPoll, "poll-timeout")
	a.bind(flags, config.KeyBotLoopDuration, "loop-duration")
	a.bind(flags, config.KeyBotMetricsAddr, "metrics-addr")

	return cmd
}

func (a *app) runBot(cmd *cobra.Command, args []string) error {
	client, err := telegram.NewClient(a.cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("initializing Telegram client: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Bot.MetricsAddr != "" {
		srv := a.serveMetrics(a.cfg.Bot.MetricsAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx) //nolint:errcheck
		}()
	}

	router := command.NewRouter(a.cfg.ChannelTable(), a.log)
	router.Register(a.garageCommand())

	b := bot.New(client, router, a.log, a.cfg.Telegram.PollTimeout)
	return b.Run(ctx, a.cfg.Bot.LoopDuration)
}

func (a *app) serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.log.Info("Serving metrics", logger.Fields{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("Metrics server stopped", logger.Fields{"addr": addr}, err)
		}
	}()

	return srv
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
