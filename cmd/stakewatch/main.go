package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/stakewatch/internal/binance"
	"github.com/rewired-gh/stakewatch/internal/config"
	"github.com/rewired-gh/stakewatch/internal/logger"
	"github.com/rewired-gh/stakewatch/internal/notify"
	"github.com/rewired-gh/stakewatch/internal/poller"
	"github.com/rewired-gh/stakewatch/internal/telegram"
	"github.com/rewired-gh/stakewatch/internal/tracker"
	"github.com/rewired-gh/stakewatch/internal/watchlist"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "stakewatch",
	Short: "Watch Binance staking products and announce when they open up",
	Long: `stakewatch polls the Binance locked and DeFi staking endpoints and posts a
Telegram message whenever a product on your watchlist becomes available
(or stops being available).

Watchlists are CSV files with "coin" and "duration" columns. They are re-read
every cycle, so edits take effect without a restart.

Examples:
  # Run the watcher
  stakewatch --config configs/config.yaml

  # Check that every watchlist entry exists, without sending anything
  stakewatch check --config configs/config.yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runWatch,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate watchlists against the live endpoints once and exit",
	RunE:  runCheck,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "Path to configuration file")
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", configPath)
	return cfg, nil
}

func buildStates(cfg *config.Config) []*tracker.CategoryState {
	client := binance.NewClient(cfg.Binance.Timeout, cfg.Binance.UserAgent)

	var states []*tracker.CategoryState
	for _, cat := range cfg.EnabledCategories() {
		cc := cfg.Category(cat)
		states = append(states, tracker.NewCategoryState(
			cat,
			&binance.Source{Client: client, Category: cat, Endpoint: cc.Endpoint},
			watchlist.File{Path: cc.Watchlist},
		))
		logger.Debug("Category %s: endpoint=%s watchlist=%s", cat, cc.Endpoint, cc.Watchlist)
	}
	return states
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var notifier notify.Notifier = notify.NewLogNotifier()
	if cfg.Telegram.Enabled {
		logger.Info("Instantiating Telegram client...")
		tg, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.APIEndpoint)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		notifier = tg
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Warn("Telegram notifications disabled, availability changes will only be logged")
	}

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting stakewatch (interval: %v, categories: %v)", cfg.Binance.PollInterval, cfg.EnabledCategories())
	p := poller.New(tracker.New(nil), notifier, cfg.Binance.PollInterval)
	if err := p.Run(ctx, buildStates(cfg)); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	logger.Info("Exiting...")
	return nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p := poller.New(tracker.New(nil), notify.NewLogNotifier(), cfg.Binance.PollInterval)
	if err := p.Init(ctx, buildStates(cfg)); err != nil {
		return err
	}

	invalid := 0
	out := cmd.OutOrStdout()
	for _, state := range p.States() {
		listed := len(state.Watchlist)
		fmt.Fprintf(out, "%s: %d listed, %d tracked, %d products known\n",
			state.Category, listed, state.Tracked.Len(), state.Current.Len())
		for _, key := range state.Watchlist {
			if !state.Tracked.Has(key) {
				fmt.Fprintf(out, "  invalid: %s\n", key.PrettyName())
				invalid++
			}
		}
	}
	if invalid > 0 {
		return fmt.Errorf("%d watchlist entries are not valid products", invalid)
	}
	return nil
}
