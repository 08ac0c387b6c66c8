// Package crawl implements the crawl command, the long-running polling
// loop over the configured feeds.
package crawl

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/feedcrawl/internal/config"
	crawlpkg "github.com/jonesrussell/feedcrawl/internal/crawl"
	"github.com/jonesrussell/feedcrawl/internal/feed"
	"github.com/jonesrussell/feedcrawl/internal/logger"
)

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Poll feeds and report new items",
		Long: `This command polls the configured feeds in rounds and logs every new
item as it appears. Feed URLs given as arguments override the configured
links. The command runs until interrupted; a first interrupt finishes the
current round, a second one stops immediately.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrawl(cmd, args)
		},
	}
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	links := cfg.Links
	if len(args) > 0 {
		links = args
	}
	if len(links) == 0 {
		return errors.New("no feed links configured; set crawler.links or pass URLs as arguments")
	}

	if !cfg.CacheTTLCoversInterval() {
		log.Warn("cache TTL does not cover the round interval; items may be delivered twice",
			"cache_ttl", cfg.CacheTTL,
			"round_interval", cfg.RoundInterval,
		)
	}

	fetcher := feed.NewHTTPFetcher(cfg.RequestTimeout)
	engine := crawlpkg.NewEngine(cfg, fetcher, newLogHandler(log), log)

	if cfg.DeepTraverseCron != "" {
		scheduler := cron.New()
		if _, addErr := scheduler.AddFunc(cfg.DeepTraverseCron, engine.RequestDeepTraverse); addErr != nil {
			return fmt.Errorf("invalid deep_traverse_cron expression: %w", addErr)
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Info("deep traversal scheduled", "cron", cfg.DeepTraverseCron)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		log.Info("shutdown signal received, finishing the current round")
		go engine.Stop(false)
		<-sigCh
		log.Warn("second shutdown signal, stopping immediately")
		engine.Stop(true)
	}()

	return engine.Start(cmd.Context(), links...)
}

// newLogger builds the zap-backed logger from the loaded configuration.
func newLogger(cfg *config.Config) (logger.Interface, error) {
	level := logger.Level(viper.GetString("logger.level"))
	if cfg.Debug {
		level = logger.DebugLevel
	}

	return logger.New(&logger.Config{
		Level:       level,
		Development: viper.GetBool("logger.development"),
		Encoding:    viper.GetString("logger.encoding"),
	})
}

// logHandler reports crawl events through the structured logger.
type logHandler struct {
	crawlpkg.BaseHandler
	log logger.Interface
}

func newLogHandler(log logger.Interface) *logHandler {
	return &logHandler{log: log.WithComponent("handler")}
}

func (h *logHandler) OnFeedMeta(url string, channel feed.Channel) {
	if channel.Relocate != "" {
		h.log.Warn("feed requests relocation", "url", url, "relocate", channel.Relocate)
	}
	h.log.Debug("feed metadata",
		"url", url,
		"user", channel.Username,
		"link", channel.Link,
	)
}

func (h *logHandler) OnItem(url string, channel feed.Channel, item feed.Item) {
	h.log.Info("new item",
		"url", url,
		"user", channel.Username,
		"guid", item.GUID,
		"published", item.Published,
		"description", item.Description,
	)
}

func (h *logHandler) OnError(url string, crawlErr crawlpkg.CrawlError) {
	h.log.Error("feed crawl failed",
		"url", url,
		"code", crawlErr.Code,
		"description", crawlErr.Description,
	)
}

func (h *logHandler) OnRoundFinish() {
	h.log.Debug("round finished")
}
