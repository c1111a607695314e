// Command feedrank 运行时间线排序服务。
//
//	feedrank -config feedrank.yaml
//	FEEDRANK_STORE__DRIVER=redis FEEDRANK_STORE__REDIS_ADDR=127.0.0.1:6379 feedrank
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rushteam/feedrank/config"
	_ "github.com/rushteam/feedrank/config/builders"
	"github.com/rushteam/feedrank/exposure"
	"github.com/rushteam/feedrank/feature"
	"github.com/rushteam/feedrank/pipeline"
	"github.com/rushteam/feedrank/pkg/logging"
	"github.com/rushteam/feedrank/server"
	"github.com/rushteam/feedrank/store"
)

// defaultPipeline 在未配置 pipeline_path 时使用。
const defaultPipeline = `
pipeline:
  name: timeline
  nodes:
    - type: feature.enrich
    - type: filter
      config:
        filters:
          - type: blacklist
            key: "feedrank:blacklist"
          - type: author_block
            key_prefix: "feedrank:block"
    - type: rank.feed
    - type: rerank.topn
      config:
        n: 50
`

func main() {
	configPath := flag.String("config", "", "config file path (default $FEEDRANK_CONFIG)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logging.Error().Err(err).Msg("feedrank exited")
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Log)

	kv, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer kv.Close()
	logging.Info().Str("store", kv.Name()).Msg("store opened")

	pcfg, err := loadPipeline(cfg.PipelinePath)
	if err != nil {
		return err
	}
	if err := config.ValidatePipelineConfig(pcfg); err != nil {
		return err
	}

	cache := exposure.New(cfg.Exposure.Options()...)
	seen := feature.NewStoreSeenAdapter(kv, "")
	p, err := pcfg.BuildPipeline(config.DefaultFactory(config.Deps{
		Store:    kv,
		Seen:     seen,
		Exposure: cache,
	}))
	if err != nil {
		return err
	}

	var persister *exposure.Persister
	if cfg.Exposure.Persist {
		persister = exposure.NewPersister(kv, cfg.Exposure.SnapshotKey)
	}

	srv := server.New(*cfg, server.Options{
		Pipeline:  p,
		Exposure:  cache,
		Seen:      seen,
		Persister: persister,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}

func loadPipeline(path string) (*pipeline.Config, error) {
	if path == "" {
		return pipeline.ParseYAML([]byte(defaultPipeline))
	}
	return pipeline.Load(path)
}
