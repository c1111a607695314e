package main

import (
	"testing"

	"github.com/rushteam/feedrank/config"
	"github.com/rushteam/feedrank/store"
)

func TestDefaultPipeline(t *testing.T) {
	pcfg, err := loadPipeline("")
	if err != nil {
		t.Fatalf("loadPipeline() error = %v", err)
	}
	if err := config.ValidatePipelineConfig(pcfg); err != nil {
		t.Fatalf("ValidatePipelineConfig() error = %v", err)
	}
	kv := store.NewMemoryStore()
	defer kv.Close()
	p, err := pcfg.BuildPipeline(config.DefaultFactory(config.Deps{Store: kv}))
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if len(p.Nodes) != 4 {
		t.Errorf("default pipeline has %d nodes", len(p.Nodes))
	}
}
