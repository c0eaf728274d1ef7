package cmd

import (
	"github.com/jmehdipour/typed-rpc/client"
	"github.com/jmehdipour/typed-rpc/internal/config"
)

func newClient(cfg config.Config) *client.Client {
	opts := []client.Option{
		client.WithBatchWait(cfg.Client.BatchWait),
		client.WithMaxBatch(cfg.Client.MaxBatch),
		client.WithHeader("Authorization", cfg.Client.Authorization),
	}
	if cfg.Client.Timeout > 0 {
		opts = append(opts, client.WithTimeout(cfg.Client.Timeout))
	}
	return client.New(cfg.Client.URL, opts...)
}
