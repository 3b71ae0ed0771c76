package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/WessleyAI/cardna/engine/events"
	"github.com/WessleyAI/cardna/pkg/natsutil"
)

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Work with published domain events",
	}

	var url string
	watch := &cobra.Command{
		Use:   "watch",
		Short: "Print search, quick find and unlock events as JSON lines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			if url != "" {
				cfg.NATS.URL = url
			}
			if cfg.NATS.URL == "" {
				return errors.New("events watch: nats.url is not configured (set CARDNA_NATS__URL or --url)")
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Log)

			nc, err := natsutil.Connect(cfg.NATS.URL, "cardna-watch", logger)
			if err != nil {
				return err
			}
			defer nc.Close()

			var mu sync.Mutex
			enc := json.NewEncoder(cmd.OutOrStdout())
			sub, err := events.Watch(nc, cfg.NATS.SubjectPrefix, func(_ context.Context, e events.Event) {
				mu.Lock()
				defer mu.Unlock()
				if err := enc.Encode(e); err != nil {
					logger.Warn("write event", "err", err)
				}
			})
			if err != nil {
				return err
			}
			logger.Info("watching events", "subject", cfg.NATS.SubjectPrefix+".>")

			<-cmd.Context().Done()
			if err := sub.Unsubscribe(); err != nil {
				return fmt.Errorf("unsubscribe: %w", err)
			}
			return nil
		},
	}
	watch.Flags().StringVar(&url, "url", "", "NATS server URL (overrides nats.url)")

	cmd.AddCommand(watch)
	return cmd
}
