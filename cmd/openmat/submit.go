package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	kafkaadapter "github.com/anyjiujitsu/openmat-service/internal/adapter/kafka"
	"github.com/anyjiujitsu/openmat-service/internal/config"
	"github.com/anyjiujitsu/openmat-service/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/spf13/cobra"
)

// publisher is the part of the Kafka writer submit needs.
type publisher interface {
	Publish(ctx context.Context, subs ...domain.Submission) error
	io.Closer
}

func newSubmitCmd(opts *globalOptions) *cobra.Command {
	var dataset, brokers, topic string

	cmd := &cobra.Command{
		Use:   "submit KEY=VALUE [KEY=VALUE ...]",
		Short: "Publish one row to the admin submissions topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.Config{
				KafkaBrokers:          sharedcfg.ParseBrokers(brokers),
				KafkaSubmissionsTopic: topic,
			}
			if len(cfg.KafkaBrokers) == 0 {
				return fmt.Errorf("--brokers is required")
			}
			w := kafkaadapter.NewWriter(cfg, opts.logger())
			return runSubmit(cmd, w, dataset, args)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&dataset, "dataset", "events", "dataset the row belongs to: directory or events")
	fl.StringVar(&brokers, "brokers", sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "comma-separated Kafka brokers")
	fl.StringVar(&topic, "topic", sharedcfg.EnvOrDefault("KAFKA_SUBMISSIONS_TOPIC", "openmat-submissions"), "submissions topic")
	return cmd
}

func runSubmit(cmd *cobra.Command, w publisher, dataset string, args []string) (err error) {
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close writer: %w", cerr)
		}
	}()

	ds, err := domain.ParseDataset(dataset)
	if err != nil {
		return err
	}
	row, err := parseAssignments(args)
	if err != nil {
		return err
	}
	sub := domain.Submission{Dataset: ds, Row: row}
	sub.ID = domain.RowID(ds, row)

	if err := w.Publish(cmd.Context(), sub); err != nil {
		return err
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(cmd.OutOrStdout(), "submitted %s row %s (%s)\n", ds, sub.ID, strings.Join(keys, ", "))
	return nil
}
