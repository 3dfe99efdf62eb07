package events

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/travigo/trajfusion/pkg/consumer"
	"github.com/travigo/trajfusion/pkg/redis_client"
	"github.com/travigo/trajfusion/pkg/stats"
	"github.com/urfave/cli/v2"
)

func RegisterCLI() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Run event publishing and consuming",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "consume and log run events",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "consumers",
						Value: 2,
						Usage: "number of queue consumers",
					},
					&cli.StringFlag{
						Name:  "stats-listen",
						Value: ":3333",
						Usage: "listen address of the queue stats server, empty disables it",
					},
				},
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					redisConsumer := consumer.RedisConsumer{
						QueueName:       RunEventsQueue,
						NumberConsumers: c.Int("consumers"),
						BatchSize:       20,
						Timeout:         2 * time.Second,
						Consumer:        NewBatchConsumer(),
						StatsListen:     c.String("stats-listen"),
					}
					if err := redisConsumer.Setup(); err != nil {
						return err
					}

					signals := make(chan os.Signal, 1)
					signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
					defer signal.Stop(signals)

					<-signals // wait for signal
					go func() {
						<-signals // hard exit on second signal (in case shutdown gets stuck)
						os.Exit(1)
					}()

					<-redis_client.QueueConnection.StopAllConsuming() // wait for all Consume() calls to finish

					return nil
				},
			},
			{
				Name:  "test-event",
				Usage: "publish a test run event",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "failed",
						Usage: "publish a RunFailed event instead of RunCompleted",
					},
				},
				Action: func(c *cli.Context) error {
					if err := redis_client.Connect(); err != nil {
						return err
					}

					runIdentifier := uuid.NewString()

					if c.Bool("failed") {
						return PublishRunFailed(runIdentifier, errors.New("test failure"))
					}

					return PublishRunCompleted(&stats.RunStatistics{
						RunIdentifier:    runIdentifier,
						CreationDateTime: time.Now(),
						Vehicles:         1,
						FusedRecords:     10,
					})
				},
			},
		},
	}
}
