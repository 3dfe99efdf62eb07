package redis_client

import (
	"context"
	"strconv"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/travigo/trajfusion/pkg/util"
)

var Client *redis.Client
var QueueConnection rmq.Connection

const defaultConnectionAddress = "localhost:6379"
const defaultConnectionPassword = ""
const defaultDatabase = 0

const connectionName = "trajfusion"

func Connect() error {
	address := defaultConnectionAddress
	password := defaultConnectionPassword
	database := defaultDatabase

	env := util.GetEnvironmentVariables()

	if env["TRAJFUSION_REDIS_ADDRESS"] != "" {
		address = env["TRAJFUSION_REDIS_ADDRESS"]
	}

	if env["TRAJFUSION_REDIS_PASSWORD"] != "" {
		password = env["TRAJFUSION_REDIS_PASSWORD"]
	}

	if env["TRAJFUSION_REDIS_DATABASE"] != "" {
		n, err := strconv.Atoi(env["TRAJFUSION_REDIS_DATABASE"])
		if err != nil {
			return err
		}
		database = n
	}

	return ConnectWithClient(redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       database,
	}))
}

// ConnectWithClient sets up the queue connection on an already configured client.
func ConnectWithClient(client *redis.Client) error {
	if err := client.Ping(context.Background()).Err(); err != nil {
		return err
	}

	queueConnection, err := rmq.OpenConnectionWithRedisClient(connectionName, client, nil)
	if err != nil {
		return err
	}

	Client = client
	QueueConnection = queueConnection

	return nil
}

// Connected reports whether Connect has succeeded.
func Connected() bool {
	return QueueConnection != nil
}
