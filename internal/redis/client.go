package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

// ThreadChannel is the pub/sub channel carrying pipeline events for a thread.
func ThreadChannel(threadID string) string {
	return fmt.Sprintf("research:events:%s", threadID)
}

// ConversationKey is the list key holding a thread's chat history.
func ConversationKey(threadID string) string {
	return fmt.Sprintf("chat:history:%s", threadID)
}

// ResearchQueueKey is the list the pipeline workers consume from.
const ResearchQueueKey = "research:queue"
