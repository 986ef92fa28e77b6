package common

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SyncTaskStream is the Redis Stream carrying auto-sync tasks from the
// outbox dispatcher to the queue workers.
const SyncTaskStream = "catalog:sync:tasks"

// SyncQueueService provides queue functionality using Redis Streams
type SyncQueueService struct {
	client *redis.Client
}

// NewSyncQueueService creates a new Redis queue service
func NewSyncQueueService(client *redis.Client) *SyncQueueService {
	return &SyncQueueService{
		client: client,
	}
}

// SyncTask is one unit of auto-sync work handed off through the stream.
type SyncTask struct {
	OutboxEventID string `json:"outbox_event_id"`
	ProductID     string `json:"product_id"`
	ProductType   string `json:"product_type"`
	Action        string `json:"action"`
	Payload       string `json:"payload,omitempty"`
}

// EnqueueTask adds one sync task to the stream.
func (s *SyncQueueService) EnqueueTask(ctx context.Context, streamName string, task *SyncTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal sync task: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: streamName,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}

	if _, err := s.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}

	return nil
}

// DequeueTask reads one task from the stream using a consumer group.
// Returns (task, messageID, error); a nil task means the block timed out.
func (s *SyncQueueService) DequeueTask(ctx context.Context, streamName, groupName, consumerName string, blockTime time.Duration) (*SyncTask, string, error) {
	args := &redis.XReadGroupArgs{
		Group:    groupName,
		Consumer: consumerName,
		Streams:  []string{streamName, ">"}, // ">" means new messages only
		Count:    1,
		Block:    blockTime,
	}

	streams, err := s.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if err == redis.Nil {
			// No messages available (timeout)
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, "", nil
	}

	msg := streams[0].Messages[0]

	dataStr, ok := msg.Values["data"].(string)
	if !ok {
		return nil, "", fmt.Errorf("invalid message format: data field missing")
	}

	var task SyncTask
	if err := json.Unmarshal([]byte(dataStr), &task); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal sync task: %w", err)
	}

	return &task, msg.ID, nil
}

// AckTask acknowledges successful processing of a message
func (s *SyncQueueService) AckTask(ctx context.Context, streamName, groupName, messageID string) error {
	return s.client.XAck(ctx, streamName, groupName, messageID).Err()
}

// CreateConsumerGroup creates a consumer group for the stream if it doesn't exist
func (s *SyncQueueService) CreateConsumerGroup(ctx context.Context, streamName, groupName string) error {
	err := s.client.XGroupCreateMkStream(ctx, streamName, groupName, "0").Err()
	if err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists" {
		// Group already exists, this is fine
		return nil
	}
	return err
}

// StreamDepth returns the number of entries currently on the stream.
func (s *SyncQueueService) StreamDepth(ctx context.Context, streamName string) (int64, error) {
	return s.client.XLen(ctx, streamName).Result()
}
