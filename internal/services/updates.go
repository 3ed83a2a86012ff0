package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"flashvoice-backend/internal/logger"
	"flashvoice-backend/internal/models"
)

// UserChannel is the pub/sub channel the websocket hub relays to a user.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("user_updates:%s", userID.String())
}

// Publisher fans job progress out through redis pub/sub.
type Publisher struct {
	redis *redis.Client
	log   *logger.Logger
}

func NewPublisher(redisClient *redis.Client, log *logger.Logger) *Publisher {
	return &Publisher{redis: redisClient, log: log}
}

// PublishUpdate sends a WebSocket update via Redis pub/sub
func (p *Publisher) PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		p.log.Error("failed to encode update", "type", msg.Type, "error", err)
		return
	}
	if err := p.redis.Publish(ctx, UserChannel(userID), string(data)).Err(); err != nil {
		p.log.Warn("failed to publish update", "user_id", userID, "type", msg.Type, "error", err)
	}
}
