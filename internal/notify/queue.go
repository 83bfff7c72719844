package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sarasavi/internal/util"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// Delivery tracks one queued notification through the outbox.
type Delivery struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Payload      string    `json:"payload"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// RedisOutbox is a Redis Streams outbox between request handlers and the
// broker. Handlers enqueue; a consumer group drains to the Publisher with
// retries, so event delivery survives broker downtime.
type RedisOutbox struct {
	client       *redis.Client
	stream       string
	group        string
	consumerBase string
	deliveryTTL  time.Duration
	maxRetries   int
	block        time.Duration
	claimIdle    time.Duration
	retryDelay   time.Duration
	maxLen       int64
	readCount    int64
	claimCount   int64
	once         sync.Once
}

type RedisOutboxConfig struct {
	Addr        string
	Password    string
	Stream      string
	Group       string
	Consumer    string
	DeliveryTTL time.Duration
	MaxRetries  int
	Block       time.Duration
	ClaimIdle   time.Duration
	RetryDelay  time.Duration
	MaxLen      int64
	ReadCount   int64
	ClaimCount  int64
}

func NewRedisOutbox(cfg RedisOutboxConfig) (*RedisOutbox, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		stream = "sarasavi:notifications"
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "notifiers"
	}
	consumer := strings.TrimSpace(cfg.Consumer)
	if consumer == "" {
		consumer = util.NewID()
	}
	deliveryTTL := cfg.DeliveryTTL
	if deliveryTTL <= 0 {
		deliveryTTL = 24 * time.Hour
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	block := cfg.Block
	if block <= 0 {
		block = 5 * time.Second
	}
	claimIdle := cfg.ClaimIdle
	if claimIdle <= 0 {
		claimIdle = 30 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = 10000
	}
	readCount := cfg.ReadCount
	if readCount <= 0 {
		readCount = 10
	}
	claimCount := cfg.ClaimCount
	if claimCount <= 0 {
		claimCount = 10
	}

	return &RedisOutbox{
		client:       redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:       stream,
		group:        group,
		consumerBase: consumer,
		deliveryTTL:  deliveryTTL,
		maxRetries:   maxRetries,
		block:        block,
		claimIdle:    claimIdle,
		retryDelay:   retryDelay,
		maxLen:       maxLen,
		readCount:    readCount,
		claimCount:   claimCount,
	}, nil
}

// Enqueue records a pending delivery and appends it to the stream.
func (o *RedisOutbox) Enqueue(ctx context.Context, kind string, payload []byte) (Delivery, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return Delivery{}, errors.New("kind required")
	}
	delivery := Delivery{
		ID:        util.NewID(),
		Kind:      kind,
		Payload:   string(payload),
		Status:    StatusQueued,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := o.writeStatus(ctx, delivery); err != nil {
		return Delivery{}, err
	}
	if err := o.client.XAdd(ctx, &redis.XAddArgs{
		Stream: o.stream,
		MaxLen: o.maxLen,
		Approx: true,
		Values: map[string]any{
			"delivery_id": delivery.ID,
			"kind":        delivery.Kind,
			"payload":     delivery.Payload,
		},
	}).Err(); err != nil {
		return Delivery{}, err
	}
	return delivery, nil
}

// GetDelivery reads delivery status by ID.
func (o *RedisOutbox) GetDelivery(ctx context.Context, id string) (Delivery, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Delivery{}, false, nil
	}
	data, err := o.client.HGetAll(ctx, o.deliveryKey(id)).Result()
	if err != nil {
		return Delivery{}, false, err
	}
	if len(data) == 0 {
		return Delivery{}, false, nil
	}
	return decodeDelivery(id, data), true, nil
}

// Start launches consumer goroutines draining the stream into the publisher.
func (o *RedisOutbox) Start(ctx context.Context, concurrency int, publisher Publisher) {
	if concurrency <= 0 {
		concurrency = 1
	}
	o.ensureGroup(ctx)
	for i := 0; i < concurrency; i++ {
		consumer := fmt.Sprintf("%s-%d", o.consumerBase, i)
		go o.consumeLoop(ctx, consumer, publisher)
	}
}

func (o *RedisOutbox) ensureGroup(ctx context.Context) {
	o.once.Do(func() {
		err := o.client.XGroupCreateMkStream(ctx, o.stream, o.group, "$").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			// best-effort; errors will surface on consume
		}
	})
}

func (o *RedisOutbox) consumeLoop(ctx context.Context, consumer string, publisher Publisher) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if msgs, err := o.claimPending(ctx, consumer); err == nil {
			for _, msg := range msgs {
				o.handleMessage(ctx, msg, publisher)
			}
		}

		streams, err := o.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    o.group,
			Consumer: consumer,
			Streams:  []string{o.stream, ">"},
			Count:    o.readCount,
			Block:    o.block,
		}).Result()
		if err != nil {
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				o.handleMessage(ctx, msg, publisher)
			}
		}
	}
}

func (o *RedisOutbox) claimPending(ctx context.Context, consumer string) ([]redis.XMessage, error) {
	res, _, err := o.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   o.stream,
		Group:    o.group,
		Consumer: consumer,
		MinIdle:  o.claimIdle,
		Start:    "0-0",
		Count:    o.claimCount,
	}).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (o *RedisOutbox) handleMessage(ctx context.Context, msg redis.XMessage, publisher Publisher) {
	id, _ := msg.Values["delivery_id"].(string)
	kind, _ := msg.Values["kind"].(string)
	payload, _ := msg.Values["payload"].(string)
	if id == "" || kind == "" {
		o.ackAndDel(ctx, msg.ID)
		return
	}
	delivery, err := o.markProcessing(ctx, id, kind, payload)
	if err != nil {
		o.ackAndDel(ctx, msg.ID)
		return
	}
	pubErr := publisher.Publish(ctx, kind, []byte(payload))
	if pubErr == nil {
		_ = o.markDone(ctx, id)
		o.ackAndDel(ctx, msg.ID)
		return
	}
	if delivery.Attempts >= o.maxRetries {
		_ = o.markFailed(ctx, id, pubErr.Error())
		o.ackAndDel(ctx, msg.ID)
		return
	}
	_ = o.markQueued(ctx, id, pubErr.Error())
	if o.retryDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(o.retryDelay):
		}
	}
	_ = o.requeueAndAck(ctx, msg.ID, id, kind, payload)
}

func (o *RedisOutbox) ackAndDel(ctx context.Context, msgID string) {
	_, _ = o.client.XAck(ctx, o.stream, o.group, msgID).Result()
	_, _ = o.client.XDel(ctx, o.stream, msgID).Result()
}

func (o *RedisOutbox) requeueAndAck(ctx context.Context, msgID, id, kind, payload string) error {
	pipe := o.client.TxPipeline()
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: o.stream,
		MaxLen: o.maxLen,
		Approx: true,
		Values: map[string]any{
			"delivery_id": id,
			"kind":        kind,
			"payload":     payload,
		},
	})
	pipe.XAck(ctx, o.stream, o.group, msgID)
	pipe.XDel(ctx, o.stream, msgID)
	_, err := pipe.Exec(ctx)
	return err
}

func (o *RedisOutbox) markProcessing(ctx context.Context, id, kind, payload string) (Delivery, error) {
	delivery, _, err := o.GetDelivery(ctx, id)
	if err != nil {
		return Delivery{}, err
	}
	if delivery.ID == "" {
		delivery = Delivery{ID: id}
	}
	if kind != "" {
		delivery.Kind = kind
	}
	if payload != "" {
		delivery.Payload = payload
	}
	delivery.Attempts++
	delivery.Status = StatusProcessing
	delivery.UpdatedAt = time.Now().UTC()
	if delivery.CreatedAt.IsZero() {
		delivery.CreatedAt = delivery.UpdatedAt
	}
	if err := o.writeStatus(ctx, delivery); err != nil {
		return Delivery{}, err
	}
	return delivery, nil
}

func (o *RedisOutbox) markQueued(ctx context.Context, id, errMsg string) error {
	return o.setStatus(ctx, id, StatusQueued, errMsg)
}

func (o *RedisOutbox) markDone(ctx context.Context, id string) error {
	return o.setStatus(ctx, id, StatusDone, "")
}

func (o *RedisOutbox) markFailed(ctx context.Context, id, errMsg string) error {
	return o.setStatus(ctx, id, StatusFailed, errMsg)
}

func (o *RedisOutbox) setStatus(ctx context.Context, id, status, errMsg string) error {
	delivery, _, err := o.GetDelivery(ctx, id)
	if err != nil {
		return err
	}
	delivery.Status = status
	delivery.ErrorMessage = errMsg
	delivery.UpdatedAt = time.Now().UTC()
	return o.writeStatus(ctx, delivery)
}

func (o *RedisOutbox) writeStatus(ctx context.Context, delivery Delivery) error {
	key := o.deliveryKey(delivery.ID)
	payload := map[string]any{
		"id":        delivery.ID,
		"kind":      delivery.Kind,
		"payload":   delivery.Payload,
		"status":    delivery.Status,
		"error":     delivery.ErrorMessage,
		"attempts":  strconv.Itoa(delivery.Attempts),
		"createdAt": delivery.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt": delivery.UpdatedAt.Format(time.RFC3339Nano),
	}
	if err := o.client.HSet(ctx, key, payload).Err(); err != nil {
		return err
	}
	_ = o.client.Expire(ctx, key, o.deliveryTTL).Err()
	return nil
}

func (o *RedisOutbox) deliveryKey(id string) string {
	return fmt.Sprintf("notify:%s:%s", o.stream, id)
}

func decodeDelivery(id string, data map[string]string) Delivery {
	delivery := Delivery{ID: id}
	delivery.Kind = data["kind"]
	delivery.Payload = data["payload"]
	delivery.Status = data["status"]
	delivery.ErrorMessage = data["error"]
	if v := data["attempts"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			delivery.Attempts = n
		}
	}
	if v := data["createdAt"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			delivery.CreatedAt = t
		}
	}
	if v := data["updatedAt"]; v != "" {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			delivery.UpdatedAt = t
		}
	}
	return delivery
}
