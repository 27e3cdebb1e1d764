package geofence

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// EventService consumes raw transition events published by devices and feeds
// them through the Validator
type EventService struct {
	pubsubClient *pubsub.Client
	validator    *Validator
	topicName    string
	subName      string
}

// NewEventService creates a Pub/Sub backed EventService
func NewEventService(projectID, topicName string, validator *Validator, credentialsFile string) (*EventService, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &EventService{
		pubsubClient: client,
		validator:    validator,
		topicName:    topicName,
		subName:      topicName + "-sub", // Convention: topic-sub
	}, nil
}

// Start blocks receiving transition events until ctx is cancelled
func (s *EventService) Start(ctx context.Context) {
	log.Printf("[Events] Starting transition event service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[Events] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[Events] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[Events] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 30 * time.Second,
		})
		if err != nil {
			log.Printf("[Events] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[Events] Created subscription: %s", s.subName)
	}

	log.Printf("[Events] Listening for transition events on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[Events] Error receiving messages: %v", err)
	}
}

func (s *EventService) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var event Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		log.Printf("[Events] Failed to unmarshal transition event: %v", err)
		return
	}

	log.Printf("[Events] Received transition: taskID=%d transition=%s", event.TaskID, event.Transition)

	if err := s.validator.HandleTransition(ctx, event); err != nil {
		log.Printf("[Events] Error handling transition: taskID=%d err=%v", event.TaskID, err)
	}
}
