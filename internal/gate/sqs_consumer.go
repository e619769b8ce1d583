// Package gate consumes plate recognition events published by camera units
// and drives the parking engine with them. The queue is an alternative
// ingress to the HTTP API: smart cameras do recognition on-device and post
// {direction, lot, plate, timestamp} messages.
package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/lxyzcm1/parking-manage-system/internal/config"
	"github.com/lxyzcm1/parking-manage-system/internal/domain"
	"github.com/lxyzcm1/parking-manage-system/internal/repository"
	"github.com/lxyzcm1/parking-manage-system/internal/service"
)

type SQSConsumer struct {
	sqsClient *sqs.Client
	queueURL  string
	engine    *service.ParkingEngine
}

func NewSQSConsumer(client *sqs.Client, cfg *config.Config, engine *service.ParkingEngine) *SQSConsumer {
	return &SQSConsumer{
		sqsClient: client,
		queueURL:  cfg.SQSEventQueueURL,
		engine:    engine,
	}
}

func (c *SQSConsumer) Start(ctx context.Context) {
	log.Printf("SQS Consumer: listening on queue %s", c.queueURL)
	for {
		select {
		case <-ctx.Done():
			log.Println("SQS Consumer: context cancelled, stopping.")
			return
		default:
			receiveInput := &sqs.ReceiveMessageInput{
				QueueUrl:            &c.queueURL,
				MaxNumberOfMessages: 10,
				WaitTimeSeconds:     20,
				VisibilityTimeout:   60,
			}

			result, err := c.sqsClient.ReceiveMessage(ctx, receiveInput)
			if err != nil {
				log.Printf("SQS Consumer: receive failed: %v", err)
				select {
				case <-time.After(5 * time.Second):
				case <-ctx.Done():
					return
				}
				continue
			}

			for _, message := range result.Messages {
				if message.Body == nil {
					c.deleteMessage(ctx, message.ReceiptHandle)
					continue
				}
				if err := c.handleEvent(ctx, *message.Body); err != nil {
					log.Printf("SQS Consumer: failed to process message %s: %v", *message.MessageId, err)
					if !retryable(err) {
						// A domain rejection will never succeed on redelivery.
						c.deleteMessage(ctx, message.ReceiptHandle)
					}
					continue
				}
				c.deleteMessage(ctx, message.ReceiptHandle)
			}
		}
	}
}

func (c *SQSConsumer) handleEvent(ctx context.Context, body string) error {
	var event domain.GateCameraEvent
	if err := json.Unmarshal([]byte(body), &event); err != nil {
		return fmt.Errorf("unmarshaling gate event: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, event.Timestamp)
	if err != nil {
		log.Printf("SQS Consumer: bad timestamp %q in event %s, using current time", event.Timestamp, event.EventID)
		ts = time.Now().UTC()
	}

	switch event.Direction {
	case "entry":
		_, err = c.engine.Enter(ctx, event.Plate, event.LotID, ts)
	case "exit":
		_, err = c.engine.Exit(ctx, event.Plate, ts)
	default:
		return fmt.Errorf("unknown gate event direction %q", event.Direction)
	}
	return err
}

// retryable reports whether a processing error could succeed on redelivery.
// Domain rejections (full lot, duplicate entry, unknown plate) are final;
// store failures are worth another attempt after the visibility timeout.
func retryable(err error) bool {
	switch {
	case errors.Is(err, service.ErrInvalidPlate),
		errors.Is(err, service.ErrLotFull),
		errors.Is(err, service.ErrInvalidInterval),
		errors.Is(err, repository.ErrDuplicateOpenSession),
		errors.Is(err, repository.ErrNoOpenSession),
		errors.Is(err, repository.ErrSessionClosed),
		errors.Is(err, repository.ErrNotFound):
		return false
	}
	return true
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		return
	}
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		log.Printf("SQS Consumer: delete failed: %v", err)
	}
}
