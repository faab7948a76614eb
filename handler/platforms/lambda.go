package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/Lytix-Labs/lytix-go/config"
	"github.com/Lytix-Labs/lytix-go/handler"
)

// ErrUnsupportedEvent is returned for Lambda events other than SQS batches.
var ErrUnsupportedEvent = errors.New("unsupported event type")

// LambdaAdapter feeds SQS batches to a Processor, one record at a time.
// Build the Processor with handler.Factory.CreateLambda so every record runs
// in its own async scope and the collector is drained before the batch
// result is returned to the runtime.
type LambdaAdapter struct {
	handler Processor
	config  config.LambdaConfig
}

// NewLambdaAdapter returns an adapter for h.
func NewLambdaAdapter(h Processor, cfg config.LambdaConfig) *LambdaAdapter {
	return &LambdaAdapter{handler: h, config: cfg}
}

// Start hands HandleEvent to the Lambda runtime. It does not return.
func (a *LambdaAdapter) Start() {
	lambda.Start(a.HandleEvent)
}

// HandleEvent routes a raw Lambda event.
func (a *LambdaAdapter) HandleEvent(ctx context.Context, event json.RawMessage) (any, error) {
	var sqsEvent events.SQSEvent
	if err := json.Unmarshal(event, &sqsEvent); err == nil && len(sqsEvent.Records) > 0 {
		return a.HandleSQSEvent(ctx, sqsEvent)
	}
	return nil, ErrUnsupportedEvent
}

// HandleSQSEvent processes every record. With partial batch failure enabled
// failed records are listed in the response, otherwise the first failure
// fails the whole batch.
func (a *LambdaAdapter) HandleSQSEvent(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	response := events.SQSEventResponse{
		BatchItemFailures: []events.SQSBatchItemFailure{},
	}

	for _, record := range event.Records {
		err := a.processRecord(ctx, record)
		if err == nil {
			continue
		}
		if !a.config.EnablePartialBatchFailure {
			return response, err
		}
		response.BatchItemFailures = append(response.BatchItemFailures, events.SQSBatchItemFailure{
			ItemIdentifier: record.MessageId,
		})
	}

	return response, nil
}

func (a *LambdaAdapter) processRecord(ctx context.Context, record events.SQSMessage) error {
	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}

	resp, err := a.handler.Handle(ctx, requestFromSQS(record))
	if err != nil {
		return fmt.Errorf("message %s: %w", record.MessageId, err)
	}
	// non-retryable failures are dropped so SQS does not redeliver them
	if !resp.Success && resp.Error != nil && resp.Error.Retryable {
		return fmt.Errorf("message %s: %w", record.MessageId, resp.Error)
	}
	return nil
}

func requestFromSQS(record events.SQSMessage) handler.Request {
	metadata := make(map[string]string, len(record.MessageAttributes)+3)
	for key, attr := range record.MessageAttributes {
		if attr.StringValue != nil {
			metadata[key] = *attr.StringValue
		}
	}
	metadata["sqs_message_id"] = record.MessageId
	metadata["sqs_receipt_handle"] = record.ReceiptHandle
	metadata["sqs_event_source"] = record.EventSource

	payload := json.RawMessage(record.Body)
	if !json.Valid(payload) {
		payload, _ = json.Marshal(record.Body)
	}

	requestType := "sqs_message"
	if t := metadata["type"]; t != "" {
		requestType = t
	}
	requestID := record.MessageId
	if id := metadata["request_id"]; id != "" {
		requestID = id
	}

	return handler.Request{
		ID:        requestID,
		Source:    "sqs",
		Type:      requestType,
		Payload:   payload,
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}
