package handlers

import (
	"context"
	"net/http"
	"strings"

	"automations/internal/dispatch"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"
)

type EventDispatcher interface {
	Dispatch(ctx context.Context, env dispatch.Envelope) error
}

// SQSEventsHandler consumes Shopify EventBridge events queued in SQS.
// Only messages that hit a transport error are reported back for retry.
type SQSEventsHandler struct {
	dispatcher EventDispatcher
	log        *zap.Logger
}

func NewSQSEventsHandler(d EventDispatcher, log *zap.Logger) *SQSEventsHandler {
	return &SQSEventsHandler{dispatcher: d, log: log}
}

func (h *SQSEventsHandler) Handle(ctx context.Context, sqsEvent events.SQSEvent) (events.SQSEventResponse, error) {
	failures := make([]events.SQSBatchItemFailure, 0)

	for _, rec := range sqsEvent.Records {
		log := h.log.With(zap.String("message_id", rec.MessageId))

		env, err := dispatch.DecodeEventBridge([]byte(rec.Body))
		if err != nil {
			log.Warn("dropping undecodable message", zap.Error(err))
			continue
		}
		if err := h.dispatcher.Dispatch(ctx, env); err != nil {
			// Mark this message as failed so it retries (or goes to DLQ)
			log.Error("event processing failed", zap.String("topic", env.Topic), zap.String("shop", env.Shop), zap.Error(err))
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

// PubSubPushHandler receives Google Pub/Sub push deliveries. Any 2xx
// acknowledges the message; a 500 makes Pub/Sub redeliver it.
type PubSubPushHandler struct {
	dispatcher EventDispatcher
	log        *zap.Logger
}

func NewPubSubPushHandler(d EventDispatcher, log *zap.Logger) *PubSubPushHandler {
	return &PubSubPushHandler{dispatcher: d, log: log}
}

func (h *PubSubPushHandler) Handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	if strings.ToUpper(req.RequestContext.HTTP.Method) != http.MethodPost {
		return errResp(http.StatusMethodNotAllowed, apiError{Title: "Method not allowed."})
	}

	body, err := requestBody(req)
	if err != nil {
		h.log.Warn("dropping push with bad body encoding", zap.Error(err))
		return okResp(nil, "ignored")
	}
	env, err := dispatch.DecodePubSubPush(body)
	if err != nil {
		h.log.Warn("dropping undecodable push", zap.Error(err))
		return okResp(nil, "ignored")
	}

	if err := h.dispatcher.Dispatch(ctx, env); err != nil {
		h.log.Error("event processing failed", zap.String("topic", env.Topic), zap.String("shop", env.Shop), zap.Error(err))
		return internalErr("", err)
	}
	return okResp(nil, "")
}
