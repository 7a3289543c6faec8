package service

import (
	"context"
	"encoding/json"
	"log"

	"ai-researcher-be/internal/dto"
	"ai-researcher-be/internal/entity"
	"ai-researcher-be/internal/repository/unitofwork"
	"ai-researcher-be/pkg/events"
	"ai-researcher-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/datatypes"
)

type IRecorderService interface {
	Consume(ctx context.Context) error
}

// recorderService persists completed searches and mirrors them to NATS. It
// runs off the request path so recording cost never delays responses.
type recorderService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	publisher  *nats.Publisher // nil when no external bus is configured
}

func NewRecorderService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	publisher *nats.Publisher,
) IRecorderService {
	return &recorderService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		publisher:  publisher,
	}
}

func (rs *recorderService) Consume(ctx context.Context) error {
	messages, err := rs.pubSub.Subscribe(ctx, rs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			rs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (rs *recorderService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SearchCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal search completion: %v", err)
		msg.Ack() // invalid payloads would retry forever
		return
	}

	record := &entity.SearchRecord{
		Id:             payload.RecordId,
		UserId:         payload.UserId,
		CollectionId:   payload.CollectionId,
		Question:       payload.Question,
		RewrittenQuery: payload.RewrittenQuery,
		FinalAnswer:    payload.Answer,
		TokensUsed:     payload.TokensUsed,
		DurationMs:     payload.DurationMs,
	}
	if len(payload.CotOutput) > 0 {
		record.CotOutput = datatypes.JSON(payload.CotOutput)
	}
	if len(payload.StageErrors) > 0 {
		if raw, err := json.Marshal(payload.StageErrors); err == nil {
			record.StageErrors = datatypes.JSON(raw)
		}
	}

	uow := rs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SearchRecordRepository().Create(ctx, record); err != nil {
		log.Printf("[ERROR] Failed to persist search record %s: %v", payload.RecordId, err)
		msg.Nack()
		return
	}

	if rs.publisher != nil {
		tokens := 0
		if payload.TokensUsed != nil {
			tokens = *payload.TokensUsed
		}
		event := events.NewSearchCompleted(payload.UserId, payload.RecordId, len(payload.CotOutput) > 0, payload.DurationMs, tokens)
		if err := rs.publisher.Publish(ctx, event); err != nil {
			// Mirroring is best-effort, the record is already durable.
			log.Printf("[WARN] Failed to mirror search event %s: %v", payload.RecordId, err)
		}
	}

	msg.Ack()
}
