package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LeadSyncedPayload é o evento que sai depois de um sync bem-sucedido.
// Consumidores: worker de alerta de vendas, e o que mais aparecer.
type LeadSyncedPayload struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	Phone         string `json:"phone,omitempty"`
	ContactID     string `json:"contact_id"`
	Action        string `json:"action"` // created | updated
	OpportunityID string `json:"opportunity_id,omitempty"`
	Source        string `json:"source,omitempty"`
	Page          string `json:"page,omitempty"`
	Campaign      string `json:"campaign,omitempty"`
}

type RabbitMQProducer struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewProducer(conn *amqp.Connection, ch *amqp.Channel) *RabbitMQProducer {
	return &RabbitMQProducer{
		Conn: conn,
		Ch:   ch,
	}
}

func (p *RabbitMQProducer) PublishLeadSynced(ctx context.Context, payload LeadSyncedPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("erro ao converter payload: %v", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName, // ex.leads
		RoutingKey,   // k.lead-synced
		false,        // Mandatory
		false,        // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // Mensagem salva no disco (segurança!)
		},
	)

	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %v", err)
	}

	return nil
}
