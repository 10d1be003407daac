package queue

import (
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AlertSender define o contrato do canal de alerta (hoje: email SMTP).
type AlertSender interface {
	SendLeadAlert(payload LeadSyncedPayload) error
}

// Worker consome os eventos de lead e dispara o alerta pro time de vendas.
// É 100% desacoplado do request HTTP: se isso travar, a captura não trava.
type Worker struct {
	Channel *amqp.Channel
	Alerts  AlertSender
}

func NewWorker(ch *amqp.Channel, alerts AlertSender) *Worker {
	return &Worker{
		Channel: ch,
		Alerts:  alerts,
	}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName, // fila
		"",        // consumer
		false,     // auto-ack (manual é mais seguro)
		false,     // exclusive
		false,     // no-local
		false,     // no-wait
		nil,       // args
	)
	if err != nil {
		log.Fatalf("❌ Falha ao registrar consumidor RabbitMQ: %s", err)
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			var payload LeadSyncedPayload
			if err := json.Unmarshal(d.Body, &payload); err != nil {
				log.Printf("❌ [WORKER] JSON Inválido: %s", err)
				// Mensagem podre (malformada). Rejeita sem requeue para não travar a fila.
				d.Nack(false, false)
				continue
			}

			log.Printf("📥 [WORKER] Lead %s (%s) recebido da fila", payload.Email, payload.Action)

			if err := w.processMessage(payload); err != nil {
				log.Printf("❌ [WORKER] Erro ao alertar vendas: %s", err)
				d.Nack(false, false)
			} else {
				d.Ack(false)
			}
		}
	}()

	log.Printf(" [*] Worker rodando e aguardando na fila '%s'", queueName)
	<-forever
}

func (w *Worker) processMessage(payload LeadSyncedPayload) error {
	// Alerta só pra contato novo: update de contato existente é ruído pro
	// time de vendas.
	if payload.Action != "created" {
		return nil
	}

	if w.Alerts == nil {
		log.Printf("⚠️ [WORKER] Nenhum canal de alerta configurado, apenas logando lead %s", payload.Email)
		return nil
	}

	if err := w.Alerts.SendLeadAlert(payload); err != nil {
		return err
	}

	log.Printf("✅ [WORKER] Alerta enviado para lead %s", payload.Email)
	return nil
}
