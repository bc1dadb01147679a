package services

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/config"
	"github.com/sepalink/sepalink-go/models"
)

type WebhookService interface {
	SendPayoutSubmittedEvent(record *models.ReconciliationRecord) (self WebhookService)
	SendPayoutConfirmedEvent(record *models.ReconciliationRecord) (self WebhookService)
	SendPayoutFailedEvent(record *models.ReconciliationRecord) (self WebhookService)
	SendPaymentUnmatchedEvent(payment *models.UnmatchedPayment) (self WebhookService)
}

type webhookService struct {
	service
}

func NewWebhookService(log *zap.Logger) WebhookService {
	return &webhookService{
		service: service{
			log: log,
		},
	}
}

func (w *webhookService) doRequest(url string, body *bytes.Buffer, key string) (error, bool) {
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return err, false
	}

	if key != "" {
		now := time.Now().Unix()
		data := strings.ReplaceAll(body.String(), "/", "\\/")
		payload := fmt.Sprintf("%d.%s", now, data)
		mac := hmac.New(sha256.New, []byte(key))
		if _, err := mac.Write([]byte(payload)); err != nil {
			return err, false
		}
		signature := hex.EncodeToString(mac.Sum(nil))
		req.Header.Set("sepalink-signature", fmt.Sprintf("ts=%d,sig=%s", now, signature))
	}

	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	res, err := http.DefaultClient.Do(req)
	if res != nil {
		resData, _ := io.ReadAll(res.Body)
		res.Body.Close()
		w.log.Info("response from callback", zap.String("Response Data", string(resData)))
	}
	return err, (res != nil && res.StatusCode < 300)
}

func (w *webhookService) sendEvent(eventType models.WebhookEvent, eventData any) (self WebhookService) {
	if config.OPERATOR_CALLBACK_URL == "" {
		return w
	}
	w.log.Info("dispatching event...", zap.String("Event Type", eventType.String()))

	event := &models.Webhook{
		Event: eventType,
		Data:  eventData,
	}

	data, err := json.Marshal(event)
	if err != nil {
		w.log.Error("encoding request body", zap.Error(err))
		return w
	}

	err, ok := w.doRequest(config.OPERATOR_CALLBACK_URL, bytes.NewBuffer(data), config.OPERATOR_WEBHOOK_KEY)
	if err != nil {
		w.log.Error("dispatching request", zap.Error(err))
		return w
	}
	if !ok {
		w.log.Warn("callback endpoint rejected event", zap.String("Event Type", eventType.String()))
	}

	return w
}

func (w *webhookService) SendPayoutSubmittedEvent(record *models.ReconciliationRecord) (self WebhookService) {
	return w.sendEvent(models.PayoutSubmitted_WebhookEvent, record)
}

func (w *webhookService) SendPayoutConfirmedEvent(record *models.ReconciliationRecord) (self WebhookService) {
	return w.sendEvent(models.PayoutConfirmed_WebhookEvent, record)
}

func (w *webhookService) SendPayoutFailedEvent(record *models.ReconciliationRecord) (self WebhookService) {
	return w.sendEvent(models.PayoutFailed_WebhookEvent, record)
}

func (w *webhookService) SendPaymentUnmatchedEvent(payment *models.UnmatchedPayment) (self WebhookService) {
	return w.sendEvent(models.PaymentUnmatched_WebhookEvent, payment)
}
