package clients

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sepalink/sepalink-go/config"
)

const verifyRequestTimeout = 10 * time.Second

// ReceiptVerifier confirms a payment notification with the detector before
// the matcher acts on it. The raw body is posted back to the detector's
// receipt endpoint, which answers with the literal text VALID for
// notifications it really sent.
type ReceiptVerifier interface {
	Verify(ctx context.Context, body []byte) error
}

func NewReceiptVerifier(log *zap.Logger) ReceiptVerifier {
	return &receiptVerifier{
		verifyURL: config.DETECTOR_VERIFY_URL,
		client:    &http.Client{Timeout: verifyRequestTimeout},
		log:       log,
	}
}

type receiptVerifier struct {
	verifyURL string
	client    *http.Client
	log       *zap.Logger
}

func (v *receiptVerifier) Verify(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")

	res, err := v.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	answer, _ := io.ReadAll(res.Body)
	if string(answer) != "VALID" {
		v.log.Warn("detector rejected notification",
			zap.Int("status", res.StatusCode), zap.String("answer", string(answer)))
		return fmt.Errorf("detector did not validate the notification")
	}
	return nil
}
