/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package handlers

import (
	"errors"
	"io"
	"net/http"

	"tour-settlement-go/internal/httpserver/middleware"
	"tour-settlement-go/internal/models"
	"tour-settlement-go/internal/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// PaymentWebhook verifies and settles a gateway payment event. Non-2xx responses make
// the gateway redeliver; settlement is idempotent on the payment id.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "unable to read body")
		return
	}

	if err := h.verifier.Verify(body, c.GetHeader(h.signatureHeader)); err != nil {
		zap.L().Warn("Rejected webhook with bad signature",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Bool("invalid_signature", errors.Is(err, webhook.ErrInvalidSignature)))
		respondError(c, http.StatusUnauthorized, "invalid_signature", "invalid signature")
		return
	}

	event, err := webhook.ParsePaymentEvent(body)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if event.Event != models.EventPaymentCaptured {
		zap.L().Info("Ignoring webhook event", zap.String("event", event.Event))
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "event": event.Event})
		return
	}

	result, err := h.settler.Settle(c.Request.Context(), *event)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
