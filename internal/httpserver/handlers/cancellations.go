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
	"net/http"
	"strings"

	"tour-settlement-go/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type cancellationRequest struct {
	TravelerIds []string `json:"travelerIds"`
	Reason      string   `json:"reason"`
}

const (
	actionApprove = "approve"
	actionReject  = "reject"
)

type cancellationDecision struct {
	TravelerIds         []string        `json:"travelerIds"`
	Action              string          `json:"action"`
	DeductionPercentage decimal.Decimal `json:"deductionPercentage"`
	Reason              string          `json:"reason"`
}

type withdrawRequest struct {
	TravelerIds []string `json:"travelerIds"`
}

func (h *Handler) RequestCancellation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req cancellationRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	result, err := h.cancellations.Request(c.Request.Context(), actor, c.Param("bookingId"), req.TravelerIds, req.Reason)
	respondCancellation(c, result, err)
}

func (h *Handler) DecideCancellation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req cancellationDecision
	if !BindJSONOrError(c, &req) {
		return
	}

	var (
		result *models.CancellationResult
		err    error
	)
	bookingId := c.Param("bookingId")
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case actionApprove:
		result, err = h.cancellations.Approve(c.Request.Context(), actor, bookingId, req.TravelerIds, req.DeductionPercentage)
	case actionReject:
		result, err = h.cancellations.Reject(c.Request.Context(), actor, bookingId, req.TravelerIds, req.Reason)
	default:
		respondError(c, http.StatusBadRequest, "validation_error", "action must be approve or reject")
		return
	}
	respondCancellation(c, result, err)
}

func (h *Handler) WithdrawCancellation(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req withdrawRequest
	if c.Request.ContentLength > 0 && !BindJSONOrError(c, &req) {
		return
	}

	result, err := h.cancellations.Withdraw(c.Request.Context(), actor, c.Param("bookingId"), req.TravelerIds)
	respondCancellation(c, result, err)
}

func (h *Handler) ListPendingCancellations(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	bookings, err := h.cancellations.ListPending(c.Request.Context(), actor)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	if bookings == nil {
		bookings = []models.Booking{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(bookings), "bookings": bookings})
}

func respondCancellation(c *gin.Context, result *models.CancellationResult, err error) {
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, envelope(result.Message, result))
}
