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

	"tour-settlement-go/internal/booking"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Checkout(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req booking.CheckoutRequest
	if !BindJSONOrError(c, &req) {
		return
	}

	b, created, err := h.bookings.Checkout(c.Request.Context(), actor, req)
	if err != nil {
		RespondDomainError(c, err)
		return
	}

	status, message := http.StatusOK, "booking updated"
	if created {
		status, message = http.StatusCreated, "booking created"
	}
	c.JSON(status, envelope(message, b))
}

func (h *Handler) GetBooking(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	b, err := h.bookings.Get(c.Request.Context(), actor, c.Param("bookingId"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
