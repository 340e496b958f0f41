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

package httpserver

import (
	"net/http"

	"tour-settlement-go/internal/httpserver/handlers"
	"tour-settlement-go/internal/httpserver/middleware"
	"tour-settlement-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter mounts every route. The payment webhook is authenticated by its signature;
// everything else under /api except health requires a bearer token.
func NewRouter(cfg models.ServerConfig, jwtSecret string, h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	if cfg.AccessLog {
		r.Use(middleware.Logger())
	}
	r.Use(gin.Recovery(), middleware.CORS(cfg.AllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		zap.L().Warn("Failed to set trusted proxies", zap.Error(err))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	api := r.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/webhooks/payments", h.PaymentWebhook)

	authed := api.Group("", middleware.Auth([]byte(jwtSecret)))
	{
		bookings := authed.Group("/bookings")
		bookings.POST("", middleware.RequireRoles(models.ActorCustomer, models.ActorAgent), h.Checkout)
		bookings.GET("/:bookingId", h.GetBooking)
		bookings.POST("/:bookingId/cancellation",
			middleware.RequireRoles(models.ActorCustomer, models.ActorAgent), h.RequestCancellation)
		bookings.PUT("/:bookingId/cancellation",
			middleware.RequireRoles(models.ActorSuperadmin), h.DecideCancellation)
		bookings.POST("/:bookingId/cancellation/withdraw",
			middleware.RequireRoles(models.ActorAgent), h.WithdrawCancellation)

		authed.GET("/cancellations/pending", middleware.RequireRoles(models.ActorSuperadmin), h.ListPendingCancellations)

		authed.GET("/agents/:agentId/wallet",
			middleware.RequireRoles(models.ActorAgent, models.ActorSuperadmin), h.GetAgentWallet)

		authed.GET("/transactions/:paymentId/receipt",
			middleware.RequireRoles(models.ActorAgent, models.ActorSuperadmin), h.GetReceipt)
	}

	return r
}
