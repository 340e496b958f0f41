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

	"tour-settlement-go/internal/models"

	"github.com/gin-gonic/gin"
)

// GetAgentWallet is readable by the agent itself and by superadmins.
func (h *Handler) GetAgentWallet(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	agentId := c.Param("agentId")
	if actor.Kind == models.ActorAgent && actor.Id != agentId {
		respondError(c, http.StatusForbidden, "forbidden", "agents can only view their own wallet")
		return
	}

	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	summary, err := h.wallets.GetAgentWallet(c.Request.Context(), agentId, limit, offset)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
