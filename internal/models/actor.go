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

package models

import "strings"

type ActorKind string

const (
	ActorCustomer   ActorKind = "customer"
	ActorAgent      ActorKind = "agent"
	ActorSuperadmin ActorKind = "superadmin"
)

// ParseActorKind normalizes a role claim. ok is false for unknown roles.
func ParseActorKind(role string) (ActorKind, bool) {
	switch ActorKind(strings.ToLower(strings.TrimSpace(role))) {
	case ActorCustomer:
		return ActorCustomer, true
	case ActorAgent:
		return ActorAgent, true
	case ActorSuperadmin, "admin":
		return ActorSuperadmin, true
	default:
		return "", false
	}
}

// Principal is the uniform projection every actor kind exposes.
type Principal interface {
	ActorID() string
	DisplayName() string
}

// Actor identifies who performs an operation. For agents Id is the AgentId,
// for customers it is the customer id.
type Actor struct {
	Kind ActorKind `json:"kind"`
	Id   string    `json:"id"`
	Name string    `json:"name,omitempty"`
}

var _ Principal = Actor{}

func (a Actor) ActorID() string { return a.Id }

func (a Actor) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return string(a.Kind) + ":" + a.Id
}

func (a Actor) IsAdmin() bool { return a.Kind == ActorSuperadmin }
