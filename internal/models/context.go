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

import "context"

type requestIdKey struct{}

// WithRequestId attaches the inbound request id so service logs can be correlated.
func WithRequestId(ctx context.Context, requestId string) context.Context {
	if requestId == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIdKey{}, requestId)
}

// RequestIdFrom returns the request id from context, or "" if absent.
func RequestIdFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIdKey{}).(string)
	return id
}
