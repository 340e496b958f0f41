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

package database

const (
	// Tour queries
	queryGetTour = `
		SELECT id, name, price_per_head, adult_price, child_price, gst_percent,
		       occupancy, remaining_occupancy, start_date, version, created_at, updated_at
		FROM tours
		WHERE id = ?`

	queryUpsertTour = `
		INSERT INTO tours (id, name, price_per_head, adult_price, child_price, gst_percent,
		                   occupancy, remaining_occupancy, start_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			price_per_head = excluded.price_per_head,
			adult_price = excluded.adult_price,
			child_price = excluded.child_price,
			gst_percent = excluded.gst_percent,
			occupancy = excluded.occupancy,
			remaining_occupancy = MIN(tours.remaining_occupancy, excluded.occupancy),
			start_date = excluded.start_date,
			version = tours.version + 1,
			updated_at = CURRENT_TIMESTAMP`

	queryDecrementRemainingOccupancy = `
		UPDATE tours
		SET remaining_occupancy = MAX(remaining_occupancy - ?, 0),
		    version = version + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Agent queries
	queryGetAgentByAgentId = `
		SELECT id, agent_id, name, email, pincode, parent_agent_id, created_at
		FROM agents
		WHERE agent_id = ?`

	queryGetAgents = `
		SELECT id, agent_id, name, email, pincode, parent_agent_id, created_at
		FROM agents
		ORDER BY agent_id`

	queryCountAgentsWithPrefix = `
		SELECT COUNT(*) FROM agents WHERE agent_id LIKE ? || '%'`

	queryInsertAgent = `
		INSERT INTO agents (id, agent_id, name, email, pincode, parent_agent_id)
		VALUES (?, ?, ?, ?, ?, ?)`

	// Booking queries
	queryGetBookingByBookingId = `
		SELECT document, version, created_at, updated_at
		FROM bookings
		WHERE booking_id = ?`

	queryGetBookingByCustomerTour = `
		SELECT document, version, created_at, updated_at
		FROM bookings
		WHERE customer_id = ? AND tour_id = ?`

	queryInsertBookingIfAbsent = `
		INSERT INTO bookings (id, booking_id, customer_id, tour_id, agent_id, status, pending_cancellation, document, version)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, 1)
		ON CONFLICT(customer_id, tour_id) DO NOTHING`

	queryUpdateBooking = `
		UPDATE bookings
		SET status = ?, agent_id = ?, pending_cancellation = ?, document = ?,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE booking_id = ? AND version = ?`

	queryListPendingCancellations = `
		SELECT document, version, created_at, updated_at
		FROM bookings
		WHERE pending_cancellation = 1
		ORDER BY updated_at`

	// Agent tour stats queries
	queryInsertStatsIfAbsent = `
		INSERT INTO agent_tour_stats (id, agent_id, tour_id, tour_start_date)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(agent_id, tour_id, tour_start_date) DO NOTHING`

	queryGetStats = `
		SELECT id, agent_id, tour_id, tour_start_date, customer_given, final_amount,
		       commission_received, commission_rate, payment_received, adults, children,
		       cancelled, version, updated_at
		FROM agent_tour_stats
		WHERE agent_id = ? AND tour_id = ? AND tour_start_date = ?`

	queryUpdateStats = `
		UPDATE agent_tour_stats
		SET customer_given = ?, final_amount = ?, commission_received = ?, commission_rate = ?,
		    payment_received = ?, adults = ?, children = ?, cancelled = ?,
		    version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	// Settlement transaction queries
	queryInsertSettlementTransaction = `
		INSERT INTO settlement_transactions (
			id, payment_id, booking_id, tour_id, customer_id, agent_id,
			total_amount, paid_amount, currency, method, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryInsertCommissionRecord = `
		INSERT INTO commission_records (id, transaction_id, agent_id, level, amount, rate)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetSettlementTransactionByPaymentId = `
		SELECT id, payment_id, booking_id, tour_id, customer_id, agent_id,
		       total_amount, paid_amount, currency, method, created_at
		FROM settlement_transactions
		WHERE payment_id = ?`

	queryGetCommissionRecords = `
		SELECT agent_id, level, amount, rate
		FROM commission_records
		WHERE transaction_id = ?
		ORDER BY level`

	// Terms queries
	queryGetActiveTerms = `
		SELECT id, type, tour_id, version, content, active, created_at
		FROM terms_and_conditions
		WHERE type = ? AND tour_id = ? AND active = 1
		ORDER BY created_at DESC, version DESC
		LIMIT 1`

	queryDeactivateTerms = `
		UPDATE terms_and_conditions SET active = 0
		WHERE type = ? AND tour_id = ? AND version != ?`

	queryInsertTermsIfAbsent = `
		INSERT INTO terms_and_conditions (id, type, tour_id, version, content, active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(type, tour_id, version) DO NOTHING`

	queryGetTermsByVersion = `
		SELECT id, type, tour_id, version, content, active, created_at
		FROM terms_and_conditions
		WHERE type = ? AND tour_id = ? AND version = ?`

	queryGetUserAgreement = `
		SELECT id, user_id, user_type, terms_id, agreed_at
		FROM user_agreements
		WHERE user_id = ? AND user_type = ? AND terms_id = ?`

	queryInsertUserAgreement = `
		INSERT INTO user_agreements (id, user_id, user_type, terms_id, agreed_at)
		VALUES (?, ?, ?, ?, ?)`

	// Wallet balance queries
	queryGetWalletBalance = `
		SELECT balance
		FROM wallet_balances
		WHERE agent_id = ? AND currency = ?`

	queryGetAllWalletBalances = `
		SELECT id, agent_id, currency, balance, last_entry_id, version, updated_at
		FROM wallet_balances
		WHERE balance != '0'
		ORDER BY agent_id, currency`

	queryGetWalletBalanceForUpdate = `
		SELECT id, balance, version
		FROM wallet_balances
		WHERE agent_id = ? AND currency = ?`

	queryInsertWalletBalance = `
		INSERT INTO wallet_balances (id, agent_id, currency, balance, last_entry_id, version)
		VALUES (?, ?, ?, ?, '', ?)`

	queryUpdateWalletBalance = `
		UPDATE wallet_balances
		SET balance = ?, last_entry_id = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE agent_id = ? AND currency = ? AND version = ?`

	// Wallet entry queries
	queryCheckDuplicateWalletEntry = `
		SELECT id FROM wallet_entries WHERE reference = ? LIMIT 1`

	queryInsertWalletEntry = `
		INSERT INTO wallet_entries (
			id, agent_id, currency, amount, balance_before, balance_after,
			reference, transaction_id, level, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, entry_id, account_type, account_id, debit_amount, credit_amount)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetWalletHistory = `
		SELECT id, agent_id, currency, amount, balance_before, balance_after,
		       reference, transaction_id, level, created_at
		FROM wallet_entries
		WHERE agent_id = ? AND currency = ?
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`

	queryGetWalletEntryAmounts = `
		SELECT amount FROM wallet_entries WHERE agent_id = ? AND currency = ?`
)
