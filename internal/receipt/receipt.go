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

package receipt

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"tour-settlement-go/internal/domain"
	"tour-settlement-go/internal/models"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

// Loader is the read side a receipt needs.
type Loader interface {
	GetTransactionByPaymentId(ctx context.Context, paymentId string) (*models.Transaction, error)
	GetBookingByBookingId(ctx context.Context, bookingId string) (*models.Booking, error)
}

// Service renders settlement receipts as PDF documents.
type Service struct {
	loader Loader
}

func NewService(loader Loader) *Service {
	return &Service{loader: loader}
}

// Generate renders the receipt for a settled payment. It returns the PDF and a download filename.
// The booking is optional on the receipt; a missing booking only drops the traveler list.
func (s *Service) Generate(ctx context.Context, paymentId string) ([]byte, string, error) {
	if paymentId == "" {
		return nil, "", domain.ValidationError{Field: "paymentId", Msg: "is required"}
	}

	txn, err := s.loader.GetTransactionByPaymentId(ctx, paymentId)
	if err != nil {
		return nil, "", domain.FromStore("transaction", err)
	}

	booking, err := s.loader.GetBookingByBookingId(ctx, txn.BookingId)
	if err != nil {
		if !isNotFound(err) {
			return nil, "", domain.FromStore("booking", err)
		}
		booking = nil
	}

	data, err := buildReceiptPDF(txn, booking)
	if err != nil {
		return nil, "", domain.InternalError{Msg: "failed to render receipt", Err: err}
	}

	zap.L().Info("Receipt generated",
		zap.String("payment_id", paymentId),
		zap.String("booking_id", txn.BookingId),
		zap.String("request_id", models.RequestIdFrom(ctx)))
	return data, fmt.Sprintf("RECEIPT_%s.pdf", safeFilenamePart(paymentId)), nil
}

func isNotFound(err error) bool {
	return domain.IsNotFound(domain.FromStore("", err))
}

func buildReceiptPDF(txn *models.Transaction, booking *models.Booking) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Payment Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "PAYMENT RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Payment ID  : "+txn.PaymentId)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Booking ID  : "+txn.BookingId)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date        : "+txn.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Method      : "+safe(txn.Method, "-"))
	pdf.Ln(10)

	if booking != nil {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Tour:")
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(0, 6, fmt.Sprintf("%s (%s)", safe(booking.Tour.Name, "-"), booking.Tour.StartDate.Format("2006-01-02")))
		pdf.Ln(6)
		pdf.Cell(0, 6, "Customer: "+safe(booking.Customer.Name, booking.Customer.CustomerId))
		pdf.Ln(9)

		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Travelers:")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for i, t := range booking.Travelers {
			line := fmt.Sprintf("%d) %s, age %d", i+1, safe(t.Name, "-"), t.Age)
			if t.State() != models.TravelerNone {
				line += " [cancellation " + string(t.State()) + "]"
			}
			pdf.Cell(0, 6, line)
			pdf.Ln(6)
		}
		pdf.Ln(3)

		if len(booking.Payment.Breakdown) > 0 {
			pdf.SetFont("Helvetica", "B", 12)
			pdf.Cell(0, 7, "Breakdown:")
			pdf.Ln(8)
			pdf.SetFont("Helvetica", "", 11)
			for _, line := range booking.Payment.Breakdown {
				pdf.CellFormat(120, 6, line.Label, "", 0, "L", false, 0, "")
				pdf.CellFormat(0, 6, formatMoney(txn.Currency, line.Amount.StringFixed(2)), "", 1, "R", false, 0, "")
			}
			pdf.Ln(3)
		}
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(120, 8, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, formatMoney(txn.Currency, txn.TotalAmount.StringFixed(2)), "T", 1, "R", false, 0, "")
	pdf.CellFormat(120, 8, "Paid", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 8, formatMoney(txn.Currency, txn.PaidAmount.StringFixed(2)), "", 1, "R", false, 0, "")
	pdf.Ln(6)

	if len(txn.Commissions) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, "Agent commissions:")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 11)
		for _, c := range txn.Commissions {
			pdf.CellFormat(120, 6, fmt.Sprintf("Level %d  %s  @ %s%%", c.Level, c.AgentId, c.Rate.String()), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, formatMoney(txn.Currency, c.Amount.StringFixed(2)), "", 1, "R", false, 0, "")
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatMoney(currency, amount string) string {
	return strings.TrimSpace(currency + " " + amount)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(strings.TrimSpace(s))
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

