package models

import (
	"time"

	"github.com/mamadbah2/fieldpay/internal/domain/money"
)

// AdjustmentKind enumerates earning and deduction categories.
type AdjustmentKind string

const (
	AdjustmentBonus       AdjustmentKind = "bonus"
	AdjustmentChargeback  AdjustmentKind = "chargeback"
	AdjustmentLoanDraw    AdjustmentKind = "loan-draw"
	AdjustmentLoanPayment AdjustmentKind = "loan-payment"
	AdjustmentRecurring   AdjustmentKind = "recurring-deduction"
	AdjustmentProfitShare AdjustmentKind = "profit-share"
	AdjustmentEquipment   AdjustmentKind = "equipment-fee"
	AdjustmentVehicle     AdjustmentKind = "vehicle-fee"
	AdjustmentFuel        AdjustmentKind = "fuel-fee"
	AdjustmentOther       AdjustmentKind = "other-fee"
)

// Adjustment is a signed amount added to (positive) or deducted from
// (negative) a technician's pay.
type Adjustment struct {
	ID           string         `bson:"_id" json:"id"`
	TechnicianID string         `bson:"technician_id" json:"technician_id"`
	Date         time.Time      `bson:"date" json:"date"`
	Amount       money.Cents    `bson:"amount" json:"amount"`
	Kind         AdjustmentKind `bson:"kind" json:"kind"`
	Description  string         `bson:"description,omitempty" json:"description,omitempty"`
	LoanID       string         `bson:"loan_id,omitempty" json:"loan_id,omitempty"`
	RecurringID  string         `bson:"recurring_id,omitempty" json:"recurring_id,omitempty"`
	// Synthetic adjustments are derived each period from a live parent record
	// (recurring deduction, loan, team job) and have no row of their own.
	Synthetic bool `bson:"synthetic,omitempty" json:"synthetic,omitempty"`
}

// RecurringAdjustment materializes into one Adjustment per reporting period
// while active.
type RecurringAdjustment struct {
	ID           string         `bson:"_id" json:"id"`
	TechnicianID string         `bson:"technician_id" json:"technician_id"`
	Amount       money.Cents    `bson:"amount" json:"amount"`
	Kind         AdjustmentKind `bson:"kind,omitempty" json:"kind,omitempty"`
	Description  string         `bson:"description,omitempty" json:"description,omitempty"`
	Active       bool           `bson:"active" json:"active"`
}

// Loan is money advanced to a technician and repaid through payroll.
type Loan struct {
	ID           string      `bson:"_id" json:"id"`
	TechnicianID string      `bson:"technician_id" json:"technician_id"`
	Amount       money.Cents `bson:"amount" json:"amount"`
	Remaining    money.Cents `bson:"remaining" json:"remaining"`
	// Installment is the amount withheld per period; zero means repayments are
	// scheduled by hand as loan-payment adjustments.
	Installment money.Cents `bson:"installment,omitempty" json:"installment,omitempty"`
	Active      bool        `bson:"active" json:"active"`
	Taxable     bool        `bson:"taxable" json:"taxable"`
	Date        time.Time   `bson:"date" json:"date"`
}

// LoanPayment tells the persistence sink how much to take off a loan balance.
type LoanPayment struct {
	LoanID string      `bson:"loan_id" json:"loan_id"`
	Amount money.Cents `bson:"amount" json:"amount"`
}
