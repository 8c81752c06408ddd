package service

import (
	"github.com/shopspring/decimal"

	"galangdana_backend/internals/features/withdrawals/withdrawals/model"
)

// MinimumWithdrawal dalam satuan rupiah.
const MinimumWithdrawal int64 = 10_000

type feeRule struct {
	rate  decimal.Decimal
	fixed int64
}

var feeSchedule = map[model.WithdrawalMethod]feeRule{
	model.WithdrawalMethodBankTransfer:        {rate: decimal.RequireFromString("0.005"), fixed: 2_500},
	model.WithdrawalMethodGatewayDisbursement: {rate: decimal.RequireFromString("0.003"), fixed: 5_000},
	model.WithdrawalMethodManual:              {rate: decimal.RequireFromString("0.01"), fixed: 0},
}

// fee tidak pernah lebih dari 2% nominal
var feeCapRate = decimal.RequireFromString("0.02")

// CalculateFee = min(floor(amount*rate)+fixed, floor(amount*2%)); net = amount - fee.
func CalculateFee(amount int64, method model.WithdrawalMethod) (fee int64, net int64) {
	if amount <= 0 {
		return 0, amount
	}
	rule, ok := feeSchedule[method]
	if !ok {
		rule = feeSchedule[model.WithdrawalMethodBankTransfer]
	}
	a := decimal.NewFromInt(amount)
	fee = a.Mul(rule.rate).Floor().IntPart() + rule.fixed

	if limit := a.Mul(feeCapRate).Floor().IntPart(); fee > limit {
		fee = limit
	}
	return fee, amount - fee
}
