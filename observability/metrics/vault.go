package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type VaultMetrics struct {
	deposits          *prometheus.CounterVec
	withdrawals       prometheus.Counter
	flashLoanFees     prometheus.Counter
	totalTrackedValue prometheus.Gauge
	totalShares       prometheus.Gauge
}

var (
	vaultOnce     sync.Once
	vaultRegistry *VaultMetrics
)

func Vault() *VaultMetrics {
	vaultOnce.Do(func() {
		vaultRegistry = &VaultMetrics{
			deposits: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "vault_deposits_total",
				Help: "Count of completed deposits by valuation mode.",
			}, []string{"mode"}),
			withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vault_withdrawals_total",
				Help: "Count of completed withdrawals.",
			}),
			flashLoanFees: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "vault_flash_loan_fees_wei_total",
				Help: "Cumulative flash-loan fees collected in reference-asset wei.",
			}),
			totalTrackedValue: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vault_total_tracked_value_wei",
				Help: "Reference-asset value currently represented by outstanding shares.",
			}),
			totalShares: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "vault_total_shares",
				Help: "Outstanding share supply including bootstrap dust.",
			}),
		}
		prometheus.MustRegister(
			vaultRegistry.deposits,
			vaultRegistry.withdrawals,
			vaultRegistry.flashLoanFees,
			vaultRegistry.totalTrackedValue,
			vaultRegistry.totalShares,
		)
	})
	return vaultRegistry
}

func (m *VaultMetrics) ObserveDeposit(mode string) {
	if m == nil {
		return
	}
	if mode == "" {
		mode = "unknown"
	}
	m.deposits.WithLabelValues(mode).Inc()
}

func (m *VaultMetrics) ObserveWithdrawal() {
	if m == nil {
		return
	}
	m.withdrawals.Inc()
}

func (m *VaultMetrics) ObserveFlashLoanFee(fee *big.Int) {
	if m == nil || fee == nil {
		return
	}
	m.flashLoanFees.Add(bigToFloat(fee))
}

func (m *VaultMetrics) SetTotals(trackedValue, shares *big.Int) {
	if m == nil {
		return
	}
	if trackedValue != nil {
		m.totalTrackedValue.Set(bigToFloat(trackedValue))
	}
	if shares != nil {
		m.totalShares.Set(bigToFloat(shares))
	}
}

func bigToFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
