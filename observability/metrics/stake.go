package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type StakeMetrics struct {
	lockedShares prometheus.Gauge
	rewardsPaid  prometheus.Counter
	flashLoans   prometheus.Counter
}

var (
	stakeOnce     sync.Once
	stakeRegistry *StakeMetrics
)

func Stake() *StakeMetrics {
	stakeOnce.Do(func() {
		stakeRegistry = &StakeMetrics{
			lockedShares: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stake_locked_shares",
				Help: "Shares currently locked in the stake pool.",
			}),
			rewardsPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stake_rewards_paid_wei_total",
				Help: "Cumulative native-currency rewards paid at unlock.",
			}),
			flashLoans: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "stake_flash_loans_total",
				Help: "Count of completed share flash loans.",
			}),
		}
		prometheus.MustRegister(
			stakeRegistry.lockedShares,
			stakeRegistry.rewardsPaid,
			stakeRegistry.flashLoans,
		)
	})
	return stakeRegistry
}

func (m *StakeMetrics) SetLockedShares(total *big.Int) {
	if m == nil || total == nil {
		return
	}
	m.lockedShares.Set(bigToFloat(total))
}

func (m *StakeMetrics) ObserveRewardPaid(reward *big.Int) {
	if m == nil || reward == nil {
		return
	}
	m.rewardsPaid.Add(bigToFloat(reward))
}

func (m *StakeMetrics) ObserveFlashLoan() {
	if m == nil {
		return
	}
	m.flashLoans.Inc()
}
