package models

import "testing"

func TestCommissionFor(t *testing.T) {
	tests := []struct {
		name           string
		amount         int64
		bps            int64
		wantCommission int64
		wantNet        int64
	}{
		{"комиссия по умолчанию 15%", 100000, 1500, 15000, 85000},
		{"нулевая комиссия", 100000, 0, 0, 100000},
		{"полная комиссия", 100000, 10000, 100000, 0},
		{"округление вниз", 999, 1500, 149, 850},
		{"одна копейка", 1, 1500, 0, 1},
		{"отрицательные bps зажимаются в ноль", 100000, -500, 0, 100000},
		{"bps выше 10000 зажимаются", 100000, 20000, 100000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commission, net := CommissionFor(tt.amount, tt.bps)
			if commission != tt.wantCommission {
				t.Errorf("commission = %d, ожидалось %d", commission, tt.wantCommission)
			}
			if net != tt.wantNet {
				t.Errorf("creatorNet = %d, ожидалось %d", net, tt.wantNet)
			}
			if commission+net != tt.amount {
				t.Errorf("commission + net = %d, сумма должна сохраняться (%d)", commission+net, tt.amount)
			}
		})
	}
}

func TestCommissionForConservation(t *testing.T) {
	// Сумма частей всегда равна исходной сумме, без потерь на округлении.
	for amount := int64(0); amount <= 10000; amount += 7 {
		for _, bps := range []int64{0, 1, 333, 1500, 9999, 10000} {
			commission, net := CommissionFor(amount, bps)
			if commission+net != amount {
				t.Fatalf("amount=%d bps=%d: commission=%d net=%d, сумма не сходится", amount, bps, commission, net)
			}
			if commission < 0 || net < 0 {
				t.Fatalf("amount=%d bps=%d: отрицательная часть", amount, bps)
			}
		}
	}
}
