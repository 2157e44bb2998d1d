package models

import "testing"

func TestCanJobTransition(t *testing.T) {
	allowed := [][2]string{
		{JobStatusDraft, JobStatusPublished},
		{JobStatusDraft, JobStatusCanceled},
		{JobStatusPublished, JobStatusPaused},
		{JobStatusPublished, JobStatusCanceled},
		{JobStatusPublished, JobStatusClosed},
		{JobStatusPaused, JobStatusPublished},
		{JobStatusPaused, JobStatusInReview},
		{JobStatusPaused, JobStatusCanceled},
		{JobStatusInReview, JobStatusPaused},
		{JobStatusInReview, JobStatusCompleted},
		{JobStatusInReview, JobStatusCanceled},
	}
	for _, tr := range allowed {
		if !CanJobTransition(tr[0], tr[1]) {
			t.Errorf("переход %s -> %s должен быть разрешён", tr[0], tr[1])
		}
	}

	forbidden := [][2]string{
		{JobStatusDraft, JobStatusInReview},
		{JobStatusDraft, JobStatusCompleted},
		{JobStatusPublished, JobStatusCompleted},
		{JobStatusCompleted, JobStatusPublished},
		{JobStatusCanceled, JobStatusDraft},
		{JobStatusClosed, JobStatusPublished},
		{"UNKNOWN", JobStatusPublished},
	}
	for _, tr := range forbidden {
		if CanJobTransition(tr[0], tr[1]) {
			t.Errorf("переход %s -> %s должен быть запрещён", tr[0], tr[1])
		}
	}
}

func TestCanEscrowTransition(t *testing.T) {
	if !CanEscrowTransition(EscrowStatusUnfunded, EscrowStatusFunded) {
		t.Error("UNFUNDED -> FUNDED должен быть разрешён")
	}
	if !CanEscrowTransition(EscrowStatusFunded, EscrowStatusReleased) {
		t.Error("FUNDED -> RELEASED должен быть разрешён")
	}
	if !CanEscrowTransition(EscrowStatusFunded, EscrowStatusRefunded) {
		t.Error("FUNDED -> REFUNDED должен быть разрешён")
	}

	// RELEASED и REFUNDED терминальны.
	for _, from := range []string{EscrowStatusReleased, EscrowStatusRefunded} {
		for _, to := range []string{EscrowStatusUnfunded, EscrowStatusFunded, EscrowStatusReleased, EscrowStatusRefunded} {
			if CanEscrowTransition(from, to) {
				t.Errorf("переход %s -> %s должен быть запрещён", from, to)
			}
		}
	}

	if CanEscrowTransition(EscrowStatusUnfunded, EscrowStatusReleased) {
		t.Error("выплата без финансирования должна быть запрещена")
	}
	if CanEscrowTransition(EscrowStatusUnfunded, EscrowStatusRefunded) {
		t.Error("возврат без финансирования должен быть запрещён")
	}
}

func TestCanPayoutTransition(t *testing.T) {
	for _, to := range []string{PayoutStatusApproved, PayoutStatusRejected, PayoutStatusCanceled} {
		if !CanPayoutTransition(PayoutStatusPending, to) {
			t.Errorf("PENDING -> %s должен быть разрешён", to)
		}
	}
	for _, from := range []string{PayoutStatusApproved, PayoutStatusRejected, PayoutStatusCanceled} {
		if CanPayoutTransition(from, PayoutStatusPending) {
			t.Errorf("%s -> PENDING должен быть запрещён", from)
		}
	}
}

func TestIsJobTerminal(t *testing.T) {
	for _, status := range []string{JobStatusCompleted, JobStatusCanceled, JobStatusClosed} {
		if !IsJobTerminal(status) {
			t.Errorf("статус %s должен быть терминальным", status)
		}
	}
	for _, status := range []string{JobStatusDraft, JobStatusPublished, JobStatusPaused, JobStatusInReview} {
		if IsJobTerminal(status) {
			t.Errorf("статус %s не должен быть терминальным", status)
		}
	}
	if IsJobTerminal("UNKNOWN") {
		t.Error("неизвестный статус не считается терминальным")
	}
}
