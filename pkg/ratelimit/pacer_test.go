package ratelimit

import (
	"context"
	"math"
	"testing"
	"time"
)

func TestNewPacer_Disabled(t *testing.T) {
	p := NewPacer(0)
	if !math.IsInf(p.Limit(), 1) {
		t.Errorf("Limit() = %v, want +Inf", p.Limit())
	}

	ctx := context.Background()
	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("disabled pacer should not delay")
	}
}

func TestPacer_SpacesRequests(t *testing.T) {
	p := NewPacer(20)
	ctx := context.Background()

	// Burst of 20 is immediate, the next 10 need ~500ms at 20/s.
	start := time.Now()
	for i := 0; i < 30; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 400*time.Millisecond {
		t.Errorf("elapsed = %v, expected pacing delay", elapsed)
	}
}

func TestPacer_ContextCancelled(t *testing.T) {
	p := NewPacer(1)
	ctx, cancel := context.WithCancel(context.Background())

	if err := p.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("Wait() should fail on cancelled context")
	}
}

func TestPacer_Nil(t *testing.T) {
	var p *Pacer
	if err := p.Wait(context.Background()); err != nil {
		t.Errorf("nil pacer Wait() error = %v", err)
	}
}
