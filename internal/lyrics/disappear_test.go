package lyrics

import (
	"sync"
	"testing"
)

func TestCalculatorApply(t *testing.T) {
	lines := ParseLYS("[1]Hel(0,200)lo(200,300) wor(500,150)ld(650,200)\n[1]next(1000,500)")

	tests := []struct {
		name     string
		computed bool
		exit     int
		want     []int
	}{
		{name: "raw end", computed: false, exit: 500, want: []int{850, 1500}},
		{name: "computed adds exit buffer", computed: true, exit: 300, want: []int{1150, 1800}},
		{name: "negative exit is clamped", computed: true, exit: -40, want: []int{850, 1500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAnimationConfig()
			cfg.UseComputedDisappear = tt.computed
			cfg.ExitDuration = tt.exit
			calc := NewCalculator(cfg)

			got := calc.Apply(append([]Line(nil), lines...))
			for i, want := range tt.want {
				if got[i].DisappearTime != want {
					t.Errorf("line %d: expected %d, got %d", i, want, got[i].DisappearTime)
				}
				if got[i].DisappearTime < got[i].End() {
					t.Errorf("line %d: disappear %d before end %d", i, got[i].DisappearTime, got[i].End())
				}
			}
		})
	}
}

func TestDisappearTimeEmptyLine(t *testing.T) {
	cfg := DefaultAnimationConfig()
	cfg.UseComputedDisappear = true
	if got := DisappearTime(Line{}, cfg); got != 500 {
		t.Errorf("expected 500 for empty line, got %d", got)
	}
}

func TestDisappearTimeIgnoresPlaceholderDuration(t *testing.T) {
	line := Line{Syllables: []Syllable{{Text: "a", StartTime: 1000, Duration: 400}}}
	cfg := DefaultAnimationConfig()
	cfg.UseComputedDisappear = true

	want := DisappearTime(line, cfg)
	cfg.PlaceholderDuration = 5000
	if got := DisappearTime(line, cfg); got != want {
		t.Errorf("expected placeholder duration to leave %d unchanged, got %d", want, got)
	}
}

func TestCalculatorUpdateIgnoresInvalid(t *testing.T) {
	calc := NewCalculator(DefaultAnimationConfig())

	neg := -1
	exit := 800
	badOffset := 1.5
	on := true
	cfg := calc.Update(AnimationPatch{
		EnterDuration:        &neg,
		ExitDuration:         &exit,
		LineDisplayOffset:    &badOffset,
		UseComputedDisappear: &on,
	})

	if cfg.EnterDuration != 500 {
		t.Errorf("expected enter duration untouched, got %d", cfg.EnterDuration)
	}
	if cfg.ExitDuration != 800 {
		t.Errorf("expected exit duration 800, got %d", cfg.ExitDuration)
	}
	if cfg.LineDisplayOffset != 0.7 {
		t.Errorf("expected offset untouched, got %v", cfg.LineDisplayOffset)
	}
	if !cfg.UseComputedDisappear {
		t.Error("expected computed disappear enabled")
	}
	if calc.Config() != cfg {
		t.Error("expected Config to reflect the update")
	}
}

func TestCalculatorConcurrentAccess(t *testing.T) {
	calc := NewCalculator(DefaultAnimationConfig())
	lines := ParseLYS("[1]a(0,100)")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(v int) {
			defer wg.Done()
			calc.Update(AnimationPatch{ExitDuration: &v})
		}(i)
		go func() {
			defer wg.Done()
			calc.Apply(append([]Line(nil), lines...))
		}()
	}
	wg.Wait()
}
