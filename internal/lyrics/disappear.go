package lyrics

import "sync"

// animation timing shared with the renderer, durations in milliseconds
type AnimationConfig struct {
	EnterDuration        int     `json:"enterDuration" yaml:"enter_duration"`
	MoveDuration         int     `json:"moveDuration" yaml:"move_duration"`
	ExitDuration         int     `json:"exitDuration" yaml:"exit_duration"`
	PlaceholderDuration  int     `json:"placeholderDuration" yaml:"placeholder_duration"`
	LineDisplayOffset    float64 `json:"lineDisplayOffset" yaml:"line_display_offset"`
	UseComputedDisappear bool    `json:"useComputedDisappear" yaml:"use_computed_disappear"`
}

func DefaultAnimationConfig() AnimationConfig {
	return AnimationConfig{
		EnterDuration:        500,
		MoveDuration:         500,
		ExitDuration:         500,
		PlaceholderDuration:  50,
		LineDisplayOffset:    0.7,
		UseComputedDisappear: false,
	}
}

// partial update, nil fields are left untouched
type AnimationPatch struct {
	EnterDuration        *int     `json:"enterDuration,omitempty"`
	MoveDuration         *int     `json:"moveDuration,omitempty"`
	ExitDuration         *int     `json:"exitDuration,omitempty"`
	PlaceholderDuration  *int     `json:"placeholderDuration,omitempty"`
	LineDisplayOffset    *float64 `json:"lineDisplayOffset,omitempty"`
	UseComputedDisappear *bool    `json:"useComputedDisappear,omitempty"`
}

func (c AnimationConfig) exitBuffer() int {
	return max(0, c.ExitDuration)
}

// hide-at timestamp of a single line
func DisappearTime(line Line, cfg AnimationConfig) int {
	base := line.End()
	if cfg.UseComputedDisappear {
		return base + cfg.exitBuffer()
	}
	return base
}

// computes disappear times under a process-wide, runtime-mutable config
type Calculator struct {
	mu  sync.RWMutex
	cfg AnimationConfig
}

func NewCalculator(cfg AnimationConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

func (c *Calculator) Config() AnimationConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

// applies the valid fields of p and returns the resulting config.
// negative durations and offsets outside [0,1] are ignored
func (c *Calculator) Update(p AnimationPatch) AnimationConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	setDuration := func(dst *int, v *int) {
		if v != nil && *v >= 0 {
			*dst = *v
		}
	}
	setDuration(&c.cfg.EnterDuration, p.EnterDuration)
	setDuration(&c.cfg.MoveDuration, p.MoveDuration)
	setDuration(&c.cfg.ExitDuration, p.ExitDuration)
	setDuration(&c.cfg.PlaceholderDuration, p.PlaceholderDuration)

	if p.LineDisplayOffset != nil && *p.LineDisplayOffset >= 0 && *p.LineDisplayOffset <= 1 {
		c.cfg.LineDisplayOffset = *p.LineDisplayOffset
	}
	if p.UseComputedDisappear != nil {
		c.cfg.UseComputedDisappear = *p.UseComputedDisappear
	}
	return c.cfg
}

// fills DisappearTime on every line in place and returns the same slice
func (c *Calculator) Apply(lines []Line) []Line {
	cfg := c.Config()
	for i := range lines {
		lines[i].DisappearTime = DisappearTime(lines[i], cfg)
	}
	return lines
}
