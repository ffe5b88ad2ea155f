// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pager

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sassoftware/pdf-pager/logger"
)

// Config tunes a viewer session. Buffers are page counts; VisibleMargin is a
// fraction of the viewport height.
type Config struct {
	InitialScale float64 `validate:"gtefield=MinScale,ltefield=MaxScale"`
	MinScale     float64 `validate:"gt=0"`
	MaxScale     float64 `validate:"gtfield=MinScale"`
	ScaleEpsilon float64 `validate:"gte=0,lt=1"`

	RenderBuffer  int     `validate:"min=0,max=20"`
	UnloadBuffer  int     `validate:"gtfield=RenderBuffer,max=50"`
	VisibleMargin float64 `validate:"gte=0,lte=2"`
	InitialPages  int     `validate:"min=1,max=20"`

	PageGap    float64 `validate:"gte=0"`
	PageMargin float64 `validate:"gte=0"`

	ScrollDebounce time.Duration `validate:"required"`
	WheelSettle    time.Duration `validate:"required"`
	RenderTimeout  time.Duration `validate:"required"`

	WheelZoomIn  float64 `validate:"gt=1"`
	WheelZoomOut float64 `validate:"gt=0,lt=1"`

	DebugOn bool
	Logger  logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		InitialScale:   1.3,
		MinScale:       0.5,
		MaxScale:       3.0,
		ScaleEpsilon:   0.01,
		RenderBuffer:   2,
		UnloadBuffer:   5,
		VisibleMargin:  0.5,
		InitialPages:   3,
		PageGap:        20,
		PageMargin:     10,
		ScrollDebounce: 100 * time.Millisecond,
		WheelSettle:    300 * time.Millisecond,
		RenderTimeout:  10 * time.Second,
		WheelZoomIn:    1.1,
		WheelZoomOut:   0.9,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}

// ClampScale bounds s to [MinScale, MaxScale]. NaN maps to MinScale.
func (cfg *Config) ClampScale(s float64) float64 {
	if math.IsNaN(s) {
		return cfg.MinScale
	}
	return math.Min(cfg.MaxScale, math.Max(cfg.MinScale, s))
}
