package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"window-counter/backend/internal/domain/quote/pdf"
	"window-counter/backend/internal/domain/workspace"
)

// Pinger reports whether the quote store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handlers struct {
	Workspaces *workspace.Registry
	DB         Pinger
	PDF        pdf.Generator
	Log        *zap.Logger

	validate *validator.Validate
}

func New(reg *workspace.Registry, db Pinger, gen pdf.Generator, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		Workspaces: reg,
		DB:         db,
		PDF:        gen,
		Log:        log,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}
