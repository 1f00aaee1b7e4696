package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/authflow/internal/authflow/entity"
	"github.com/shandysiswandi/authflow/internal/pkg/goerror"
)

var errEmailTemplate = errors.New("email template must contain exactly one %d verb")

// NewIdentity builds the throwaway account for this run. The email gets a
// random numeric suffix so repeated runs rarely collide on the server.
func (s *Usecase) NewIdentity(ctx context.Context) (entity.Identity, error) {
	_, span := s.startSpan(ctx, "NewIdentity")
	defer span.End()

	tmpl := s.cfg.GetString("identity.email_template")
	if strings.Count(tmpl, "%") != 1 || strings.Count(tmpl, "%d") != 1 {
		return entity.Identity{}, goerror.NewConfig(errEmailTemplate, "invalid identity.email_template")
	}

	id := entity.Identity{
		Email:    strings.ToLower(fmt.Sprintf(tmpl, s.suffix.Generate())),
		Phone:    strings.TrimSpace(s.cfg.GetString("identity.phone")),
		Password: s.cfg.GetString("identity.password"),
		Name:     strings.TrimSpace(s.cfg.GetString("identity.name")),
		Type:     strings.TrimSpace(s.cfg.GetString("identity.type")),
	}

	if err := s.validator.Validate(id); err != nil {
		slog.ErrorContext(ctx, "generated identity is invalid", "error", err)
		return entity.Identity{}, goerror.NewConfig(err, "invalid test identity")
	}

	return id, nil
}
