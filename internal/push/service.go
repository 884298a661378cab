package push

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dmagan/asadmindset-admin/pkg/db/models"
	"github.com/dmagan/asadmindset-admin/pkg/enums"
	pkgerrors "github.com/dmagan/asadmindset-admin/pkg/errors"
	"github.com/dmagan/asadmindset-admin/pkg/logger"
)

// Sender delivers one message to one device token.
type Sender interface {
	Send(ctx context.Context, token string, msg Message) error
}

// Service manages device tokens and fans messages out to a user's devices.
type Service interface {
	Register(ctx context.Context, userID uuid.UUID, token, platform string) (*models.DeviceToken, error)
	Unregister(ctx context.Context, userID uuid.UUID, token string) error
	SendToUser(ctx context.Context, userID uuid.UUID, msg Message)
}

// ServiceParams groups dependencies for the push service.
type ServiceParams struct {
	Repo             Repository
	Sender           Sender
	Logger           *logger.Logger
	MaxTokensPerUser int
}

type service struct {
	repo      Repository
	sender    Sender
	logg      *logger.Logger
	maxTokens int
}

// NewService builds a push service. A nil sender disables delivery but keeps
// token bookkeeping working.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device token repo is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	maxTokens := params.MaxTokensPerUser
	if maxTokens <= 0 {
		maxTokens = 3
	}
	return &service{
		repo:      params.Repo,
		sender:    params.Sender,
		logg:      params.Logger,
		maxTokens: maxTokens,
	}, nil
}

// Register stores a device token for the user. Tokens are globally unique:
// a token seen on another account is reassigned to the caller. A user keeps
// at most maxTokens active devices; the oldest ones are deactivated.
func (s *service) Register(ctx context.Context, userID uuid.UUID, token, platform string) (*models.DeviceToken, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device token is required")
	}

	record, err := s.repo.FindByToken(ctx, token)
	switch {
	case err == nil:
		record.UserID = userID
		record.Platform = enums.ParseDevicePlatform(platform)
		record.IsActive = true
		if err := s.repo.Save(ctx, record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update device token")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = &models.DeviceToken{
			ID:       uuid.New(),
			UserID:   userID,
			Token:    token,
			Platform: enums.ParseDevicePlatform(platform),
			IsActive: true,
		}
		if err := s.repo.Create(ctx, record); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create device token")
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load device token")
	}

	if err := s.repo.DeactivateOldest(ctx, userID, s.maxTokens); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "trim device tokens")
	}
	return record, nil
}

// Unregister removes the caller's token. Unknown tokens are not an error.
func (s *service) Unregister(ctx context.Context, userID uuid.UUID, token string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "device token is required")
	}
	if _, err := s.repo.DeleteByUserAndToken(ctx, userID, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete device token")
	}
	return nil
}

// SendToUser delivers the message to every active device the user has.
// Delivery is best effort: failures are logged, dead tokens deactivated,
// and nothing propagates to the caller.
func (s *service) SendToUser(ctx context.Context, userID uuid.UUID, msg Message) {
	if s.sender == nil || userID == uuid.Nil {
		return
	}

	tokens, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "user_id", userID.String()), "listing device tokens failed", err)
		return
	}

	for _, record := range tokens {
		err := s.sender.Send(ctx, record.Token, msg)
		if err == nil {
			continue
		}
		logCtx := s.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "platform": record.Platform.String()})
		if errors.Is(err, ErrTokenInvalid) {
			if dErr := s.repo.DeactivateToken(ctx, record.Token); dErr != nil {
				s.logg.Error(logCtx, "deactivating dead device token failed", dErr)
			} else {
				s.logg.Info(logCtx, "deactivated dead device token")
			}
			continue
		}
		s.logg.Error(logCtx, "push delivery failed", err)
	}
}
