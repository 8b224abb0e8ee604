package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/uluru/fbtotp/internal/bridge/entity"
	"github.com/uluru/fbtotp/internal/pkg/goerror"
)

const (
	authzObject = "totp"
	authzAction = "manage"
)

// resolveAccount turns the optional userId of every operation into the
// account it acts on. An empty userId means the session account.
func (s *Usecase) resolveAccount(ctx context.Context, userID string) (*entity.Account, error) {
	current, err := s.host.CurrentAccount(ctx)
	if errors.Is(err, entity.ErrNoCurrentUser) {
		slog.WarnContext(ctx, "no current user resolvable", "account_id", userID)
		return nil, s.mapError(entity.ErrNoCurrentUser)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve current account", "account_id", userID, "error", err)
		return nil, s.mapError(err)
	}

	userID = strings.TrimSpace(userID)
	if userID == "" || userID == current.ID {
		return current, nil
	}

	allowed, err := s.enforcer.Enforce(current.ID, authzObject, authzAction)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check authorization", "account_id", current.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "user id does not match current user", "account_id", current.ID, "target_id", userID)
		return nil, s.mapError(entity.ErrUserMismatch)
	}

	acc, err := s.host.GetAccount(ctx, userID)
	if errors.Is(err, entity.ErrLookupUnsupported) {
		slog.WarnContext(ctx, "host cannot act on other accounts", "account_id", current.ID, "target_id", userID)
		return nil, s.mapError(entity.ErrUserMismatch)
	}
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "target account not found", "account_id", current.ID, "target_id", userID)
		return nil, s.mapError(err)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get target account", "account_id", current.ID, "target_id", userID, "error", err)
		return nil, s.mapError(err)
	}

	return acc, nil
}

// mapError converts host and domain errors into goerror values. Errors that
// are already structured pass through.
func (s *Usecase) mapError(err error) error {
	if _, ok := goerror.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, entity.ErrNoCurrentUser):
		return goerror.NewBusinessCause(err, "No authenticated user", goerror.CodeUnauthorized)
	case errors.Is(err, entity.ErrUserMismatch):
		return goerror.NewBusinessCause(err, "User ID does not match the current user", goerror.CodeForbidden)
	case errors.Is(err, entity.ErrNoPendingEnrollment):
		return goerror.NewBusinessCause(err, "No pending TOTP enrollment", goerror.CodeNotFound)
	case errors.Is(err, entity.ErrAlreadyEnrolled):
		return goerror.NewBusinessCause(err, "A TOTP factor is already enrolled", goerror.CodeConflict)
	case errors.Is(err, goerror.ErrNotFound):
		return goerror.NewBusinessCause(err, "Account not found", goerror.CodeNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return goerror.NewUpstream(err, "Authentication service did not respond")
	default:
		return goerror.NewUpstream(err, "Authentication service error")
	}
}
