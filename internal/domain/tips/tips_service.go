package tips

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/commhub-api/internal/backend"
	"github.com/FACorreiaa/commhub-api/internal/types"
)

const (
	submissionType  = "user_submission"
	statusPending   = "pending"
	priorityNormal  = "normal"
	unknownLocation = "Unknown"
)

var (
	_ Service        = (*ServiceImpl)(nil)
	_ EditorialQueue = (*backend.Client)(nil)
)

// EditorialQueue accepts tips for review by the editorial team.
type EditorialQueue interface {
	SubmitToEditorialQueue(ctx context.Context, tip types.NewsTip) error
}

// PreferencesProvider supplies the submitter's primary location.
type PreferencesProvider interface {
	GetPreferences(ctx context.Context, userID uuid.UUID) (*types.UserPreferences, error)
}

type Service interface {
	SubmitTip(ctx context.Context, userID uuid.UUID, params types.SubmitTipParams) (*types.NewsTip, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	queue  EditorialQueue
	prefs  PreferencesProvider
	now    func() time.Time
}

func NewTipsService(queue EditorialQueue, prefs PreferencesProvider, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		queue:  queue,
		prefs:  prefs,
		now:    time.Now,
	}
}

// SubmitTip validates a news tip and forwards it to the editorial queue.
// Without an explicit location the submitter's primary city is used.
func (s *ServiceImpl) SubmitTip(ctx context.Context, userID uuid.UUID, params types.SubmitTipParams) (*types.NewsTip, error) {
	ctx, span := otel.Tracer("TipsService").Start(ctx, "SubmitTip", trace.WithAttributes(
		attribute.String("user.id", userID.String()),
		attribute.String("tip.category", params.Category),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "SubmitTip"), slog.String("userID", userID.String()))

	if err := validate(params); err != nil {
		span.SetStatus(codes.Error, "Invalid tip")
		return nil, err
	}

	tip := &types.NewsTip{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		Category:    params.Category,
		Location:    s.tipLocation(ctx, l, userID, params.Location),
		EventDate:   params.EventDate,
		Source:      params.Source,
		ContactInfo: params.ContactInfo,
		Images:      params.Images,
		SubmittedBy: userID,
		Type:        submissionType,
		Status:      statusPending,
		Priority:    priorityNormal,
		SubmittedAt: s.now().UTC(),
	}

	if err := s.queue.SubmitToEditorialQueue(ctx, *tip); err != nil {
		l.ErrorContext(ctx, "Failed to submit news tip", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to submit news tip")
		return nil, fmt.Errorf("error submitting news tip: %w", err)
	}

	l.InfoContext(ctx, "News tip submitted", slog.String("tipID", tip.ID.String()), slog.String("location", tip.Location))
	span.SetAttributes(attribute.String("tip.id", tip.ID.String()))
	span.SetStatus(codes.Ok, "News tip submitted")
	return tip, nil
}

func (s *ServiceImpl) tipLocation(ctx context.Context, l *slog.Logger, userID uuid.UUID, explicit string) string {
	if loc := strings.TrimSpace(explicit); loc != "" {
		return loc
	}
	prefs, err := s.prefs.GetPreferences(ctx, userID)
	if err != nil {
		l.WarnContext(ctx, "Could not resolve primary location for tip", slog.Any("error", err))
		return unknownLocation
	}
	if prefs == nil || prefs.PrimaryLocation == nil || prefs.PrimaryLocation.City == "" {
		return unknownLocation
	}
	return prefs.PrimaryLocation.City
}

func validate(params types.SubmitTipParams) error {
	if strings.TrimSpace(params.Title) == "" {
		return fmt.Errorf("%w: title is required", types.ErrInvalidInput)
	}
	if strings.TrimSpace(params.Description) == "" {
		return fmt.Errorf("%w: description is required", types.ErrInvalidInput)
	}
	if !slices.Contains(types.TipCategories, params.Category) {
		return fmt.Errorf("%w: unknown category %q", types.ErrInvalidInput, params.Category)
	}
	return nil
}
