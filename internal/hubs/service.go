package hubs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/agrimandi/agrimandi-backend/pkg/config"
	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
	pkgerrors "github.com/agrimandi/agrimandi-backend/pkg/errors"
	"github.com/agrimandi/agrimandi-backend/pkg/logger"
	"github.com/agrimandi/agrimandi-backend/pkg/mail"
	"github.com/agrimandi/agrimandi-backend/pkg/metrics"
	"github.com/agrimandi/agrimandi-backend/pkg/pagination"
	"github.com/agrimandi/agrimandi-backend/pkg/security"
)

const (
	arrivalResultSuccess = "success"
	arrivalResultExpired = "expired"
	arrivalResultFailure = "failure"
)

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Notifier reports confirmed arrivals. The returned error says whether the
// customer email actually went out; in-app delivery stays best effort.
type Notifier interface {
	ArrivalConfirmed(ctx context.Context, notice ArrivalNotice) error
}

// Service covers hub management and the arrival confirmation workflow.
type Service interface {
	CreateHub(ctx context.Context, input CreateHubInput) (*models.Hub, error)
	ListHubs(ctx context.Context, params pagination.Params) (*HubList, error)
	ListActivities(ctx context.Context, actorRole enums.UserRole, filters ActivityFilters, params pagination.Params) (*ActivityList, error)
	ListFarmerActivities(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*ActivityList, error)
	GenerateArrivalOTP(ctx context.Context, input GenerateOTPInput) error
	VerifyArrival(ctx context.Context, input VerifyArrivalInput) (*models.HubActivity, error)
}

// ServiceParams bundles the dependencies required to build a hubs service.
type ServiceParams struct {
	Repo     Repository
	Users    userFinder
	Mailer   mail.Sender
	Notifier Notifier
	Logger   *logger.Logger
	Metrics  *metrics.MarketplaceMetrics
	OTP      config.OTPConfig
}

type service struct {
	repo     Repository
	users    userFinder
	mailer   mail.Sender
	notifier Notifier
	logg     *logger.Logger
	metrics  *metrics.MarketplaceMetrics
	otpTTL   time.Duration
}

// NewService builds a hubs service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("hubs repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user finder required")
	}
	if params.Mailer == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.OTP.HubArrivalTTL <= 0 {
		return nil, fmt.Errorf("hub arrival otp ttl must be positive")
	}
	return &service{
		repo:     params.Repo,
		users:    params.Users,
		mailer:   params.Mailer,
		notifier: params.Notifier,
		logg:     params.Logger,
		metrics:  params.Metrics,
		otpTTL:   params.OTP.HubArrivalTTL,
	}, nil
}

func (s *service) CreateHub(ctx context.Context, input CreateHubInput) (*models.Hub, error) {
	if input.ActorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins manage hubs")
	}
	if strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.State) == "" || strings.TrimSpace(input.District) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name, state, and district are required")
	}
	hub := &models.Hub{
		Name:      strings.TrimSpace(input.Name),
		State:     strings.TrimSpace(input.State),
		District:  strings.TrimSpace(input.District),
		ManagerID: input.ManagerID,
	}
	if _, err := s.repo.CreateHub(ctx, hub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create hub")
	}
	return hub, nil
}

func (s *service) ListHubs(ctx context.Context, params pagination.Params) (*HubList, error) {
	hubs, next, err := s.repo.ListHubs(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list hubs")
	}
	list := &HubList{Hubs: hubs}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

func (s *service) ListActivities(ctx context.Context, actorRole enums.UserRole, filters ActivityFilters, params pagination.Params) (*ActivityList, error) {
	if actorRole != enums.UserRoleHubManager && actorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only hub managers and admins list hub activity")
	}
	return s.listActivities(ctx, filters, params)
}

func (s *service) ListFarmerActivities(ctx context.Context, farmerID uuid.UUID, params pagination.Params) (*ActivityList, error) {
	if farmerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "farmer id required")
	}
	return s.listActivities(ctx, ActivityFilters{FarmerID: &farmerID}, params)
}

func (s *service) listActivities(ctx context.Context, filters ActivityFilters, params pagination.Params) (*ActivityList, error) {
	activities, next, err := s.repo.ListActivities(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list hub activities")
	}
	list := &ActivityList{Activities: activities}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}

// GenerateArrivalOTP issues a fresh challenge on an unconfirmed custody record
// and emails it to the farmer. Re-issuing replaces any outstanding code. A code
// that cannot be delivered fails the whole operation; the challenge stays
// stored and the next generation replaces it.
func (s *service) GenerateArrivalOTP(ctx context.Context, input GenerateOTPInput) error {
	activity, err := s.loadActivity(ctx, input.ActivityID)
	if err != nil {
		return err
	}
	if !canIssueArrivalCode(input.ActorID, input.ActorRole, activity) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only hub staff or the record's farmer issue arrival codes")
	}
	if activity.HubArrivalConfirmed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "arrival already confirmed")
	}

	code, err := security.GenerateOTP()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate code")
	}
	expiresAt := time.Now().UTC().Add(s.otpTTL)
	if err := s.repo.SetArrivalOTP(ctx, activity.ID, code, expiresAt); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store arrival code")
	}

	return s.emailArrivalCode(ctx, activity, code)
}

func canIssueArrivalCode(actorID uuid.UUID, role enums.UserRole, activity *models.HubActivity) bool {
	switch role {
	case enums.UserRoleHubManager, enums.UserRoleAdmin:
		return true
	case enums.UserRoleFarmer:
		return actorID == activity.FarmerID
	default:
		return false
	}
}

func (s *service) VerifyArrival(ctx context.Context, input VerifyArrivalInput) (*models.HubActivity, error) {
	if input.ActorRole != enums.UserRoleHubManager && input.ActorRole != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only hub managers and admins confirm arrivals")
	}
	code := strings.TrimSpace(input.Code)

	activity, err := s.loadActivity(ctx, input.ActivityID)
	if err != nil {
		return nil, err
	}
	if activity.HubArrivalConfirmed {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "arrival already confirmed")
	}
	if activity.OTPCode == nil || activity.OTPExpiresAt == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no arrival code outstanding")
	}

	now := time.Now().UTC()
	if now.After(*activity.OTPExpiresAt) {
		s.metrics.IncHubArrival(arrivalResultExpired)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "code expired, request a new one")
	}
	if *activity.OTPCode != code {
		s.metrics.IncHubArrival(arrivalResultFailure)
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid code")
	}

	won, err := s.repo.ConfirmArrival(ctx, activity.ID, code, input.ActorID, now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm arrival")
	}
	if !won {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "arrival already confirmed")
	}

	activity.HubArrivalConfirmed = true
	activity.OTPCode = nil
	activity.OTPExpiresAt = nil
	activity.ConfirmedAt = &now
	confirmedBy := input.ActorID
	activity.ConfirmedBy = &confirmedBy

	s.metrics.IncHubArrival(arrivalResultSuccess)
	if s.notifier != nil {
		// the notified flag tracks actual email delivery, not the attempt
		if err := s.notifier.ArrivalConfirmed(ctx, ArrivalNotice{
			ActivityID:  activity.ID,
			OrderID:     activity.OrderID,
			CustomerID:  activity.CustomerID,
			FarmerID:    activity.FarmerID,
			ProductName: activity.ProductName,
			NearestHub:  activity.NearestHub,
		}); err != nil {
			s.logg.Error(ctx, "deliver arrival email", err)
		} else if err := s.repo.MarkCustomerNotified(ctx, activity.ID); err != nil {
			s.logg.Error(ctx, "mark customer notified", err)
		} else {
			activity.CustomerNotified = true
		}
	}
	return activity, nil
}

func (s *service) emailArrivalCode(ctx context.Context, activity *models.HubActivity, code string) error {
	farmer, err := s.users.FindByID(ctx, activity.FarmerID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load farmer for arrival code")
	}
	subject, body := mail.HubArrivalOTPBody(farmer.Name, activity.ProductName, code, int(s.otpTTL.Minutes()))
	if err := s.mailer.Send(ctx, farmer.Email, subject, body); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deliver arrival code")
	}
	return nil
}

func (s *service) loadActivity(ctx context.Context, id uuid.UUID) (*models.HubActivity, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "activity id required")
	}
	activity, err := s.repo.FindActivityByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "hub activity not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load hub activity")
	}
	return activity, nil
}
