package hubs

import (
	"github.com/google/uuid"

	"github.com/agrimandi/agrimandi-backend/pkg/db/models"
	"github.com/agrimandi/agrimandi-backend/pkg/enums"
)

// CreateHubInput registers a new regional hub.
type CreateHubInput struct {
	ActorRole enums.UserRole
	Name      string     `json:"name" validate:"required"`
	State     string     `json:"state" validate:"required"`
	District  string     `json:"district" validate:"required"`
	ManagerID *uuid.UUID `json:"manager_id,omitempty"`
}

// GenerateOTPInput asks for an arrival challenge on one custody record.
type GenerateOTPInput struct {
	ActivityID uuid.UUID
	ActorID    uuid.UUID
	ActorRole  enums.UserRole
}

// VerifyArrivalInput carries the code the farmer presents at the hub gate.
type VerifyArrivalInput struct {
	ActivityID uuid.UUID
	Code       string `json:"code" validate:"required"`
	ActorID    uuid.UUID
	ActorRole  enums.UserRole
}

// ArrivalNotice reports a confirmed hub arrival for notification fan-out.
type ArrivalNotice struct {
	ActivityID  uuid.UUID
	OrderID     uuid.UUID
	CustomerID  uuid.UUID
	FarmerID    uuid.UUID
	ProductName string
	NearestHub  string
}

// ActivityList is one page of custody records plus the next-page cursor.
type ActivityList struct {
	Activities []models.HubActivity
	NextCursor string
}

// HubList is one page of hubs plus the next-page cursor.
type HubList struct {
	Hubs       []models.Hub
	NextCursor string
}
