package intake

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	pkgerrors "github.com/yungbote/relocation-intake/internal/pkg/errors"
)

// IntakeCase is the persisted row for one case. State holds the full CaseState document;
// the round columns mirror its meta so cases can be listed without decoding.
type IntakeCase struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_user_id"`
	CurrentRound int            `gorm:"column:current_round;not null" json:"current_round"`
	MaxRounds    int            `gorm:"column:max_rounds;not null" json:"max_rounds"`
	IsComplete   bool           `gorm:"column:is_complete;not null;index" json:"is_complete"`
	State        datatypes.JSON `gorm:"column:state;type:jsonb;not null" json:"state"`
	CreatedAt    time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null;index" json:"updated_at"`
}

func (IntakeCase) TableName() string { return "intake_case" }

// NewRecord encodes s for storage under owner.
func NewRecord(owner uuid.UUID, s CaseState) (*IntakeCase, error) {
	raw, err := EncodeState(s)
	if err != nil {
		return nil, fmt.Errorf("encode case state: %w", err)
	}
	return &IntakeCase{
		ID:           s.Meta.CaseID,
		OwnerUserID:  owner,
		CurrentRound: s.Meta.CurrentRound,
		MaxRounds:    s.Meta.MaxRounds,
		IsComplete:   s.Meta.IsComplete,
		State:        datatypes.JSON(raw),
		CreatedAt:    s.Meta.CreatedAt,
		UpdatedAt:    s.Meta.UpdatedAt,
	}, nil
}

// Decode validates the stored document and checks it belongs to this row.
func (r *IntakeCase) Decode() (CaseState, error) {
	if r == nil {
		return CaseState{}, pkgerrors.ErrNotFound
	}
	s, err := DecodeState(r.State)
	if err != nil {
		return CaseState{}, fmt.Errorf("case %s: %w", r.ID, err)
	}
	if s.Meta.CaseID != r.ID {
		return CaseState{}, fmt.Errorf("%w: case %s holds document for %s", pkgerrors.ErrCorruptState, r.ID, s.Meta.CaseID)
	}
	return s, nil
}
