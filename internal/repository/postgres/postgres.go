package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/scms/clinic-api/internal/repository"
)

type userRepository struct {
	BaseRepository
}

type slotRepository struct {
	BaseRepository
}

type referralRepository struct {
	BaseRepository
}

type recordRepository struct {
	BaseRepository
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{NewBaseRepository(db)}
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{NewBaseRepository(db)}
}

func NewReferralRepository(db *sqlx.DB) repository.ReferralRepository {
	return &referralRepository{NewBaseRepository(db)}
}

func NewRecordRepository(db *sqlx.DB) repository.RecordRepository {
	return &recordRepository{NewBaseRepository(db)}
}
